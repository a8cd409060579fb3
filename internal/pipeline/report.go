package pipeline

import (
	"fmt"
	"time"

	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/analysis"
)

// Status 单条候选的最终状态
type Status string

const (
	StatusPersisted        Status = "persisted"
	StatusSkippedInvalid   Status = "skipped_invalid"
	StatusSkippedDuplicate Status = "skipped_duplicate"
	StatusFailed           Status = "failed"
)

// Stage 候选最后到达的处理阶段
type Stage string

const (
	StageValidate Stage = "validate"
	StageDedup    Stage = "dedup"
	StageClassify Stage = "classify"
	StageReason   Stage = "reason"
	StagePersist  Stage = "persist"
)

type Outcome struct {
	Title   string
	Status  Status
	Stage   Stage
	Err     error
	Verdict analysis.Verdict
}

func failed(title string, stage Stage, err error) Outcome {
	return Outcome{Title: title, Status: StatusFailed, Stage: stage, Err: err}
}

// Report 一轮运行的汇总，Outcomes 与输入顺序一致
type Report struct {
	RunID      string
	Attempted  int
	Inserted   int
	Duplicates int
	Invalid    int
	Failed     int
	Outcomes   []Outcome
	StartedAt  time.Time
	Duration   time.Duration
}

func (r *Report) tally() {
	r.Attempted = len(r.Outcomes)
	r.Inserted, r.Duplicates, r.Invalid, r.Failed = 0, 0, 0, 0
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusPersisted:
			r.Inserted++
		case StatusSkippedDuplicate:
			r.Duplicates++
		case StatusSkippedInvalid:
			r.Invalid++
		case StatusFailed:
			r.Failed++
		}
	}
}

func (r Report) Summary() string {
	return fmt.Sprintf("%d of %d inserted (duplicates=%d invalid=%d failed=%d, took %s)",
		r.Inserted, r.Attempted, r.Duplicates, r.Invalid, r.Failed, r.Duration.Round(time.Millisecond))
}
