package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/analysis"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/classifier"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/collector"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/dedup"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/processor"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/reasoner"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/storage"
)

const logTitleRunes = 60

// Store 流水线依赖的存储能力
type Store interface {
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	InsertArticle(ctx context.Context, a *storage.Article) (bool, error)
}

// Analyzer 文本 → 结论
type Analyzer interface {
	Analyze(ctx context.Context, text string) analysis.Result
}

type Deps struct {
	Source   collector.Source
	Store    Store
	Analyzer Analyzer
	// Reasoner 可选，为 nil 时不生成 ai_reasoning
	Reasoner reasoner.Reasoner
	Workers  int
}

type Pipeline struct {
	source   collector.Source
	store    Store
	gate     *dedup.Gate
	analyzer Analyzer
	reasoner reasoner.Reasoner
	workers  int

	// 同一时刻只允许一轮运行
	runMu sync.Mutex
}

func New(d Deps) *Pipeline {
	workers := d.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		source:   d.Source,
		store:    d.Store,
		gate:     dedup.NewGate(d.Store),
		analyzer: d.Analyzer,
		reasoner: d.Reasoner,
		workers:  workers,
	}
}

// Ingest 拉取一轮候选文章并处理
func (p *Pipeline) Ingest(ctx context.Context) (Report, error) {
	if p.source == nil {
		return Report{}, fmt.Errorf("pipeline: no source configured")
	}
	candidates, err := p.source.Fetch(ctx)
	if err != nil && len(candidates) == 0 {
		return Report{}, fmt.Errorf("fetch candidates: %w", err)
	}
	if err != nil {
		log.Printf("pipeline: partial fetch: %v", err)
	}
	return p.Run(ctx, candidates), nil
}

// Run 处理一批候选文章；并发运行会排队，单条失败不会中断整轮
func (p *Pipeline) Run(ctx context.Context, candidates []collector.Candidate) Report {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	rep := Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Outcomes:  make([]Outcome, len(candidates)),
	}
	log.Printf("pipeline: run %s started, candidates=%d", rep.RunID, len(candidates))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, c := range candidates {
		g.Go(func() error {
			rep.Outcomes[i] = p.process(ctx, c)
			return nil
		})
	}
	_ = g.Wait()

	rep.tally()
	rep.Duration = time.Since(rep.StartedAt)
	log.Printf("pipeline: run %s done: %s", rep.RunID, rep.Summary())
	return rep
}

// process 单条候选的完整处理，所有错误和 panic 都收敛为 Outcome
func (p *Pipeline) process(ctx context.Context, c collector.Candidate) (out Outcome) {
	out.Title = c.Title
	stage := StageValidate

	defer func() {
		if r := recover(); r != nil {
			out = failed(c.Title, stage, fmt.Errorf("panic: %v", r))
		}
		if out.Status == StatusFailed {
			log.Printf("pipeline: %q failed at %s: %v", processor.TruncateRunes(c.Title, logTitleRunes), out.Stage, out.Err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return failed(c.Title, stage, err)
	}

	prepared, err := processor.Prepare(c)
	if err != nil {
		return Outcome{Title: c.Title, Status: StatusSkippedInvalid, Stage: stage, Err: err}
	}
	out.Title = prepared.Title

	// 同标题的 检查→分类→插入 作为一个整体
	_ = p.gate.Guard(prepared.Title, func() error {
		stage = StageDedup
		dup, err := p.gate.IsDuplicate(ctx, prepared.Title)
		if err != nil {
			out = failed(prepared.Title, stage, err)
			return nil
		}
		if dup {
			out = Outcome{Title: prepared.Title, Status: StatusSkippedDuplicate, Stage: stage}
			return nil
		}

		stage = StageClassify
		res := p.analyzer.Analyze(ctx, prepared.Summary)

		stage = StageReason
		reasoning := p.explain(ctx, prepared, res.Verdict)

		stage = StagePersist
		article := toArticle(prepared, res, reasoning)
		inserted, err := p.store.InsertArticle(ctx, article)
		switch {
		case err != nil:
			out = failed(prepared.Title, stage, err)
		case !inserted:
			// 其他进程抢先插入，唯一索引兜底
			out = Outcome{Title: prepared.Title, Status: StatusSkippedDuplicate, Stage: stage}
		default:
			out = Outcome{Title: prepared.Title, Status: StatusPersisted, Stage: stage, Verdict: res.Verdict}
		}
		return nil
	})
	return out
}

func (p *Pipeline) explain(ctx context.Context, c collector.Candidate, v analysis.Verdict) string {
	if p.reasoner == nil {
		return ""
	}
	text, err := p.reasoner.Explain(ctx, c.Summary, v)
	if err != nil {
		log.Printf("pipeline: reasoning for %q: %v", processor.TruncateRunes(c.Title, logTitleRunes), err)
		return ""
	}
	return text
}

func toArticle(c collector.Candidate, res analysis.Result, reasoning string) *storage.Article {
	return &storage.Article{
		Title:            c.Title,
		SourceDomain:     c.SourceDomain,
		SourceURL:        c.SourceURL,
		ContentSummary:   c.Summary,
		Category:         c.Category,
		PublishedAt:      c.PublishedAt,
		Sentiment:        res.Sentiment,
		IsFake:           res.IsFake,
		CredibilityScore: res.CredibilityScore,
		AIReasoning:      reasoning,
		Signals: datatypes.JSONMap{
			"fake_news": signalMap(res.FakeSignal),
			"sentiment": signalMap(res.SentimentSignal),
		},
	}
}

func signalMap(s classifier.Signal) map[string]any {
	m := map[string]any{"status": s.Status.String()}
	if s.Present() {
		m["label"] = s.Label
		m["raw_label"] = s.RawLabel
		m["score"] = s.Score
	}
	return m
}
