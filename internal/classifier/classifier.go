package classifier

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Status 表示一次分类调用的结果类型
type Status int

// 零值为 StatusUnavailable，未赋值的 Signal 视为缺失
const (
	// StatusUnavailable 模型未加载（整个进程生命周期内不可用）或未调用
	StatusUnavailable Status = iota
	StatusOK
	// StatusFailed 本次推理出错，只影响这一次调用
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusUnavailable:
		return "unavailable"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

var (
	ErrUnavailable     = errors.New("classifier unavailable")
	ErrEmptyPrediction = errors.New("empty prediction")
)

// Signal 是单个分类器的输出；只有 StatusOK 时 Label/Score 有意义
type Signal struct {
	Label    string
	RawLabel string
	Score    float64
	Status   Status
	Err      error
}

// Present 对应“有信号”，其余状态一律视为缺失
func (s Signal) Present() bool {
	return s.Status == StatusOK
}

func unavailableSignal() Signal {
	return Signal{Status: StatusUnavailable, Err: ErrUnavailable}
}

// Prediction 推理服务返回的单个标签
type Prediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Backend 是实际执行推理的黑盒，可以返回错误
type Backend interface {
	Predict(ctx context.Context, text string) ([]Prediction, error)
}

// BackendFunc 让普通函数充当 Backend
type BackendFunc func(ctx context.Context, text string) ([]Prediction, error)

func (f BackendFunc) Predict(ctx context.Context, text string) ([]Prediction, error) {
	return f(ctx, text)
}

// Classifier 对调用方屏蔽一切错误，失败以 Signal.Status 的形式带出
type Classifier interface {
	Name() string
	Classify(ctx context.Context, text string) Signal
}

// Model 把 Backend 与标签适配器组合成 Classifier
type Model struct {
	name      string
	backend   Backend
	adapt     LabelAdapter
	available bool
}

var _ Classifier = (*Model)(nil)

// New 直接构造一个可用的分类器，不做预热
func New(name string, backend Backend, adapt LabelAdapter) *Model {
	return &Model{name: name, backend: backend, adapt: adapt, available: backend != nil}
}

// Disabled 返回一个永久不可用的分类器
func Disabled(name string) *Model {
	return &Model{name: name}
}

func (m *Model) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

// Available 预热是否成功
func (m *Model) Available() bool {
	return m != nil && m.available
}

func (m *Model) Classify(ctx context.Context, text string) (sig Signal) {
	if !m.Available() {
		return unavailableSignal()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("classifier: %s panic: %v", m.name, r)
			sig = Signal{Status: StatusFailed, Err: fmt.Errorf("%s: panic: %v", m.name, r)}
		}
	}()

	preds, err := m.backend.Predict(ctx, text)
	if err != nil {
		log.Printf("classifier: %s inference error: %v", m.name, err)
		return Signal{Status: StatusFailed, Err: fmt.Errorf("%s: %w", m.name, err)}
	}

	best, ok := top(preds)
	if !ok {
		log.Printf("classifier: %s returned no predictions", m.name)
		return Signal{Status: StatusFailed, Err: fmt.Errorf("%s: %w", m.name, ErrEmptyPrediction)}
	}

	label := best.Label
	if m.adapt != nil {
		label = m.adapt(best.Label)
	}
	return Signal{
		Label:    label,
		RawLabel: best.Label,
		Score:    best.Score,
		Status:   StatusOK,
	}
}

// top 取置信度最高的一项
func top(preds []Prediction) (Prediction, bool) {
	if len(preds) == 0 {
		return Prediction{}, false
	}
	best := preds[0]
	for _, p := range preds[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best, true
}
