package analysis

import (
	"context"

	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/classifier"
	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/processor"
)

// Result 包含最终结论以及两个分类器的原始信号，便于落库审计
type Result struct {
	Verdict
	Text            string
	FakeSignal      classifier.Signal
	SentimentSignal classifier.Signal
}

// Analyzer 串起 截断 → 分类 → 融合，流水线与 HTTP 接口共用
type Analyzer struct {
	fake      classifier.Classifier
	sentiment classifier.Classifier
}

// NewAnalyzer 任一分类器可以为 nil，视为不可用
func NewAnalyzer(fake, sentiment classifier.Classifier) *Analyzer {
	return &Analyzer{fake: fake, sentiment: sentiment}
}

func (a *Analyzer) Analyze(ctx context.Context, text string) Result {
	safe := processor.Normalize(text)
	res := Result{Verdict: DefaultVerdict(), Text: safe}
	// 空文本不送入模型
	if safe == "" {
		return res
	}

	if a.fake != nil {
		res.FakeSignal = a.fake.Classify(ctx, safe)
	}
	if a.sentiment != nil {
		res.SentimentSignal = a.sentiment.Classify(ctx, safe)
	}
	res.Verdict = Fuse(safe, res.FakeSignal, res.SentimentSignal)
	return res
}
