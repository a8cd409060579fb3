package analysis

import (
	"log"
	"strings"

	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/classifier"
)

const (
	// FakeThreshold fake 标签的置信度必须严格大于该值才判定为假新闻
	FakeThreshold = 0.6

	defaultCredibility = 0.5
)

// Verdict 融合后的结论，任何字段都有默认值
type Verdict struct {
	Sentiment        string  `json:"sentiment"`
	IsFake           bool    `json:"is_fake"`
	CredibilityScore float64 `json:"credibility_score"`
}

func DefaultVerdict() Verdict {
	return Verdict{
		Sentiment:        classifier.LabelNeutral,
		IsFake:           false,
		CredibilityScore: defaultCredibility,
	}
}

// Fuse 把两个分类器的原始信号合并为一个结论。
// 空文本直接返回默认值；缺失的信号对应字段保持默认，不会借用另一个信号的值。
func Fuse(text string, fake, sentiment classifier.Signal) Verdict {
	v := DefaultVerdict()
	if text == "" {
		return v
	}

	if fake.Present() {
		fuseFake(&v, fake)
	}
	if sentiment.Present() {
		fuseSentiment(&v, sentiment)
	}
	return v
}

func fuseFake(v *Verdict, sig classifier.Signal) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("fusion: fake-news step panic: %v", r)
			d := DefaultVerdict()
			v.IsFake, v.CredibilityScore = d.IsFake, d.CredibilityScore
		}
	}()

	score := clamp01(sig.Score)
	if classifier.FakeNewsLabel(sig.Label) == classifier.LabelFake {
		v.IsFake = score > FakeThreshold
		if v.IsFake {
			v.CredibilityScore = 1 - score
		} else {
			v.CredibilityScore = score
		}
		return
	}
	v.IsFake = false
	v.CredibilityScore = score
}

func fuseSentiment(v *Verdict, sig classifier.Signal) {
	switch strings.ToLower(sig.Label) {
	case classifier.LabelPositive:
		v.Sentiment = classifier.LabelPositive
	case classifier.LabelNegative:
		v.Sentiment = classifier.LabelNegative
	default:
		v.Sentiment = classifier.LabelNeutral
	}
}

func clamp01(f float64) float64 {
	if f != f { // NaN
		return defaultCredibility
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
