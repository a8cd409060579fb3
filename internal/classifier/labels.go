package classifier

import "strings"

const (
	LabelFake = "fake"
	LabelReal = "real"

	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

// LabelAdapter 把模型自己的标签词表映射到统一标签
type LabelAdapter func(raw string) string

// FakeNewsLabel 不同模型变体的词表不一致（LABEL_1 / fake / FAKE），
// 小写后包含 "fake" 或 "1" 即视为 fake
func FakeNewsLabel(raw string) string {
	l := strings.ToLower(raw)
	if strings.Contains(l, "fake") || strings.Contains(l, "1") {
		return LabelFake
	}
	return LabelReal
}

// SentimentLabel 小写后只认 positive / negative，其余都归为 neutral
func SentimentLabel(raw string) string {
	switch strings.ToLower(raw) {
	case LabelPositive:
		return LabelPositive
	case LabelNegative:
		return LabelNegative
	default:
		return LabelNeutral
	}
}
