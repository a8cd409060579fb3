package processor

import (
	"errors"
	"strings"

	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/collector"
)

// MaxTokens 分类模型输入上限约 512 个子词，按单词截断到 400 留出余量
const MaxTokens = 400

// ErrMissingTitle 标题为空的候选不入库；摘要会用标题兜底，因此标题非空即摘要非空
var ErrMissingTitle = errors.New("candidate has empty title")

// Normalize 按空白切分，只保留前 MaxTokens 个词并以单个空格重新拼接
func Normalize(text string) string {
	fields := strings.Fields(text)
	if len(fields) > MaxTokens {
		fields = fields[:MaxTokens]
	}
	return strings.Join(fields, " ")
}

// Prepare 做最基础的数据清洗：去空白、摘要为空时用标题兜底、补默认分类
func Prepare(c collector.Candidate) (collector.Candidate, error) {
	out := collector.Candidate{
		Title:        strings.TrimSpace(c.Title),
		SourceDomain: strings.TrimSpace(c.SourceDomain),
		SourceURL:    strings.TrimSpace(c.SourceURL),
		Summary:      strings.TrimSpace(c.Summary),
		Category:     strings.TrimSpace(c.Category),
		PublishedAt:  strings.TrimSpace(c.PublishedAt),
	}
	if out.Summary == "" {
		out.Summary = out.Title
	}
	if out.Category == "" {
		out.Category = collector.DefaultCategory
	}

	if out.Title == "" {
		return out, ErrMissingTitle
	}
	return out, nil
}

// TruncateRunes 按 rune 截断，超出时追加省略号
func TruncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit]) + "…"
}
