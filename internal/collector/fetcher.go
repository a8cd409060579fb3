package collector

import (
	"context"
	"log"
)

// DefaultCategory 未指定分类时使用
const DefaultCategory = "general"

// Candidate 采集后尚未入库的文章
type Candidate struct {
	Title        string
	SourceDomain string
	SourceURL    string
	Summary      string
	Category     string
	// 源站给出的原始时间字符串，不做解析
	PublishedAt string
}

// Fetcher 抽象每一个数据源
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]Candidate, error)
}

// Source 供流水线拉取一轮候选文章
type Source interface {
	Fetch(ctx context.Context) ([]Candidate, error)
}

// MultiSource 依次拉取所有数据源，单个源失败只记录日志，不影响其他源
type MultiSource struct {
	fetchers []Fetcher
}

func NewMultiSource(fetchers ...Fetcher) *MultiSource {
	return &MultiSource{fetchers: fetchers}
}

func (m *MultiSource) Fetch(ctx context.Context) ([]Candidate, error) {
	var out []Candidate
	for _, f := range m.fetchers {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		name := f.Name()
		items, err := f.Fetch(ctx)
		if err != nil {
			log.Printf("collector: fetch %s error: %v", name, err)
			continue
		}
		log.Printf("collector: %s fetched=%d", name, len(items))
		out = append(out, items...)
	}
	return out, nil
}
