package collector

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	rssClientTimeout = 15 * time.Second
	rssUserAgent     = "NewsAIBot/1.0"
)

// RSSFetcher 拉取 RSS/Atom 源，每个源只取前 MaxItems 条
type RSSFetcher struct {
	SourceName string
	FeedURL    string
	Category   string
	MaxItems   int
	Client     *http.Client
}

func (r *RSSFetcher) Name() string {
	return "rss_" + r.SourceName
}

func (r *RSSFetcher) Fetch(ctx context.Context) ([]Candidate, error) {
	parser := gofeed.NewParser()
	parser.UserAgent = rssUserAgent
	parser.Client = r.Client
	if parser.Client == nil {
		parser.Client = &http.Client{Timeout: rssClientTimeout}
	}

	feed, err := parser.ParseURLWithContext(r.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("rss %s: parse feed: %w", r.SourceName, err)
	}

	limit := len(feed.Items)
	if r.MaxItems > 0 && r.MaxItems < limit {
		limit = r.MaxItems
	}

	out := make([]Candidate, 0, limit)
	for _, item := range feed.Items[:limit] {
		if item == nil {
			continue
		}
		title := strings.TrimSpace(item.Title)

		// 摘要为空时尝试正文，仍为空则由 processor 用标题兜底
		summary := CleanHTML(item.Description)
		if summary == "" {
			summary = CleanHTML(item.Content)
		}

		published := item.Published
		if published == "" {
			published = item.Updated
		}

		out = append(out, Candidate{
			Title:        title,
			SourceDomain: r.SourceName,
			SourceURL:    strings.TrimSpace(item.Link),
			Summary:      summary,
			Category:     r.Category,
			PublishedAt:  published,
		})
	}
	return out, nil
}
