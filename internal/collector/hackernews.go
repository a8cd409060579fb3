package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	hnBaseURL           = "https://hacker-news.firebaseio.com/v0"
	hnDefaultMaxItems   = 30
	hnMaxResponseBytes  = 1 << 20 // 1MB
	hnConcurrency       = 10
	hnClientTimeout     = 10 * time.Second
	hnItemClientTimeout = 5 * time.Second
	hnDefaultCategory   = "technology"
)

// HackerNewsFetcher 通过官方 Firebase API 抓取 Hacker News 热门故事
type HackerNewsFetcher struct {
	SourceName string
	// BaseURL 为空时使用官方地址
	BaseURL  string
	Category string
	MaxItems int
	Client   *http.Client
}

func (h *HackerNewsFetcher) Name() string {
	return "hackernews_" + h.sourceName()
}

func (h *HackerNewsFetcher) sourceName() string {
	if h.SourceName != "" {
		return h.SourceName
	}
	return "HackerNews"
}

type hnItem struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Text        string `json:"text"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Type        string `json:"type"`
}

func (h *HackerNewsFetcher) Fetch(ctx context.Context) ([]Candidate, error) {
	base := strings.TrimRight(h.BaseURL, "/")
	if base == "" {
		base = hnBaseURL
	}
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: hnClientTimeout}
	}
	limit := h.MaxItems
	if limit <= 0 {
		limit = hnDefaultMaxItems
	}

	var ids []int
	if err := getJSON(ctx, client, base+"/topstories.json", &ids); err != nil {
		return nil, fmt.Errorf("hackernews: fetch top stories: %w", err)
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}

	// 按排名保存，保证输出顺序与 topstories 一致
	items := make([]*hnItem, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hnConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			ictx, cancel := context.WithTimeout(gctx, hnItemClientTimeout)
			defer cancel()

			var it hnItem
			if err := getJSON(ictx, client, fmt.Sprintf("%s/item/%d.json", base, id), &it); err != nil {
				log.Printf("hackernews: fetch item %d: %v", id, err)
				return nil
			}
			if it.Title == "" || it.Type != "story" {
				return nil
			}
			items[i] = &it
			return nil
		})
	}
	_ = g.Wait()

	category := h.Category
	if category == "" {
		category = hnDefaultCategory
	}

	results := make([]Candidate, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		itemURL := it.URL
		if itemURL == "" {
			itemURL = fmt.Sprintf("https://news.ycombinator.com/item?id=%d", it.ID)
		}
		summary := CleanHTML(it.Text)
		if summary == "" {
			summary = it.Title
		}
		results = append(results, Candidate{
			Title:        strings.TrimSpace(it.Title),
			SourceDomain: h.sourceName(),
			SourceURL:    itemURL,
			Summary:      summary,
			Category:     category,
			PublishedAt:  time.Unix(it.Time, 0).UTC().Format(time.RFC1123Z),
		})
	}

	if len(results) == 0 {
		log.Println("hackernews: no items fetched")
	}
	return results, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, hnMaxResponseBytes)).Decode(v)
}
