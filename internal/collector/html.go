package collector

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

const htmlRequestTimeout = 10 * time.Second

// HTMLFetcher 抓取不提供 RSS 的新闻列表页，条目结构由 CSS 选择器描述
type HTMLFetcher struct {
	SourceName string
	PageURL    string
	Category   string
	MaxItems   int

	ItemSelector    string
	TitleSelector   string
	LinkSelector    string
	SummarySelector string

	// 为空时不限制域名
	AllowedDomains []string
}

func (h *HTMLFetcher) Name() string {
	return "html_" + h.SourceName
}

func (h *HTMLFetcher) Fetch(ctx context.Context) ([]Candidate, error) {
	if h.ItemSelector == "" {
		return nil, fmt.Errorf("html %s: item selector is empty", h.SourceName)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := []colly.CollectorOption{colly.UserAgent(rssUserAgent)}
	if len(h.AllowedDomains) > 0 {
		opts = append(opts, colly.AllowedDomains(h.AllowedDomains...))
	}
	c := colly.NewCollector(opts...)
	c.SetRequestTimeout(htmlRequestTimeout)

	results := make([]Candidate, 0, h.MaxItems)

	// 页面结构可能调整，此处基于配置的选择器做“尽力而为”的解析
	c.OnHTML(h.ItemSelector, func(e *colly.HTMLElement) {
		if h.MaxItems > 0 && len(results) >= h.MaxItems {
			return
		}

		title := strings.TrimSpace(e.Text)
		if h.TitleSelector != "" {
			title = strings.TrimSpace(e.ChildText(h.TitleSelector))
		}
		title = strings.Join(strings.Fields(title), " ")
		if title == "" {
			return
		}

		link := ""
		if h.LinkSelector != "" {
			link = e.ChildAttr(h.LinkSelector, "href")
		} else {
			link = e.ChildAttr("a", "href")
		}
		if link != "" {
			link = e.Request.AbsoluteURL(link)
		}

		summary := ""
		if h.SummarySelector != "" {
			summary = CleanHTML(e.ChildText(h.SummarySelector))
		}

		results = append(results, Candidate{
			Title:        title,
			SourceDomain: h.SourceName,
			SourceURL:    link,
			Summary:      summary,
			Category:     h.Category,
		})
	})

	if err := c.Visit(h.PageURL); err != nil {
		return nil, fmt.Errorf("html %s: visit %s: %w", h.SourceName, h.PageURL, err)
	}

	if len(results) == 0 {
		log.Printf("collector: html %s got 0 items", h.SourceName)
	}
	return results, nil
}

// hostOf 返回 URL 的主机名，解析失败时为空
func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
