package collector

import (
	"log"
	"strings"

	"github.com/Digitalspy12/Ai-Fake-News-Detection/internal/config"
)

// BuildFetchers 按配置生成采集器，未知类型跳过
func BuildFetchers(sources []config.SourceConfig) []Fetcher {
	fetchers := make([]Fetcher, 0, len(sources))
	for _, s := range sources {
		switch strings.ToLower(strings.TrimSpace(s.Type)) {
		case "", "rss":
			fetchers = append(fetchers, &RSSFetcher{
				SourceName: s.Name,
				FeedURL:    s.URL,
				Category:   s.Category,
				MaxItems:   s.MaxItems,
			})
		case "html":
			var domains []string
			if host := hostOf(s.URL); host != "" {
				domains = []string{host}
			}
			fetchers = append(fetchers, &HTMLFetcher{
				SourceName:      s.Name,
				PageURL:         s.URL,
				Category:        s.Category,
				MaxItems:        s.MaxItems,
				ItemSelector:    s.ItemSelector,
				TitleSelector:   s.TitleSelector,
				LinkSelector:    s.LinkSelector,
				SummarySelector: s.SummarySelector,
				AllowedDomains:  domains,
			})
		case "hackernews":
			fetchers = append(fetchers, &HackerNewsFetcher{
				SourceName: s.Name,
				BaseURL:    s.URL,
				Category:   s.Category,
				MaxItems:   s.MaxItems,
			})
		default:
			log.Printf("collector: skip source %s with unknown type %q", s.Name, s.Type)
		}
	}
	return fetchers
}
