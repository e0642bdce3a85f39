// Package source is the normalized provider result shared by web, news, image and article hits.
package source

import (
	"context"
	"sync"
	"time"
)

// Result type tags. Providers may emit other tags (videos, discussions, faq...)
// which are kept verbatim.
const (
	TypeWeb     = "web"
	TypeNews    = "news"
	TypeImage   = "image"
	TypeArticle = "article"
)

// CrawlTimeout bounds a single full-text fetch.
const CrawlTimeout = 1500 * time.Millisecond

// Fetcher downloads a page and returns its readable text.
type Fetcher interface {
	FetchText(ctx context.Context, url string) (string, error)
}

// Source is a normalized provider result. Use pointers: the crawl guard must not be copied.
type Source struct {
	URL            string `json:"url"`
	ResultType     string `json:"result_type"`
	Title          string `json:"title"`
	Hostname       string `json:"hostname"`
	Description    string `json:"description,omitempty"`
	Snippet        string `json:"snippet,omitempty"`
	Favicon        string `json:"favicon,omitempty"`
	Thumbnail      string `json:"thumbnail,omitempty"`
	CrawledContent string `json:"crawled_content,omitempty"`

	crawl sync.Once
}

// Crawlable reports whether full text may be fetched for this source.
func (s *Source) Crawlable() bool {
	return s.ResultType == TypeWeb || s.ResultType == TypeNews
}

// Crawl fetches the page text at most once and caches it. Failures and
// timeouts leave the content empty; later calls return the cached value
// without touching the network.
func (s *Source) Crawl(ctx context.Context, f Fetcher) string {
	if !s.Crawlable() {
		return ""
	}
	s.crawl.Do(func() {
		if s.CrawledContent != "" {
			return
		}
		ctx, cancel := context.WithTimeout(ctx, CrawlTimeout)
		defer cancel()

		text, err := f.FetchText(ctx, s.URL)
		if err != nil {
			return
		}
		s.CrawledContent = text
	})
	return s.CrawledContent
}

// Text returns the best available text: crawled content, else the snippet.
func (s *Source) Text() string {
	if s.CrawledContent != "" {
		return s.CrawledContent
	}
	return s.Snippet
}

func (s *Source) String() string {
	return s.ResultType + " result from " + s.URL
}
