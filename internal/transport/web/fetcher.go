// Package web downloads pages and extracts readable text and article metadata.
package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/article"
	"github.com/rehmatsg/quest-search-public-api/internal/metrics"
)

// Fetcher downloads HTML pages.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

// Config holds the fetcher settings.
type Config struct {
	// Timeout bounds a whole download; callers may set a tighter context deadline.
	Timeout   time.Duration
	UserAgent string
	MaxBytes  int64
}

// NewFetcher creates a Fetcher.
func NewFetcher(cfg Config) *Fetcher {
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	return &Fetcher{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		maxBytes:  maxBytes,
	}
}

// FetchText returns the visible text of a page without navigation, ads and scripts.
func (f *Fetcher) FetchText(ctx context.Context, pageURL string) (string, error) {
	doc, _, err := f.fetch(ctx, pageURL)
	if err != nil {
		return "", err
	}
	return pageText(doc), nil
}

// FetchArticle downloads a news page and reads its metadata and body.
func (f *Fetcher) FetchArticle(ctx context.Context, pageURL string) (*article.Page, error) {
	doc, final, err := f.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return extractPage(doc, final), nil
}

func (f *Fetcher) fetch(ctx context.Context, pageURL string) (doc *html.Node, final *url.URL, err error) {
	defer func() {
		status := metrics.StatusOK
		if err != nil {
			status = metrics.StatusError
		}
		metrics.PageFetchTotal.WithLabelValues(status).Inc()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w: %w", pageURL, err, domain.ErrProviderUnavailable)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, nil, fmt.Errorf("fetch %s: status %d: %w", pageURL, resp.StatusCode, domain.ErrProviderUnavailable)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return nil, nil, fmt.Errorf("fetch %s: unsupported content type %q: %w", pageURL, ct, domain.ErrInvalidInput)
	}

	doc, err = html.Parse(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return doc, resp.Request.URL, nil
}
