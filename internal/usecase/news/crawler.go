// Package news crawls aggregator topics into the article store and serves
// the news feed.
package news

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	domarticle "github.com/rehmatsg/quest-search-public-api/internal/domain/article"
	"github.com/rehmatsg/quest-search-public-api/internal/logger"
	"github.com/rehmatsg/quest-search-public-api/internal/metrics"
)

// Outcome of one aggregator item.
type Outcome string

// Item outcomes.
const (
	OutcomeSaved     Outcome = "saved"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeRejected  Outcome = "rejected"
	OutcomeFailed    Outcome = "failed"
)

// Stats counts item outcomes of one crawl.
type Stats map[Outcome]int

// CrawlerConfig bounds a crawl.
type CrawlerConfig struct {
	Concurrency    int
	ArticleTimeout time.Duration
}

// Crawler turns aggregator items into stored articles.
type Crawler struct {
	feed   Aggregator
	pages  PageFetcher
	store  Store
	cfg    CrawlerConfig
	logger *zap.Logger
}

// NewCrawler creates a crawler.
func NewCrawler(feed Aggregator, pages PageFetcher, store Store, cfg CrawlerConfig, logger *zap.Logger) *Crawler {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 8
	}
	if cfg.ArticleTimeout <= 0 {
		cfg.ArticleTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{feed: feed, pages: pages, store: store, cfg: cfg, logger: logger}
}

// Crawl ingests one topic. Item failures are counted and skipped; only a
// failed aggregator request is returned.
func (c *Crawler) Crawl(ctx context.Context, topic string) (Stats, error) {
	start := time.Now()
	log := logger.FromContextOr(ctx, c.logger).With(zap.String("topic", topic))
	defer func() {
		metrics.CrawlerRunDuration.WithLabelValues(topic).Observe(time.Since(start).Seconds())
	}()

	leads, err := c.feed.Items(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("crawl %s: %w", topic, err)
	}

	stats := Stats{}
	fresh := c.unseen(ctx, log, leads, stats)
	articles := c.generate(ctx, log, topic, fresh, stats)
	c.save(ctx, log, articles, stats)

	for outcome, n := range stats {
		metrics.CrawlerArticlesTotal.WithLabelValues(topic, string(outcome)).Add(float64(n))
	}
	log.Info("crawl finished",
		zap.Int("items", len(leads)),
		zap.Int("saved", stats[OutcomeSaved]),
		zap.Int("duplicate", stats[OutcomeDuplicate]),
		zap.Int("rejected", stats[OutcomeRejected]),
		zap.Int("failed", stats[OutcomeFailed]),
		zap.Duration("took", time.Since(start)),
	)
	return stats, nil
}

// unseen drops leads already stored and repeats within the batch.
// A failed lookup keeps the lead; Save still rejects duplicates.
func (c *Crawler) unseen(ctx context.Context, log *zap.Logger, leads []domarticle.Lead, stats Stats) []domarticle.Lead {
	seen := make([]bool, len(leads))
	g := &errgroup.Group{}
	g.SetLimit(c.cfg.Concurrency)
	for i := range leads {
		g.Go(func() error {
			ok, err := c.store.Seen(ctx, leads[i].URL)
			if err != nil {
				log.Warn("dedup check failed", zap.String("og_url", leads[i].URL), zap.Error(err))
				return nil
			}
			seen[i] = ok
			return nil
		})
	}
	_ = g.Wait()

	batch := make(map[string]bool, len(leads))
	fresh := make([]domarticle.Lead, 0, len(leads))
	for i, l := range leads {
		if seen[i] || batch[l.URL] {
			stats[OutcomeDuplicate]++
			continue
		}
		batch[l.URL] = true
		fresh = append(fresh, l)
	}
	return fresh
}

func (c *Crawler) generate(ctx context.Context, log *zap.Logger, topic string, leads []domarticle.Lead, stats Stats) []*domarticle.Article {
	out := make([]*domarticle.Article, len(leads))
	outcomes := make([]Outcome, len(leads))
	g := &errgroup.Group{}
	g.SetLimit(c.cfg.Concurrency)
	for i := range leads {
		g.Go(func() error {
			out[i], outcomes[i] = c.article(ctx, log, topic, leads[i])
			return nil
		})
	}
	_ = g.Wait()

	articles := make([]*domarticle.Article, 0, len(out))
	for i, a := range out {
		if a == nil {
			stats[outcomes[i]]++
			continue
		}
		articles = append(articles, a)
	}
	return articles
}

func (c *Crawler) article(ctx context.Context, log *zap.Logger, topic string, lead domarticle.Lead) (*domarticle.Article, Outcome) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ArticleTimeout)
	defer cancel()

	page, err := c.pages.FetchArticle(ctx, lead.URL)
	if err != nil {
		log.Debug("article fetch failed", zap.String("og_url", lead.URL), zap.Error(err))
		return nil, OutcomeFailed
	}
	a, err := domarticle.FromPage(topic, lead, page)
	if err != nil {
		log.Debug("article rejected", zap.String("og_url", lead.URL), zap.Error(err))
		return nil, OutcomeRejected
	}
	return a, ""
}

func (c *Crawler) save(ctx context.Context, log *zap.Logger, articles []*domarticle.Article, stats Stats) {
	outcomes := make([]Outcome, len(articles))
	g := &errgroup.Group{}
	g.SetLimit(c.cfg.Concurrency)
	for i, a := range articles {
		g.Go(func() error {
			err := c.store.Save(ctx, a)
			switch {
			case err == nil:
				outcomes[i] = OutcomeSaved
			case errors.Is(err, domain.ErrAlreadyExists):
				outcomes[i] = OutcomeDuplicate
			default:
				log.Warn("article save failed", zap.String("og_url", a.OGURL), zap.Error(err))
				outcomes[i] = OutcomeFailed
			}
			return nil
		})
	}
	_ = g.Wait()
	for _, o := range outcomes {
		stats[o]++
	}
}
