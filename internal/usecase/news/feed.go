package news

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	domarticle "github.com/rehmatsg/quest-search-public-api/internal/domain/article"
	"github.com/rehmatsg/quest-search-public-api/internal/logger"
)

// Digest is the news home page: the latest articles per topic plus the
// caller's weather.
type Digest struct {
	News    map[string][]*domarticle.Article `json:"news"`
	Weather json.RawMessage                  `json:"weather"`
}

// FeedConfig sizes the feed.
type FeedConfig struct {
	Topics []string
	Size   int
}

// Feed reads stored articles.
type Feed struct {
	store   Store
	locator Locator
	weather Weather
	topics  []string
	size    int
	logger  *zap.Logger
}

// NewFeed creates the feed service. Topics exclude the LATEST pseudo-topic.
func NewFeed(store Store, locator Locator, weather Weather, cfg FeedConfig, logger *zap.Logger) *Feed {
	topics := cfg.Topics
	if len(topics) == 0 {
		topics = domarticle.Topics
	}
	size := cfg.Size
	if size <= 0 {
		size = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		store:   store,
		locator: locator,
		weather: weather,
		topics:  topics,
		size:    size,
		logger:  logger,
	}
}

// Topics lists the crawled topics followed by LATEST.
func (f *Feed) Topics() []string {
	return append(slices.Clone(f.topics), domarticle.TopicLatest)
}

// ByTopic returns the newest articles of a topic, case-insensitively.
func (f *Feed) ByTopic(ctx context.Context, topic string) ([]*domarticle.Article, error) {
	topic = strings.ToUpper(strings.TrimSpace(topic))
	if !slices.Contains(f.Topics(), topic) {
		return nil, fmt.Errorf("%w: unknown topic %q", domain.ErrInvalidInput, topic)
	}
	articles, err := f.store.ListByTopic(ctx, topic, f.size)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", topic, err)
	}
	return articles, nil
}

// Digest loads every topic and the weather concurrently. A weather failure
// leaves Weather null; a store failure fails the digest.
func (f *Feed) Digest(ctx context.Context, callerAddr string) (*Digest, error) {
	topics := f.Topics()
	lists := make([][]*domarticle.Article, len(topics))

	var wg sync.WaitGroup
	var weather json.RawMessage
	wg.Go(func() { weather = f.lookupWeather(ctx, callerAddr) })

	g, gctx := errgroup.WithContext(ctx)
	for i, topic := range topics {
		g.Go(func() error {
			articles, err := f.store.ListByTopic(gctx, topic, f.size)
			if err != nil {
				return fmt.Errorf("list %s: %w", topic, err)
			}
			lists[i] = articles
			return nil
		})
	}
	err := g.Wait()
	wg.Wait()
	if err != nil {
		return nil, err
	}

	d := &Digest{News: make(map[string][]*domarticle.Article, len(topics)), Weather: weather}
	for i, topic := range topics {
		if lists[i] == nil {
			lists[i] = []*domarticle.Article{}
		}
		d.News[topic] = lists[i]
	}
	return d, nil
}

func (f *Feed) lookupWeather(ctx context.Context, addr string) json.RawMessage {
	if addr == "" || f.locator == nil || f.weather == nil {
		return nil
	}
	log := logger.FromContextOr(ctx, f.logger)
	loc, err := f.locator.Locate(ctx, addr)
	if err != nil {
		log.Warn("feed geolocation failed", zap.Error(err))
		return nil
	}
	w, err := f.weather.Current(ctx, loc)
	if err != nil {
		log.Warn("weather lookup failed", zap.Error(err))
		return nil
	}
	return w
}
