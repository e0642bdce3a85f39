package news

import (
	"context"
	"encoding/json"
	"sync"

	domarticle "github.com/rehmatsg/quest-search-public-api/internal/domain/article"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/geo"
)

type mockAggregator struct {
	itemsFn func(ctx context.Context, topic string) ([]domarticle.Lead, error)
}

func (m *mockAggregator) Items(ctx context.Context, topic string) ([]domarticle.Lead, error) {
	return m.itemsFn(ctx, topic)
}

type mockPages struct {
	fetchFn func(ctx context.Context, pageURL string) (*domarticle.Page, error)
}

func (m *mockPages) FetchArticle(ctx context.Context, pageURL string) (*domarticle.Page, error) {
	return m.fetchFn(ctx, pageURL)
}

type mockStore struct {
	mu     sync.Mutex
	saved  []*domarticle.Article
	seenFn func(ctx context.Context, ogURL string) (bool, error)
	saveFn func(ctx context.Context, a *domarticle.Article) error
	listFn func(ctx context.Context, topic string, limit int) ([]*domarticle.Article, error)
}

func (m *mockStore) Seen(ctx context.Context, ogURL string) (bool, error) {
	if m.seenFn == nil {
		return false, nil
	}
	return m.seenFn(ctx, ogURL)
}

func (m *mockStore) Save(ctx context.Context, a *domarticle.Article) error {
	if m.saveFn != nil {
		if err := m.saveFn(ctx, a); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, a)
	return nil
}

func (m *mockStore) ListByTopic(ctx context.Context, topic string, limit int) ([]*domarticle.Article, error) {
	return m.listFn(ctx, topic, limit)
}

type mockLocator struct {
	loc *geo.Geolocation
	err error
}

func (m *mockLocator) Locate(context.Context, string) (*geo.Geolocation, error) { return m.loc, m.err }

type mockWeather struct {
	doc json.RawMessage
	err error
}

func (m *mockWeather) Current(context.Context, *geo.Geolocation) (json.RawMessage, error) {
	return m.doc, m.err
}

func validPage(n string) *domarticle.Page {
	return &domarticle.Page{
		CanonicalURL: "https://www.example.com/story-" + n,
		Title:        "Story " + n,
		Image:        "https://www.example.com/" + n + ".jpg",
		SiteName:     "Example",
		Text:         "Body of story " + n,
		Tags:         []string{"tag"},
	}
}
