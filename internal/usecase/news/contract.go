package news

import (
	"context"
	"encoding/json"

	domarticle "github.com/rehmatsg/quest-search-public-api/internal/domain/article"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/geo"
)

// Aggregator lists the current stories of a topic.
type Aggregator interface {
	Items(ctx context.Context, topic string) ([]domarticle.Lead, error)
}

// PageFetcher reads article metadata and body from a publisher page.
type PageFetcher interface {
	FetchArticle(ctx context.Context, pageURL string) (*domarticle.Page, error)
}

// Store persists articles.
type Store interface {
	Seen(ctx context.Context, ogURL string) (bool, error)
	Save(ctx context.Context, a *domarticle.Article) error
	ListByTopic(ctx context.Context, topic string, limit int) ([]*domarticle.Article, error)
}

// Locator resolves a caller address.
type Locator interface {
	Locate(ctx context.Context, ip string) (*geo.Geolocation, error)
}

// Weather returns the provider's current weather document.
type Weather interface {
	Current(ctx context.Context, loc *geo.Geolocation) (json.RawMessage, error)
}
