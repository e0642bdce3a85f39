package fanout

import (
	"context"

	"github.com/rehmatsg/quest-search-public-api/internal/domain/geo"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/knowledge"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/place"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/source"
)

// WebSearcher queries the web, news and image indexes.
type WebSearcher interface {
	Search(ctx context.Context, query string, index source.Index, loc *geo.Geolocation) (source.Results, error)
	Images(ctx context.Context, query string, loc *geo.Geolocation) ([]*source.Source, error)
}

// PlaceSearcher finds local businesses around a location.
type PlaceSearcher interface {
	Search(ctx context.Context, term string, loc *geo.Geolocation) ([]place.Place, error)
}

// KnowledgeGraph resolves an entity name to a panel. A nil panel means no match.
type KnowledgeGraph interface {
	Panel(ctx context.Context, entity string) (*knowledge.Panel, error)
}
