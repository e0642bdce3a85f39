package thread

import (
	"time"

	"github.com/rehmatsg/quest-search-public-api/internal/domain/geo"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/knowledge"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/place"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/search"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/search/mode"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/source"
	domthread "github.com/rehmatsg/quest-search-public-api/internal/domain/thread"
)

// threadDoc is the stored JSON document of a thread.
type threadDoc struct {
	ID        string      `json:"id"`
	UserID    *string     `json:"user_id"`
	CreatedAt float64     `json:"created_at"` // seconds since epoch
	Searches  []searchDoc `json:"searches"`
}

type searchDoc struct {
	ThreadID       string           `json:"thread_id"`
	Query          string           `json:"query"`
	Keywords       []string         `json:"keywords"`
	SearchType     string           `json:"search_type"`
	SearchImage    bool             `json:"search_image"`
	Entity         *string          `json:"entity"`
	Sources        []*source.Source `json:"sources"`
	FeaturedSource *source.Source   `json:"featured_source"`
	Images         []*source.Source `json:"images"`
	Places         []place.Place    `json:"places"`
	KnowledgePanel *knowledge.Panel `json:"knowledge_panel"`
	Summary        *string          `json:"summary"`
	Logs           *search.Log      `json:"logs"`
	FollowUps      []string         `json:"follow_ups"`
	Mode           string           `json:"mode"`
	Geolocation    *geo.Geolocation `json:"geolocation"`
	LocationUsed   *string          `json:"location_used"`
	Warnings       []string         `json:"warnings"`
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func threadToDoc(t *domthread.Thread) threadDoc {
	doc := threadDoc{
		ID:        t.ID(),
		UserID:    optional(t.UserID()),
		CreatedAt: float64(t.CreatedAt().UnixMicro()) / 1e6,
		Searches:  make([]searchDoc, len(t.Searches())),
	}
	for i, s := range t.Searches() {
		doc.Searches[i] = searchToDoc(s)
	}
	return doc
}

func searchToDoc(s *search.Search) searchDoc {
	snap := s.Snapshot() // normalizes collections
	return searchDoc{
		ThreadID:       s.ThreadID,
		Query:          s.Query,
		Keywords:       s.Keywords,
		SearchType:     string(s.Type()),
		SearchImage:    s.SearchImage,
		Entity:         optional(s.Entity),
		Sources:        snap.Sources,
		FeaturedSource: s.FeaturedSource,
		Images:         snap.Images,
		Places:         snap.Places,
		KnowledgePanel: s.KnowledgePanel,
		Summary:        snap.Summary,
		Logs:           s.Log,
		FollowUps:      snap.FollowUps,
		Mode:           string(s.Mode),
		Geolocation:    s.Geolocation,
		LocationUsed:   optional(s.LocationUsed),
		Warnings:       snap.Warnings,
	}
}

func docToThread(doc *threadDoc) *domthread.Thread {
	secs := int64(doc.CreatedAt)
	nanos := int64((doc.CreatedAt - float64(secs)) * 1e9)

	searches := make([]*search.Search, len(doc.Searches))
	for i := range doc.Searches {
		searches[i] = docToSearch(&doc.Searches[i])
	}
	return domthread.Reconstruct(doc.ID, deref(doc.UserID), time.Unix(secs, nanos), searches)
}

func docToSearch(d *searchDoc) *search.Search {
	return search.Reconstruct(search.Search{
		ThreadID:       d.ThreadID,
		Query:          d.Query,
		Keywords:       d.Keywords,
		SearchImage:    d.SearchImage,
		Entity:         deref(d.Entity),
		Sources:        d.Sources,
		FeaturedSource: d.FeaturedSource,
		Images:         d.Images,
		Places:         d.Places,
		KnowledgePanel: d.KnowledgePanel,
		Log:            d.Logs,
		FollowUps:      d.FollowUps,
		Mode:           mode.Mode(d.Mode),
		Geolocation:    d.Geolocation,
		LocationUsed:   deref(d.LocationUsed),
		Warnings:       d.Warnings,
	}, search.ParseType(d.SearchType), deref(d.Summary))
}
