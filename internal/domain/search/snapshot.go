package search

import (
	"github.com/rehmatsg/quest-search-public-api/internal/domain/knowledge"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/place"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/source"
)

// Snapshot is the client view of a turn, sent before the summary stream starts
// and replayed for already summarized articles.
type Snapshot struct {
	ThreadID       string           `json:"thread_id"`
	FeaturedSource *source.Source   `json:"featured_source"`
	Sources        []*source.Source `json:"sources"`
	Images         []*source.Source `json:"images"`
	Places         []place.Place    `json:"places"`
	KnowledgePanel *knowledge.Panel `json:"knowledge_panel"`
	Query          string           `json:"query"`
	SearchType     Type             `json:"search_type"`
	Location       *string          `json:"location"`
	Warnings       []string         `json:"warnings"`
	Summary        *string          `json:"summary"`
	FollowUps      []string         `json:"follow_ups"`
}

// Snapshot builds the client view. Collections are never nil.
func (s *Search) Snapshot() Snapshot {
	s.normalize()
	snap := Snapshot{
		ThreadID:       s.ThreadID,
		FeaturedSource: s.FeaturedSource,
		Sources:        s.Sources,
		Images:         s.Images,
		Places:         s.Places,
		KnowledgePanel: s.KnowledgePanel,
		Query:          s.Query,
		SearchType:     s.searchType,
		Warnings:       s.Warnings,
		FollowUps:      s.FollowUps,
	}
	if s.LocationUsed != "" {
		loc := s.LocationUsed
		snap.Location = &loc
	}
	if s.summarized {
		sum := s.summary
		snap.Summary = &sum
	}
	return snap
}
