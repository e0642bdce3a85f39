// Package search holds one conversational turn and the intent it was built from.
package search

import (
	"strings"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/geo"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/knowledge"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/place"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/search/mode"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/source"
)

// LocationWarning is attached when a place search is downgraded for lack of a location.
const LocationWarning = "Please enable location services to get more accurate results."

// Limits on how much of a turn feeds the next turn's prompt.
const (
	contextSources = 10
	contextPlaces  = 5
)

// Search is one turn of a thread. It is mutated only by the request that owns it.
type Search struct {
	ThreadID       string
	Query          string
	Keywords       []string
	SearchImage    bool
	Entity         string
	Sources        []*source.Source
	FeaturedSource *source.Source
	Images         []*source.Source
	Places         []place.Place
	KnowledgePanel *knowledge.Panel
	Log            *Log
	FollowUps      []string
	Mode           mode.Mode
	Geolocation    *geo.Geolocation
	LocationUsed   string
	Warnings       []string

	searchType Type
	summary    string
	summarized bool
}

// FromIntent starts a turn from a normalized intent.
func FromIntent(threadID, query string, in Intent) *Search {
	t := in.Type
	if t != TypePlace {
		t = TypeWeb
	}
	return &Search{
		ThreadID:    threadID,
		Query:       query,
		Keywords:    append([]string(nil), in.Keywords...),
		SearchImage: in.SearchImage,
		Entity:      in.Entity,
		Sources:     []*source.Source{},
		Images:      []*source.Source{},
		Places:      []place.Place{},
		Log:         NewLog(),
		FollowUps:   []string{},
		Mode:        mode.Basic,
		Warnings:    []string{},
		searchType:  t,
	}
}

// Reconstruct rebuilds a stored turn without validation.
// An empty summary means the turn was never summarized.
func Reconstruct(s Search, t Type, summary string) *Search {
	out := s
	if t != TypePlace {
		t = TypeWeb
	}
	out.searchType = t
	out.summary = summary
	out.summarized = summary != ""
	if out.Log == nil {
		out.Log = NewLog()
	}
	out.Mode = out.Mode.OrDefault()
	out.normalize()
	return &out
}

// Type returns the current search type.
func (s *Search) Type() Type { return s.searchType }

// DowngradeToWeb switches a place turn to web. The warning is appended when
// non-empty. It reports false when the turn was already web.
func (s *Search) DowngradeToWeb(warning string) bool {
	if s.searchType != TypePlace {
		return false
	}
	s.searchType = TypeWeb
	if warning != "" {
		s.Warnings = append(s.Warnings, warning)
	}
	return true
}

// Summary returns the synthesized answer, empty until set.
func (s *Search) Summary() string { return s.summary }

// SetSummary assigns the answer once.
func (s *Search) SetSummary(text string) error {
	if s.summarized {
		return domain.ErrSummaryAlreadySet
	}
	s.summary = text
	s.summarized = true
	return nil
}

// AddWarning appends a user-facing warning.
func (s *Search) AddWarning(w string) {
	s.Warnings = append(s.Warnings, w)
}

// SetFollowUps keeps the list only when it has exactly three entries.
func (s *Search) SetFollowUps(qs []string) {
	if len(qs) != 3 {
		s.FollowUps = []string{}
		return
	}
	s.FollowUps = append([]string(nil), qs...)
}

// Context renders the turn as conversation history for the next prompt.
func (s *Search) Context() string {
	var b strings.Builder
	b.WriteString(s.Query)
	b.WriteString("\n")

	switch s.searchType {
	case TypePlace:
		for i := range s.Places {
			if i == contextPlaces {
				break
			}
			b.WriteString(s.Places[i].Context())
			b.WriteString("---\n")
		}
	default:
		if s.summary != "" {
			b.WriteString(s.summary)
			break
		}
		for i, src := range s.Sources {
			if i == contextSources {
				break
			}
			b.WriteString(src.Title)
			b.WriteString("\n")
			b.WriteString(src.Snippet)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (s *Search) normalize() {
	if s.Sources == nil {
		s.Sources = []*source.Source{}
	}
	if s.Images == nil {
		s.Images = []*source.Source{}
	}
	if s.Places == nil {
		s.Places = []place.Place{}
	}
	if s.FollowUps == nil {
		s.FollowUps = []string{}
	}
	if s.Warnings == nil {
		s.Warnings = []string{}
	}
	if s.Keywords == nil {
		s.Keywords = []string{}
	}
}
