// Package fanout runs the provider calls of a turn concurrently and merges
// their results into it.
package fanout

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rehmatsg/quest-search-public-api/internal/domain/knowledge"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/place"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/search"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/source"
	"github.com/rehmatsg/quest-search-public-api/internal/logger"
)

// Service fans a turn out to its providers.
type Service struct {
	web    WebSearcher
	places PlaceSearcher
	kg     KnowledgeGraph
	logger *zap.Logger
}

// New creates a fan-out service.
func New(web WebSearcher, places PlaceSearcher, kg KnowledgeGraph, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{web: web, places: places, kg: kg, logger: logger}
}

// IndexFor picks the news index for keywords containing the word "news".
func IndexFor(keyword string) source.Index {
	for _, tok := range strings.Fields(keyword) {
		if strings.EqualFold(tok, "news") {
			return source.IndexNews
		}
	}
	return source.IndexWeb
}

// Run issues every provider call the turn needs as one batch and waits for
// all of them. A failed provider leaves its collection empty.
func (svc *Service) Run(ctx context.Context, s *search.Search) {
	var (
		wg     sync.WaitGroup
		web    webOutcome
		images []*source.Source
		places []place.Place
		panel  *knowledge.Panel
	)

	switch s.Type() {
	case search.TypePlace:
		wg.Go(func() { places = svc.searchPlaces(ctx, s) })
	default:
		wg.Go(func() { web = svc.searchWeb(ctx, s) })
		if s.SearchImage && len(s.Keywords) > 0 {
			wg.Go(func() { images = svc.searchImages(ctx, s) })
		}
	}
	if s.Entity != "" {
		wg.Go(func() { panel = svc.knowledgePanel(ctx, s) })
	}
	wg.Wait()

	if s.Type() == search.TypePlace {
		if places == nil {
			places = []place.Place{}
		}
		s.Places = places
		if s.Geolocation != nil {
			s.LocationUsed = s.Geolocation.City
		}
	} else {
		web.apply(s)
		if images == nil {
			images = []*source.Source{}
		}
		s.Images = images
	}
	if panel != nil {
		s.KnowledgePanel = panel
	}
}

// Web runs only the keyword web searches. It serves turns downgraded from
// place after the place provider returned nothing.
func (svc *Service) Web(ctx context.Context, s *search.Search) {
	svc.searchWeb(ctx, s).apply(s)
}

type webOutcome struct {
	sources  []*source.Source
	location string
}

func (w webOutcome) apply(s *search.Search) {
	if w.sources == nil {
		w.sources = []*source.Source{}
	}
	s.Sources = w.sources
	if s.LocationUsed == "" && w.location != "" {
		s.LocationUsed = w.location
	}
}

// searchWeb sends one request per keyword and concatenates the results in
// keyword order.
func (svc *Service) searchWeb(ctx context.Context, s *search.Search) webOutcome {
	log := logger.FromContextOr(ctx, svc.logger)
	start := time.Now()

	results := make([]source.Results, len(s.Keywords))
	var wg sync.WaitGroup
	for i, kw := range s.Keywords {
		wg.Go(func() {
			index := IndexFor(kw)
			res, err := svc.web.Search(ctx, kw, index, s.Geolocation)
			if err != nil {
				log.Warn("web search failed",
					zap.String("keyword", kw), zap.String("index", string(index)), zap.Error(err))
				return
			}
			results[i] = res
		})
	}
	wg.Wait()

	out := webOutcome{sources: []*source.Source{}}
	for _, res := range results {
		out.sources = append(out.sources, res.Sources...)
		if out.location == "" && res.Geolocal {
			out.location = res.City
			if out.location == "" && s.Geolocation != nil {
				out.location = s.Geolocation.City
			}
		}
	}
	s.Log.Record(search.StageWeb, time.Since(start))
	return out
}

func (svc *Service) searchImages(ctx context.Context, s *search.Search) []*source.Source {
	start := time.Now()
	defer func() { s.Log.Record(search.StageImage, time.Since(start)) }()

	images, err := svc.web.Images(ctx, s.Keywords[0], s.Geolocation)
	if err != nil {
		logger.FromContextOr(ctx, svc.logger).Warn("image search failed",
			zap.String("keyword", s.Keywords[0]), zap.Error(err))
		return []*source.Source{}
	}
	return images
}

func (svc *Service) searchPlaces(ctx context.Context, s *search.Search) []place.Place {
	start := time.Now()
	defer func() { s.Log.Record(search.StagePlace, time.Since(start)) }()

	places, err := svc.places.Search(ctx, s.Query, s.Geolocation)
	if err != nil {
		logger.FromContextOr(ctx, svc.logger).Warn("place search failed", zap.Error(err))
		return []place.Place{}
	}
	return places
}

func (svc *Service) knowledgePanel(ctx context.Context, s *search.Search) *knowledge.Panel {
	start := time.Now()
	defer func() { s.Log.Record(search.StageKnowledge, time.Since(start)) }()

	panel, err := svc.kg.Panel(ctx, s.Entity)
	if err != nil {
		logger.FromContextOr(ctx, svc.logger).Warn("knowledge panel failed",
			zap.String("entity", s.Entity), zap.Error(err))
		return nil
	}
	return panel
}
