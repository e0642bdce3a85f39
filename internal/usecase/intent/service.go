// Package intent turns a raw query into a structured search plan and rewrites
// article headlines, both through bounded JSON-mode completions.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	domarticle "github.com/rehmatsg/quest-search-public-api/internal/domain/article"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/completion"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/search"
	domthread "github.com/rehmatsg/quest-search-public-api/internal/domain/thread"
	"github.com/rehmatsg/quest-search-public-api/internal/logger"
	"github.com/rehmatsg/quest-search-public-api/internal/metrics"
)

// Metric task labels.
const (
	taskIntent   = "intent"
	taskHeadline = "headline"
)

var intentStop = []string{"</s>", "[/INST]"}

// Config controls the completion calls.
type Config struct {
	Model       string
	Temperature float32
	MaxAttempts int
}

// Service builds search intents.
type Service struct {
	llm    Completer
	cfg    Config
	logger *zap.Logger
	now    func() time.Time
}

// New creates an intent service. MaxAttempts below 1 means a single attempt.
func New(llm Completer, cfg Config, logger *zap.Logger) *Service {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{llm: llm, cfg: cfg, logger: logger, now: time.Now}
}

// Build derives the next turn of thread from query. It never fails: after the
// last failed attempt the query itself becomes the only keyword.
func (s *Service) Build(ctx context.Context, query string, t *domthread.Thread) *search.Search {
	log := logger.FromContextOr(ctx, s.logger)
	msgs := intentMessages(s.now(), t.Contexts(), query)

	var (
		in  search.Intent
		raw string
	)
	start := time.Now()
	err := retry(ctx, s.cfg.MaxAttempts, func(attempt int) error {
		out, err := s.llm.Complete(ctx, completion.Request{
			Model:       s.cfg.Model,
			Messages:    msgs,
			Temperature: s.cfg.Temperature,
			Stop:        intentStop,
			JSON:        true,
		})
		if err == nil {
			raw = out
			in, err = parseIntent(out)
		}
		if err != nil {
			metrics.IntentAttemptsTotal.WithLabelValues(taskIntent, "retry").Inc()
			log.Warn("intent attempt failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return nil
	})

	var turn *search.Search
	if err != nil {
		metrics.IntentAttemptsTotal.WithLabelValues(taskIntent, "fallback").Inc()
		log.Error("intent attempts exhausted, using fallback",
			zap.Int("attempts", s.cfg.MaxAttempts), zap.Error(err))
		turn = search.FromIntent(t.ID(), query, search.Fallback(query))
	} else {
		metrics.IntentAttemptsTotal.WithLabelValues(taskIntent, metrics.StatusOK).Inc()
		turn = search.FromIntent(t.ID(), query, in)
	}
	// raw is the last completion received, even when it could not be parsed
	turn.Log.SetRawKeywords(raw)
	turn.Log.Record(search.StageKeywords, time.Since(start))
	return turn
}

// RewriteHeadline asks for a neutral headline. The original title is returned
// when every attempt fails.
func (s *Service) RewriteHeadline(ctx context.Context, a *domarticle.Article) string {
	log := logger.FromContextOr(ctx, s.logger)
	msgs := headlineMessages(a.Title, a.CrawledContent)

	var headline string
	err := retry(ctx, s.cfg.MaxAttempts, func(attempt int) error {
		out, err := s.llm.Complete(ctx, completion.Request{
			Model:       s.cfg.Model,
			Messages:    msgs,
			Temperature: s.cfg.Temperature,
			JSON:        true,
		})
		if err == nil {
			headline, err = parseHeadline(out)
		}
		if err != nil {
			metrics.IntentAttemptsTotal.WithLabelValues(taskHeadline, "retry").Inc()
			log.Warn("headline attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		}
		return err
	})
	if err != nil {
		metrics.IntentAttemptsTotal.WithLabelValues(taskHeadline, "fallback").Inc()
		log.Error("headline attempts exhausted, keeping original title",
			zap.String("article_id", a.ID), zap.Error(err))
		return a.Title
	}
	metrics.IntentAttemptsTotal.WithLabelValues(taskHeadline, metrics.StatusOK).Inc()
	return headline
}

// intentDoc is the JSON shape requested from the model.
type intentDoc struct {
	Keywords    []string `json:"keywords"`
	SearchType  string   `json:"search_type"`
	SearchImage *bool    `json:"search_image"`
	Entity      *string  `json:"entity"`
}

func parseIntent(out string) (search.Intent, error) {
	obj, err := extractObject(out)
	if err != nil {
		return search.Intent{}, err
	}

	var doc intentDoc
	if err := json.Unmarshal([]byte(obj), &doc); err != nil {
		return search.Intent{}, fmt.Errorf("%w: %w", domain.ErrMalformedCompletion, err)
	}

	in := search.Intent{
		Keywords:    doc.Keywords,
		Type:        search.ParseType(doc.SearchType),
		SearchImage: true,
	}
	if doc.SearchImage != nil {
		in.SearchImage = *doc.SearchImage
	}
	if doc.Entity != nil {
		in.Entity = *doc.Entity
	}
	return in.Normalize()
}

func parseHeadline(out string) (string, error) {
	obj, err := extractObject(out)
	if err != nil {
		return "", err
	}
	var doc struct {
		Headline string `json:"headline"`
	}
	if err := json.Unmarshal([]byte(obj), &doc); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrMalformedCompletion, err)
	}
	h := strings.TrimSpace(doc.Headline)
	if h == "" {
		return "", fmt.Errorf("%w: empty headline", domain.ErrMalformedCompletion)
	}
	return h, nil
}

// extractObject cuts the text between the first '{' and the last '}'.
func extractObject(out string) (string, error) {
	first := strings.Index(out, "{")
	last := strings.LastIndex(out, "}")
	if first < 0 || last < first {
		return "", fmt.Errorf("%w: no json object in completion", domain.ErrMalformedCompletion)
	}
	return out[first : last+1], nil
}
