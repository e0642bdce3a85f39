// Package summarize streams the synthesized answer of a turn.
package summarize

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rehmatsg/quest-search-public-api/internal/domain/completion"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/search"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/source"
	"github.com/rehmatsg/quest-search-public-api/internal/logger"
)

// ChunkDelimiter separates citation chunks in the prompt context.
const ChunkDelimiter = "\n\n----\n\n"

// StopSequences cut generation when the model starts a references footer.
var StopSequences = []string{"<end>[End]", "[end]", "End."}

// Config controls summary generation.
type Config struct {
	Model       string
	Temperature float32
	// CrawlSources is how many leading web/news sources get their full text
	// fetched before the context is built. Zero disables crawling.
	CrawlSources int
}

// Options customizes a single summary.
type Options struct {
	// UserPrompt replaces the generated question-and-context message.
	UserPrompt string
}

// Service streams summaries.
type Service struct {
	llm     Streamer
	fetcher source.Fetcher
	cfg     Config
	logger  *zap.Logger
}

// New creates a summarizer. fetcher may be nil when crawling is disabled.
func New(llm Streamer, fetcher source.Fetcher, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{llm: llm, fetcher: fetcher, cfg: cfg, logger: logger}
}

// Stream generates the answer for s, forwarding every delta to emit, and
// assigns the full text as the turn summary once the completion ends.
// Citation markers that point past the turn's sources are dropped.
// When emit fails the remaining deltas are still read so the stored summary
// is complete; the emit error is returned after the summary is set.
func (svc *Service) Stream(ctx context.Context, s *search.Search, opts Options, emit func(delta string) error) error {
	req := completion.Request{
		Model:       svc.cfg.Model,
		Temperature: svc.cfg.Temperature,
		Stop:        StopSequences,
	}

	var filter *citationFilter
	switch s.Type() {
	case search.TypePlace:
		req.Messages = []completion.Message{
			completion.System(reviewPrompt),
			completion.User(userPrompt(opts, s.Query, PlaceContext(s))),
		}
	default:
		if opts.UserPrompt == "" {
			svc.crawl(ctx, s.Sources)
		}
		req.Messages = []completion.Message{
			completion.System(summaryPrompt),
			completion.User(userPrompt(opts, s.Query, Citations(s.Sources))),
		}
		filter = newCitationFilter(len(s.Sources))
	}

	var (
		emitErr error
		kept    strings.Builder
	)
	forward := func(text string) {
		kept.WriteString(text)
		if text == "" || emitErr != nil {
			return
		}
		if err := emit(text); err != nil {
			emitErr = err
			logger.FromContextOr(ctx, svc.logger).Info("client stopped reading summary", zap.Error(err))
		}
	}
	full, err := svc.llm.Stream(ctx, req, func(delta string) error {
		forward(filter.push(delta))
		return nil
	})
	if err != nil {
		return fmt.Errorf("stream summary: %w", err)
	}
	forward(filter.flush())
	if filter != nil {
		full = kept.String()
	}
	if err := s.SetSummary(full); err != nil {
		return err
	}
	return emitErr
}

func userPrompt(opts Options, query, body string) string {
	if opts.UserPrompt != "" {
		return opts.UserPrompt
	}
	return fmt.Sprintf("Answer the question '%s' from the given context:\n%s", query, body)
}

// crawl fetches the full text of the leading crawlable sources concurrently.
func (svc *Service) crawl(ctx context.Context, sources []*source.Source) {
	if svc.fetcher == nil || svc.cfg.CrawlSources <= 0 {
		return
	}
	var wg sync.WaitGroup
	n := 0
	for _, src := range sources {
		if n == svc.cfg.CrawlSources {
			break
		}
		if !src.Crawlable() {
			continue
		}
		n++
		wg.Go(func() { src.Crawl(ctx, svc.fetcher) })
	}
	wg.Wait()
}

// Citations renders the sources as citation-tagged chunks. The marker is the
// source's position in the full list, so skipped sources leave gaps.
func Citations(sources []*source.Source) string {
	chunks := make([]string, 0, len(sources))
	for i, src := range sources {
		text := src.Text()
		if text == "" {
			continue
		}
		chunks = append(chunks, "[citation:"+strconv.Itoa(i)+"] "+text)
	}
	return strings.Join(chunks, ChunkDelimiter)
}

// PlaceContext renders the place listings of a turn for the review prompt.
func PlaceContext(s *search.Search) string {
	blocks := make([]string, 0, len(s.Places))
	for i := range s.Places {
		blocks = append(blocks, s.Places[i].Context())
	}
	return strings.Join(blocks, "---\n")
}
