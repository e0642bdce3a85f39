package quest

import (
	"context"

	domarticle "github.com/rehmatsg/quest-search-public-api/internal/domain/article"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/geo"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/search"
	domthread "github.com/rehmatsg/quest-search-public-api/internal/domain/thread"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/summarize"
)

// IntentBuilder derives turns and headlines through the LLM.
type IntentBuilder interface {
	Build(ctx context.Context, query string, t *domthread.Thread) *search.Search
	RewriteHeadline(ctx context.Context, a *domarticle.Article) string
}

// Locator resolves a caller address to a location.
type Locator interface {
	Locate(ctx context.Context, ip string) (*geo.Geolocation, error)
}

// Fanout runs the provider calls of a turn.
type Fanout interface {
	Run(ctx context.Context, s *search.Search)
	Web(ctx context.Context, s *search.Search)
}

// Summarizer streams the answer of a turn.
type Summarizer interface {
	Stream(ctx context.Context, s *search.Search, opts summarize.Options, emit func(delta string) error) error
}

// FollowUpGenerator proposes next questions from a turn context.
type FollowUpGenerator interface {
	Generate(ctx context.Context, turnContext string) []string
}

// Threads loads and saves conversations.
type Threads interface {
	Get(ctx context.Context, id string) (*domthread.Thread, error)
	Load(ctx context.Context, id, owner string) *domthread.Thread
	Create(owner string) *domthread.Thread
	Persist(ctx context.Context, t *domthread.Thread) <-chan error
}

// Articles reads news articles and records their summary threads.
type Articles interface {
	Get(ctx context.Context, id string) (*domarticle.Article, error)
	LinkToThread(ctx context.Context, id, threadID, title, summary string) error
}
