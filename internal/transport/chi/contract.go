package chi

import (
	"context"

	domarticle "github.com/rehmatsg/quest-search-public-api/internal/domain/article"
	domthread "github.com/rehmatsg/quest-search-public-api/internal/domain/thread"
	healthuc "github.com/rehmatsg/quest-search-public-api/internal/usecase/health"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/news"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/quest"
)

// Searcher streams search turns and article summaries.
type Searcher interface {
	Run(ctx context.Context, req quest.Request, emit quest.Emit) error
	SummarizeArticle(ctx context.Context, articleID, owner string, emit quest.Emit) error
}

// ThreadReader loads stored threads.
type ThreadReader interface {
	Get(ctx context.Context, id string) (*domthread.Thread, error)
}

// NewsFeed serves crawled articles.
type NewsFeed interface {
	Digest(ctx context.Context, callerAddr string) (*news.Digest, error)
	Topics() []string
	ByTopic(ctx context.Context, topic string) ([]*domarticle.Article, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
