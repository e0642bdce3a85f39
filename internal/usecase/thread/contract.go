package thread

import (
	"context"

	domthread "github.com/rehmatsg/quest-search-public-api/internal/domain/thread"
)

// Repository stores threads.
type Repository interface {
	Get(ctx context.Context, id string) (*domthread.Thread, error)
	Insert(ctx context.Context, t *domthread.Thread) error
	Replace(ctx context.Context, t *domthread.Thread) error
}
