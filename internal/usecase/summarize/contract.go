package summarize

import (
	"context"

	"github.com/rehmatsg/quest-search-public-api/internal/domain/completion"
)

// Streamer runs a streaming chat completion, calling fn for each text delta.
type Streamer interface {
	Stream(ctx context.Context, req completion.Request, fn func(delta string) error) (string, error)
}
