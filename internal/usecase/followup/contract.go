package followup

import (
	"context"

	"github.com/rehmatsg/quest-search-public-api/internal/domain/completion"
)

// Completer runs a non-streaming chat completion.
type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}
