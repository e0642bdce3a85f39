package quest

import (
	"fmt"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
)

// Sentinel errors matched by APIError.Is. Use errors.Is() to check.
var (
	ErrMissingQuery        = domain.ErrMissingQuery
	ErrInvalidInput        = domain.ErrInvalidInput
	ErrNotFound            = domain.ErrNotFound
	ErrThreadNotFound      = domain.ErrThreadNotFound
	ErrArticleNotFound     = domain.ErrArticleNotFound
	ErrProviderUnavailable = domain.ErrProviderUnavailable
)

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("quest: http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("quest: %s (%d): %s", e.Code, e.Status, e.Message)
}

var codeSentinels = map[string]error{
	"missing_query":        ErrMissingQuery,
	"bad_request":          ErrInvalidInput,
	"validation_failed":    ErrInvalidInput,
	"thread_not_found":     ErrThreadNotFound,
	"article_not_found":    ErrArticleNotFound,
	"not_found":            ErrNotFound,
	"provider_unavailable": ErrProviderUnavailable,
}

// Is lets errors.Is match an APIError against the package sentinels.
// Specific not-found codes also match ErrNotFound.
func (e *APIError) Is(target error) bool {
	s, ok := codeSentinels[e.Code]
	if !ok {
		return false
	}
	if s == target {
		return true
	}
	return target == ErrNotFound && (s == ErrThreadNotFound || s == ErrArticleNotFound)
}
