package domain

import "errors"

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals a duplicate resource.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput signals a malformed request value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrMissingQuery signals a search request with neither a query nor an article id.
	ErrMissingQuery = errors.New("please provide a query or article id")
	// ErrThreadNotFound signals a missing thread.
	ErrThreadNotFound = errors.New("thread not found")
	// ErrArticleNotFound signals a missing article.
	ErrArticleNotFound = errors.New("article not found")
	// ErrSummaryAlreadySet signals a second summary assignment for the same turn.
	ErrSummaryAlreadySet = errors.New("summary already set")
	// ErrMalformedCompletion signals an LLM completion that is not the requested JSON object.
	ErrMalformedCompletion = errors.New("malformed completion")
	// ErrProviderUnavailable signals an external provider failure.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrLocationUnavailable signals that the caller could not be located.
	ErrLocationUnavailable = errors.New("location unavailable")
)
