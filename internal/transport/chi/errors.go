package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	"github.com/rehmatsg/quest-search-public-api/internal/logger"
)

// ErrorCode is the machine-readable part of an error response.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest          ErrorCode = "bad_request"
	CodeMissingQuery        ErrorCode = "missing_query"
	CodeValidationFailed    ErrorCode = "validation_failed"
	CodeThreadNotFound      ErrorCode = "thread_not_found"
	CodeArticleNotFound     ErrorCode = "article_not_found"
	CodeNotFound            ErrorCode = "not_found"
	CodeProviderUnavailable ErrorCode = "provider_unavailable"
	CodeInternalError       ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

type errorMapping struct {
	sentinel error
	status   int
	code     ErrorCode
}

// errorMappings is checked in order; the first match wins.
var errorMappings = []errorMapping{
	{domain.ErrMissingQuery, http.StatusBadRequest, CodeMissingQuery},
	{domain.ErrInvalidInput, http.StatusBadRequest, CodeValidationFailed},
	{domain.ErrThreadNotFound, http.StatusNotFound, CodeThreadNotFound},
	{domain.ErrArticleNotFound, http.StatusNotFound, CodeArticleNotFound},
	{domain.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{domain.ErrProviderUnavailable, http.StatusBadGateway, CodeProviderUnavailable},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// handleDomainError maps err to a response. Only the sentinel text reaches
// the client.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContextOr(r.Context(), s.logger)
	for _, m := range errorMappings {
		if errors.Is(err, m.sentinel) {
			log.Warn("domain error", zap.Error(err))
			writeError(w, m.status, m.code, m.sentinel.Error())
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
