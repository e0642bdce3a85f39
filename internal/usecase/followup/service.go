// Package followup proposes the next questions of a conversation.
package followup

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/completion"
	"github.com/rehmatsg/quest-search-public-api/internal/logger"
)

// Count is the number of follow-ups a successful generation returns.
const Count = 3

const prompt = `You suggest what a user could ask a conversational search engine next.
You are given the user's last question and the answer they received. Reply with exactly 3 short follow-up questions as a list of strings and nothing else, for example:
["question 1", "question 2", "question 3"]`

// Config controls the completion call.
type Config struct {
	Model       string
	Temperature float32
}

// Service generates follow-up questions.
type Service struct {
	llm    Completer
	cfg    Config
	logger *zap.Logger
}

// New creates a follow-up generator.
func New(llm Completer, cfg Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{llm: llm, cfg: cfg, logger: logger}
}

// Generate returns exactly Count questions for the given turn context, or an
// empty list when the completion fails or cannot be parsed.
func (s *Service) Generate(ctx context.Context, turnContext string) []string {
	log := logger.FromContextOr(ctx, s.logger)

	out, err := s.llm.Complete(ctx, completion.Request{
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		Messages: []completion.Message{
			completion.System(prompt),
			completion.User(turnContext),
		},
	})
	if err != nil {
		log.Warn("follow-up completion failed", zap.Error(err))
		return []string{}
	}

	qs, err := ParseList(out)
	if err != nil || len(qs) != Count {
		log.Debug("discarding follow-ups", zap.String("raw", out), zap.Error(err))
		return []string{}
	}
	return qs
}

// ParseList reads a list literal of strings. Both JSON and single-quoted
// literals are accepted; surrounding text is ignored.
func ParseList(out string) ([]string, error) {
	first := strings.Index(out, "[")
	last := strings.LastIndex(out, "]")
	if first < 0 || last < first {
		return nil, fmt.Errorf("%w: no list in completion", domain.ErrMalformedCompletion)
	}
	lit := out[first : last+1]

	var qs []string
	if err := json.Unmarshal([]byte(lit), &qs); err == nil {
		return qs, nil
	}
	return parseLiteral(lit)
}

// parseLiteral scans a bracketed list of single- or double-quoted strings
// with backslash escapes.
func parseLiteral(lit string) ([]string, error) {
	bad := func(msg string) error {
		return fmt.Errorf("%w: %s", domain.ErrMalformedCompletion, msg)
	}

	r := []rune(strings.TrimSpace(lit))
	if len(r) < 2 || r[0] != '[' || r[len(r)-1] != ']' {
		return nil, bad("not a list")
	}
	r = r[1 : len(r)-1]

	out := []string{}
	i := 0
	skipSpace := func() {
		for i < len(r) && (r[i] == ' ' || r[i] == '\n' || r[i] == '\t' || r[i] == '\r') {
			i++
		}
	}
	for {
		skipSpace()
		if i == len(r) {
			return out, nil
		}
		quote := r[i]
		if quote != '\'' && quote != '"' {
			return nil, bad("list item is not a string")
		}
		i++
		var b strings.Builder
		closed := false
		for i < len(r) {
			c := r[i]
			i++
			if c == '\\' && i < len(r) {
				b.WriteRune(r[i])
				i++
				continue
			}
			if c == quote {
				closed = true
				break
			}
			b.WriteRune(c)
		}
		if !closed {
			return nil, bad("unterminated string")
		}
		out = append(out, b.String())

		skipSpace()
		if i == len(r) {
			return out, nil
		}
		if r[i] != ',' {
			return nil, bad("missing comma")
		}
		i++
	}
}
