package search

import (
	"fmt"
	"strings"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
)

// Type routes a turn to web or place providers.
type Type string

// Search type constants.
const (
	TypeWeb   Type = "web"
	TypePlace Type = "place"
)

// ParseType maps the LLM's search_type value; anything but "place" is web.
func ParseType(s string) Type {
	if strings.EqualFold(strings.TrimSpace(s), string(TypePlace)) {
		return TypePlace
	}
	return TypeWeb
}

// MaxKeywords is the upper bound on keywords kept from an intent.
const MaxKeywords = 3

// Intent is the structured reading of a free-text query.
type Intent struct {
	Keywords    []string
	Type        Type
	SearchImage bool
	Entity      string
}

// Fallback is the intent used when the LLM never produced a usable one.
func Fallback(query string) Intent {
	return Intent{
		Keywords:    []string{query},
		Type:        TypeWeb,
		SearchImage: true,
	}
}

// Normalize trims keywords, drops empty ones and caps the list.
// It fails when no keyword survives.
func (i Intent) Normalize() (Intent, error) {
	kept := make([]string, 0, len(i.Keywords))
	for _, k := range i.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			kept = append(kept, k)
		}
		if len(kept) == MaxKeywords {
			break
		}
	}
	if len(kept) == 0 {
		return Intent{}, fmt.Errorf("%w: intent has no keywords", domain.ErrMalformedCompletion)
	}
	if i.Type != TypePlace {
		i.Type = TypeWeb
	}
	i.Keywords = kept
	i.Entity = strings.TrimSpace(i.Entity)
	return i, nil
}
