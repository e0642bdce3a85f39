package quest

import (
	"encoding/json"
	"time"

	domarticle "github.com/rehmatsg/quest-search-public-api/internal/domain/article"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/knowledge"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/place"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/search"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/source"
)

// Wire types shared with the server.
type (
	Snapshot       = search.Snapshot
	SearchType     = search.Type
	Source         = source.Source
	Place          = place.Place
	KnowledgePanel = knowledge.Panel
	Article        = domarticle.Article
)

// SearchRequest starts or continues a thread. ArticleID asks for a summary
// of a crawled article and is only used when Query is empty.
type SearchRequest struct {
	Query     string
	ThreadID  string
	ArticleID string
}

// Frame is one decoded stream line. Exactly one field is set.
type Frame struct {
	Snapshot  *Snapshot
	Delta     string
	FollowUps []string
}

// Answer is the folded result of a search stream.
type Answer struct {
	// Snapshot is the last snapshot received. A place search that fell back
	// to the web sends two.
	Snapshot  *Snapshot
	Summary   string
	FollowUps []string
	Frames    int
}

// ThreadID returns the id to continue the conversation with.
func (a *Answer) ThreadID() string {
	if a == nil || a.Snapshot == nil {
		return ""
	}
	return a.Snapshot.ThreadID
}

// Thread is a stored conversation.
type Thread struct {
	ID        string     `json:"id"`
	UserID    *string    `json:"user_id"`
	CreatedAt time.Time  `json:"created_at"`
	Searches  []Snapshot `json:"searches"`
}

// Digest is the personalized news feed.
type Digest struct {
	News map[string][]*Article `json:"news"`
	// Weather is the provider's payload verbatim; null when unavailable.
	Weather json.RawMessage `json:"weather"`
}

// HealthStatus is the overall service state.
type HealthStatus string

// Health states.
const (
	Healthy  HealthStatus = "healthy"
	Degraded HealthStatus = "degraded"
)

// VersionInfo identifies the server build.
type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// HealthReport is returned by GET /health for both 200 and 503.
type HealthReport struct {
	Status  HealthStatus      `json:"status"`
	Checks  map[string]string `json:"checks"`
	Version VersionInfo       `json:"version"`
}
