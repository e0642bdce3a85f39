// Package thread holds a conversation: an ordered list of turns with an owner.
package thread

import (
	"time"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/search"
)

// Thread is the conversation aggregate. A new thread is ephemeral until its
// first save; later saves replace the stored document.
type Thread struct {
	id        string
	userID    string
	createdAt time.Time
	searches  []*search.Search
	isNew     bool
}

// New creates an ephemeral thread with a fresh id.
func New() *Thread {
	return &Thread{
		id:        domain.NewID(domain.ThreadIDLength),
		createdAt: time.Now(),
		searches:  []*search.Search{},
		isNew:     true,
	}
}

// Reconstruct hydrates a stored thread. The result is marked persisted.
func Reconstruct(id, userID string, createdAt time.Time, searches []*search.Search) *Thread {
	if searches == nil {
		searches = []*search.Search{}
	}
	return &Thread{
		id:        id,
		userID:    userID,
		createdAt: createdAt,
		searches:  searches,
	}
}

// ID returns the thread id.
func (t *Thread) ID() string { return t.id }

// UserID returns the owner, empty for anonymous threads.
func (t *Thread) UserID() string { return t.userID }

// CreatedAt returns the creation time.
func (t *Thread) CreatedAt() time.Time { return t.createdAt }

// Searches returns the turns in order.
func (t *Thread) Searches() []*search.Search { return t.searches }

// IsNew reports whether the thread has never been saved under its current id.
func (t *Thread) IsNew() bool { return t.isNew }

// Len returns the number of turns.
func (t *Thread) Len() int { return len(t.searches) }

// Last returns the latest turn, or nil for an empty thread.
func (t *Thread) Last() *search.Search {
	if len(t.searches) == 0 {
		return nil
	}
	return t.searches[len(t.searches)-1]
}

// Add appends a finalized turn and points it at this thread.
func (t *Thread) Add(s *search.Search) {
	s.ThreadID = t.id
	t.searches = append(t.searches, s)
}

// SetOwner records the owner of an ephemeral thread.
func (t *Thread) SetOwner(userID string) { t.userID = userID }

// Claim binds the thread to a caller. A thread owned by someone else is
// forked: it gets a new id and becomes ephemeral again. Reports whether a
// fork happened.
func (t *Thread) Claim(userID string) bool {
	if t.userID == userID {
		return false
	}
	t.userID = userID
	t.Fork()
	return true
}

// Fork gives the thread a new id and marks it ephemeral.
func (t *Thread) Fork() {
	t.id = domain.NewID(domain.ThreadIDLength)
	t.isNew = true
	for _, s := range t.searches {
		s.ThreadID = t.id
	}
}

// MarkPersisted records a successful first save.
func (t *Thread) MarkPersisted() { t.isNew = false }

// Contexts returns every turn's context string, oldest first.
func (t *Thread) Contexts() []string {
	out := make([]string, len(t.searches))
	for i, s := range t.searches {
		out[i] = s.Context()
	}
	return out
}
