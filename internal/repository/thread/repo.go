// Package thread persists conversation threads as JSON documents.
package thread

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rehmatsg/quest-search-public-api/internal/db"
	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	domthread "github.com/rehmatsg/quest-search-public-api/internal/domain/thread"
)

// store is the consumer interface for threads (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONInsert(ctx context.Context, key string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// Repo implements usecase/thread.Repository.
type Repo struct {
	store  store
	prefix string
}

// New creates a thread repository. Keys are <prefix>thread:<id>.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

func (r *Repo) key(id string) string {
	return r.prefix + "thread:" + id
}

// Get loads a thread. Unknown ids return domain.ErrThreadNotFound.
func (r *Repo) Get(ctx context.Context, id string) (*domthread.Thread, error) {
	raw, err := r.store.JSONGet(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrThreadNotFound
		}
		return nil, fmt.Errorf("get thread %s: %w", id, err)
	}

	var doc threadDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode thread %s: %w", id, err)
	}
	return docToThread(&doc), nil
}

// Insert stores a new thread. An existing id returns domain.ErrAlreadyExists.
func (r *Repo) Insert(ctx context.Context, t *domthread.Thread) error {
	data, err := json.Marshal(threadToDoc(t))
	if err != nil {
		return fmt.Errorf("encode thread %s: %w", t.ID(), err)
	}
	if err := r.store.JSONInsert(ctx, r.key(t.ID()), data); err != nil {
		if errors.Is(err, db.ErrKeyExists) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert thread %s: %w", t.ID(), err)
	}
	return nil
}

// Replace overwrites the whole stored document.
func (r *Repo) Replace(ctx context.Context, t *domthread.Thread) error {
	data, err := json.Marshal(threadToDoc(t))
	if err != nil {
		return fmt.Errorf("encode thread %s: %w", t.ID(), err)
	}
	if err := r.store.JSONSet(ctx, r.key(t.ID()), "$", data); err != nil {
		return fmt.Errorf("replace thread %s: %w", t.ID(), err)
	}
	return nil
}
