// Package article persists crawled news articles and their topic index.
package article

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rehmatsg/quest-search-public-api/internal/db"
	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	domarticle "github.com/rehmatsg/quest-search-public-api/internal/domain/article"
)

// store is the consumer interface for articles (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONInsert(ctx context.Context, key string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	Search(ctx context.Context, q *db.Query) (*db.SearchResult, error)
}

// Repo implements the article repository used by the crawler, the feed and
// article summaries.
type Repo struct {
	store  store
	prefix string
}

// New creates an article repository. Documents live at <prefix>article:<id>.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

func (r *Repo) key(id string) string {
	return r.prefix + "article:" + id
}

// seenKey marks an aggregator link as crawled. It sits outside the indexed prefix.
func (r *Repo) seenKey(ogURL string) string {
	sum := sha256.Sum256([]byte(ogURL))
	return r.prefix + "seen:" + hex.EncodeToString(sum[:])
}

// EnsureIndex creates the topic index when absent.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	exists, err := r.store.IndexExists(ctx, indexName(r.prefix))
	if err != nil {
		return fmt.Errorf("check article index: %w", err)
	}
	if exists {
		return nil
	}
	if err := r.store.CreateIndex(ctx, buildIndex(r.prefix)); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create article index: %w", err)
	}
	return nil
}

// Save stores a new article. A second article with the same aggregator link
// returns domain.ErrAlreadyExists.
func (r *Repo) Save(ctx context.Context, a *domarticle.Article) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode article: %w", err)
	}

	seen := r.seenKey(a.OGURL)
	ok, err := r.store.SetNX(ctx, seen, []byte(a.ID), 0)
	if err != nil {
		return fmt.Errorf("mark article seen: %w", err)
	}
	if !ok {
		return domain.ErrAlreadyExists
	}

	if err := r.store.JSONInsert(ctx, r.key(a.ID), data); err != nil {
		// Release the link so a later run can retry it.
		_ = r.store.Del(ctx, seen)
		if errors.Is(err, db.ErrKeyExists) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert article %s: %w", a.ID, err)
	}
	return nil
}

// Seen reports whether an aggregator link was already stored.
func (r *Repo) Seen(ctx context.Context, ogURL string) (bool, error) {
	ok, err := r.store.Exists(ctx, r.seenKey(ogURL))
	if err != nil {
		return false, fmt.Errorf("check article seen: %w", err)
	}
	return ok, nil
}

// Get loads an article by id.
func (r *Repo) Get(ctx context.Context, id string) (*domarticle.Article, error) {
	raw, err := r.store.JSONGet(ctx, r.key(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrArticleNotFound
		}
		return nil, fmt.Errorf("get article %s: %w", id, err)
	}
	var a domarticle.Article
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("decode article %s: %w", id, err)
	}
	return &a, nil
}

// LinkToThread records the generated summary thread on the article.
func (r *Repo) LinkToThread(ctx context.Context, id, threadID, title, summary string) error {
	key := r.key(id)
	exists, err := r.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check article %s: %w", id, err)
	}
	if !exists {
		return domain.ErrArticleNotFound
	}

	updates := []struct{ path, value string }{
		{"$.thread_id", threadID},
		{"$.title", title},
		{"$.summary", summary},
	}
	for _, u := range updates {
		if u.path == "$.title" && u.value == "" {
			continue
		}
		data, err := json.Marshal(u.value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", u.path, err)
		}
		if err := r.store.JSONSet(ctx, key, u.path, data); err != nil {
			return fmt.Errorf("update article %s %s: %w", id, u.path, err)
		}
	}
	return nil
}

// ListByTopic returns the newest articles of a topic, newest first.
func (r *Repo) ListByTopic(ctx context.Context, topic string, limit int) ([]*domarticle.Article, error) {
	if limit <= 0 {
		return []*domarticle.Article{}, nil
	}
	res, err := r.store.Search(ctx, &db.Query{
		Index:        indexName(r.prefix),
		Query:        db.TagFilter("topic", strings.ToUpper(topic)),
		SortBy:       "publish_date",
		SortDesc:     true,
		Limit:        limit,
		ReturnFields: []string{"$"},
	})
	if err != nil {
		return nil, fmt.Errorf("list %s articles: %w", topic, err)
	}

	out := make([]*domarticle.Article, 0, len(res.Entries))
	for _, e := range res.Entries {
		raw, ok := e.Fields["$"]
		if !ok {
			continue
		}
		var a domarticle.Article
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, fmt.Errorf("decode article %s: %w", e.Key, err)
		}
		out = append(out, &a)
	}
	return out, nil
}
