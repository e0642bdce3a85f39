package quest

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	domarticle "github.com/rehmatsg/quest-search-public-api/internal/domain/article"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/completion"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/geo"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/knowledge"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/place"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/search"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/source"
	domthread "github.com/rehmatsg/quest-search-public-api/internal/domain/thread"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/fanout"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/followup"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/intent"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/summarize"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/thread"
)

// fakeLLM serves intent, headline and follow-up completions plus summary streams.
type fakeLLM struct {
	mu          sync.Mutex
	intent      func() (string, error)
	headline    string
	followUps   string
	deltas      []string
	intentCalls int
	prompts     []completion.Request
}

func (f *fakeLLM) Complete(_ context.Context, req completion.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	system := req.Messages[0].Content
	switch {
	case strings.Contains(system, "headline"):
		return f.headline, nil
	case req.JSON:
		f.intentCalls++
		return f.intent()
	default:
		return f.followUps, nil
	}
}

func (f *fakeLLM) Stream(_ context.Context, req completion.Request, fn func(string) error) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, req)
	f.mu.Unlock()
	var b strings.Builder
	for _, d := range f.deltas {
		b.WriteString(d)
		if err := fn(d); err != nil {
			return b.String(), err
		}
	}
	return b.String(), nil
}

func intentJSON(doc string) func() (string, error) {
	return func() (string, error) { return doc, nil }
}

type fakeLocator struct {
	loc *geo.Geolocation
	err error
}

func (f *fakeLocator) Locate(context.Context, string) (*geo.Geolocation, error) { return f.loc, f.err }

type fakeWeb struct {
	mu      sync.Mutex
	queries []string
	sources []*source.Source
}

func (f *fakeWeb) Search(_ context.Context, q string, _ source.Index, _ *geo.Geolocation) (source.Results, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	return source.Results{Sources: f.sources}, nil
}

func (f *fakeWeb) Images(context.Context, string, *geo.Geolocation) ([]*source.Source, error) {
	return []*source.Source{{URL: "https://img.example/1.jpg", ResultType: source.TypeImage}}, nil
}

type fakePlaces struct {
	places []place.Place
	calls  int
}

func (f *fakePlaces) Search(context.Context, string, *geo.Geolocation) ([]place.Place, error) {
	f.calls++
	return f.places, nil
}

type fakeKG struct {
	entity string
}

func (f *fakeKG) Panel(_ context.Context, entity string) (*knowledge.Panel, error) {
	f.entity = entity
	return &knowledge.Panel{Label: entity, Description: "physicist"}, nil
}

// memThreads is an in-memory thread repository.
type memThreads struct {
	mu   sync.Mutex
	docs map[string]*domthread.Thread
}

func (m *memThreads) Get(_ context.Context, id string) (*domthread.Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.docs[id]
	if !ok {
		return nil, domain.ErrThreadNotFound
	}
	return clone(t), nil
}

// clone mimics a fresh read from storage.
func clone(t *domthread.Thread) *domthread.Thread {
	turns := make([]*search.Search, 0, t.Len())
	for _, s := range t.Searches() {
		turns = append(turns, search.Reconstruct(*s, s.Type(), s.Summary()))
	}
	return domthread.Reconstruct(t.ID(), t.UserID(), t.CreatedAt(), turns)
}

func (m *memThreads) Insert(_ context.Context, t *domthread.Thread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[t.ID()]; ok {
		return domain.ErrAlreadyExists
	}
	m.docs[t.ID()] = clone(t)
	return nil
}

func (m *memThreads) Replace(_ context.Context, t *domthread.Thread) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[t.ID()] = clone(t)
	return nil
}

func (m *memThreads) byOwner(owner string) []*domthread.Thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domthread.Thread
	for _, t := range m.docs {
		if t.UserID() == owner {
			out = append(out, t)
		}
	}
	return out
}

type fakeArticles struct {
	mu       sync.Mutex
	articles map[string]*domarticle.Article
	linked   map[string][3]string
}

func (f *fakeArticles) Get(_ context.Context, id string) (*domarticle.Article, error) {
	a, ok := f.articles[id]
	if !ok {
		return nil, domain.ErrArticleNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeArticles) LinkToThread(_ context.Context, id, threadID, title, summary string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linked[id] = [3]string{threadID, title, summary}
	return nil
}

// harness wires the real usecases around fake providers.
type harness struct {
	svc      *Service
	llm      *fakeLLM
	locator  *fakeLocator
	web      *fakeWeb
	places   *fakePlaces
	kg       *fakeKG
	repo     *memThreads
	threads  *thread.Service
	articles *fakeArticles
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		llm: &fakeLLM{
			intent:    intentJSON(`{"keywords": ["q"], "search_type": "web"}`),
			followUps: `["a?", "b?", "c?"]`,
			deltas:    []string{"Answer ", "[citation:0]."},
		},
		locator: &fakeLocator{},
		web: &fakeWeb{sources: []*source.Source{
			{URL: "https://a.example", ResultType: "web", Title: "A", Snippet: "alpha"},
		}},
		places:   &fakePlaces{},
		kg:       &fakeKG{},
		repo:     &memThreads{docs: map[string]*domthread.Thread{}},
		articles: &fakeArticles{articles: map[string]*domarticle.Article{}, linked: map[string][3]string{}},
	}
	log := zap.NewNop()
	h.threads = thread.New(h.repo, thread.Config{PersistTimeout: time.Second}, log)
	h.svc = New(Deps{
		Intent:    intent.New(h.llm, intent.Config{Model: "m", MaxAttempts: 5}, log),
		Locator:   h.locator,
		Fanout:    fanout.New(h.web, h.places, h.kg, log),
		Summarize: summarize.New(h.llm, nil, summarize.Config{Model: "m"}, log),
		FollowUps: followup.New(h.llm, followup.Config{Model: "m"}, log),
		Threads:   h.threads,
		Articles:  h.articles,
	}, Config{}, log)
	return h
}

// recorder collects frames as the client would decode them.
type recorder struct {
	frames []map[string]any
	failAt int // 1-based frame index that fails; 0 never fails
}

func (r *recorder) emit(frame any) error {
	if r.failAt > 0 && len(r.frames)+1 >= r.failAt {
		return context.Canceled
	}
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	r.frames = append(r.frames, m)
	return nil
}

func (r *recorder) snapshots() []map[string]any {
	var out []map[string]any
	for _, f := range r.frames {
		if _, ok := f["search_type"]; ok {
			out = append(out, f)
		}
	}
	return out
}

func (r *recorder) deltas() string {
	var b strings.Builder
	for _, f := range r.frames {
		if d, ok := f["delta"].(map[string]any); ok {
			b.WriteString(d["summary"].(string))
		}
	}
	return b.String()
}

func (r *recorder) last() map[string]any {
	return r.frames[len(r.frames)-1]
}

func springfield() *geo.Geolocation {
	return &geo.Geolocation{Country: "US", City: "Springfield", Latitude: geo.Float(39.8), Longitude: geo.Float(-89.6)}
}

// savedTurn waits for background saves and returns the last turn of the only
// thread owned by owner.
func (h *harness) savedTurn(t *testing.T, owner string) *search.Search {
	t.Helper()
	h.threads.Wait()
	ts := h.repo.byOwner(owner)
	if len(ts) != 1 {
		t.Fatalf("threads owned by %q = %d, want 1", owner, len(ts))
	}
	return ts[0].Last()
}
