package summarize

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/completion"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/place"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/search"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/source"
)

// --- Mocks ---

type mockStreamer struct {
	req    completion.Request
	deltas []string
	err    error
	// read counts deltas handed to the consumer
	read int
}

func (m *mockStreamer) Stream(_ context.Context, req completion.Request, fn func(string) error) (string, error) {
	m.req = req
	var full strings.Builder
	for _, d := range m.deltas {
		full.WriteString(d)
		m.read++
		if err := fn(d); err != nil {
			return full.String(), err
		}
	}
	return full.String(), m.err
}

type mockFetcher struct {
	mu   sync.Mutex
	urls []string
}

func (m *mockFetcher) FetchText(_ context.Context, url string) (string, error) {
	m.mu.Lock()
	m.urls = append(m.urls, url)
	m.mu.Unlock()
	return "full text of " + url, nil
}

func webTurn(sources ...*source.Source) *search.Search {
	s := search.FromIntent("t1", "what is go", search.Intent{Keywords: []string{"go"}, Type: search.TypeWeb})
	s.Sources = sources
	return s
}

func collect(out *[]string) func(string) error {
	return func(d string) error {
		*out = append(*out, d)
		return nil
	}
}

// --- Citations ---

func TestCitations_SkipsEmptyKeepsIndices(t *testing.T) {
	got := Citations([]*source.Source{
		{URL: "a", Snippet: "alpha"},
		{URL: "b"},
		{URL: "c", Snippet: "snip", CrawledContent: "gamma"},
	})
	want := "[citation:0] alpha" + ChunkDelimiter + "[citation:2] gamma"
	if got != want {
		t.Errorf("Citations =\n%q\nwant\n%q", got, want)
	}
}

func TestCitations_LeadingSkipHasNoDelimiter(t *testing.T) {
	got := Citations([]*source.Source{{URL: "a"}, {URL: "b", Snippet: "beta"}})
	if got != "[citation:1] beta" {
		t.Errorf("Citations = %q", got)
	}
}

func TestCitations_RoundTrip(t *testing.T) {
	sources := []*source.Source{
		{URL: "a", Snippet: "alpha"},
		{URL: "b"},
		{URL: "c", Snippet: "gamma"},
		{URL: "d", CrawledContent: "delta"},
	}
	ctx := Citations(sources)

	marker := regexp.MustCompile(`\[citation:(\d+)\] ([^\n]*)`)
	for _, m := range marker.FindAllStringSubmatch(ctx, -1) {
		i, err := strconv.Atoi(m[1])
		if err != nil || i < 0 || i >= len(sources) {
			t.Fatalf("marker %q out of range", m[0])
		}
		if sources[i].Text() != m[2] {
			t.Errorf("marker %d maps to %q, want %q", i, m[2], sources[i].Text())
		}
	}
}

// --- Stream ---

func TestStream_Web(t *testing.T) {
	llm := &mockStreamer{deltas: []string{"Go is ", "a language", " [citation:0]."}}
	svc := New(llm, nil, Config{Model: "m", Temperature: 0.5}, zap.NewNop())
	s := webTurn(&source.Source{URL: "a", ResultType: source.TypeWeb, Snippet: "Go is a language"})

	var got []string
	if err := svc.Stream(context.Background(), s, Options{}, collect(&got)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("deltas = %v", got)
	}
	if s.Summary() != "Go is a language [citation:0]." {
		t.Errorf("summary = %q", s.Summary())
	}
	if llm.req.Temperature != 0.5 || len(llm.req.Stop) != 3 {
		t.Errorf("request = %+v", llm.req)
	}
	user := llm.req.Messages[1].Content
	if user != "Answer the question 'what is go' from the given context:\n[citation:0] Go is a language" {
		t.Errorf("user prompt = %q", user)
	}
	if llm.req.Messages[0].Content != summaryPrompt {
		t.Error("web turn should use the summary prompt")
	}
}

func TestStream_CrawlsLeadingSources(t *testing.T) {
	llm := &mockStreamer{deltas: []string{"ok"}}
	f := &mockFetcher{}
	svc := New(llm, f, Config{CrawlSources: 2}, zap.NewNop())

	s := webTurn(
		&source.Source{URL: "v", ResultType: "videos", Snippet: "video"},
		&source.Source{URL: "a", ResultType: source.TypeWeb, Snippet: "a"},
		&source.Source{URL: "b", ResultType: source.TypeNews, Snippet: "b"},
		&source.Source{URL: "c", ResultType: source.TypeWeb, Snippet: "c"},
	)
	if err := svc.Stream(context.Background(), s, Options{}, collect(new([]string))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.urls) != 2 {
		t.Fatalf("crawled %v, want 2 pages", f.urls)
	}
	if s.Sources[1].CrawledContent != "full text of a" || s.Sources[3].CrawledContent != "" {
		t.Errorf("unexpected crawl results: %q / %q", s.Sources[1].CrawledContent, s.Sources[3].CrawledContent)
	}
	if !strings.Contains(llm.req.Messages[1].Content, "[citation:1] full text of a") {
		t.Errorf("context should use crawled text: %q", llm.req.Messages[1].Content)
	}
}

func TestStream_Place(t *testing.T) {
	llm := &mockStreamer{deltas: []string{"Try Slice."}}
	svc := New(llm, nil, Config{}, zap.NewNop())

	s := search.FromIntent("t1", "pizza", search.Intent{Keywords: []string{"pizza"}, Type: search.TypePlace})
	s.Places = []place.Place{{Name: "Slice", Rating: 4.5, ReviewCount: 10}, {Name: "Dough"}}

	if err := svc.Stream(context.Background(), s, Options{}, collect(new([]string))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if llm.req.Messages[0].Content != reviewPrompt {
		t.Error("place turn should use the review prompt")
	}
	user := llm.req.Messages[1].Content
	if !strings.Contains(user, "Slice\nRating: 4.5 stars for 10 reviews") || !strings.Contains(user, "---\nDough") {
		t.Errorf("user prompt = %q", user)
	}
	if strings.Contains(user, "[citation:") {
		t.Error("place context must not carry citation markers")
	}
	if s.Summary() != "Try Slice." {
		t.Errorf("summary = %q", s.Summary())
	}
}

func TestStream_UserPromptOverride(t *testing.T) {
	llm := &mockStreamer{deltas: []string{"x"}}
	f := &mockFetcher{}
	svc := New(llm, f, Config{CrawlSources: 3}, zap.NewNop())
	s := webTurn(&source.Source{URL: "a", ResultType: source.TypeWeb})

	prompt := "Summarise the article 'T' from the given context:\nbody"
	if err := svc.Stream(context.Background(), s, Options{UserPrompt: prompt}, collect(new([]string))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if llm.req.Messages[1].Content != prompt {
		t.Errorf("user prompt = %q", llm.req.Messages[1].Content)
	}
	if len(f.urls) != 0 {
		t.Error("custom prompts should not trigger crawling")
	}
}

func TestStream_EmitFailureStillStoresSummary(t *testing.T) {
	llm := &mockStreamer{deltas: []string{"a", "b", "c"}}
	svc := New(llm, nil, Config{}, zap.NewNop())
	s := webTurn()

	gone := errors.New("client gone")
	calls := 0
	err := svc.Stream(context.Background(), s, Options{}, func(string) error {
		calls++
		return gone
	})
	if !errors.Is(err, gone) {
		t.Fatalf("expected emit error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("emit called %d times, want 1", calls)
	}
	if llm.read != 3 {
		t.Errorf("read %d deltas, want 3", llm.read)
	}
	if s.Summary() != "abc" {
		t.Errorf("summary = %q", s.Summary())
	}
}

func TestStream_ProviderError(t *testing.T) {
	llm := &mockStreamer{deltas: []string{"par"}, err: domain.ErrProviderUnavailable}
	svc := New(llm, nil, Config{}, zap.NewNop())
	s := webTurn()

	err := svc.Stream(context.Background(), s, Options{}, collect(new([]string)))
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if s.Summary() != "" {
		t.Error("summary must not be set when the stream fails")
	}
}

func TestStream_SummaryAssignedOnce(t *testing.T) {
	llm := &mockStreamer{deltas: []string{"x"}}
	svc := New(llm, nil, Config{}, zap.NewNop())
	s := webTurn()
	if err := s.SetSummary("earlier"); err != nil {
		t.Fatal(err)
	}
	err := svc.Stream(context.Background(), s, Options{}, collect(new([]string)))
	if !errors.Is(err, domain.ErrSummaryAlreadySet) {
		t.Fatalf("expected ErrSummaryAlreadySet, got %v", err)
	}
	if s.Summary() != "earlier" {
		t.Errorf("summary = %q", s.Summary())
	}
}
