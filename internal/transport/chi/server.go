// Package chi serves the HTTP API: the streamed search endpoint, stored
// threads, the news feed, health and metrics.
package chi

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	domarticle "github.com/rehmatsg/quest-search-public-api/internal/domain/article"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/search"
	domthread "github.com/rehmatsg/quest-search-public-api/internal/domain/thread"
	"github.com/rehmatsg/quest-search-public-api/internal/logger"
	"github.com/rehmatsg/quest-search-public-api/internal/metrics"
	healthuc "github.com/rehmatsg/quest-search-public-api/internal/usecase/health"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/quest"
)

// Welcome is the body of GET /.
const Welcome = "Welcome to Quest!"

// Server holds the HTTP handlers.
type Server struct {
	search  Searcher
	threads ThreadReader
	news    NewsFeed
	health  HealthChecker
	caller  CallerConfig
	logger  *zap.Logger
}

// NewServer creates an HTTP API server. news may be nil when the feed is disabled.
func NewServer(
	search Searcher,
	threads ThreadReader,
	news NewsFeed,
	health HealthChecker,
	caller CallerConfig,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search:  search,
		threads: threads,
		news:    news,
		health:  health,
		caller:  caller,
		logger:  logger,
	}
}

// Router mounts every route with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(s.logger))
	r.Use(metrics.Middleware())
	r.Use(Identity())

	r.Get("/", s.Root)
	r.Get("/search", s.Search)
	r.Get("/threads/{id}", s.GetThread)
	if s.news != nil {
		r.Route("/news", func(r chi.Router) {
			r.Get("/feed", s.NewsFeed)
			r.Get("/topics", s.NewsTopics)
			r.Get("/{topic}", s.NewsByTopic)
		})
	}
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(Welcome))
}

// Search handles GET /search. A query starts or continues a thread; without
// one, an article id summarizes that article. The query wins when both are set.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	query := strings.TrimSpace(params.Get("q"))
	articleID := strings.TrimSpace(params.Get("article_id"))
	if query == "" && articleID == "" {
		s.handleDomainError(w, r, domain.ErrMissingQuery)
		return
	}

	owner := OwnerFromContext(r.Context())
	out := newNDJSONWriter(w)
	defer out.close()

	var err error
	if query != "" {
		err = s.search.Run(r.Context(), quest.Request{
			Query:      query,
			ThreadID:   strings.TrimSpace(params.Get("thread_id")),
			Owner:      owner,
			CallerAddr: s.caller.addr(r),
		}, out.emit)
	} else {
		err = s.search.SummarizeArticle(r.Context(), articleID, owner, out.emit)
	}
	if err == nil {
		return
	}
	if out.started {
		logger.FromContextOr(r.Context(), s.logger).Error("search stream failed", zap.Error(err))
		return
	}
	s.handleDomainError(w, r, err)
}

// threadResponse is the stored view of a thread.
type threadResponse struct {
	ID        string            `json:"id"`
	UserID    *string           `json:"user_id"`
	CreatedAt time.Time         `json:"created_at"`
	Searches  []search.Snapshot `json:"searches"`
}

func threadToResponse(t *domthread.Thread) threadResponse {
	resp := threadResponse{
		ID:        t.ID(),
		CreatedAt: t.CreatedAt().UTC(),
		Searches:  make([]search.Snapshot, 0, t.Len()),
	}
	if owner := t.UserID(); owner != "" {
		resp.UserID = &owner
	}
	for _, s := range t.Searches() {
		resp.Searches = append(resp.Searches, s.Snapshot())
	}
	return resp
}

// GetThread handles GET /threads/{id}.
func (s *Server) GetThread(w http.ResponseWriter, r *http.Request) {
	t, err := s.threads.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, threadToResponse(t))
}

// NewsFeed handles GET /news/feed.
func (s *Server) NewsFeed(w http.ResponseWriter, r *http.Request) {
	digest, err := s.news.Digest(r.Context(), s.caller.addr(r))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, digest)
}

// NewsTopics handles GET /news/topics.
func (s *Server) NewsTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"topics": s.news.Topics()})
}

type topicResponse struct {
	Topic    string                `json:"topic"`
	Articles []*domarticle.Article `json:"articles"`
}

// NewsByTopic handles GET /news/{topic}.
func (s *Server) NewsByTopic(w http.ResponseWriter, r *http.Request) {
	topic := strings.ToUpper(chi.URLParam(r, "topic"))
	articles, err := s.news.ByTopic(r.Context(), topic)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if articles == nil {
		articles = []*domarticle.Article{}
	}
	writeJSON(w, http.StatusOK, topicResponse{Topic: topic, Articles: articles})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
