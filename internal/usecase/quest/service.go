// Package quest orchestrates a conversational search turn and the article
// summary flow, streaming results to the caller as they become available.
package quest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	domarticle "github.com/rehmatsg/quest-search-public-api/internal/domain/article"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/geo"
	"github.com/rehmatsg/quest-search-public-api/internal/domain/search"
	"github.com/rehmatsg/quest-search-public-api/internal/logger"
	"github.com/rehmatsg/quest-search-public-api/internal/usecase/summarize"
)

// BotUserID owns the canonical summary thread of an article.
const BotUserID = "quest-bot"

// Config controls a turn.
type Config struct {
	// TurnTimeout bounds a whole turn. The turn keeps running when the
	// client goes away, so this is the only limit on its lifetime.
	TurnTimeout time.Duration
	// LinkTimeout bounds the background article update.
	LinkTimeout time.Duration
}

// Deps groups the collaborators of the orchestrator.
type Deps struct {
	Intent    IntentBuilder
	Locator   Locator
	Fanout    Fanout
	Summarize Summarizer
	FollowUps FollowUpGenerator
	Threads   Threads
	Articles  Articles
}

// Service runs search turns.
type Service struct {
	Deps
	cfg    Config
	logger *zap.Logger
	links  sync.WaitGroup
}

// New creates the orchestrator.
func New(deps Deps, cfg Config, logger *zap.Logger) *Service {
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = 2 * time.Minute
	}
	if cfg.LinkTimeout <= 0 {
		cfg.LinkTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Deps: deps, cfg: cfg, logger: logger}
}

// Request is one search call.
type Request struct {
	Query      string
	ThreadID   string
	Owner      string
	CallerAddr string
}

// Run answers a query within a thread. Only an empty query is reported as an
// error; every later failure degrades the turn instead.
func (svc *Service) Run(ctx context.Context, req Request, emit Emit) error {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return domain.ErrMissingQuery
	}

	ctx, cancel := svc.detach(ctx)
	defer cancel()
	log := logger.FromContextOr(ctx, svc.logger)
	out := &stream{emit: emit, log: log}

	t := svc.Threads.Load(ctx, req.ThreadID, req.Owner)

	var (
		wg  sync.WaitGroup
		s   *search.Search
		loc *geo.Geolocation
	)
	wg.Go(func() { s = svc.Intent.Build(ctx, query, t) })
	wg.Go(func() { loc = svc.locate(ctx, req.CallerAddr) })
	wg.Wait()

	s.Geolocation = loc
	if s.Type() == search.TypePlace && !loc.Resolved() {
		s.DowngradeToWeb(search.LocationWarning)
	}

	svc.Fanout.Run(ctx, s)
	_ = out.send(s.Snapshot())

	if s.Type() == search.TypePlace && len(s.Places) == 0 {
		log.Info("place search returned nothing, retrying as web search")
		s.DowngradeToWeb("")
		svc.Fanout.Web(ctx, s)
		_ = out.send(s.Snapshot())
	}

	followUps := svc.followUps(ctx, s.Context())

	if err := svc.Summarize.Stream(ctx, s, summarize.Options{}, out.delta); err != nil && out.err == nil {
		log.Error("summary failed", zap.Error(err))
	}

	s.SetFollowUps(<-followUps)
	_ = out.send(FollowUpsFrame{FollowUps: s.FollowUps})

	t.Add(s)
	svc.Threads.Persist(ctx, t)
	return nil
}

// SummarizeArticle streams a summary of a stored article. An article that
// was already summarized replays the last snapshot of its thread.
func (svc *Service) SummarizeArticle(ctx context.Context, articleID, owner string, emit Emit) error {
	if strings.TrimSpace(articleID) == "" {
		return fmt.Errorf("%w: article id is required", domain.ErrInvalidInput)
	}
	a, err := svc.Articles.Get(ctx, articleID)
	if err != nil {
		return fmt.Errorf("get article: %w", err)
	}

	ctx, cancel := svc.detach(ctx)
	defer cancel()
	log := logger.FromContextOr(ctx, svc.logger).With(zap.String("article_id", a.ID))
	out := &stream{emit: emit, log: log}

	if a.Linked() {
		if last := svc.linkedTurn(ctx, log, a); last != nil {
			_ = out.send(last.Snapshot())
			return nil
		}
	}

	headline := svc.Intent.RewriteHeadline(ctx, a)
	a.Title = headline

	userThread := svc.Threads.Create(owner)
	botThread := svc.Threads.Create(BotUserID)
	user := articleTurn(userThread.ID(), a)
	bot := articleTurn(botThread.ID(), a)

	_ = out.send(user.Snapshot())

	followUps := svc.followUps(ctx, user.Context())

	prompt := fmt.Sprintf("Summarise the article '%s' from the given context:\n%s", a.Title, a.CrawledContent)
	if err := svc.Summarize.Stream(ctx, user, summarize.Options{UserPrompt: prompt}, out.delta); err != nil && out.err == nil {
		log.Error("article summary failed", zap.Error(err))
	}

	user.SetFollowUps(<-followUps)
	_ = out.send(FollowUpsFrame{FollowUps: user.FollowUps})

	if summary := user.Summary(); summary != "" {
		_ = bot.SetSummary(summary)
	}
	bot.SetFollowUps(user.FollowUps)

	userThread.Add(user)
	botThread.Add(bot)
	svc.Threads.Persist(ctx, userThread)
	saved := svc.Threads.Persist(ctx, botThread)

	if bot.Summary() != "" {
		svc.link(ctx, log, a.ID, botThread.ID(), headline, bot.Summary(), saved)
	}
	return nil
}

// Wait blocks until background article updates finish.
func (svc *Service) Wait() {
	svc.links.Wait()
}

// detach keeps request values but not its cancellation.
func (svc *Service) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), svc.cfg.TurnTimeout)
}

func (svc *Service) locate(ctx context.Context, addr string) *geo.Geolocation {
	if addr == "" {
		return nil
	}
	loc, err := svc.Locator.Locate(ctx, addr)
	if err != nil {
		logger.FromContextOr(ctx, svc.logger).Warn("geolocation failed", zap.Error(err))
		return nil
	}
	return loc
}

// followUps generates in the background. The channel yields exactly once.
func (svc *Service) followUps(ctx context.Context, turnContext string) <-chan []string {
	ch := make(chan []string, 1)
	go func() {
		ch <- svc.FollowUps.Generate(ctx, turnContext)
	}()
	return ch
}

func (svc *Service) linkedTurn(ctx context.Context, log *zap.Logger, a *domarticle.Article) *search.Search {
	t, err := svc.Threads.Get(ctx, a.ThreadID)
	if err != nil {
		level := zap.WarnLevel
		if errors.Is(err, domain.ErrThreadNotFound) {
			level = zap.InfoLevel
		}
		log.Log(level, "linked thread unavailable, summarizing again",
			zap.String("thread_id", a.ThreadID), zap.Error(err))
		return nil
	}
	return t.Last()
}

// link records the summary thread on the article once the thread is saved.
func (svc *Service) link(ctx context.Context, log *zap.Logger, articleID, threadID, title, summary string, saved <-chan error) {
	bg := context.WithoutCancel(ctx)
	svc.links.Add(1)
	go func() {
		defer svc.links.Done()
		if err := <-saved; err != nil {
			log.Warn("summary thread not saved, article left unlinked", zap.Error(err))
			return
		}
		ctx, cancel := context.WithTimeout(bg, svc.cfg.LinkTimeout)
		defer cancel()
		if err := svc.Articles.LinkToThread(ctx, articleID, threadID, title, summary); err != nil {
			log.Error("article link failed", zap.String("thread_id", threadID), zap.Error(err))
		}
	}()
}

func articleTurn(threadID string, a *domarticle.Article) *search.Search {
	s := search.FromIntent(threadID, a.Title, search.Intent{
		Keywords: a.Tags,
		Type:     search.TypeWeb,
	})
	s.FeaturedSource = a.Source()
	return s
}
