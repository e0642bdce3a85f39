package news

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	domarticle "github.com/rehmatsg/quest-search-public-api/internal/domain/article"
)

// Crawl ingests one topic.
type Crawl interface {
	Crawl(ctx context.Context, topic string) (Stats, error)
}

// SchedulerConfig holds the cron specs of the two crawl jobs.
type SchedulerConfig struct {
	TopSchedule   string
	TopicSchedule string
	Topics        []string
	RunOnStart    bool
}

// Scheduler runs the top stories job and the per-topic job on cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	crawler Crawl
	topics  []string
	runNow  bool
	logger  *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	startup sync.WaitGroup
}

// NewScheduler registers both jobs. Overlapping runs of a job are skipped.
func NewScheduler(crawler Crawl, cfg SchedulerConfig, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cl := cronLogger{logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		crawler: crawler,
		topics:  cfg.Topics,
		runNow:  cfg.RunOnStart,
		logger:  logger,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if _, err := s.cron.AddFunc(cfg.TopSchedule, s.crawlTop); err != nil {
		return nil, fmt.Errorf("top news schedule %q: %w", cfg.TopSchedule, err)
	}
	if _, err := s.cron.AddFunc(cfg.TopicSchedule, s.crawlTopics); err != nil {
		return nil, fmt.Errorf("topic news schedule %q: %w", cfg.TopicSchedule, err)
	}
	return s, nil
}

// Start begins scheduling. With RunOnStart both jobs also run right away.
func (s *Scheduler) Start() {
	s.logger.Info("news scheduler started", zap.Strings("topics", s.topics))
	s.cron.Start()
	if s.runNow {
		s.startup.Go(s.crawlTop)
		s.startup.Go(s.crawlTopics)
	}
}

// Stop cancels running crawls and waits for them until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.cancel()
	stopped := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-stopped.Done()
		s.startup.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.logger.Info("news scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("news scheduler stop: %w", ctx.Err())
	}
}

func (s *Scheduler) crawlTop() {
	s.run(domarticle.TopicLatest)
}

func (s *Scheduler) crawlTopics() {
	for _, topic := range s.topics {
		if s.ctx.Err() != nil {
			return
		}
		s.run(topic)
	}
}

func (s *Scheduler) run(topic string) {
	if _, err := s.crawler.Crawl(s.ctx, topic); err != nil {
		s.logger.Error("news crawl failed", zap.String("topic", topic), zap.Error(err))
	}
}

// cronLogger routes cron's own logging to zap.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
