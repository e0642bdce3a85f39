// Package thread loads conversation threads for a caller and saves them in
// the background.
package thread

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rehmatsg/quest-search-public-api/internal/domain"
	domthread "github.com/rehmatsg/quest-search-public-api/internal/domain/thread"
	"github.com/rehmatsg/quest-search-public-api/internal/logger"
)

// Config controls persistence.
type Config struct {
	PersistTimeout time.Duration
}

// Service manages thread state.
type Service struct {
	repo    Repository
	timeout time.Duration
	logger  *zap.Logger
	saves   sync.WaitGroup
}

// New creates a thread service.
func New(repo Repository, cfg Config, logger *zap.Logger) *Service {
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, timeout: cfg.PersistTimeout, logger: logger}
}

// Get returns a stored thread as is.
func (s *Service) Get(ctx context.Context, id string) (*domthread.Thread, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get thread: %w", err)
	}
	return t, nil
}

// Load returns the thread to continue for owner. An empty id starts a new
// thread. A thread that cannot be loaded is replaced by a new one, and a
// thread owned by someone else is forked.
func (s *Service) Load(ctx context.Context, id, owner string) *domthread.Thread {
	if id == "" {
		return s.Create(owner)
	}

	log := logger.FromContextOr(ctx, s.logger)
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrThreadNotFound) {
			log.Info("thread not found, starting a new one", zap.String("thread_id", id))
		} else {
			log.Warn("thread load failed, starting a new one", zap.String("thread_id", id), zap.Error(err))
		}
		return s.Create(owner)
	}

	if t.Claim(owner) {
		log.Info("thread forked for a new owner",
			zap.String("from_thread_id", id), zap.String("thread_id", t.ID()))
	}
	return t
}

// Create returns a new ephemeral thread.
func (s *Service) Create(owner string) *domthread.Thread {
	t := domthread.New()
	t.SetOwner(owner)
	return t
}

// Persist saves t in the background with its own timeout, detached from
// ctx's cancellation. The returned channel yields the outcome once; callers
// that do not care may drop it. Concurrent saves of the same thread are
// last-write-wins.
func (s *Service) Persist(ctx context.Context, t *domthread.Thread) <-chan error {
	done := make(chan error, 1)
	log := logger.FromContextOr(ctx, s.logger)
	bg := context.WithoutCancel(ctx)

	s.saves.Add(1)
	go func() {
		defer s.saves.Done()
		ctx, cancel := context.WithTimeout(bg, s.timeout)
		defer cancel()

		err := s.save(ctx, t)
		if err != nil {
			log.Error("thread persist failed", zap.String("thread_id", t.ID()), zap.Error(err))
		}
		done <- err
	}()
	return done
}

func (s *Service) save(ctx context.Context, t *domthread.Thread) error {
	if !t.IsNew() {
		return s.repo.Replace(ctx, t)
	}
	if err := s.repo.Insert(ctx, t); err != nil {
		return err
	}
	t.MarkPersisted()
	return nil
}

// Wait blocks until every background save has finished.
func (s *Service) Wait() {
	s.saves.Wait()
}
