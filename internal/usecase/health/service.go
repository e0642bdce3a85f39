package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rehmatsg/quest-search-public-api/internal/logger"
	"github.com/rehmatsg/quest-search-public-api/internal/version"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "healthy"
	// Degraded indicates at least one failing component.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status  Status                 `json:"status"`
	Checks  map[string]CheckResult `json:"checks"`
	Version version.Info           `json:"version"`
}

const checkTimeout = 3 * time.Second

// Service coordinates health checks.
type Service struct {
	db     DBPinger
	llm    LLMChecker
	logger *zap.Logger
}

// New creates a Service. llm can be nil.
func New(db DBPinger, llm LLMChecker, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{db: db, llm: llm, logger: logger}
}

// Check runs every check concurrently, each bounded by its own timeout.
func (s *Service) Check(ctx context.Context) Report {
	probes := map[string]func(context.Context) error{"database": s.db.Ping}
	if s.llm != nil {
		probes["llm"] = s.llm.HealthCheck
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult, len(probes))
	)
	log := logger.FromContextOr(ctx, s.logger)
	for name, probe := range probes {
		wg.Go(func() {
			ctx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()
			result := CheckOK
			if err := probe(ctx); err != nil {
				log.Warn("health check failed", zap.String("check", name), zap.Error(err))
				result = CheckError
			}
			mu.Lock()
			checks[name] = result
			mu.Unlock()
		})
	}
	wg.Wait()

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, Version: version.Current()}
}
