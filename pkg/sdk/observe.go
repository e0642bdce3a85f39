package quest

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type sdkMetrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	frames   *prometheus.CounterVec
}

func newSDKMetrics(reg prometheus.Registerer) (*sdkMetrics, error) {
	m := &sdkMetrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quest",
			Subsystem: "sdk",
			Name:      "calls_total",
			Help:      "Quest API calls made by the SDK, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "quest",
			Subsystem: "sdk",
			Name:      "call_duration_seconds",
			Help:      "Quest API call latency as seen by the SDK. Streams are timed to their last frame.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 40, 60},
		}, []string{"operation"}),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quest",
			Subsystem: "sdk",
			Name:      "stream_frames_total",
			Help:      "Stream frames decoded by kind.",
		}, []string{"kind"}),
	}
	if err := registerOrReuse(reg, &m.calls); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.duration); err != nil {
		return nil, err
	}
	if err := registerOrReuse(reg, &m.frames); err != nil {
		return nil, err
	}
	return m, nil
}

// registerOrReuse registers a collector, or adopts the one already registered
// under the same descriptor so that several clients can share a registry.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	err := reg.Register(*c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if !errors.As(err, &are) {
		return fmt.Errorf("quest: register metric: %w", err)
	}
	existing, ok := are.ExistingCollector.(T)
	if !ok {
		return fmt.Errorf("quest: metric already registered as %T", are.ExistingCollector)
	}
	*c = existing
	return nil
}

type observer struct {
	logger  *slog.Logger
	metrics *sdkMetrics
}

func newObserver(logger *slog.Logger, reg prometheus.Registerer) (*observer, error) {
	o := &observer{logger: logger}
	if reg != nil {
		m, err := newSDKMetrics(reg)
		if err != nil {
			return nil, err
		}
		o.metrics = m
	}
	return o, nil
}

// outcome buckets an error into a low-cardinality label.
func outcome(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		return "client_error"
	case errors.As(err, &apiErr):
		return "server_error"
	default:
		return "transport_error"
	}
}

func (o *observer) frame(kind string) {
	if o == nil || o.metrics == nil {
		return
	}
	o.metrics.frames.WithLabelValues(kind).Inc()
}

func (o *observer) observe(op string, start time.Time, err error) {
	if o == nil {
		return
	}
	dur := time.Since(start)

	if o.metrics != nil {
		o.metrics.calls.WithLabelValues(op, outcome(err)).Inc()
		o.metrics.duration.WithLabelValues(op).Observe(dur.Seconds())
	}

	if o.logger == nil {
		return
	}
	if err != nil {
		o.logger.Warn("quest call failed", "op", op, "duration", dur, "error", err)
		return
	}
	o.logger.Debug("quest call completed", "op", op, "duration", dur)
}
