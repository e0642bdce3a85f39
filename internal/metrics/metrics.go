// Package metrics exposes the Prometheus collectors of the service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "quest"

// Outcome labels shared by the collectors below.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Provider call metrics, labelled by provider (brave, yelp, wikidata, ...).
var (
	ProviderRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_requests_total",
			Help:      "Total number of external provider requests",
		},
		[]string{"provider", "operation", "status"},
	)

	ProviderRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_request_duration_seconds",
			Help:      "External provider request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "operation"},
	)
)

// Completion metrics.
var (
	CompletionRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_requests_total",
			Help:      "Total number of LLM completion requests",
		},
		[]string{"model", "mode", "status"},
	)

	CompletionRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_request_duration_seconds",
			Help:      "LLM completion duration in seconds, until the last chunk for streams",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		},
		[]string{"model", "mode"},
	)

	CompletionTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_tokens_total",
			Help:      "Total LLM tokens consumed",
		},
		[]string{"model", "type"}, // "prompt" / "completion"
	)

	CompletionChunksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_stream_chunks_total",
			Help:      "Total streamed completion chunks forwarded",
		},
		[]string{"model"},
	)

	IntentAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intent_attempts_total",
			Help:      "Structured completion attempts by outcome",
		},
		[]string{"task", "result"}, // "ok" / "retry" / "fallback"
	)
)

// News crawler metrics.
var (
	CrawlerArticlesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "crawler_articles_total",
			Help:      "Aggregator items processed by outcome",
		},
		[]string{"topic", "outcome"}, // saved / duplicate / rejected / failed
	)

	CrawlerRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "crawler_run_duration_seconds",
			Help:      "Duration of one topic crawl",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"topic"},
	)

	PageFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "page_fetch_total",
			Help:      "Full-text page fetches by outcome",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// Register registers the domain collectors. Must be called once from main;
// repeated calls are ignored.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			ProviderRequestsTotal,
			ProviderRequestDuration,
			CompletionRequestsTotal,
			CompletionRequestDuration,
			CompletionTokensTotal,
			CompletionChunksTotal,
			IntentAttemptsTotal,
			CrawlerArticlesTotal,
			CrawlerRunDuration,
			PageFetchTotal,
		)
	})
}

// ObserveProvider records one provider call.
func ObserveProvider(provider, operation string, start time.Time, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	ProviderRequestsTotal.WithLabelValues(provider, operation, status).Inc()
	ProviderRequestDuration.WithLabelValues(provider, operation).Observe(time.Since(start).Seconds())
}
