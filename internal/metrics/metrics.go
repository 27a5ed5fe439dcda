// ABOUTME: Prometheus collectors for the gateway, retrieval, and provider paths
// ABOUTME: Registered once at package init on the default registry

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// QueriesTotal counts handled queries by provider, mode, and outcome.
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_gateway_queries_total",
			Help: "Total number of chat queries handled",
		},
		[]string{"provider", "mode", "outcome"},
	)

	// Fallbacks counts queries rerouted to the default provider, by the provider that failed.
	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_gateway_provider_fallbacks_total",
			Help: "Queries rerouted to the default provider",
		},
		[]string{"from"},
	)

	// InferenceLatency observes dispatch-to-completion time per query.
	InferenceLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_gateway_inference_latency_seconds",
			Help:    "Time from dispatch to completion of a query",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"provider", "mode"},
	)

	// CacheLookups counts retrieval cache hits and misses.
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_gateway_cache_lookups_total",
			Help: "Retrieval cache lookups by cache and result",
		},
		[]string{"cache", "result"},
	)

	// FetchFailures counts web page fetches dropped from results.
	FetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_gateway_web_fetch_failures_total",
			Help: "Web page fetches that failed or timed out",
		},
	)

	// AgentRounds observes reasoning rounds per agent query.
	AgentRounds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "relay_gateway_agent_rounds",
			Help:    "Reasoning rounds used per agent query",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10},
		},
	)

	// ActiveSessions is the number of open client sessions.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_gateway_active_sessions",
			Help: "Number of open client sessions",
		},
	)

	// IndexedChunks is the chunk count after the last indexing run.
	IndexedChunks = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_gateway_indexed_chunks",
			Help: "Chunks in the document index after the last indexing run",
		},
	)
)
