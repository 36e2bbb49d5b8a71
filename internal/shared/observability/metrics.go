package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arkaft_parsing_seconds",
		Help:    "Time spent parsing a Rust source file.",
		Buckets: prometheus.DefBuckets,
	})

	ReviewDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arkaft_review_seconds",
		Help:    "Time spent on a full review or validation call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	ReviewsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arkaft_reviews_total",
		Help: "Total number of review calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	FindingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arkaft_findings_total",
		Help: "Total number of findings reported, by severity.",
	}, []string{"severity"})

	ParseFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arkaft_parse_failures_total",
		Help: "Total number of sources rejected by the parser, by kind.",
	}, []string{"kind"})

	ComplianceScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "arkaft_compliance_score",
		Help:    "Distribution of overall compliance scores.",
		Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 95, 100},
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arkaft_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	HistoryWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arkaft_history_writes_total",
		Help: "Total number of review history writes, by outcome.",
	}, []string{"outcome"})

	MCPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arkaft_mcp_requests_total",
		Help: "Total number of MCP tool calls, by operation and result code.",
	}, []string{"operation", "code"})

	MCPRateLimitedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arkaft_mcp_rate_limited_total",
		Help: "Total number of MCP requests rejected by the rate limiter.",
	})
)
