package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "metabonding_rewards_build_info",
			Help: "Build information of the metabonding rewards engine",
		},
		[]string{"version", "commit", "date"},
	)

	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metabonding_rewards_commands_total",
			Help: "Total number of privileged commands by outcome",
		},
		[]string{"command", "status"},
	)

	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metabonding_rewards_queries_total",
			Help: "Total number of weekly reward queries by outcome",
		},
		[]string{"status"},
	)

	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "metabonding_rewards_query_duration_seconds",
			Help:    "Duration of weekly reward queries",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
	)

	LastCheckpointWeek = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "metabonding_rewards_last_checkpoint_week",
			Help: "Week of the most recently appended checkpoint",
		},
	)

	AuditRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metabonding_rewards_audit_records_total",
			Help: "Total number of audit events written by outcome",
		},
		[]string{"event_type", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metabonding_rewards_http_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"route", "code"},
	)
)
