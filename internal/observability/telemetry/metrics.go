package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Business metrics
	TransactionsDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voltgrid_transactions_deleted_total",
		Help: "Transactions processed by bulk deletion, by outcome",
	}, []string{"outcome"})

	RefundsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voltgrid_refunds_submitted_total",
		Help: "Transactions accepted by the refund integration",
	})

	CDRsPushed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voltgrid_cdrs_pushed_total",
		Help: "Charge Detail Records pushed to the roaming clearing party",
	})

	RefundSyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voltgrid_refund_sync_runs_total",
		Help: "Refund reconciliation runs, by outcome",
	}, []string{"outcome"})

	// Infrastructure metrics
	IntegrationCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voltgrid_integration_calls_total",
		Help: "Calls to external refund/billing vendors, by integration and outcome",
	}, []string{"integration", "outcome"})

	DatabaseLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voltgrid_database_latency_seconds",
		Help:    "Latency of repository queries",
		Buckets: prometheus.DefBuckets,
	})
)
