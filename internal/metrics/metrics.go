package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// SyncStartedTotal counts sync triggers by outcome: started, rejected, trigger_failed.
	SyncStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetsync_sync_start_total",
			Help: "Sync start attempts by outcome.",
		},
		[]string{"outcome"},
	)

	// SyncResetTotal counts operator overrides by the status they replaced.
	SyncResetTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetsync_sync_manual_reset_total",
			Help: "Manual sync resets by previous status.",
		},
		[]string{"previous_status"},
	)

	SyncPollTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetsync_sync_poll_total",
			Help: "Sync status polls by result (ok, transient_failure).",
		},
		[]string{"result"},
	)

	SyncTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetsync_sync_transitions_total",
			Help: "Observed sync job transitions by destination status.",
		},
		[]string{"status"},
	)

	CompletionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetsync_work_order_completion_total",
			Help: "Work order completion attempts by result (completed, insufficient_stock, failed).",
		},
		[]string{"result"},
	)

	OverAllocatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetsync_over_allocated_total",
			Help: "Allocations written while exceeding on-hand stock.",
		},
	)

	EventsHandledTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetsync_kafka_messages_handled_total",
			Help: "Consumed Kafka messages by topic, event type and result.",
		},
		[]string{"topic", "event_type", "result"},
	)

	BackendLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fleetsync_backend_request_seconds",
			Help:    "Latency of fleet backend calls.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "code"},
	)
)

func init() {
	prometheus.MustRegister(
		SyncStartedTotal,
		SyncResetTotal,
		SyncPollTotal,
		SyncTransitionsTotal,
		CompletionTotal,
		OverAllocatedTotal,
		EventsHandledTotal,
		BackendLatency,
	)
}
