package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Archive API
	ArchiveRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubearchivarr_archive_requests_total",
			Help: "Total number of requests sent to the archive API",
		},
		[]string{"operation", "status_code"},
	)

	ArchiveRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tubearchivarr_archive_request_duration_seconds",
			Help:    "Duration of archive API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ArchivePaginationFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tubearchivarr_archive_pagination_failures_total",
			Help: "Playlist listings cut short by a failed page request",
		},
	)

	// Library host API
	JellyfinRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubearchivarr_jellyfin_requests_total",
			Help: "Total number of requests sent to the library host",
		},
		[]string{"operation", "status_code"},
	)

	// Reconciliation outcomes
	SyncOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubearchivarr_sync_operations_total",
			Help: "Reconciliation writes by direction, kind and result",
		},
		[]string{"direction", "kind", "result"}, // result: "ok", "failed", "skipped"
	)

	PlaylistActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubearchivarr_playlist_actions_total",
			Help: "Archive playlist entry actions by kind and result",
		},
		[]string{"action", "result"},
	)

	// Tasks
	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tubearchivarr_task_duration_seconds",
			Help:    "Duration of reconciliation task runs",
			Buckets: []float64{1, 5, 15, 30, 60, 300, 900, 1800, 3600},
		},
		[]string{"task", "status"},
	)

	TaskLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tubearchivarr_task_last_success_timestamp",
			Help: "Unix timestamp of the last successful task run",
		},
		[]string{"task"},
	)

	// Events
	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubearchivarr_events_received_total",
			Help: "Live library events by kind and source",
		},
		[]string{"kind", "source"},
	)

	EventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubearchivarr_events_dropped_total",
			Help: "Live library events dropped before handling",
		},
		[]string{"reason"}, // "queue_full", "panic"
	)

	EventQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tubearchivarr_event_queue_depth",
			Help: "Events waiting for a worker",
		},
	)

	WSConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tubearchivarr_jellyfin_websocket_connected",
			Help: "1 while the library host websocket is connected",
		},
	)

	// Membership cache
	CollectionCacheRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tubearchivarr_collection_cache_refreshes_total",
			Help: "Collection id cache refreshes by result",
		},
		[]string{"result"}, // "found", "not_found", "error"
	)

	// Circuit Breaker
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordArchiveRequest records one archive API round trip. status 0 means no response.
func RecordArchiveRequest(operation string, status int, duration time.Duration) {
	ArchiveRequestsTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	ArchiveRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordJellyfinRequest records one library host round trip
func RecordJellyfinRequest(operation string, status int) {
	JellyfinRequestsTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
}

// RecordSync records the outcome of one reconciliation write
func RecordSync(direction, kind string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	SyncOperations.WithLabelValues(direction, kind, result).Inc()
}

// RecordTask records a finished task run
func RecordTask(task, status string, duration time.Duration) {
	TaskDuration.WithLabelValues(task, status).Observe(duration.Seconds())
	if status == "completed" {
		TaskLastSuccess.WithLabelValues(task).SetToCurrentTime()
	}
}
