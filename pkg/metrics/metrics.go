package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Catalog metrics
	DiscoveredServicesTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trademesh_catalog_services_total",
			Help: "Total number of service descriptors currently in the catalog",
		},
	)

	DiscoveryScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trademesh_discovery_scans_total",
			Help: "Total number of manifest discovery scans by outcome",
		},
		[]string{"outcome"},
	)

	DiscoveryScanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trademesh_discovery_scan_duration_seconds",
			Help:    "Time taken to probe a candidate binary's manifest",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Layout engine metrics
	LayoutResolveDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trademesh_layout_resolve_duration_seconds",
			Help:    "Time taken to resolve a layout into a deployment plan",
			Buckets: prometheus.DefBuckets,
		},
	)

	PlanDiffSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trademesh_plan_diff_size",
			Help:    "Number of nodes affected by a plan diff, by change kind",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
		[]string{"kind"},
	)

	// Supervisor / reconciliation metrics
	ReconciliationCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "trademesh_reconciliation_cycles_total",
			Help: "Total number of supervisor reconciliation cycles completed",
		},
	)

	ReconciliationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trademesh_reconciliation_duration_seconds",
			Help:    "Time taken for a reconciliation cycle in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	NodesByState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trademesh_nodes_total",
			Help: "Total number of layout nodes by actual runtime state",
		},
		[]string{"state"},
	)

	// ServiceProvider metrics
	SpawnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trademesh_spawns_total",
			Help: "Total number of service spawn attempts by outcome",
		},
		[]string{"outcome"},
	)

	StopsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trademesh_stops_total",
			Help: "Total number of service stop attempts by outcome",
		},
		[]string{"outcome"},
	)

	SpawnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trademesh_spawn_duration_seconds",
			Help:    "Time taken to spawn a service process or container",
			Buckets: prometheus.DefBuckets,
		},
	)

	StopDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trademesh_stop_duration_seconds",
			Help:    "Time taken to stop a service, including grace window",
			Buckets: prometheus.DefBuckets,
		},
	)

	CrashesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trademesh_crashes_total",
			Help: "Total number of unexpected service exits observed",
		},
		[]string{"node_id"},
	)

	// Transport metrics
	MessagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trademesh_messages_sent_total",
			Help: "Total number of messages sent on a transport output",
		},
		[]string{"data_type"},
	)

	MessagesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trademesh_messages_received_total",
			Help: "Total number of messages received on a transport input",
		},
		[]string{"data_type"},
	)

	// Admin / control API metrics
	AdminRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trademesh_admin_requests_total",
			Help: "Total number of admin wire protocol requests by command and status",
		},
		[]string{"command", "status"},
	)

	AdminRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trademesh_admin_request_duration_seconds",
			Help:    "Admin request round-trip duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
)

func init() {
	prometheus.MustRegister(DiscoveredServicesTotal)
	prometheus.MustRegister(DiscoveryScansTotal)
	prometheus.MustRegister(DiscoveryScanDuration)
	prometheus.MustRegister(LayoutResolveDuration)
	prometheus.MustRegister(PlanDiffSize)
	prometheus.MustRegister(ReconciliationCyclesTotal)
	prometheus.MustRegister(ReconciliationDuration)
	prometheus.MustRegister(NodesByState)
	prometheus.MustRegister(SpawnsTotal)
	prometheus.MustRegister(StopsTotal)
	prometheus.MustRegister(SpawnDuration)
	prometheus.MustRegister(StopDuration)
	prometheus.MustRegister(CrashesTotal)
	prometheus.MustRegister(MessagesSentTotal)
	prometheus.MustRegister(MessagesReceivedTotal)
	prometheus.MustRegister(AdminRequestsTotal)
	prometheus.MustRegister(AdminRequestDuration)
}

// Handler returns the Prometheus HTTP handler for /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
