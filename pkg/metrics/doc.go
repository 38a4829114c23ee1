/*
Package metrics provides Prometheus metrics collection and exposition for the
trading mesh orchestrator.

The metrics package defines and registers all orchestrator metrics using the
Prometheus client library, providing observability into catalog discovery,
layout resolution, reconciliation, node lifecycle, and wire-level message
volume. Metrics are exposed via an HTTP endpoint for scraping by Prometheus
servers, alongside a small health/readiness subsystem (see health.go).

# Architecture

	┌──────────────────── METRICS SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │          Prometheus Registry                │          │
	│  │  - Global DefaultRegistry                   │          │
	│  │  - MustRegister at package init             │          │
	│  │  - Automatic Go runtime metrics             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │              Metric Types                   │          │
	│  │                                              │          │
	│  │  Gauge: Instant values (nodes by state)     │          │
	│  │  Counter: Monotonic increases (spawns)      │          │
	│  │  Histogram: Distributions (reconcile time)  │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Metric Categories                 │          │
	│  │                                              │          │
	│  │  Discovery: catalog scans, services found   │          │
	│  │  Layout: resolve duration, plan diff size   │          │
	│  │  Reconciliation: cycle duration, count      │          │
	│  │  Nodes: spawns, stops, crashes, by state    │          │
	│  │  Transport: messages sent/received          │          │
	│  │  Admin: request count, duration             │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │          HTTP Metrics Endpoint              │          │
	│  │  - Path: /metrics                           │          │
	│  │  - Format: Prometheus text exposition       │          │
	│  │  - Handler: promhttp.Handler()              │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │    /healthz /readyz /livez Endpoints        │          │
	│  │  - Backed by a component registry           │          │
	│  │  - RegisterComponent / UpdateComponent      │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Metric Registry:
  - Global Prometheus DefaultRegistry
  - All metrics registered at package init
  - Thread-safe for concurrent updates

Gauge Metrics:
  - Instant value that can go up or down
  - Example: nodes by state
  - Operations: Set, Inc, Dec, Add, Sub

Counter Metrics:
  - Monotonically increasing value
  - Examples: spawns total, admin requests total
  - Operations: Inc, Add (cannot decrease)

Histogram Metrics:
  - Distribution of observed values
  - Examples: reconciliation duration, layout resolve duration
  - Includes: sum, count, buckets

Timer Helper:
  - Convenience wrapper for timing operations
  - Start timer, observe duration to a histogram
  - Supports label values for histogram vectors

# Metrics Catalog

Catalog/Discovery Metrics:

trademesh_catalog_services_total:
  - Type: Gauge
  - Description: Number of service blueprints currently registered in the catalog
  - No package in this module updates it, so it stays at 0

trademesh_discovery_scans_total{outcome}:
  - Type: Counter
  - Description: Candidate binaries probed by outcome (discovered/skipped)

trademesh_discovery_scan_duration_seconds:
  - Type: Histogram
  - Description: Time to probe one candidate binary's manifest

Layout Metrics:

trademesh_layout_resolve_duration_seconds:
  - Type: Histogram
  - Description: Time to resolve a desired Plan from the catalog and topology

trademesh_plan_diff_size{kind}:
  - Type: Histogram vector
  - Description: Size of a plan diff by kind (to_spawn/to_kill/to_reconfigure)

Reconciliation Metrics:

trademesh_reconciliation_cycles_total:
  - Type: Counter
  - Description: Total supervisor reconcile cycles completed

trademesh_reconciliation_duration_seconds:
  - Type: Histogram
  - Description: Reconcile cycle duration

Node Metrics:

trademesh_nodes_total{state}:
  - Type: Gauge
  - Description: Current node count by reported state (running/stopped/failed/unhealthy)

trademesh_spawns_total{outcome} / trademesh_stops_total{outcome}:
  - Type: Counter
  - Description: Total node spawn/stop attempts through the ServiceProvider, by outcome

trademesh_spawn_duration_seconds / trademesh_stop_duration_seconds:
  - Type: Histogram
  - Description: Time to spawn/stop a node through the ServiceProvider

trademesh_crashes_total{node_id}:
  - Type: Counter
  - Description: Total unexpected node exits observed by a ServiceProvider's exit monitor

Transport Metrics:

trademesh_messages_sent_total{data_type} / trademesh_messages_received_total{data_type}:
  - Type: Counter
  - Description: Frame counts by payload data type, for throughput monitoring

Admin Metrics:

trademesh_admin_requests_total{command,status}:
  - Type: Counter
  - Description: Admin protocol requests by command kind and status

trademesh_admin_request_duration_seconds{command}:
  - Type: Histogram vector
  - Description: Admin request round-trip duration by command kind

Both admin metrics are registered, but no package in this module records
them.

# Usage

Updating Gauge Metrics:

	import "github.com/ManuMario0/trading-lab-sub000/pkg/metrics"

	metrics.NodesByState.WithLabelValues("running").Set(5)
	metrics.DiscoveredServicesTotal.Inc()
	metrics.DiscoveredServicesTotal.Dec()

Updating Counter Metrics:

	metrics.ReconciliationCyclesTotal.Inc()
	metrics.SpawnsTotal.WithLabelValues("ok").Inc()

Recording Histogram Observations:

	metrics.ReconciliationDuration.Observe(0.125) // 125ms

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDuration(metrics.SpawnDuration)

Using Timer with Labels:

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDurationVec(metrics.AdminRequestDuration, "ping")

Exposing the Endpoint:

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", metrics.HealthHandler())
	mux.HandleFunc("/readyz", metrics.ReadyHandler())
	mux.HandleFunc("/livez", metrics.LivenessHandler())
	http.ListenAndServe(":9090", mux)

# Health and Readiness

health.go adds a small component registry separate from the Prometheus
metrics above:

	metrics.SetVersion(Version)
	metrics.RegisterComponent("catalog_watcher", true, "watching")
	metrics.RegisterComponent("supervisor", true, "running")

GetReadiness treats catalog_watcher and supervisor as the orchestrator's
critical components — /readyz reports not_ready until both have registered
healthy.

# Integration Points

This package is used by:

  - pkg/catalog: records discovery probe counts and durations
  - pkg/supervisor: records layout resolve duration, plan diff size,
    reconcile cycles and durations, and node-by-state gauges
  - pkg/provider: records spawns, stops, their durations, and crashes
  - pkg/transport: records message send/receive counters
  - cmd/orchestratord: exposes /metrics, /healthz, /readyz, /livez

# Design Patterns

Package Init Registration:
  - All metrics registered in init() function
  - MustRegister panics on duplicate registration
  - Ensures metrics available before main()

Label Discipline:
  - Use WithLabelValues for cardinality-bounded labels (service type,
    state, result) — never timestamps. The one node-ID label is
    trademesh_crashes_total{node_id}

Timer Pattern:
  - Create a timer at operation start
  - Call ObserveDuration/ObserveDurationVec when the operation completes

# See Also

  - Prometheus documentation: https://prometheus.io/docs/
  - Prometheus client library: https://github.com/prometheus/client_golang
  - Histogram best practices: https://prometheus.io/docs/practices/histograms/
*/
package metrics
