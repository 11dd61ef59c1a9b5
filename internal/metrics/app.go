package metrics

import (
	"time"

	"github.com/namelens/adlens/internal/observability"
)

// Search client metrics. The exporter prefixes them with its namespace
// (adlens_search_total, ...).
var (
	SearchTotal         = "search_total"
	SearchDuration      = "search_duration_ms"
	SearchStaleTotal    = "search_stale_total"
	BackendProbeTotal   = "backend_probe_total"
	BackendProbeLatency = "backend_probe_duration_ms"
	BackendUp           = "backend_up"

	HealthCheckTotal    = "health_check_total"
	HealthCheckDuration = "health_check_duration_ms"

	ServerStartTime = "server_start_time_seconds"
	ServerUptime    = "server_uptime_seconds"
)

// RecordSearch counts a completed search by outcome (results, no_results,
// captcha, error_<kind>) and records its latency.
func RecordSearch(outcome string, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}
	_ = observability.TelemetrySystem.Counter(
		SearchTotal,
		1,
		map[string]string{"outcome": outcome},
	)
	_ = observability.TelemetrySystem.Histogram(
		SearchDuration,
		duration,
		map[string]string{"outcome": outcome},
	)
}

// RecordStaleResponse counts a search response discarded because a newer
// search was submitted while it was in flight.
func RecordStaleResponse() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(SearchStaleTotal, 1, nil)
	}
}

// RecordProbe records one backend liveness probe.
func RecordProbe(healthy bool, duration time.Duration) {
	status := "connected"
	up := 1.0
	if !healthy {
		status = "disconnected"
		up = 0
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			BackendProbeTotal,
			1,
			map[string]string{"status": status},
		)
		_ = observability.TelemetrySystem.Histogram(BackendProbeLatency, duration, nil)
		_ = observability.TelemetrySystem.Gauge(BackendUp, up, nil)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(ServerStartTime, float64(timestamp), nil)
	}
}

// SetServerUptime records the server uptime in seconds
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(ServerUptime, float64(seconds), nil)
	}
}
