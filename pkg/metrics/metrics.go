// Package metrics defines Prometheus metrics for device onboarding.
//
// All metrics are registered with the package Registry, which Handler
// serves.
//
// Metric naming follows Prometheus conventions:
//   - onboard_ prefix for all metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label for successful sessions. Failures use the failure kind.
const OutcomeSucceeded = "SUCCEEDED"

// Registry holds every onboarding metric plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

var (
	// SessionsTotal counts provisioning sessions by transport and outcome.
	SessionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboard_sessions_total",
			Help: "Total number of provisioning sessions by transport and outcome.",
		},
		[]string{"transport", "outcome"},
	)

	// SessionDurationSeconds is a histogram of session duration by transport.
	SessionDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "onboard_session_duration_seconds",
			Help:    "Duration of provisioning sessions in seconds.",
			Buckets: []float64{1, 2, 5, 10, 15, 20, 30, 45, 60, 90},
		},
		[]string{"transport"},
	)

	// ScansTotal counts discovery scans by transport.
	ScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboard_scans_total",
			Help: "Total discovery scans by transport.",
		},
		[]string{"transport"},
	)

	// DevicesFoundTotal counts devices reported by scans.
	DevicesFoundTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboard_devices_found_total",
			Help: "Total provisionable devices reported by scans.",
		},
		[]string{"transport"},
	)

	// ConnectivityRestoresTotal counts rejoin attempts of the original
	// network by result.
	ConnectivityRestoresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboard_connectivity_restores_total",
			Help: "Total attempts to rejoin the original network by result.",
		},
		[]string{"result"},
	)

	// VerificationsTotal counts post-provisioning network verifications.
	VerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "onboard_verifications_total",
			Help: "Total post-provisioning verifications by result.",
		},
		[]string{"result"},
	)

	// ActiveSessions is the number of sessions currently running.
	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "onboard_active_sessions",
			Help: "Number of provisioning sessions currently running.",
		},
	)
)

func init() {
	Registry.MustRegister(
		SessionsTotal,
		SessionDurationSeconds,
		ScansTotal,
		DevicesFoundTotal,
		ConnectivityRestoresTotal,
		VerificationsTotal,
		ActiveSessions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the Registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{Registry: Registry})
}

// RecordSessionStart marks a session as running. Call the returned
// function when it ends.
func RecordSessionStart() func() {
	ActiveSessions.Inc()
	return ActiveSessions.Dec
}

// RecordSessionComplete records a finished session. restored is nil when
// the transport did not disturb connectivity.
func RecordSessionComplete(transport, outcome string, duration time.Duration, restored *bool) {
	SessionsTotal.WithLabelValues(transport, outcome).Inc()
	SessionDurationSeconds.WithLabelValues(transport).Observe(duration.Seconds())
	if restored != nil {
		result := "restored"
		if !*restored {
			result = "failed"
		}
		ConnectivityRestoresTotal.WithLabelValues(result).Inc()
	}
}

// RecordScan records a finished scan.
func RecordScan(transport string, found int) {
	ScansTotal.WithLabelValues(transport).Inc()
	DevicesFoundTotal.WithLabelValues(transport).Add(float64(found))
}

// RecordVerification records whether a device was seen on the network.
func RecordVerification(found bool) {
	result := "found"
	if !found {
		result = "missing"
	}
	VerificationsTotal.WithLabelValues(result).Inc()
}
