// Package metrics registers the Prometheus collectors exported by web2pdf.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "web2pdf"

var (
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "browser_sessions_started_total",
		Help:      "Browser sessions launched.",
	})
	SessionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "browser_session_active",
		Help:      "1 while a browser session is held, 0 otherwise.",
	})
	Establishments = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_establishments_total",
		Help:      "Login session establishments by result.",
	}, []string{"result"})

	Captures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "captures_total",
		Help:      "Page captures by result.",
	}, []string{"result"})
	CaptureDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "capture_duration_seconds",
		Help:      "Time from navigation to a persisted PDF.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	KeepAliveVisits = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "keepalive_visits_total",
		Help:      "Keep-alive domain visits by result.",
	}, []string{"result"})
	KeepAliveLastRun = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "keepalive_last_run_timestamp_seconds",
		Help:      "Unix time the last keep-alive pass finished.",
	})

	WhitelistReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "whitelist_reloads_total",
		Help:      "Whitelist file reloads by result.",
	}, []string{"result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route and status code.",
	}, []string{"route", "code"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
