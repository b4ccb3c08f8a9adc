// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cvbot_sessions_started_total",
		Help: "Interview sessions started with /start",
	})

	SessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cvbot_sessions_ended_total",
		Help: "Interview sessions that reached a terminal state, by outcome",
	}, []string{"outcome"})

	DocumentsRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cvbot_documents_rendered_total",
		Help: "Rendered CV artifacts by format and status",
	}, []string{"format", "status"})

	EnhancementFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cvbot_enhancement_failures_total",
		Help: "Enhancement calls that fell back to the original text",
	}, []string{"kind"})

	StorageFallback = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cvbot_storage_fallback",
		Help: "1 once draft storage switched to the JSON fallback file",
	})

	UpdatesHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cvbot_updates_handled_total",
		Help: "Telegram updates processed, by kind",
	}, []string{"kind"})
)
