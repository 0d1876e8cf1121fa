// Copyright (C) 2025 Didimdol Team
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the chat
// server, served on /metrics.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "didimdol"

// Metrics holds the Prometheus collectors for chat operations.
// Initialize once at startup via NewMetrics; all operations are
// thread-safe.
type Metrics struct {
	// TurnsTotal counts submitted turns.
	// Labels: path (rest, realtime), status (success, error)
	TurnsTotal *prometheus.CounterVec

	// TurnDurationSeconds measures end-to-end turn latency, dominated
	// by the answer service call.
	// Labels: path (rest, realtime)
	TurnDurationSeconds *prometheus.HistogramVec

	// AnalysesTotal counts analysis triggers.
	// Labels: status (success, error)
	AnalysesTotal *prometheus.CounterVec

	// ActiveWebsockets tracks currently connected realtime clients.
	ActiveWebsockets prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Number of submitted chat turns by path and status.",
		}, []string{"path", "status"}),
		TurnDurationSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "chat",
			Name:      "turn_duration_seconds",
			Help:      "End-to-end latency of a chat turn.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}, []string{"path"}),
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "analysis",
			Name:      "analyses_total",
			Help:      "Number of analysis triggers by status.",
		}, []string{"status"}),
		ActiveWebsockets: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "realtime",
			Name:      "active_websockets",
			Help:      "Currently connected realtime clients.",
		}),
	}
}

// ObserveTurn records one turn submission outcome.
func (m *Metrics) ObserveTurn(path string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.TurnsTotal.WithLabelValues(path, status).Inc()
	m.TurnDurationSeconds.WithLabelValues(path).Observe(time.Since(start).Seconds())
}
