package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Render results.
const (
	resultOK    = "ok"
	resultEmpty = "empty"
	resultError = "error"
)

type metrics struct {
	renders        *prometheus.CounterVec
	renderDuration prometheus.Histogram
	sprites        prometheus.Histogram
	sessions       prometheus.Gauge
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ggass",
			Name:      "renders_total",
			Help:      "Frames rendered, by result.",
		}, []string{"result"}),
		renderDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ggass",
			Name:      "render_duration_seconds",
			Help:      "Time spent in RenderAt.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		sprites: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "ggass",
			Name:      "frame_sprites",
			Help:      "Sprites per non-empty frame.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ggass",
			Name:      "sessions",
			Help:      "Open render sessions.",
		}),
	}
	reg.MustRegister(m.renders, m.renderDuration, m.sprites, m.sessions)
	return m
}
