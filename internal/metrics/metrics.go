// Package metrics exposes Prometheus collectors for the render loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "suitstrip"

var (
	framesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_total",
		Help:      "Frames rendered by the engine",
	})

	frameSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "frame_seconds",
		Help:      "Time spent rendering one frame, driver writes included",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
	})

	driverErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "driver_errors_total",
		Help:      "Failed driver writes",
	}, []string{"segment"})

	commandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Commands applied by the engine",
	}, []string{"kind"})

	commandsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_dropped_total",
		Help:      "Commands rejected because the queue was full",
	})

	pulseActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pulse_active",
		Help:      "1 while a pulse event is running on the segment",
	}, []string{"segment"})

	brightness = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "brightness",
		Help:      "Global brightness multiplier of the segment",
	}, []string{"segment"})
)

// ObserveFrame records one rendered frame.
func ObserveFrame(seconds float64) {
	framesTotal.Inc()
	frameSeconds.Observe(seconds)
}

func DriverError(segment string) {
	driverErrors.WithLabelValues(segment).Inc()
}

func CommandApplied(kind string) {
	commandsTotal.WithLabelValues(kind).Inc()
}

func CommandDropped() {
	commandsDropped.Inc()
}

// SegmentState publishes the per-segment gauges.
func SegmentState(segment string, pulse bool, b float64) {
	v := 0.0
	if pulse {
		v = 1
	}
	pulseActive.WithLabelValues(segment).Set(v)
	brightness.WithLabelValues(segment).Set(b)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
