// Package telemetry exports delaycast Prometheus collectors.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/YuminosukeSato/delaycast/pkg/errors"
)

const namespace = "delaycast"

// Metrics implements predictor.Recorder on Prometheus collectors.
type Metrics struct {
	predictions *prometheus.CounterVec
	fits        *prometheus.CounterVec
	fitDuration prometheus.Histogram
	modelLoaded prometheus.GaugeFunc
}

// New creates the collectors. modelLoaded is evaluated at scrape time; a
// nil func reports 0.
func New(modelLoaded func() bool) *Metrics {
	if modelLoaded == nil {
		modelLoaded = func() bool { return false }
	}
	return &Metrics{
		predictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "predictions_total",
				Help:      "Predictions served, partitioned by the strategy that produced them.",
			},
			[]string{"strategy"},
		),
		fits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fits_total",
				Help:      "Fit requests, partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		fitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fit_duration_seconds",
				Help:      "Fit latency in seconds, including artifact save.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		modelLoaded: prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "model_loaded",
				Help:      "1 when a trained model is active, 0 in heuristic mode.",
			},
			func() float64 {
				if modelLoaded() {
					return 1
				}
				return 0
			},
		),
	}
}

// Register attaches the collectors to reg. Collectors that are already
// registered are skipped.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.predictions,
		m.fits,
		m.fitDuration,
		m.modelLoaded,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return errors.Wrap(err, "register collector")
		}
	}
	return nil
}

// ObservePrediction counts one prediction.
func (m *Metrics) ObservePrediction(strategy string) {
	m.predictions.WithLabelValues(strategy).Inc()
}

// ObserveFit records a fit outcome and its duration.
func (m *Metrics) ObserveFit(outcome string, elapsed time.Duration) {
	m.fits.WithLabelValues(outcome).Inc()
	if elapsed < 0 {
		elapsed = 0
	}
	m.fitDuration.Observe(elapsed.Seconds())
}
