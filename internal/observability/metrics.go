package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ndvi"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// forecast service and the conversion pipeline.
type Metrics struct {
	// Prediction service metrics.
	Predictions          *prometheus.CounterVec   // labels: outcome={ok,unsupported_location,invalid_date,model_failure}
	PredictionBands      *prometheus.CounterVec   // labels: band
	Anomalies            prometheus.Counter
	ModelDuration        *prometheus.HistogramVec // labels: source={file,http}
	ModelCache           *prometheus.CounterVec   // labels: layer={memory,redis}, result={hit,miss,error}
	AnomalyNotifications *prometheus.CounterVec   // labels: outcome={success,error}

	// Conversion pipeline metrics.
	Conversions        *prometheus.CounterVec // labels: status={succeeded,skipped,failed}
	ConversionDuration prometheus.Histogram
	PipelineRunning    prometheus.Gauge
	LastRunFailures    prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	return NewMetricsWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsWithRegistry creates all metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Prediction requests by outcome.",
		}, []string{"outcome"}),
		PredictionBands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prediction_bands_total",
			Help:      "Successful predictions by interpretation band.",
		}, []string{"band"}),
		Anomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_total",
			Help:      "Predictions flagged as anomalous.",
		}),
		ModelDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_duration_seconds",
			Help:      "Regression model invocation duration in seconds.",
			Buckets:   []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"source"}),
		ModelCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_cache_total",
			Help:      "Model result cache lookups by layer and result.",
		}, []string{"layer", "result"}),
		AnomalyNotifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomaly_notifications_total",
			Help:      "Anomaly notifications published by outcome.",
		}, []string{"outcome"}),
		Conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversions_total",
			Help:      "Raster conversion tasks by status.",
		}, []string{"status"}),
		ConversionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conversion_duration_seconds",
			Help:      "Duration of a single external conversion invocation.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a conversion run is in progress, 0 otherwise.",
		}),
		LastRunFailures: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_last_run_failures",
			Help:      "Number of failed conversions in the most recent run.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Predictions,
			m.PredictionBands,
			m.Anomalies,
			m.ModelDuration,
			m.ModelCache,
			m.AnomalyNotifications,
			m.Conversions,
			m.ConversionDuration,
			m.PipelineRunning,
			m.LastRunFailures,
		)
	}

	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to
// avoid "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return NewMetricsWithRegistry(nil)
}
