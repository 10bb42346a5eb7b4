package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angeloszaimis/family-classifier/internal/inference"
)

// Prometheus holds the exported server metrics.
type Prometheus struct {
	RequestsTotal     *prometheus.CounterVec   // Requests by route and status code
	RequestDuration   *prometheus.HistogramVec // Handler latency by route
	PredictionsTotal  *prometheus.CounterVec   // Served predictions by family
	FailuresTotal     *prometheus.CounterVec   // Failed predictions by kind
	Confidence        prometheus.Histogram     // Confidence of served predictions
	InferenceLatency  prometheus.Histogram     // Validation through ranking
	CacheLookupsTotal *prometheus.CounterVec   // Cache lookups by result
	ModelClasses      prometheus.Gauge         // Classes known to the loaded model

	gatherer prometheus.Gatherer
}

// NewPrometheus registers the metrics with registerer. When registerer is
// also a Gatherer, Handler serves from it; otherwise it serves the default
// gatherer.
func NewPrometheus(registerer prometheus.Registerer) *Prometheus {
	factory := promauto.With(registerer)

	gatherer := prometheus.DefaultGatherer
	if g, ok := registerer.(prometheus.Gatherer); ok {
		gatherer = g
	}

	return &Prometheus{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by route and status code",
		}, []string{"route", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		PredictionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of predictions served by family",
		}, []string{"familia"}),
		FailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prediction_failures_total",
			Help: "Total number of failed predictions by kind",
		}, []string{"kind"}),
		Confidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "prediction_confidence",
			Help:    "Distribution of prediction confidence scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		InferenceLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "inference_latency_seconds",
			Help:    "Prediction latency in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		CacheLookupsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "prediction_cache_total",
			Help: "Prediction cache lookups by result",
		}, []string{"result"}),
		ModelClasses: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_classes",
			Help: "Number of families the loaded model predicts",
		}),
		gatherer: gatherer,
	}
}

func (p *Prometheus) ObserveRequest(route string, statusCode int, elapsed time.Duration) {
	p.RequestsTotal.WithLabelValues(route, strconv.Itoa(statusCode)).Inc()
	p.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (p *Prometheus) PredictionServed(family string, confidence float64, elapsed time.Duration) {
	p.PredictionsTotal.WithLabelValues(family).Inc()
	p.Confidence.Observe(confidence)
	p.InferenceLatency.Observe(elapsed.Seconds())
}

func (p *Prometheus) PredictionFailed(kind string) {
	p.FailuresTotal.WithLabelValues(kind).Inc()
}

func (p *Prometheus) CacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	p.CacheLookupsTotal.WithLabelValues(result).Inc()
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

type tee []inference.Observer

// Tee fans prediction outcomes out to every non-nil observer.
func Tee(observers ...inference.Observer) inference.Observer {
	var t tee
	for _, o := range observers {
		if o != nil && !isNilPointer(o) {
			t = append(t, o)
		}
	}
	return t
}

func (t tee) PredictionServed(family string, confidence float64, elapsed time.Duration) {
	for _, o := range t {
		o.PredictionServed(family, confidence, elapsed)
	}
}

func (t tee) PredictionFailed(kind string) {
	for _, o := range t {
		o.PredictionFailed(kind)
	}
}

func (t tee) CacheLookup(hit bool) {
	for _, o := range t {
		o.CacheLookup(hit)
	}
}

func isNilPointer(o inference.Observer) bool {
	switch v := o.(type) {
	case *Collector:
		return v == nil
	case *Prometheus:
		return v == nil
	}
	return false
}
