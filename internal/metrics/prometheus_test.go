package metrics_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/angeloszaimis/family-classifier/internal/metrics"
)

var _ = Describe("Prometheus", func() {
	var (
		reg  *prometheus.Registry
		prom *metrics.Prometheus
	)

	BeforeEach(func() {
		reg = prometheus.NewRegistry()
		prom = metrics.NewPrometheus(reg)
	})

	It("should count requests by route and code", func() {
		prom.ObserveRequest("/predict", http.StatusOK, 5*time.Millisecond)
		prom.ObserveRequest("/predict", http.StatusOK, 7*time.Millisecond)
		prom.ObserveRequest("/predict", http.StatusBadRequest, time.Millisecond)

		Expect(testutil.ToFloat64(prom.RequestsTotal.WithLabelValues("/predict", "200"))).To(Equal(2.0))
		Expect(testutil.ToFloat64(prom.RequestsTotal.WithLabelValues("/predict", "400"))).To(Equal(1.0))
		Expect(testutil.CollectAndCount(prom.RequestDuration)).To(Equal(1))
	})

	It("should record prediction outcomes", func() {
		prom.PredictionServed("Glomeraceae", 0.87, time.Millisecond)
		prom.PredictionFailed("internal")
		prom.CacheLookup(false)
		prom.CacheLookup(true)

		Expect(testutil.ToFloat64(prom.PredictionsTotal.WithLabelValues("Glomeraceae"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(prom.FailuresTotal.WithLabelValues("internal"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(prom.CacheLookupsTotal.WithLabelValues("hit"))).To(Equal(1.0))
		Expect(testutil.ToFloat64(prom.CacheLookupsTotal.WithLabelValues("miss"))).To(Equal(1.0))
		Expect(testutil.CollectAndCount(prom.Confidence)).To(Equal(1))
	})

	It("should serve the private registry", func() {
		prom.ModelClasses.Set(4)

		w := httptest.NewRecorder()
		prom.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		Expect(w.Code).To(Equal(http.StatusOK))
		body, err := io.ReadAll(w.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring("model_classes 4"))
	})

	Describe("Tee", func() {
		It("should fan out to every observer and skip nil ones", func() {
			collector := metrics.NewCollector(10, slog.New(slog.NewTextHandler(io.Discard, nil)))
			var missing *metrics.Collector

			obs := metrics.Tee(prom, collector, missing, nil)
			obs.PredictionServed("Acaulosporaceae", 0.5, time.Millisecond)

			Expect(testutil.ToFloat64(prom.PredictionsTotal.WithLabelValues("Acaulosporaceae"))).To(Equal(1.0))
		})
	})
})
