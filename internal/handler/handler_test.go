package handler_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/angeloszaimis/family-classifier/internal/artifact/artifacttest"
	"github.com/angeloszaimis/family-classifier/internal/handler"
	"github.com/angeloszaimis/family-classifier/internal/inference"
	"github.com/angeloszaimis/family-classifier/internal/metrics"
	"github.com/angeloszaimis/family-classifier/pkg/api"
)

func recordJSON(overrides map[string]any, drop ...string) string {
	rec := artifacttest.Record(overrides)
	for _, k := range drop {
		delete(rec, k)
	}
	data, err := json.Marshal(rec)
	Expect(err).NotTo(HaveOccurred())
	return string(data)
}

var _ = Describe("ClassifierHandler", func() {
	var (
		h    *handler.ClassifierHandler
		prom *metrics.Prometheus
		log  *slog.Logger
	)

	serve := func(route string, fn http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		h.Instrument(route, fn).ServeHTTP(w, req)
		return w
	}

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return serve("/predict", h.Predict, req)
	}

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))

		bundle, err := artifacttest.NewBundle(artifacttest.Logistic())
		Expect(err).NotTo(HaveOccurred())

		prom = metrics.NewPrometheus(prometheus.NewRegistry())
		svc, err := inference.NewService(bundle, 16, prom)
		Expect(err).NotTo(HaveOccurred())

		h = handler.NewClassifierHandler(log, svc, nil, prom, 4096)
	})

	Describe("Predict", func() {
		It("should return the prediction body", func() {
			w := post(recordJSON(map[string]any{"spore_size_um": 250}))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal("application/json"))
			Expect(w.Body.String()).To(MatchJSON(`{
				"familia_predicha": "Acaulosporaceae",
				"confianza": 0.87,
				"confianza_pct": "87.0%",
				"top3": [
					{"familia": "Acaulosporaceae", "probabilidad": 0.87},
					{"familia": "Gigasporaceae", "probabilidad": 0.0433},
					{"familia": "Glomeraceae", "probabilidad": 0.0433}
				],
				"status": "ok"
			}`))
		})

		It("should name the missing keys in schema order", func() {
			w := post(recordJSON(nil, "elevation_m", "pH"))

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(MatchJSON(`{"error": "Faltan variables: ['elevation_m', 'pH']"}`))
		})

		It("should treat an empty object as missing every key", func() {
			w := post(`{}`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			var body api.ErrorResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Error).To(HavePrefix("Faltan variables: ['spore_size_um', 'spore_shape'"))
			Expect(body.Status).To(BeEmpty())
		})

		It("should report every feature missing for an empty array body", func() {
			w := post(`[]`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			var body api.ErrorResponse
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body.Error).To(HavePrefix("Faltan variables: ['spore_size_um', 'spore_shape'"))
			Expect(body.Error).To(HaveSuffix("'textura_Limosa']"))
		})

		It("should ignore extra keys", func() {
			w := post(recordJSON(map[string]any{"sample_id": "M-17", "notas": []string{"x"}}))
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		It("should parse the body regardless of content type", func() {
			req := httptest.NewRequest(http.MethodPost, "/predict", strings.NewReader(recordJSON(nil)))
			req.Header.Set("Content-Type", "text/plain")

			w := serve("/predict", h.Predict, req)
			Expect(w.Code).To(Equal(http.StatusOK))
		})

		DescribeTable("generic failures",
			func(body, fragment string) {
				w := post(body)

				Expect(w.Code).To(Equal(http.StatusInternalServerError))
				var resp api.ErrorResponse
				Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
				Expect(resp.Status).To(Equal(api.StatusError))
				Expect(resp.Error).To(ContainSubstring(fragment))
			},
			Entry("malformed JSON", `{"pH": `, "invalid JSON body"),
			Entry("empty body", ``, "invalid JSON body"),
			Entry("array body", `[1, 2, 3]`, "expected an object"),
			Entry("non-numeric value", recordJSON(map[string]any{"pH": "ácido"}), `feature "pH"`),
			Entry("null value", recordJSON(map[string]any{"gc_content": nil}), `feature "gc_content"`),
			Entry("oversized body", `{"pad": "`+strings.Repeat("x", 8192)+`"}`, "invalid JSON body"),
		)

		It("should count outcomes by status code", func() {
			post(recordJSON(nil))
			post(recordJSON(nil, "pH"))

			Expect(testutil.ToFloat64(prom.RequestsTotal.WithLabelValues("/predict", "200"))).To(Equal(1.0))
			Expect(testutil.ToFloat64(prom.RequestsTotal.WithLabelValues("/predict", "400"))).To(Equal(1.0))
			Expect(testutil.ToFloat64(prom.FailuresTotal.WithLabelValues(inference.FailureValidation))).To(Equal(1.0))
		})

		It("should return identical bodies for identical input", func() {
			body := recordJSON(map[string]any{"wall_type": 0.5, "ornamentation": "0.7"})
			Expect(post(body).Body.String()).To(Equal(post(body).Body.String()))
		})
	})

	Describe("Families", func() {
		It("should list every family with a total", func() {
			w := serve("/familias", h.Families, httptest.NewRequest(http.MethodGet, "/familias", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{
				"familias": ["Acaulosporaceae", "Gigasporaceae", "Glomeraceae", "Paraglomeraceae"],
				"total": 4
			}`))
		})

		It("should be stable across calls", func() {
			first := serve("/familias", h.Families, httptest.NewRequest(http.MethodGet, "/familias", nil))
			second := serve("/familias", h.Families, httptest.NewRequest(http.MethodGet, "/familias", nil))
			Expect(second.Body.String()).To(Equal(first.Body.String()))
		})
	})

	Describe("Health", func() {
		It("should report the service as active", func() {
			w := serve("/health", h.Health, httptest.NewRequest(http.MethodGet, "/health", nil))

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"status": "ok", "mensaje": "Clasificador activo"}`))
		})

		It("should not depend on the inference service", func() {
			bare := handler.NewClassifierHandler(log, nil, nil, nil, 0)
			w := httptest.NewRecorder()
			bare.Instrument("/health", bare.Health).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			Expect(w.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("Instrument", func() {
		It("should turn a panic into the generic error body", func() {
			boom := func(w http.ResponseWriter, r *http.Request) { panic("boom") }

			w := serve("/predict", boom, httptest.NewRequest(http.MethodPost, "/predict", nil))

			Expect(w.Code).To(Equal(http.StatusInternalServerError))
			Expect(w.Body.String()).To(MatchJSON(`{"error": "boom", "status": "error"}`))
			Expect(testutil.ToFloat64(prom.RequestsTotal.WithLabelValues("/predict", "500"))).To(Equal(1.0))
		})
	})
})
