package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/angeloszaimis/family-classifier/internal/inference"
	"github.com/angeloszaimis/family-classifier/internal/metrics"
	"github.com/angeloszaimis/family-classifier/internal/schema"
	"github.com/angeloszaimis/family-classifier/pkg/api"
)

type ClassifierHandler struct {
	logger           *slog.Logger
	service          *inference.Service
	metricsCollector *metrics.Collector
	prometheus       *metrics.Prometheus
	maxBodyBytes     int64
}

// NewClassifierHandler builds the handlers. collector and prom may be nil;
// a maxBodyBytes of 0 leaves request bodies unbounded.
func NewClassifierHandler(logger *slog.Logger, service *inference.Service, collector *metrics.Collector, prom *metrics.Prometheus, maxBodyBytes int64) *ClassifierHandler {
	return &ClassifierHandler{
		logger:           logger,
		service:          service,
		metricsCollector: collector,
		prometheus:       prom,
		maxBodyBytes:     maxBodyBytes,
	}
}

func (h *ClassifierHandler) Predict(w http.ResponseWriter, r *http.Request) {
	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}

	rec, err := schema.Decode(r.Body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.service.Predict(rec)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	top := make([]api.Ranked, len(res.Top))
	for i, t := range res.Top {
		top[i] = api.Ranked{Familia: t.Family, Probabilidad: t.Probability}
	}

	writeJSON(w, http.StatusOK, api.PredictResponse{
		FamiliaPredicha: res.Family,
		Confianza:       res.Confidence,
		ConfianzaPct:    res.ConfidencePct,
		Top3:            top,
		Status:          res.Status,
	})
}

func (h *ClassifierHandler) Families(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.FamiliesResponse{
		Familias: h.service.Families(),
		Total:    h.service.FamilyCount(),
	})
}

// Health reports liveness only and never touches the artifacts.
func (h *ClassifierHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, api.HealthResponse{
		Status:  api.StatusOK,
		Mensaje: api.HealthMessage,
	})
}

func (h *ClassifierHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		h.logger.Warn("Rejected prediction request",
			slog.String("client", extractClientIP(r)),
			slog.Any("missing", verr.Missing))
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: verr.Error()})
		return
	}

	h.logger.Error("Prediction failed",
		slog.String("client", extractClientIP(r)),
		slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{
		Error:  err.Error(),
		Status: api.StatusError,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
