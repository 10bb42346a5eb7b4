package handler

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/angeloszaimis/family-classifier/internal/metrics"
	"github.com/angeloszaimis/family-classifier/pkg/api"
)

type statusRecorder struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(code int) {
	if !r.wroteHeader {
		r.statusCode = code
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	r.wroteHeader = true
	return r.ResponseWriter.Write(b)
}

// Instrument logs every request on route and reports it to the collector
// and Prometheus. Panics below it are answered with the generic 500 body.
func (h *ClassifierHandler) Instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)

		h.emitEvent(metrics.MetricEvent{
			Type:      metrics.EventRequestReceived,
			Timestamp: start,
			Route:     route,
		})

		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		h.recoverPanics(wrapped, r, next)

		duration := time.Since(start)
		h.emitEvent(metrics.MetricEvent{
			Type:       metrics.EventResponseCompleted,
			Timestamp:  time.Now(),
			Route:      route,
			Duration:   duration,
			StatusCode: wrapped.statusCode,
		})
		if h.prometheus != nil {
			h.prometheus.ObserveRequest(route, wrapped.statusCode, duration)
		}

		h.logger.Info("Handled request",
			slog.String("from", clientIP),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", wrapped.statusCode),
			slog.Duration("duration", duration),
			slog.String("user_agent", r.UserAgent()))
	})
}

func (h *ClassifierHandler) recoverPanics(w *statusRecorder, r *http.Request, next http.HandlerFunc) {
	defer func() {
		if rec := recover(); rec != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			h.logger.Error("Panic recovered",
				slog.Any("panic", rec),
				slog.String("path", r.URL.Path),
				slog.String("stack", string(buf[:n])))

			if w.wroteHeader {
				return
			}
			writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{
				Error:  fmt.Sprint(rec),
				Status: api.StatusError,
			})
		}
	}()

	next(w, r)
}

func (h *ClassifierHandler) emitEvent(event metrics.MetricEvent) {
	if h.metricsCollector == nil {
		return
	}
	h.metricsCollector.Emit(event)
}

func extractClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
