package main

import (
	"net/http"
)

func setupRouter(a *app) *http.ServeMux {
	mux := http.NewServeMux()

	h := a.handler
	mux.Handle("POST /predict", h.Instrument("/predict", h.Predict))
	mux.Handle("GET /familias", h.Instrument("/familias", h.Families))
	mux.Handle("GET /health", h.Instrument("/health", h.Health))

	if a.collector != nil {
		mux.HandleFunc("GET /stats", a.collector.Handler(a.service.ModelKind()))
	}
	if a.prom != nil {
		mux.Handle("GET /metrics", a.prom.Handler())
	}

	return mux
}
