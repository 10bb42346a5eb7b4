package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angeloszaimis/family-classifier/config"
	"github.com/angeloszaimis/family-classifier/internal/artifact"
	"github.com/angeloszaimis/family-classifier/internal/handler"
	"github.com/angeloszaimis/family-classifier/internal/httpserver"
	"github.com/angeloszaimis/family-classifier/internal/inference"
	"github.com/angeloszaimis/family-classifier/internal/metrics"
	"github.com/angeloszaimis/family-classifier/pkg/logger"
)

type app struct {
	service   *inference.Service
	collector *metrics.Collector
	prom      *metrics.Prometheus
	handler   *handler.ClassifierHandler
	dir       string
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	var sinks []io.Writer
	if logFile := logger.RotatingFile(logger.FileConfig{
		Path:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	}); logFile != nil {
		defer logFile.Close()
		sinks = append(sinks, logFile)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment, sinks...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := initializeApp(ctx, cfg, log, registry)
	if err != nil {
		log.Error("Failed to load model artifacts", slog.Any("err", err))
		os.Exit(1)
	}

	log.Info("Classifier ready",
		slog.String("artifacts", a.dir),
		slog.String("model", a.service.ModelKind()),
		slog.Int("total", a.service.FamilyCount()),
		slog.Any("familias", a.service.Families()))

	srv, err := httpserver.New(cfg.Server.Address, setupRouter(a))
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		srvErrCh <- srv.Start()
	}()

	log.Info("Listening", slog.String("address", cfg.Server.Address))

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting classifier server", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

// initializeApp loads the artifacts and wires the service, metrics and
// handlers. A nil registerer disables Prometheus. Any artifact error is
// returned so the caller can refuse to start.
func initializeApp(ctx context.Context, cfg *config.Config, log *slog.Logger, registerer prometheus.Registerer) (*app, error) {
	dir := cfg.Artifacts.Dir
	if dir == "" {
		var err error
		if dir, err = artifact.DefaultDir(); err != nil {
			return nil, err
		}
	}

	bundle, err := artifact.Load(ctx, dir)
	if err != nil {
		return nil, err
	}

	a := &app{dir: dir}

	if cfg.Metrics.Enabled {
		a.collector = metrics.NewCollector(cfg.Metrics.BufferSize, log)
		a.collector.Start(ctx)

		if registerer != nil {
			a.prom = metrics.NewPrometheus(registerer)
			a.prom.ModelClasses.Set(float64(bundle.Encoder.Len()))
		}
	}

	a.service, err = inference.NewService(bundle, cfg.Cache.Size, metrics.Tee(a.collector, a.prom))
	if err != nil {
		return nil, err
	}

	a.handler = handler.NewClassifierHandler(log, a.service, a.collector, a.prom, cfg.Server.MaxBodyBytes)

	return a, nil
}
