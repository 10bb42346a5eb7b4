package healthcheck

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Pinger checks a server once. A nil error means the server is up.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is a point-in-time view of the watched server.
type Status struct {
	Up        bool
	Known     bool
	Since     time.Time
	LastCheck time.Time
	LastError string
	Checks    int
}

type Watcher struct {
	pinger   Pinger
	target   string
	interval time.Duration
	logger   *slog.Logger

	mutex    sync.RWMutex
	status   Status
	onChange func(Status)
}

func NewWatcher(pinger Pinger, target string, interval time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		pinger:   pinger,
		target:   target,
		interval: interval,
		logger:   logger,
	}
}

// OnChange registers fn to run after every transition, including the first
// check. It must be set before Run.
func (w *Watcher) OnChange(fn func(Status)) {
	w.onChange = fn
}

// Run checks immediately and then every interval until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.Check(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Health check stopped", slog.String("server", w.target))
			return

		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check pings the server once and records the outcome.
func (w *Watcher) Check(ctx context.Context) Status {
	err := w.pinger.Ping(ctx)
	if ctx.Err() != nil {
		return w.Status()
	}

	healthy := err == nil
	now := time.Now()

	w.mutex.Lock()
	changed := !w.status.Known || w.status.Up != healthy
	w.status.Checks++
	w.status.LastCheck = now
	w.status.LastError = ""
	if err != nil {
		w.status.LastError = err.Error()
	}
	if changed {
		w.status.Up = healthy
		w.status.Known = true
		w.status.Since = now
	}
	snap := w.status
	w.mutex.Unlock()

	if changed {
		if healthy {
			w.logger.Info("Server is up", slog.String("server", w.target))
		} else {
			w.logger.Warn("Server is down",
				slog.String("server", w.target),
				slog.String("error", snap.LastError))
		}
		if w.onChange != nil {
			w.onChange(snap)
		}
	}

	return snap
}

func (w *Watcher) Status() Status {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.status
}
