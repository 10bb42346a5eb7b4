package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventRequestReceived   EventType = "request_received"
	EventResponseCompleted EventType = "response_completed"
	EventPredictionMade    EventType = "prediction_made"
	EventPredictionFailed  EventType = "prediction_failed"
	EventCacheLookup       EventType = "cache_lookup"
)

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Route      string
	Duration   time.Duration
	StatusCode int
	Family     string
	Kind       string
	CacheHit   bool
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

// Emit queues an event, dropping it when the buffer is full.
func (c *Collector) Emit(event MetricEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRequestReceived:
		c.metrics.IncrementRequests(event.Route)

	case EventResponseCompleted:
		c.metrics.RecordResponse(event.Route, event.Duration, event.StatusCode)

	case EventPredictionMade:
		c.metrics.RecordPrediction(event.Family)

	case EventPredictionFailed:
		c.metrics.RecordFailure(event.Kind)

	case EventCacheLookup:
		c.metrics.RecordCacheLookup(event.CacheHit)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot(model string) Snapshot {
	return c.metrics.Snapshot(model)
}

func (c *Collector) PredictionServed(family string, confidence float64, elapsed time.Duration) {
	c.Emit(MetricEvent{Type: EventPredictionMade, Family: family, Duration: elapsed})
}

func (c *Collector) PredictionFailed(kind string) {
	c.Emit(MetricEvent{Type: EventPredictionFailed, Kind: kind})
}

func (c *Collector) CacheLookup(hit bool) {
	c.Emit(MetricEvent{Type: EventCacheLookup, CacheHit: hit})
}
