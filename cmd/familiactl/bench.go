package main

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/family-classifier/pkg/client"
)

const (
	outcomeTransportError = 0
	outcomeCircuitOpen    = -1
)

type latencySummary struct {
	Samples int     `json:"samples"`
	Min     float64 `json:"min_ms"`
	Avg     float64 `json:"avg_ms"`
	Max     float64 `json:"max_ms"`
	P50     float64 `json:"p50_ms"`
	P90     float64 `json:"p90_ms"`
	P95     float64 `json:"p95_ms"`
	P99     float64 `json:"p99_ms"`
}

type benchSummary struct {
	Target        string            `json:"target"`
	Requests      int               `json:"requests"`
	Concurrency   int               `json:"concurrency"`
	TotalSent     int               `json:"total_sent"`
	Success       int               `json:"success"`
	Failure       int               `json:"failure"`
	DurationMS    int64             `json:"duration_ms"`
	ThroughputRPS float64           `json:"throughput_rps"`
	StatusCodes   map[int]int       `json:"status_codes"`
	Families      map[string]int    `json:"familias"`
	Latency       latencySummary    `json:"latency"`
	Breakers      map[string]string `json:"breakers"`
}

type benchRecorder struct {
	mu        sync.Mutex
	latencies []time.Duration
	summary   benchSummary
}

func (b *benchRecorder) record(family string, status int, elapsed time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.summary.TotalSent++
	b.latencies = append(b.latencies, elapsed)
	b.summary.StatusCodes[status]++

	if status >= 200 && status <= 299 {
		b.summary.Success++
		b.summary.Families[family]++
	} else {
		b.summary.Failure++
	}
}

// runBench sends the same record requests times over concurrency workers.
// Status 0 counts transport errors and -1 requests refused by the breaker.
func runBench(ctx context.Context, c *client.Client, rec map[string]any, requests, concurrency int) (*benchSummary, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	rb := &benchRecorder{
		summary: benchSummary{
			Target:      c.BaseURL() + "/predict",
			Requests:    requests,
			Concurrency: concurrency,
			StatusCodes: make(map[int]int),
			Families:    make(map[string]int),
		},
	}

	jobs := make(chan int)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i := 0; i < requests; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	testStart := time.Now()

	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			for range jobs {
				start := time.Now()
				res, err := c.Predict(ctx, rec)
				elapsed := time.Since(start)

				var apiErr *client.APIError
				switch {
				case err == nil:
					rb.record(res.FamiliaPredicha, 200, elapsed)
				case errors.As(err, &apiErr):
					rb.record("", apiErr.StatusCode, elapsed)
				case errors.Is(err, client.ErrCircuitOpen):
					rb.record("", outcomeCircuitOpen, elapsed)
				case ctx.Err() != nil:
					return ctx.Err()
				default:
					rb.record("", outcomeTransportError, elapsed)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := time.Since(testStart)
	summary := rb.summary
	summary.DurationMS = total.Milliseconds()
	if total > 0 {
		summary.ThroughputRPS = float64(summary.TotalSent) / total.Seconds()
	}
	summary.Latency = summarizeLatencies(rb.latencies)

	summary.Breakers = make(map[string]string)
	for url, state := range c.Breakers() {
		summary.Breakers[url] = state.String()
	}

	return &summary, nil
}

func summarizeLatencies(latencies []time.Duration) latencySummary {
	if len(latencies) == 0 {
		return latencySummary{}
	}

	tmp := make([]time.Duration, len(latencies))
	copy(tmp, latencies)
	sort.Slice(tmp, func(i, j int) bool { return tmp[i] < tmp[j] })

	var sum time.Duration
	for _, d := range tmp {
		sum += d
	}

	pick := func(p float64) float64 {
		return ms(tmp[int(float64(len(tmp)-1)*p)])
	}

	return latencySummary{
		Samples: len(tmp),
		Min:     ms(tmp[0]),
		Avg:     ms(sum / time.Duration(len(tmp))),
		Max:     ms(tmp[len(tmp)-1]),
		P50:     pick(0.50),
		P90:     pick(0.90),
		P95:     pick(0.95),
		P99:     pick(0.99),
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
