package client

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/angeloszaimis/family-classifier/internal/circuitbreaker"
	"github.com/angeloszaimis/family-classifier/pkg/api"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultHealthTimeout = 3 * time.Second

	defaultFailureThreshold = 5
	defaultResetTimeout     = 30 * time.Second
)

// ErrCircuitOpen is returned without contacting the server while the
// breaker for it is open.
var ErrCircuitOpen = circuitbreaker.ErrOpen

type Options struct {
	Timeout       time.Duration
	HealthTimeout time.Duration

	// Breakers is shared between clients of the same server. When nil the
	// client gets its own registry.
	Breakers         *circuitbreaker.Registry
	FailureThreshold int
	ResetTimeout     time.Duration
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

var missingList = regexp.MustCompile(`'([^']*)'`)

// Missing returns the feature names a 400 response reported as absent.
func (e *APIError) Missing() []string {
	if e.StatusCode != http.StatusBadRequest {
		return nil
	}

	var names []string
	for _, m := range missingList.FindAllStringSubmatch(e.Message, -1) {
		names = append(names, m[1])
	}
	return names
}

type Client struct {
	baseURL       string
	rest          *resty.Client
	breakers      *circuitbreaker.Registry
	healthTimeout time.Duration
}

func New(baseURL string, opts Options) *Client {
	baseURL = strings.TrimRight(baseURL, "/")

	r := resty.New()
	r.SetBaseURL(baseURL)
	if opts.Timeout > 0 {
		r.SetTimeout(opts.Timeout)
	} else {
		r.SetTimeout(DefaultTimeout)
	}

	healthTimeout := opts.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = DefaultHealthTimeout
	}

	breakers := opts.Breakers
	if breakers == nil {
		threshold := opts.FailureThreshold
		if threshold <= 0 {
			threshold = defaultFailureThreshold
		}
		reset := opts.ResetTimeout
		if reset <= 0 {
			reset = defaultResetTimeout
		}
		breakers = circuitbreaker.NewRegistry(threshold, reset)
	}

	return &Client{
		baseURL:       baseURL,
		rest:          r,
		breakers:      breakers,
		healthTimeout: healthTimeout,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// BreakerState reports the breaker guarding this client's server.
func (c *Client) BreakerState() circuitbreaker.State {
	return c.breakers.GetBreaker(c.baseURL).State()
}

// BreakerFailures is the consecutive failure count behind BreakerState.
func (c *Client) BreakerFailures() int {
	return c.breakers.GetBreaker(c.baseURL).Failures()
}

// Breakers reports every breaker in the client's registry by server URL.
func (c *Client) Breakers() map[string]circuitbreaker.State {
	return c.breakers.States()
}

func (c *Client) Predict(ctx context.Context, record map[string]any) (*api.PredictResponse, error) {
	if record == nil {
		record = map[string]any{}
	}

	var out api.PredictResponse
	if err := c.do(ctx, http.MethodPost, "/predict", record, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Families(ctx context.Context) (*api.FamiliesResponse, error) {
	var out api.FamiliesResponse
	if err := c.do(ctx, http.MethodGet, "/familias", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health calls /health with the short health timeout.
func (c *Client) Health(ctx context.Context) (*api.HealthResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	var out api.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ping succeeds when /health answers with status "ok".
func (c *Client) Ping(ctx context.Context) error {
	res, err := c.Health(ctx)
	if err != nil {
		return err
	}
	if res.Status != api.StatusOK {
		return fmt.Errorf("unexpected health status %q", res.Status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	cb := c.breakers.GetBreaker(c.baseURL)
	if !cb.Allow() {
		return ErrCircuitOpen
	}

	var failure api.ErrorResponse
	req := c.rest.R().
		SetContext(ctx).
		SetResult(result).
		SetError(&failure)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		cb.RecordFailure()
		return fmt.Errorf("%s %s: %w", method, path, err)
	}

	if resp.StatusCode() >= http.StatusInternalServerError {
		cb.RecordFailure()
	} else {
		cb.RecordSuccess()
	}

	if resp.IsError() {
		msg := failure.Error
		if msg == "" {
			msg = strings.TrimSpace(resp.String())
		}
		return &APIError{StatusCode: resp.StatusCode(), Message: msg}
	}

	return nil
}
