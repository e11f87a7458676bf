package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	apperrors "github.com/utafrali/ghstore/pkg/errors"
)

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	Name string

	// MaxRequests is the number of probes allowed while half-open.
	MaxRequests uint32

	// Interval clears the closed-state counts; 0 never clears them.
	Interval time.Duration

	// Timeout is how long the breaker stays open.
	Timeout time.Duration

	// The breaker trips when at least MinRequests were seen and the share of
	// failures reaches FailureRatio.
	FailureRatio float64
	MinRequests  uint32
}

// DefaultCircuitBreakerConfig returns the defaults used for downstream
// service clients.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

func (c CircuitBreakerConfig) readyToTrip(counts gobreaker.Counts) bool {
	if counts.Requests < c.MinRequests {
		return false
	}
	return float64(counts.TotalFailures)/float64(counts.Requests) >= c.FailureRatio
}

var breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Name: "http_client_breaker_state",
	Help: "Circuit breaker state per downstream (0=closed, 1=half-open, 2=open).",
}, []string{"name"})

var breakerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "http_client_breaker_rejections_total",
	Help: "Requests rejected without being sent because the breaker was open or probing.",
}, []string{"name"})

var stateValues = map[gobreaker.State]float64{
	gobreaker.StateClosed:   0,
	gobreaker.StateHalfOpen: 1,
	gobreaker.StateOpen:     2,
}

func stateToFloat(state gobreaker.State) float64 {
	if v, ok := stateValues[state]; ok {
		return v
	}
	return -1
}

// ErrCircuitOpen is wrapped by errors for requests rejected by an open breaker.
var ErrCircuitOpen = gobreaker.ErrOpenState

// ErrTooManyRequests is wrapped by errors for requests rejected while a
// half-open breaker is already probing.
var ErrTooManyRequests = gobreaker.ErrTooManyRequests

// CircuitBreakerClient sends requests through a Client guarded by a breaker.
// Rejected requests fail with a 503 AppError that also wraps ErrCircuitOpen
// or ErrTooManyRequests.
type CircuitBreakerClient struct {
	name    string
	client  *Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	logger  *slog.Logger
}

// NewCircuitBreakerClient wraps client with a breaker. 5xx responses and
// transport errors count as failures; 4xx responses do not.
func NewCircuitBreakerClient(client *Client, cfg CircuitBreakerConfig, logger *slog.Logger) *CircuitBreakerClient {
	c := &CircuitBreakerClient{name: cfg.Name, client: client, logger: logger}
	c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:          cfg.Name,
		MaxRequests:   cfg.MaxRequests,
		Interval:      cfg.Interval,
		Timeout:       cfg.Timeout,
		ReadyToTrip:   cfg.readyToTrip,
		OnStateChange: c.onStateChange,
	})
	breakerState.WithLabelValues(cfg.Name).Set(stateToFloat(gobreaker.StateClosed))
	return c
}

func (c *CircuitBreakerClient) onStateChange(name string, from, to gobreaker.State) {
	c.logger.Warn("circuit breaker state change",
		slog.String("breaker", name),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
	)
	breakerState.WithLabelValues(name).Set(stateToFloat(to))
}

// Do executes req through the breaker.
func (c *CircuitBreakerClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		return c.send(ctx, req)
	})
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests) {
		breakerRejections.WithLabelValues(c.name).Inc()
		return nil, fmt.Errorf("%w: %w", apperrors.ServiceUnavailable(c.name+" service is unavailable"), err)
	}
	return resp, err
}

// send performs one attempt and turns a 5xx into an error so the breaker
// counts it.
func (c *CircuitBreakerClient) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < http.StatusInternalServerError {
		return resp, nil
	}
	defer func() { _ = resp.Body.Close() }()
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
	return nil, fmt.Errorf("%s server error %d: %s", c.name, resp.StatusCode, snippet)
}

// Get performs a GET request through the breaker.
func (c *CircuitBreakerClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create GET request: %w", err)
	}
	return c.Do(ctx, req)
}

// State returns the current state of the breaker.
func (c *CircuitBreakerClient) State() gobreaker.State {
	return c.breaker.State()
}

// Name returns the breaker name.
func (c *CircuitBreakerClient) Name() string {
	return c.name
}
