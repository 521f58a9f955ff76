// Package client provides the resilient World Bank API HTTP client with
// bounded retries, exponential backoff, and cooperative request spacing.
// All network access in the module funnels through this client.
package client

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mercodata/wdi-harvest/pkg/pacing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultBaseURL is the World Bank API v2 root.
const DefaultBaseURL = "https://api.worldbank.org/v2"

// Prometheus metrics for World Bank API requests.
var (
	wbRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wdi_requests_total",
		Help: "Total World Bank API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	wbRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "wdi_request_duration_seconds",
		Help:    "World Bank API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
	}, []string{"endpoint"})

	wbRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wdi_retries_total",
		Help: "Total number of retry attempts",
	})

	wbRetryBackoffSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "wdi_retry_backoff_seconds",
		Help:    "Backoff duration before retries",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})

	wbRetryExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wdi_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted",
	})
)

// Config holds the client configuration.
type Config struct {
	// BaseURL of the API. Tests point this at a mock server.
	BaseURL string

	// UserAgent sent with every request.
	UserAgent string

	// MaxAttempts is the total number of tries per logical request,
	// including the first one.
	MaxAttempts int

	// BackoffBase: wait BackoffBase^attempt seconds before retry attempt+1.
	BackoffBase float64

	// RequestInterval is a cooperative minimum spacing between consecutive
	// requests. Zero disables spacing.
	RequestInterval time.Duration

	// Timeout per HTTP round trip.
	Timeout time.Duration
}

// DefaultConfig returns the production configuration: 5 attempts with a 1.5s
// backoff base, matching what the World Bank API tolerates comfortably.
func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		UserAgent:   "wdi-harvest/0.1.0",
		MaxAttempts: 5,
		BackoffBase: 1.5,
		Timeout:     60 * time.Second,
	}
}

// Client is the resilient fetcher. One GetJSON call is one logical request;
// transport failures and non-2xx statuses retry uniformly until the attempt
// budget runs out.
type Client struct {
	httpClient *http.Client
	config     Config
	limiter    *pacing.Limiter
	waiter     pacing.Waiter
	logger     zerolog.Logger
}

// New creates a new World Bank API client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.BackoffBase <= 1 {
		cfg.BackoffBase = 1.5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	logger := log.With().Str("component", "wdi-client").Logger()

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		limiter:    pacing.NewLimiter(cfg.RequestInterval),
		waiter:     pacing.Sleeper{},
		logger:     logger,
	}, nil
}

// GetJSON performs one logical GET against an API path and returns the raw
// JSON body. The format=json selector is always applied. On transport failure
// or a non-2xx status the request is retried with exponential backoff; after
// the final attempt the failure is wrapped in a FetchError.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values) ([]byte, error) {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("format", "json")
	fullURL := strings.TrimRight(c.config.BaseURL, "/") + path + "?" + q.Encode()

	var lastErr error
	for attempt := 1; attempt <= c.config.MaxAttempts; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, err)
		}

		start := time.Now()
		body, status, err := c.doOnce(ctx, fullURL)
		wbRequestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())

		if err == nil {
			wbRequestsTotal.WithLabelValues(path, strconv.Itoa(status)).Inc()
			if attempt > 1 {
				c.logger.Info().
					Str("endpoint", path).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return body, nil
		}

		lastErr = err
		statusLabel := "network_error"
		if status > 0 {
			statusLabel = strconv.Itoa(status)
		}
		wbRequestsTotal.WithLabelValues(path, statusLabel).Inc()

		if attempt == c.config.MaxAttempts {
			break
		}

		backoff := time.Duration(math.Pow(c.config.BackoffBase, float64(attempt)) * float64(time.Second))
		wbRetriesTotal.Inc()
		wbRetryBackoffSeconds.Observe(backoff.Seconds())

		c.logger.Warn().
			Err(err).
			Str("endpoint", path).
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Msg("Request failed, retrying after backoff")

		if werr := c.waiter.Wait(ctx, backoff); werr != nil {
			return nil, fmt.Errorf("%w: %v", ErrContextCancelled, werr)
		}
	}

	wbRetryExhaustedTotal.Inc()
	c.logger.Error().
		Err(lastErr).
		Str("endpoint", path).
		Int("max_attempts", c.config.MaxAttempts).
		Msg("Retry attempts exhausted")

	return nil, &FetchError{Endpoint: path, Attempts: c.config.MaxAttempts, Err: lastErr}
}

// doOnce executes a single HTTP round trip. A non-2xx status is returned as
// an *HTTPError together with the status code for metric labeling.
func (c *Client) doOnce(ctx context.Context, fullURL string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resp.StatusCode, &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return body, resp.StatusCode, nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetWaiter replaces the backoff waiter (for testing without real delays).
func (c *Client) SetWaiter(w pacing.Waiter) {
	c.waiter = w
}
