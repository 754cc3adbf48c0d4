// Package collector fetches synthetic user records from the Random Data API.
//
// Requests are paced by a token-bucket limiter, retried with exponential
// backoff when the API answers 429 Too Many Requests, and guarded by a
// circuit breaker so a failing API stops receiving traffic.
package collector

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/scrypster/lookalike/pkg/types"
)

// DefaultURL is the Random Data API users endpoint.
const DefaultURL = "https://random-data-api.com/api/v2/users"

// ErrRateLimited is returned when a batch is still rate limited after all retries.
var ErrRateLimited = errors.New("rate limited: max retries reached")

// StatusError is returned for a response status other than 200 and 429.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.Code)
}

// Config holds collector configuration.
type Config struct {
	// URL is the users endpoint (default: DefaultURL)
	URL string

	// MaxRetries is the number of attempts per batch while rate limited (default: 5)
	MaxRetries int

	// InitialDelay seeds the backoff; the first wait is twice this value (default: 500ms)
	InitialDelay time.Duration

	// MaxDelay caps the backoff (default: 10s)
	MaxDelay time.Duration

	// RequestsPerSecond paces outgoing requests, 0 disables pacing (default: 2)
	RequestsPerSecond float64

	// Timeout is the per-request timeout (default: 10s)
	Timeout time.Duration

	Breaker CircuitBreakerConfig
}

// DefaultConfig returns the collector defaults.
func DefaultConfig() Config {
	return Config{
		URL:               DefaultURL,
		MaxRetries:        5,
		InitialDelay:      500 * time.Millisecond,
		MaxDelay:          10 * time.Second,
		RequestsPerSecond: 2,
		Timeout:           10 * time.Second,
		Breaker:           DefaultCircuitBreakerConfig(),
	}
}

// Client fetches users from the data API.
type Client struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
	breaker *CircuitBreaker
	logger  *zap.Logger

	// sleep waits between retries; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Client. Zero fields of config take their defaults.
func NewClient(config Config, logger *zap.Logger) *Client {
	defaults := DefaultConfig()
	if config.URL == "" {
		config.URL = defaults.URL
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = defaults.MaxRetries
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = defaults.InitialDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = defaults.MaxDelay
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}

	return &Client{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		breaker: NewCircuitBreaker(config.Breaker, logger),
		logger:  logger,
		sleep:   sleepContext,
	}
}

// Breaker returns the client's circuit breaker.
func (c *Client) Breaker() *CircuitBreaker {
	return c.breaker
}

// FetchUsers fetches total users in batches of batchSize. The final batch
// is smaller when total is not a multiple of batchSize.
//
// A batch that fails (unexpected status, exhausted retries, bad payload) is
// skipped with a warning. Once the circuit breaker opens the remaining
// batches are skipped. Only context cancellation is returned as an error.
func (c *Client) FetchUsers(ctx context.Context, total, batchSize int) ([]types.User, error) {
	if total <= 0 {
		return []types.User{}, nil
	}
	if batchSize <= 0 || batchSize > total {
		batchSize = total
	}

	batches := (total + batchSize - 1) / batchSize
	users := make([]types.User, 0, total)
	for i := 0; i < batches; i++ {
		size := batchSize
		if remaining := total - i*batchSize; remaining < size {
			size = remaining
		}

		batch, err := c.FetchBatch(ctx, size)
		switch {
		case err == nil:
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case errors.Is(err, ErrCircuitOpen):
			c.logger.Warn("circuit breaker open, skipping remaining batches",
				zap.Int("batch", i+1),
				zap.Int("batches", batches),
				zap.Object("breaker", c.breaker.Metrics()))
			return users, nil
		default:
			c.logger.Warn("skipping batch", zap.Int("batch", i+1), zap.Error(err))
			continue
		}

		users = append(users, batch...)
		c.logger.Info("fetched batch",
			zap.Int("batch", i+1),
			zap.Int("batches", batches),
			zap.Int("users", len(batch)))
	}

	c.logger.Info("fetch complete",
		zap.Int("users", len(users)),
		zap.Object("breaker", c.breaker.Metrics()))
	return users, nil
}

// FetchBatch fetches a single batch of size users through the circuit breaker.
func (c *Client) FetchBatch(ctx context.Context, size int) ([]types.User, error) {
	result, err := c.breaker.Execute(ctx, func() (interface{}, error) {
		return c.fetchWithRetry(ctx, size)
	})
	if err != nil {
		return nil, err
	}
	return result.([]types.User), nil
}

// fetchWithRetry retries while the API answers 429, doubling the delay up to MaxDelay.
func (c *Client) fetchWithRetry(ctx context.Context, size int) ([]types.User, error) {
	delay := c.config.InitialDelay
	for attempt := 1; attempt <= c.config.MaxRetries; attempt++ {
		users, err := c.fetchOnce(ctx, size)
		if !errors.Is(err, errTooManyRequests) {
			return users, err
		}
		if attempt == c.config.MaxRetries {
			break
		}

		delay = min(delay*2, c.config.MaxDelay)
		c.logger.Warn("rate limited, backing off",
			zap.Duration("delay", delay),
			zap.Int("attempt", attempt),
			zap.Int("max_retries", c.config.MaxRetries))
		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, ErrRateLimited
}

var errTooManyRequests = errors.New("too many requests")

func (c *Client) fetchOnce(ctx context.Context, size int) ([]types.User, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint, err := c.batchURL(size)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, errTooManyRequests
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Code: resp.StatusCode}
	}

	return decodeUsers(resp.Body)
}

func (c *Client) batchURL(size int) (string, error) {
	u, err := url.Parse(c.config.URL)
	if err != nil {
		return "", fmt.Errorf("invalid api url %q: %w", c.config.URL, err)
	}
	q := u.Query()
	q.Set("size", strconv.Itoa(size))
	q.Set("response_type", "json")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
