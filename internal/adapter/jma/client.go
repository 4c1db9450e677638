package jma

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/couchcryptid/weathercal/internal/config"
	"github.com/couchcryptid/weathercal/internal/domain"
	"github.com/couchcryptid/weathercal/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const userAgent = "weathercal/1.0 (+https://github.com/couchcryptid/weathercal)"

var (
	ErrRateLimited      = errors.New("rate limited")
	ErrServerError      = errors.New("server error")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrCircuitOpen      = errors.New("circuit breaker open")
)

// backoff bounds the retry loop; delays double from initial up to max.
type backoff struct {
	maxRetries int
	initial    time.Duration
	max        time.Duration
}

// Client fetches forecast data from the JMA bosai site. Every request waits
// on the politeness limiter, runs through a circuit breaker, and is retried
// with exponential backoff on 429, 5xx and transport errors.
type Client struct {
	baseURL    string
	telopsURL  string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	backoff    backoff
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a JMA client from the fetch settings in cfg.
func NewClient(cfg *config.Config, clock clockwork.Clock, metrics *observability.Metrics, logger *slog.Logger) *Client {
	limit := rate.Inf
	if cfg.FetchInterval > 0 {
		limit = rate.Every(cfg.FetchInterval)
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "jma",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
	return &Client{
		baseURL:    cfg.JMABaseURL,
		telopsURL:  cfg.JMATelopsURL,
		httpClient: &http.Client{Timeout: cfg.FetchTimeout},
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    breaker,
		backoff:    backoff{maxRetries: cfg.FetchMaxRetries, initial: 500 * time.Millisecond, max: 10 * time.Second},
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchReportPair downloads and decodes the forecast of one office.
func (c *Client) FetchReportPair(ctx context.Context, office string) (domain.ReportPair, error) {
	body, err := c.get(ctx, "forecast", c.endpoint("forecast/data/forecast/"+url.PathEscape(office)+".json"))
	if err != nil {
		return domain.ReportPair{}, fmt.Errorf("fetch forecast %s: %w", office, err)
	}
	pair, err := domain.ParseReportPair(body)
	if err != nil {
		return domain.ReportPair{}, fmt.Errorf("forecast %s: %w", office, err)
	}
	return pair, nil
}

// endpoint builds a URL under the base with the site's cache-busting
// __time__ parameter (local time, second resolution).
func (c *Client) endpoint(path string) string {
	q := url.Values{"__time__": {c.clock.Now().In(domain.JST).Format("20060102150405")}}
	return c.baseURL + "/" + path + "?" + q.Encode()
}

func (c *Client) get(ctx context.Context, kind, rawURL string) ([]byte, error) {
	start := c.clock.Now()
	body, err := c.doWithRetry(ctx, rawURL)
	c.metrics.FetchDuration.WithLabelValues(kind).Observe(c.clock.Since(start).Seconds())
	if err != nil {
		c.metrics.FetchRequests.WithLabelValues(kind, "error").Inc()
		return nil, err
	}
	c.metrics.FetchRequests.WithLabelValues(kind, "success").Inc()
	return body, nil
}

func (c *Client) doWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	delay := c.backoff.initial
	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		c.logger.Debug("fetch", "url", rawURL, "attempt", attempt+1)

		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.do(ctx, rawURL)
		})
		if err == nil {
			body, ok := result.([]byte)
			if !ok {
				return nil, errors.New("unexpected result type from circuit breaker")
			}
			return body, nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, ErrUnexpectedStatus) || attempt >= c.backoff.maxRetries {
			return nil, err
		}

		c.logger.Warn("fetch failed, retrying", "url", rawURL, "attempt", attempt+1, "delay", delay, "error", err)
		if !retry.SleepWithContext(ctx, delay) {
			return nil, ctx.Err()
		}
		delay = retry.NextBackoff(delay, c.backoff.max)
	}
}

func (c *Client) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %d", ErrServerError, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
