// Package dataservice talks to the REST service that owns customers, products,
// suppliers and sales. It implements the catalog, partner and trade ports.
package dataservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/retaildesk/backend/internal/domain/shared"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when the data service cannot be reached, keeps
// failing after retries, or the circuit breaker is open.
var ErrUnavailable = shared.NewDomainError("SERVICE_UNAVAILABLE", "data service unavailable")

// APIError is a non-2xx answer the client does not map to a domain error
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("data service %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// ErrorCode implements shared.CodedError. 4xx answers usually mean the core
// sent something the service rejected.
func (e *APIError) ErrorCode() string {
	if e.StatusCode >= http.StatusInternalServerError {
		return "SERVICE_UNAVAILABLE"
	}
	return "VALIDATION_ERROR"
}

// Config configures the client
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	RetryCount         int
	RetryWait          time.Duration
	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
	// Location interprets timestamps sent without a zone offset. Nil means time.Local.
	Location *time.Location
}

// Client is a resty-backed data service client. Every call goes through a
// circuit breaker; reads are retried on transport errors and 5xx answers.
type Client struct {
	http    *resty.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	loc     *time.Location
}

// NewClient builds a client from cfg
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}

	base := strings.TrimSuffix(cfg.BaseURL, "/")
	httpClient := resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		AddRetryCondition(retryableRead)

	settings := gobreaker.Settings{
		Name:    "dataservice",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: func(err error) bool {
			// only transport failures and 5xx count against the service
			return err == nil || !errors.Is(err, ErrUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Client{
		http:    httpClient,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
		loc:     loc,
	}
}

// retryableRead retries GETs that failed in transport or with a 5xx.
// Writes are never retried so a timed-out create cannot be applied twice.
func retryableRead(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	return err != nil || resp.StatusCode() >= http.StatusInternalServerError
}

// BreakerState exposes the breaker state for health reporting
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// call executes one request through the breaker and classifies the answer.
// result, when non-nil, is filled from a 2xx body.
func (c *Client) call(ctx context.Context, method, path string, body, result any, query map[string]string) error {
	_, err := c.breaker.Execute(func() (any, error) {
		req := c.http.R().SetContext(ctx)
		if body != nil {
			req.SetBody(body)
		}
		if len(query) > 0 {
			req.SetQueryParams(query)
		}

		resp, err := req.Execute(method, path)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, path, err)
		}
		if err := classify(resp, method, path); err != nil {
			return nil, err
		}
		if result != nil && len(resp.Body()) > 0 {
			if err := json.Unmarshal(resp.Body(), result); err != nil {
				return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
			}
		}
		return nil, nil
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.logger.Warn("Data service call short-circuited",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("state", c.breaker.State().String()),
		)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	case err != nil:
		c.logger.Debug("Data service call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
	}
	return err
}

func classify(resp *resty.Response, method, path string) error {
	status := resp.StatusCode()
	switch {
	case status < http.StatusBadRequest:
		return nil
	case status == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, shared.ErrNotFound)
	case status >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s %s: status %d", ErrUnavailable, method, path, status)
	default:
		return &APIError{
			StatusCode: status,
			Method:     method,
			Path:       path,
			Body:       truncate(resp.String(), 512),
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
