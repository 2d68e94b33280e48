package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/mrops-br/product-upsert-api/internal/app/dto"
	"github.com/mrops-br/product-upsert-api/internal/infrastructure/config"
)

// maxErrorBody caps how much of a failed response body ends up in the error.
const maxErrorBody = 512

// WebhookConfig contains configuration for webhook notifications.
type WebhookConfig struct {
	URL     string
	Timeout time.Duration

	// RequestsPerSecond and Burst size the token bucket in front of the endpoint.
	RequestsPerSecond float64
	Burst             int

	// BreakerTimeout is how long the breaker stays open before probing again.
	BreakerTimeout time.Duration
	// BreakerFailures is the number of consecutive failures that opens it.
	BreakerFailures uint32
}

// DeliveryError is returned when the endpoint answers with a non-2xx status.
type DeliveryError struct {
	StatusCode int
	Body       string
}

func (e *DeliveryError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("webhook responded with status %d", e.StatusCode)
	}
	return fmt.Sprintf("webhook responded with status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status points at the endpoint rather than
// the payload. Only these count as circuit breaker failures.
func (e *DeliveryError) Retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// callerGoneError marks a send abandoned because the caller's context ended.
// It says nothing about the endpoint's health.
type callerGoneError struct {
	err error
}

func (e *callerGoneError) Error() string { return e.err.Error() }
func (e *callerGoneError) Unwrap() error { return e.err }

// WebhookNotifier POSTs product-updated events as JSON. Each event is sent
// once; failures are returned, not retried.
type WebhookNotifier struct {
	config     WebhookConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// WebhookConfigFrom maps the notifier environment settings onto a WebhookConfig.
func WebhookConfigFrom(cfg config.NotifierConfig) WebhookConfig {
	return WebhookConfig{
		URL:               cfg.WebhookURL,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.Burst,
		BreakerTimeout:    cfg.BreakerTimeout,
		BreakerFailures:   cfg.BreakerFailures,
	}
}

func NewWebhookNotifier(config WebhookConfig, logger *slog.Logger) *WebhookNotifier {
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 5
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	if config.BreakerTimeout <= 0 {
		config.BreakerTimeout = 30 * time.Second
	}
	if config.BreakerFailures == 0 {
		config.BreakerFailures = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "product-webhook",
		Timeout: config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.BreakerFailures
		},
		// 4xx means the endpoint is up and rejected this payload.
		// Caller cancellation is not held against the endpoint either.
		IsSuccessful: func(err error) bool {
			var gone *callerGoneError
			if errors.As(err, &gone) {
				return true
			}
			var de *DeliveryError
			if errors.As(err, &de) {
				return !de.Retryable()
			}
			return err == nil
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	return &WebhookNotifier{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.Burst),
		breaker:    breaker,
		logger:     logger,
	}
}

// NotifyProductUpdated waits for a rate-limit token, then sends the event
// through the circuit breaker. An open breaker fails immediately with
// gobreaker.ErrOpenState.
func (n *WebhookNotifier) NotifyProductUpdated(ctx context.Context, product dto.ProductUpdatedDto) error {
	requestID := uuid.New().String()

	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	_, err := n.breaker.Execute(func() (interface{}, error) {
		err := n.send(ctx, requestID, product)
		if err != nil && ctx.Err() != nil {
			return nil, &callerGoneError{err: err}
		}
		return nil, err
	})
	var gone *callerGoneError
	if errors.As(err, &gone) {
		err = gone.err
	}
	if err != nil {
		n.logger.WarnContext(ctx, "Product webhook notification failed",
			slog.String("request_id", requestID),
			slog.String("product_id", product.ID),
			slog.Any("error", err))
		return err
	}

	n.logger.DebugContext(ctx, "Product webhook notification delivered",
		slog.String("request_id", requestID),
		slog.String("product_id", product.ID))
	return nil
}

func (n *WebhookNotifier) send(ctx context.Context, requestID string, product dto.ProductUpdatedDto) error {
	body, err := json.Marshal(product)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &DeliveryError{
		StatusCode: resp.StatusCode,
		Body:       string(bytes.TrimSpace(respBody)),
	}
}
