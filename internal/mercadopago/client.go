// Package mercadopago is a small client for the Mercado Pago payments REST
// API.
package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/conectados420/storefront/internal/telemetry"
)

const tracerName = "github.com/conectados420/storefront/internal/mercadopago"

const (
	DefaultBaseURL = "https://api.mercadopago.com"
	// DefaultTimeout for HTTP requests
	DefaultTimeout = 15 * time.Second
	// MaxRetries for transient errors
	MaxRetries = 2
	// RetryBaseDelay is the initial backoff delay
	RetryBaseDelay = 500 * time.Millisecond

	maxResponseBytes = 5 << 20
)

type Client struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

func NewClient(accessToken string, opts ...Option) *Client {
	c := &Client{
		accessToken: accessToken,
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		limiter:     rate.NewLimiter(rate.Limit(10), 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Configured() bool {
	return c != nil && c.accessToken != ""
}

// GetPayment fetches a payment by id.
func (c *Client) GetPayment(ctx context.Context, id string) (*Payment, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("payment id cannot be empty")
	}
	body, err := c.send(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(id), nil, "")
	if err != nil {
		return nil, fmt.Errorf("get payment %s: %w", id, err)
	}
	return decodePayment(body)
}

// CreatePayment charges a card token. The idempotency key makes retries of
// the same request safe.
func (c *Client) CreatePayment(ctx context.Context, req PaymentRequest, idempotencyKey string) (*Payment, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode payment: %w", err)
	}
	body, err := c.send(ctx, http.MethodPost, "/v1/payments", payload, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}
	return decodePayment(body)
}

func decodePayment(body []byte) (*Payment, error) {
	var p Payment
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("parse payment: %w", err)
	}
	p.Raw = json.RawMessage(body)
	return &p, nil
}

// send executes a request with exponential backoff on network errors, 429
// and 5xx responses.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, idempotencyKey string) (_ []byte, err error) {
	ctx, span := telemetry.StartClientSpan(ctx, tracerName, "mercadopago", method)
	defer func() { telemetry.EndSpan(span, err) }()

	var lastErr error

	for attempt := 0; attempt <= MaxRetries; attempt++ {
		if attempt > 0 {
			delay := RetryBaseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		telemetry.InjectHeaders(ctx, req.Header)
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if idempotencyKey != "" {
			req.Header.Set("X-Idempotency-Key", idempotencyKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		_ = resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = apiError(resp.StatusCode, body)
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, apiError(resp.StatusCode, body)
		}
		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func apiError(status int, body []byte) *APIError {
	e := &APIError{}
	if err := json.Unmarshal(body, e); err != nil || e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	e.Status = status
	return e
}
