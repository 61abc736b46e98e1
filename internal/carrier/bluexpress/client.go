package bluexpress

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

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/conectados420/storefront/internal/telemetry"
)

const tracerName = "github.com/conectados420/storefront/internal/carrier/bluexpress"

const (
	SandboxBaseURL    = "https://api-sandbox.blue.cl"
	ProductionBaseURL = "https://api.blue.cl"
	// DefaultTimeout for HTTP requests
	DefaultTimeout = 10 * time.Second
	// DefaultRateLimit is requests per second against the carrier API
	DefaultRateLimit = rate.Limit(5)
	// MaxRetries for transient errors
	MaxRetries = 2
	// RetryBaseDelay is the initial backoff delay
	RetryBaseDelay = 500 * time.Millisecond

	maxResponseBytes = 10 << 20
)

type Config struct {
	Enabled       bool
	APIKey        string
	APISecret     string
	AccountNumber string
	Sandbox       bool
}

// Client talks to the Blue Express REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBaseURL overrides the sandbox/production endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

func NewClient(cfg Config, opts ...Option) *Client {
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    ProductionBaseURL,
		limiter:    rate.NewLimiter(DefaultRateLimit, 1),
	}
	if cfg.Sandbox {
		client.baseURL = SandboxBaseURL
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Configured reports whether the integration is enabled and has credentials.
func (c *Client) Configured() bool {
	return c != nil && c.cfg.Enabled && c.cfg.APIKey != "" && c.cfg.APISecret != ""
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateShipment registers a shipment. An empty ClientReference is filled
// with a fresh ULID so retries can be correlated on the carrier side.
func (c *Client) CreateShipment(ctx context.Context, req ShipmentRequest) (*Shipment, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if req.ClientReference == "" {
		req.ClientReference = ulid.Make().String()
	}
	if req.Account == "" {
		req.Account = c.cfg.AccountNumber
	}
	if req.Service == "" {
		req.Service = ServiceStandard
	}

	var shipment Shipment
	if err := c.do(ctx, http.MethodPost, "/v1/shipments", req, &shipment); err != nil {
		return nil, fmt.Errorf("create shipment: %w", err)
	}
	if shipment.ClientReference == "" {
		shipment.ClientReference = req.ClientReference
	}
	return &shipment, nil
}

func (c *Client) TrackShipment(ctx context.Context, trackingNumber string) (*Tracking, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if strings.TrimSpace(trackingNumber) == "" {
		return nil, fmt.Errorf("tracking number cannot be empty")
	}

	var tracking Tracking
	if err := c.do(ctx, http.MethodGet, "/v1/tracking/"+url.PathEscape(trackingNumber), nil, &tracking); err != nil {
		return nil, fmt.Errorf("track shipment: %w", err)
	}
	return &tracking, nil
}

func (c *Client) CancelShipment(ctx context.Context, shipmentID string) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if err := c.do(ctx, http.MethodDelete, "/v1/shipments/"+url.PathEscape(shipmentID), nil, nil); err != nil {
		return fmt.Errorf("cancel shipment: %w", err)
	}
	return nil
}

func (c *Client) CalculateRate(ctx context.Context, req RateRequest) (*Rate, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if req.WeightKg <= 0 {
		req.WeightKg = 1
	}

	var quote Rate
	if err := c.do(ctx, http.MethodPost, "/v1/rates", req, &quote); err != nil {
		return nil, fmt.Errorf("calculate rate: %w", err)
	}
	if quote.Cost < 0 {
		return nil, &Error{Code: "API_ERROR", Message: "negative rate returned"}
	}
	return &quote, nil
}

// GenerateLabel downloads the PDF label for a shipment.
func (c *Client) GenerateLabel(ctx context.Context, shipmentID string) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	body, err := c.send(ctx, http.MethodGet, "/v1/labels/"+url.PathEscape(shipmentID)+".pdf", nil, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("generate label: %w", err)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, result any) error {
	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	body, err := c.send(ctx, method, path, encoded, "application/json")
	if err != nil {
		return err
	}
	if result == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return nil
}

// send executes a request with exponential backoff on network errors, 429
// and 5xx responses.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, accept string) (_ []byte, err error) {
	ctx, span := telemetry.StartClientSpan(ctx, tracerName, "bluexpress", method)
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
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		req.Header.Set("X-Api-Secret", c.cfg.APISecret)
		if c.cfg.AccountNumber != "" {
			req.Header.Set("X-Account-Number", c.cfg.AccountNumber)
		}
		req.Header.Set("Accept", accept)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
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
			lastErr = &Error{Code: "API_ERROR", Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, &Error{Code: "API_ERROR", Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		}
		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
