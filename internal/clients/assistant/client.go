// Package assistant provides a client for the trading-assistant REST API
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/coindeck/internal/common"
	"github.com/bobmcallan/coindeck/internal/interfaces"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
)

// Client implements the AssistantClient interface. All authenticated calls
// funnel through a single request helper that re-checks the session on every
// call; the bearer header is attached iff a valid session exists at call
// time, never at construction time.
type Client struct {
	baseURL    string
	store      interfaces.TokenStore
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	now        func() time.Time
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets the underlying HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithClock overrides the wall clock used for token expiry checks
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a new assistant client. The token store is the single
// piece of durable state; it is read on every call and written only on
// successful login and on logout.
func NewClient(baseURL string, store interfaces.TokenStore, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		store:   store,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// do performs a rate-limited request and decodes the response body into
// result. Exactly HTTP 200 counts as success; every other status, including
// other 2xx codes, yields a RequestError carrying the original status.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-Request-ID", uuid.New().String()[:8])

	// Session validity is re-evaluated on every call; tokens can expire
	// between calls.
	if token := c.sessionToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("Assistant API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return &RequestError{
			StatusCode: resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			Body:       raw,
		}
	}

	if result == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// doJSON marshals payload as the JSON request body.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, result interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	return c.do(ctx, method, path, "application/json", body, result)
}

// restResponse is the server's uniform REST envelope.
type restResponse struct {
	Error   string          `json:"error"`
	Success bool            `json:"success"`
	Payload json.RawMessage `json:"payload"`
}

// doEnvelope performs a request against an envelope-wrapped endpoint and
// returns the raw payload. An envelope with success=false becomes an
// APIError carrying the server-supplied message.
func (c *Client) doEnvelope(ctx context.Context, method, path, contentType string, body io.Reader) (json.RawMessage, error) {
	var env restResponse
	if err := c.do(ctx, method, path, contentType, body, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, &APIError{Endpoint: path, Message: envelopeMessage(&env)}
	}
	return env.Payload, nil
}

// envelopeMessage extracts the error message from a failed envelope. Some
// endpoints report the message in the error field, others as a string
// payload.
func envelopeMessage(env *restResponse) string {
	if env.Error != "" {
		return env.Error
	}
	var msg string
	if err := json.Unmarshal(env.Payload, &msg); err == nil && msg != "" {
		return msg
	}
	return "request rejected by server"
}

// multipartForm builds a multipart body from field values plus an optional
// file part, returning the body and its content type.
func multipartForm(fields map[string]string, fileField, fileName string, file io.Reader) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	if file != nil {
		part, err := w.CreateFormFile(fileField, fileName)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, "", fmt.Errorf("failed to copy form file: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finalize form: %w", err)
	}

	return &buf, w.FormDataContentType(), nil
}

// Ensure Client implements AssistantClient
var _ interfaces.AssistantClient = (*Client)(nil)
