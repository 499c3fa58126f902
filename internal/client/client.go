// Package client posts booking requests to the booking API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ashinemobile/booking-backend/internal/booking"
)

// NetworkFailure is the message of errors that never got an HTTP answer.
const NetworkFailure = "Could not reach the booking service. Please check your connection and try again."

const (
	bookingPath       = "/api/booking"
	defaultTimeout    = 15 * time.Second
	maxErrorBodyBytes = 64 << 10
)

// APIError is a non-2xx answer. Message is the server's {error} text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("booking api: status %d", e.Status)
	}
	return e.Message
}

// NetworkError wraps a transport failure. Its message is NetworkFailure so
// it can be shown to the user as is.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return NetworkFailure }
func (e *NetworkError) Unwrap() error { return e.Err }

// Client submits bookings to one API base URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	newKey     func() string

	mu      sync.Mutex
	lastReq booking.Request
	lastKey string
}

// New returns a Client for baseURL (e.g. "https://ashinemobile.si"). A nil
// hc gets a traced client with a 15s timeout.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{
			Timeout:   defaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: hc,
		newKey:     uuid.NewString,
	}
}

// Submit posts req and returns the provider message id, which may be empty.
// Resubmitting the same payload after a failure reuses the Idempotency-Key,
// so a request that reached the server before the connection dropped is not
// sent twice.
func (c *Client) Submit(ctx context.Context, req booking.Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("client: encode booking: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+bookingPath, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("client: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Idempotency-Key", c.keyFor(req))
	if req.Locale != "" {
		httpReq.Header.Set("Accept-Language", req.Locale)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	if err != nil {
		return "", &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &env)
		return "", &APIError{Status: resp.StatusCode, Message: env.Error}
	}

	var ok struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	if err := json.Unmarshal(data, &ok); err != nil {
		return "", fmt.Errorf("client: decode response: %w", err)
	}
	c.forget()
	return ok.ID, nil
}

func (c *Client) keyFor(req booking.Request) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastKey == "" || c.lastReq != req {
		c.lastReq, c.lastKey = req, c.newKey()
	}
	return c.lastKey
}

func (c *Client) forget() {
	c.mu.Lock()
	c.lastReq, c.lastKey = booking.Request{}, ""
	c.mu.Unlock()
}
