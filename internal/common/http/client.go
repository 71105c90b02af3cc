// internal/common/http/client.go
package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrTimeout is returned when a request's context expires before a
// successful response arrives.
var ErrTimeout = errors.New("request timed out")

// Client is the shared HTTP transport used by every external-service
// adapter. It retries transient failures with exponential backoff; timeouts
// come from the request context, not the transport.
type Client struct {
	httpClient *http.Client
	maxRetries int
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NewRetryingClient builds a Client that retries failed requests up to
// maxRetries times.
func NewRetryingClient(timeout time.Duration, maxRetries int) *Client {
	c := NewClient(timeout)
	c.maxRetries = maxRetries
	return c
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}

// DoWithRetry sends the request, retrying non-2xx responses and transport
// errors with exponential backoff. The request body, if any, must be
// provided via bodyBytes so it can be replayed on retry.
func (c *Client) DoWithRetry(ctx context.Context, req *http.Request, bodyBytes []byte) (*http.Response, error) {
	var resp *http.Response
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(100*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ErrTimeout
			}
		}

		if bodyBytes != nil {
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		resp, lastErr = c.httpClient.Do(req.WithContext(ctx))

		if ctx.Err() != nil ||
			errors.Is(lastErr, context.DeadlineExceeded) ||
			errors.Is(lastErr, context.Canceled) {
			return nil, ErrTimeout
		}

		if lastErr == nil {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return resp, nil
			}
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			resp = nil
		}
	}

	if ctx.Err() == context.DeadlineExceeded {
		return nil, ErrTimeout
	}
	return nil, fmt.Errorf("no successful response after %d attempts: %w", c.maxRetries+1, lastErr)
}
