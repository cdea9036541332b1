package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/carolin-violet/violet-reminder/internal/config"
	"github.com/carolin-violet/violet-reminder/internal/logging"
)

// HTTPClient posts webhook payloads with retry logic.
type HTTPClient struct {
	client     *http.Client
	maxRetries int
	retryDelay []time.Duration
}

// NewHTTPClient creates a client from the runtime HTTP settings.
func NewHTTPClient(cfg config.HTTPConfig) *HTTPClient {
	return &HTTPClient{
		client:     &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelays,
	}
}

// SendResult contains the result of a send operation.
type SendResult struct {
	StatusCode int
	Duration   time.Duration
	Attempts   int
	Error      error
}

// delay returns the wait before attempt. Attempts past the configured
// delays reuse the last one.
func (c *HTTPClient) delay(attempt int) time.Duration {
	if attempt == 0 || len(c.retryDelay) == 0 {
		return 0
	}
	if attempt < len(c.retryDelay) {
		return c.retryDelay[attempt]
	}
	return c.retryDelay[len(c.retryDelay)-1]
}

// Send POSTs body to url. Network errors, 429 and 5xx responses are retried;
// other 4xx responses are not.
func (c *HTTPClient) Send(ctx context.Context, url string, contentType string, body []byte) *SendResult {
	result := &SendResult{}
	start := time.Now()

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		result.Attempts = attempt + 1

		if d := c.delay(attempt); d > 0 {
			select {
			case <-ctx.Done():
				result.Error = ctx.Err()
				result.Duration = time.Since(start)
				return result
			case <-time.After(d):
			}
		}
		if attempt > 0 {
			logging.DebugContext(ctx, "retrying webhook",
				logging.KeyURL, url,
				logging.KeyAttempt, attempt+1,
			)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			result.Error = fmt.Errorf("failed to create request: %w", err)
			result.Duration = time.Since(start)
			return result
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("User-Agent", "violet/1.0")

		resp, err := c.client.Do(req)
		if err != nil {
			result.Error = fmt.Errorf("request failed: %w", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		result.StatusCode = resp.StatusCode

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			result.Error = nil
			result.Duration = time.Since(start)
			return result
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			result.Error = fmt.Errorf("rate limited (HTTP 429)")
			continue
		}

		if resp.StatusCode >= 500 {
			result.Error = fmt.Errorf("server error (HTTP %d): %s", resp.StatusCode, string(bodyBytes))
			continue
		}

		result.Error = fmt.Errorf("client error (HTTP %d): %s", resp.StatusCode, string(bodyBytes))
		result.Duration = time.Since(start)
		return result
	}

	result.Duration = time.Since(start)
	if result.Error == nil {
		result.Error = fmt.Errorf("max retries exceeded")
	}
	return result
}
