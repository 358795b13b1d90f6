package escuela

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// doJSON sends an HTTP request with a JSON encoded body and decodes a JSON response.
// When retries are enabled, 429 and 5xx responses are retried using jittered
// backoff and honoring Retry-After when present.
func (c *Client) doJSON(ctx context.Context, method, path string, hdr http.Header, in, out any) error {
	u := c.BaseURL + path

	raw, err := marshalBody(in)
	if err != nil {
		return err
	}

	var lastErr error
	backoff, maxBack := normalizeBackoff(c.InitialBackoff, c.MaxBackoff)
	retries := normalizeRetries(c.MaxRetries)

	for attempt := 0; attempt <= retries; attempt++ {
		req, err := c.newRequest(ctx, method, u, hdr, raw)
		if err != nil {
			return err
		}
		if err := c.wait(ctx); err != nil {
			return err
		}
		c.log("request", map[string]any{
			"method": method, "url": u, "headers": redactHeaders(req.Header), "attempt": attempt,
		})
		for _, h := range c.BeforeHooks {
			h(req)
		}

		res, err := c.HTTPClient.Do(req)
		var body []byte
		if err == nil {
			body, _ = io.ReadAll(res.Body)
			res.Body.Close()
		}
		c.log("response", map[string]any{
			"method": method, "url": u, "status": statusOf(res), "attempt": attempt,
			"request_id": req.Header.Get(requestIDHeader),
		})
		for _, h := range c.AfterHooks {
			h(res, body, err)
		}

		if err != nil {
			lastErr = fmt.Errorf("%s %s: %w", method, u, err)
		} else if res.StatusCode/100 == 2 {
			if out == nil || len(bytes.TrimSpace(body)) == 0 {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("decode response: %w (body=%s)", err, string(body))
			}
			return nil
		} else {
			apiErr := parseAPIError(res.StatusCode, body)
			if !retriable(res.StatusCode) {
				return apiErr
			}
			lastErr = fmt.Errorf("%s %s: %w", method, u, apiErr)
			if ra := parseRetryAfter(res.Header.Get("Retry-After")); ra > 0 && ra > backoff {
				backoff = ra
			}
		}

		if attempt < retries {
			jitterSleep(ctx, backoff, maxBack)
			backoff = nextBackoff(backoff, maxBack)
		}
	}
	if retries == 0 {
		return lastErr
	}
	return fmt.Errorf("escuela request failed after %d attempts: %w", retries+1, lastErr)
}

// doRequest is similar to doJSON but returns a raw response for streaming.
// The caller must close the response body.
func (c *Client) doRequest(ctx context.Context, method, path string, hdr http.Header, in any) (*http.Response, error) {
	u := c.BaseURL + path

	raw, err := marshalBody(in)
	if err != nil {
		return nil, err
	}

	var lastErr error
	backoff, maxBack := normalizeBackoff(c.InitialBackoff, c.MaxBackoff)
	retries := normalizeRetries(c.MaxRetries)

	for attempt := 0; attempt <= retries; attempt++ {
		req, err := c.newRequest(ctx, method, u, hdr, raw)
		if err != nil {
			return nil, err
		}
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		c.log("request", map[string]any{
			"method": method, "url": u, "headers": redactHeaders(req.Header), "attempt": attempt,
		})
		for _, h := range c.BeforeHooks {
			h(req)
		}

		res, err := c.HTTPClient.Do(req)
		if err == nil && res.StatusCode/100 == 2 {
			return res, nil
		}

		var body []byte
		if err == nil {
			body, _ = io.ReadAll(res.Body)
			res.Body.Close()
		}
		for _, h := range c.AfterHooks {
			h(res, body, err)
		}
		if err != nil {
			lastErr = fmt.Errorf("%s %s: %w", method, u, err)
		} else {
			apiErr := parseAPIError(res.StatusCode, body)
			if !retriable(res.StatusCode) {
				return nil, apiErr
			}
			lastErr = fmt.Errorf("%s %s: %w", method, u, apiErr)
			if ra := parseRetryAfter(res.Header.Get("Retry-After")); ra > 0 && ra > backoff {
				backoff = ra
			}
		}

		if attempt < retries {
			jitterSleep(ctx, backoff, maxBack)
			backoff = nextBackoff(backoff, maxBack)
		}
	}
	if retries == 0 {
		return nil, lastErr
	}
	return nil, fmt.Errorf("escuela request failed after %d attempts: %w", retries+1, lastErr)
}

// newRequest builds one attempt. A fresh body reader is created per attempt.
func (c *Client) newRequest(ctx context.Context, method, u string, hdr http.Header, raw []byte) (*http.Request, error) {
	var rc io.Reader
	if raw != nil {
		rc = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rc)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get(requestIDHeader) == "" {
		req.Header.Set(requestIDHeader, uuid.NewString())
	}
	return req, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.Limiter == nil {
		return nil
	}
	return c.Limiter.Wait(ctx)
}

func marshalBody(in any) ([]byte, error) {
	if in == nil {
		return nil, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return b, nil
}

func retriable(code int) bool {
	return code == http.StatusTooManyRequests || code/100 == 5
}
