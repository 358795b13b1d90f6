package escuela

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Option customizes a Client at construction time.
type Option func(*Client)

func WithBaseURL(u string) Option          { return func(c *Client) { c.BaseURL = strings.TrimRight(u, "/") } }
func WithSession(s Session) Option         { return func(c *Client) { c.Session = s } }
func WithToken(tok string) Option          { return func(c *Client) { c.Session = NewMemorySession(tok) } }
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.HTTPClient = h } }
func WithUserAgent(ua string) Option       { return func(c *Client) { c.UserAgent = ua } }
func WithRetries(max int) Option           { return func(c *Client) { c.MaxRetries = max } }
func WithBackoff(init, max time.Duration) Option {
	return func(c *Client) {
		c.InitialBackoff = init
		c.MaxBackoff = max
	}
}
func WithLogger(l Logger) Option { return func(c *Client) { c.Logger = l } }

// WithRateLimit throttles requests to rps per second with the given burst.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.Limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// CallOption customizes a single API call (for example, idempotency keys).
type CallOption func(*callOptions)

type callOptions struct {
	headers http.Header
}

// WithIdempotencyKey attaches an idempotency key for write operations.
// An empty key generates a random one.
func WithIdempotencyKey(k string) CallOption {
	return func(co *callOptions) {
		if co.headers == nil {
			co.headers = http.Header{}
		}
		if k == "" {
			k = uuid.NewString()
		}
		co.headers.Set("x-idempotency-key", k)
	}
}

// WithHeader adds an arbitrary header to a single API call.
func WithHeader(key, value string) CallOption {
	return func(co *callOptions) {
		if co.headers == nil {
			co.headers = http.Header{}
		}
		co.headers.Add(key, value)
	}
}

// WithRequestID overrides the generated X-Request-ID of a single call.
func WithRequestID(id string) CallOption {
	return func(co *callOptions) {
		if co.headers == nil {
			co.headers = http.Header{}
		}
		co.headers.Set(requestIDHeader, id)
	}
}
