// Package escuela provides a typed Go client for the school administration
// API (alumnos, pagos, cuotas and authentication). The client wraps HTTP
// transport, bearer authentication and response decoding with strongly-typed
// helpers for common operations.
//
// The package also carries the client-side pagination machinery used by the
// table views: a cursor history store, a debounced search controller, a
// paged fetcher, an infinite-scroll accumulator and a row virtualizer.
package escuela

import (
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the API origin used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000"

// Logger defines an optional structured logging hook. Implementations should
// avoid recording sensitive values. The SDK already redacts bearer tokens in headers.
type Logger func(event string, metadata map[string]any)

// Client contains shared configuration and HTTP plumbing for the SDK.
type Client struct {
	// BaseURL is the API origin (for example: http://localhost:8000).
	BaseURL string

	// Session supplies the bearer token. It is read exactly once per request.
	Session Session

	// HTTPClient is the underlying HTTP client. A tuned default is provided
	// and can be replaced via WithHTTPClient.
	HTTPClient *http.Client

	// UserAgent is added to each request.
	UserAgent string

	// Retry configuration controls jittered exponential backoff for 429/5xx.
	// Retries are disabled by default; table views never retry on their own.
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Limiter, when set, throttles every outgoing attempt.
	Limiter *rate.Limiter

	// Observability hooks.
	Logger      Logger
	BeforeHooks []func(*http.Request)
	AfterHooks  []func(*http.Response, []byte, error)
}

// New constructs a Client with safe defaults. Options can override defaults.
func New(opts ...Option) *Client {
	c := &Client{
		BaseURL: DefaultBaseURL,
		Session: &MemorySession{},
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: 30 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
				MaxIdleConns:          100,
				IdleConnTimeout:       90 * time.Second,
			},
		},
		UserAgent:      "escuela-go/0.1",
		MaxRetries:     0,
		InitialBackoff: 300 * time.Millisecond,
		MaxBackoff:     3 * time.Second,
	}
	for _, f := range opts {
		f(c)
	}
	return c
}

// HasSession reports whether a bearer token is currently available.
func (c *Client) HasSession() bool {
	return c.Session != nil && c.Session.Token() != ""
}

func (c *Client) log(event string, meta map[string]any) {
	if c.Logger != nil {
		c.Logger(event, meta)
	}
}
