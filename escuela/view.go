package escuela

import (
	"context"
	"errors"
)

// ViewOption configures a Pager or an Accumulator.
type ViewOption func(*viewConfig)

type viewConfig struct {
	limit    int
	search   string
	session  Session
	notifier Notifier
	logger   Logger
}

func newViewConfig(opts []ViewOption) viewConfig {
	cfg := viewConfig{limit: DefaultPageSize, notifier: discardNotifier{}}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.limit <= 0 {
		cfg.limit = DefaultPageSize
	}
	if cfg.notifier == nil {
		cfg.notifier = discardNotifier{}
	}
	return cfg
}

// WithPageSize sets the number of rows requested per page.
func WithPageSize(n int) ViewOption { return func(c *viewConfig) { c.limit = n } }

// WithInitialSearch sets the search term of the first fetch.
func WithInitialSearch(s string) ViewOption { return func(c *viewConfig) { c.search = s } }

// WithViewSession gates fetches on a token being present. Without a session
// no token check is made and the PageFunc is expected to enforce it.
func WithViewSession(s Session) ViewOption { return func(c *viewConfig) { c.session = s } }

// WithNotifier routes fetch failures to n.
func WithNotifier(n Notifier) ViewOption { return func(c *viewConfig) { c.notifier = n } }

// WithViewLogger sets a structured logging hook for fetch lifecycle events.
func WithViewLogger(l Logger) ViewOption { return func(c *viewConfig) { c.logger = l } }

func (c viewConfig) authorized() bool {
	return c.session == nil || c.session.Token() != ""
}

func (c viewConfig) log(event string, meta map[string]any) {
	if c.logger != nil {
		c.logger(event, meta)
	}
}

// report notifies the user of a failed fetch. Cancellation is not a failure.
func (c viewConfig) report(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	c.log("page.error", map[string]any{"error": err.Error()})
	c.notifier.Notify(LevelError, "Error al cargar los datos: "+err.Error())
}
