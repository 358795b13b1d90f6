package devcli

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/apiesc/escuela-go/escuela"
)

// NewClient constructs an SDK client from the CLI configuration. The token
// is kept in cfg.TokenFile so a login survives between invocations.
func NewClient(cfg *Config, logger *slog.Logger) *escuela.Client {
	opts := []escuela.Option{
		escuela.WithBaseURL(cfg.BaseURL),
		escuela.WithSession(escuela.NewFileSession(cfg.TokenFile)),
		escuela.WithRetries(cfg.Retries),
		escuela.WithBackoff(cfg.BackoffInit, cfg.BackoffMax),
		escuela.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
		escuela.WithRateLimit(cfg.RateLimit, 1),
		escuela.WithUserAgent("escuelactl"),
	}
	if logger != nil {
		opts = append(opts, escuela.WithLogger(SlogHook(logger)))
	}
	return escuela.New(opts...)
}

// SlogHook forwards SDK events to logger at debug level. Headers arrive
// already redacted.
func SlogHook(logger *slog.Logger) escuela.Logger {
	return func(event string, meta map[string]any) {
		level := slog.LevelDebug
		if strings.HasSuffix(event, ".error") {
			level = slog.LevelWarn
		}
		attrs := make([]any, 0, len(meta)*2)
		for k, v := range meta {
			attrs = append(attrs, k, v)
		}
		logger.Log(context.Background(), level, event, attrs...)
	}
}

// NewLogger builds the stderr text logger. verbose forces debug level.
func NewLogger(w io.Writer, level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// Ctx returns a context with the CLI-configured timeout.
func Ctx(parent context.Context, cfg *Config) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, cfg.Timeout)
}
