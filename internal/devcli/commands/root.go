// Package commands holds the escuelactl command tree.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/apiesc/escuela-go/escuela"
	"github.com/apiesc/escuela-go/internal/devcli"
)

// app is the state shared by every command once the root pre-run has loaded
// the configuration.
type app struct {
	v       *viper.Viper
	cfgFile string
	verbose bool
	asJSON  bool

	cfg     *devcli.Config
	logger  *slog.Logger
	printer *devcli.Printer
	client  *escuela.Client

	stdout io.Writer
	stderr io.Writer
}

// NewRootCmd builds the command tree writing to stdout and stderr.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: devcli.NewViper(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "escuelactl",
		Short: "School administration client",
		Long: `escuelactl talks to the school administration API: students, payments
and fees, with paged tables and a local development server.

Example usage:
  escuelactl login -u admin -p admin
  escuelactl alumnos list --search perez
  escuelactl pagos list --max 100
  escuelactl browse alumnos
  escuelactl devserver --seed 200`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is .escuela.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log requests and responses (tokens redacted)")
	pf.BoolVar(&a.asJSON, "json", false, "print JSON instead of tables")
	pf.String("base-url", escuela.DefaultBaseURL, "API base URL (env ESCUELA_BASE_URL)")
	pf.String("token-file", "", "where the session token is kept (env ESCUELA_TOKEN_FILE)")
	pf.Duration("timeout", devcli.DefaultTimeout, "request timeout (env ESCUELA_TIMEOUT)")
	pf.Int("retries", 0, "retries on 429/5xx (env ESCUELA_RETRIES)")
	pf.Float64("rate-limit", 0, "max requests per second, 0 for unlimited (env ESCUELA_RATE_LIMIT)")
	pf.Int("page-size", escuela.DefaultPageSize, "rows per page (env ESCUELA_PAGE_SIZE)")
	pf.String("color", "auto", "color output: auto, always or never")

	for key, flag := range map[string]string{
		"base_url":   "base-url",
		"token_file": "token-file",
		"timeout":    "timeout",
		"retries":    "retries",
		"rate_limit": "rate-limit",
		"page_size":  "page-size",
		"color":      "color",
	} {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newProfileCmd(a),
		newAlumnosCmd(a),
		newPagosCmd(a),
		newMisPagosCmd(a),
		newCuotasCmd(a),
		newDashboardCmd(a),
		newBrowseCmd(a),
		newDevserverCmd(a),
	)
	return root
}

// Execute runs the command tree with the process streams.
func Execute(ctx context.Context) error {
	return NewRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func (a *app) init() error {
	cfg, err := devcli.LoadConfig(a.v, a.cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.cfg = cfg
	a.logger = devcli.NewLogger(a.stderr, cfg.LogLevel, a.verbose)
	mode, _ := devcli.ParseColorMode(cfg.Color)
	a.printer = devcli.NewPrinter(a.stdout, a.stderr, mode, a.asJSON)
	a.client = devcli.NewClient(cfg, a.logger)

	a.logger.Debug("configuration loaded",
		"base_url", cfg.BaseURL,
		"token_file", cfg.TokenFile,
		"page_size", cfg.PageSize,
	)
	return nil
}

// ctx bounds a command's requests by the configured timeout.
func (a *app) ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return devcli.Ctx(cmd.Context(), a.cfg)
}

// notifier reports view errors through the printer.
func (a *app) notifier() escuela.Notifier {
	return escuela.NotifierFunc(func(level escuela.Level, msg string) {
		if level == escuela.LevelError {
			a.printer.Error("%s", msg)
		}
	})
}
