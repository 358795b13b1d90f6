package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/apiesc/escuela-go/escuela"
)

// Options configures the table views.
type Options struct {
	PageSize int
	Debounce time.Duration
	Session  escuela.Session
	Logger   escuela.Logger
}

func (o Options) viewOptions(b *bridge) []escuela.ViewOption {
	opts := []escuela.ViewOption{
		escuela.WithPageSize(o.PageSize),
		escuela.WithNotifier(b.notifier()),
	}
	if o.Session != nil {
		opts = append(opts, escuela.WithViewSession(o.Session))
	}
	if o.Logger != nil {
		opts = append(opts, escuela.WithViewLogger(o.Logger))
	}
	return opts
}

// RunAlumnos shows the alumnos table until the user quits.
func RunAlumnos(ctx context.Context, c *escuela.Client, opts Options) error {
	if opts.Session == nil {
		opts.Session = c.Session
	}
	m := NewAlumnosModel(ctx, c.AlumnoPages(), opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// RunPagos shows the payments list until the user quits.
func RunPagos(ctx context.Context, c *escuela.Client, opts Options) error {
	if opts.Session == nil {
		opts.Session = c.Session
	}
	dir, err := escuela.NewDirectory(c, 0)
	if err != nil {
		return err
	}
	m := NewPagosModel(ctx, c.PagoPages(), dir, dir.Load, opts)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}
