package commands

import (
	"fmt"
	"strconv"

	"github.com/apiesc/escuela-go/escuela"
	"github.com/apiesc/escuela-go/internal/devcli"
)

// requireSession fails early with a hint instead of letting a view skip silently.
func (a *app) requireSession() error {
	if !a.client.HasSession() {
		return fmt.Errorf("%w: run escuelactl login first", escuela.ErrNoSession)
	}
	return nil
}

// viewOptions configures pagers and accumulators from the CLI settings.
func (a *app) viewOptions(limit int, search string) []escuela.ViewOption {
	if limit <= 0 {
		limit = a.cfg.PageSize
	}
	return []escuela.ViewOption{
		escuela.WithPageSize(limit),
		escuela.WithInitialSearch(search),
		escuela.WithViewSession(a.client.Session),
		escuela.WithNotifier(a.notifier()),
		escuela.WithViewLogger(devcli.SlogHook(a.logger)),
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func cursorText(c *int64) string {
	if c == nil {
		return "-"
	}
	return strconv.FormatInt(*c, 10)
}
