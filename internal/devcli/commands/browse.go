package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apiesc/escuela-go/internal/devcli"
	"github.com/apiesc/escuela-go/internal/tui"
)

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse <alumnos|pagos>",
		Short: "Open an interactive table",
		Long: `Open an interactive table.

alumnos pages with ←/→ and filters with / (debounced).
pagos loads more rows as you scroll towards the end.`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"alumnos", "pagos"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			opts := tui.Options{
				PageSize: a.cfg.PageSize,
				Debounce: a.cfg.Debounce,
				Session:  a.client.Session,
				Logger:   devcli.SlogHook(a.logger),
			}
			switch args[0] {
			case "alumnos":
				return tui.RunAlumnos(cmd.Context(), a.client, opts)
			case "pagos":
				return tui.RunPagos(cmd.Context(), a.client, opts)
			default:
				return fmt.Errorf("unknown table %q: use alumnos or pagos", args[0])
			}
		},
	}
}
