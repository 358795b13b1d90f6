package commands

import (
	"github.com/spf13/cobra"

	"github.com/apiesc/escuela-go/internal/devcli"
	"github.com/apiesc/escuela-go/internal/devserver"
)

func newDevserverCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Serve the API from memory with demo data",
		Long: `Serve the API from memory with demo data.

The admin logs in as admin/admin; student N as alumnoN/alumnoN.`,
		Example: `  escuelactl devserver --addr :8000 --seed 200`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc := a.cfg.Server
			store := devserver.NewStore()
			if err := devserver.Seed(store, devserver.SeedOptions{Alumnos: sc.Seed}); err != nil {
				return err
			}
			logger := devcli.NewLogger(a.stderr, "info", a.verbose)
			srv, err := devserver.New(store, devserver.Options{Secret: sc.Secret, Logger: logger})
			if err != nil {
				return err
			}
			a.printer.Info("listening on %s with %d alumnos", sc.Addr, sc.Seed)
			return srv.Start(cmd.Context(), sc.Addr)
		},
	}
	f := cmd.Flags()
	f.String("addr", devcli.DefaultServerAddr, "listen address (env ESCUELA_SERVER_ADDR)")
	f.Int("seed", 45, "number of demo students (env ESCUELA_SERVER_SEED)")
	f.String("secret", "", "token signing secret (env ESCUELA_SERVER_SECRET)")
	_ = a.v.BindPFlag("server.addr", f.Lookup("addr"))
	_ = a.v.BindPFlag("server.seed", f.Lookup("seed"))
	_ = a.v.BindPFlag("server.secret", f.Lookup("secret"))
	return cmd
}
