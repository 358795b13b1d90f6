package commands

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/apiesc/escuela-go/escuela"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and keep the session token",
		Example: `  escuelactl login -u admin -p admin
  echo "$PASS" | escuelactl login -u admin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password required: pass -p or pipe it on stdin")
				}
				password = strings.TrimSpace(line)
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if _, err := a.client.Login(ctx, escuela.LoginRequest{Username: username, Password: password}); err != nil {
				return err
			}
			claims, err := a.client.SessionClaims()
			if err != nil {
				return err
			}
			a.printer.Success("logged in as %s (%s)", username, claims.Type)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin when empty)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.client.Logout(); err != nil {
				return err
			}
			a.printer.Success("logged out")
			return nil
		},
	}
}

func newProfileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			p, err := a.client.Profile(ctx)
			if err != nil {
				return err
			}
			if a.printer.JSON() {
				return a.printer.PrintJSON(p)
			}
			rows := [][]string{
				{"id", fmt.Sprint(p.ID)},
				{"username", p.Username},
				{"nombre", p.FullName()},
				{"rol", p.Role()},
			}
			if d := p.UserDetail; d != nil {
				rows = append(rows, []string{"email", d.Email}, []string{"dni", fmt.Sprint(d.DNI)})
			}
			return a.printer.Table([]string{"campo", "valor"}, rows)
		},
	}
}
