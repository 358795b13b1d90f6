package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apiesc/escuela-go/escuela"
)

func newAlumnosCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "alumnos",
		Aliases: []string{"alumno", "users"},
		Short:   "Manage students",
	}
	cmd.AddCommand(
		newAlumnosListCmd(a),
		newAlumnosCreateCmd(a),
		newAlumnosUpdateCmd(a),
		newAlumnosDeleteCmd(a),
		newAlumnosLastCmd(a),
	)
	return cmd
}

func newAlumnosListCmd(a *app) *cobra.Command {
	var (
		search string
		limit  int
		pages  int
		all    bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List students page by page",
		Example: `  escuelactl alumnos list --search gomez
  escuelactl alumnos list --limit 50 --pages 2
  escuelactl alumnos list --all --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()

			pager := escuela.NewPager(a.client.AlumnoPages(), a.viewOptions(limit, search)...)
			if err := pager.Load(ctx); err != nil {
				return err
			}
			rows := pager.State().Items
			for n := 1; all || n < pages; n++ {
				moved, err := pager.Next(ctx)
				if err != nil {
					return err
				}
				if !moved {
					break
				}
				rows = append(rows, pager.State().Items...)
			}
			st := pager.State()

			if a.printer.JSON() {
				return a.printer.PrintJSON(map[string]any{"users": rows, "next_cursor": st.NextCursor})
			}
			if len(rows) == 0 {
				a.printer.Info("No hay alumnos")
				return nil
			}
			table := make([][]string, len(rows))
			for i, al := range rows {
				table[i] = alumnoRow(al)
			}
			if err := a.printer.Table([]string{"id", "usuario", "nombre", "email", "tipo"}, table); err != nil {
				return err
			}
			fmt.Fprintln(a.stderr, a.printer.Dim(fmt.Sprintf("página %d · siguiente cursor %s", st.Page, cursorText(st.NextCursor))))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&search, "search", "s", "", "filter by username, name or email")
	f.IntVarP(&limit, "limit", "l", 0, "rows per page (default page_size)")
	f.IntVar(&pages, "pages", 1, "number of pages to fetch")
	f.BoolVar(&all, "all", false, "fetch every page")
	return cmd
}

func alumnoRow(al escuela.Alumno) []string {
	var email string
	if al.UserDetail != nil {
		email = al.UserDetail.Email
	}
	return []string{fmt.Sprint(al.ID), al.Username, al.FullName(), email, al.Role()}
}

func newAlumnosCreateCmd(a *app) *cobra.Command {
	var in escuela.NewAlumno
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a student with its details",
		Example: `  escuelactl alumnos create --username jperez --password secreto \
    --dni 40111222 --first Juan --last Pérez --email jperez@example.com`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.client.RegisterAlumno(ctx, in, escuela.WithIdempotencyKey("")); err != nil {
				return err
			}
			a.printer.Success("Usuario registrado correctamente")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&in.Username, "username", "", "username")
	f.StringVar(&in.Password, "password", "", "password")
	f.Int64Var(&in.DNI, "dni", 0, "national id number")
	f.StringVar(&in.FirstName, "first", "", "first name")
	f.StringVar(&in.LastName, "last", "", "last name")
	f.StringVar(&in.Email, "email", "", "email")
	f.StringVar(&in.Type, "type", escuela.RoleAlumno, "Alumno or Admin")
	for _, name := range []string{"username", "password", "dni", "first", "last", "email"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newAlumnosUpdateCmd(a *app) *cobra.Command {
	var (
		dni                      int64
		first, last, email, kind string
	)
	cmd := &cobra.Command{
		Use:     "update <id>",
		Short:   "Update the given fields of a student's details",
		Example: `  escuelactl alumnos update 12 --email nuevo@example.com`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			f := cmd.Flags()
			var in escuela.UserDetailUpdate
			if f.Changed("dni") {
				in.DNI = &dni
			}
			if f.Changed("first") {
				in.FirstName = &first
			}
			if f.Changed("last") {
				in.LastName = &last
			}
			if f.Changed("email") {
				in.Email = &email
			}
			if f.Changed("type") {
				in.Type = &kind
			}
			if in == (escuela.UserDetailUpdate{}) {
				return fmt.Errorf("nothing to update: pass at least one of --dni, --first, --last, --email, --type")
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.client.Alumno(id).UpdateDetail(ctx, in); err != nil {
				return err
			}
			a.printer.Success("alumno %d actualizado", id)
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&dni, "dni", 0, "national id number")
	f.StringVar(&first, "first", "", "first name")
	f.StringVar(&last, "last", "", "last name")
	f.StringVar(&email, "email", "", "email")
	f.StringVar(&kind, "type", "", "Alumno or Admin")
	return cmd
}

func newAlumnosDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a student and its payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.client.Alumno(id).Delete(ctx); err != nil {
				return err
			}
			a.printer.Success("alumno %d eliminado", id)
			return nil
		},
	}
}

func newAlumnosLastCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Show the most recently registered student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			last, err := a.client.LastAlumno(ctx)
			if escuela.IsNotFound(err) {
				a.printer.Info("No hay alumnos registrados")
				return nil
			}
			if err != nil {
				return err
			}
			if a.printer.JSON() {
				return a.printer.PrintJSON(last)
			}
			a.printer.Info("%s %s", last.FirstName, last.LastName)
			return nil
		},
	}
}
