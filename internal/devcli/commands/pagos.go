package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apiesc/escuela-go/escuela"
)

func newPagosCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pagos",
		Aliases: []string{"pago"},
		Short:   "Manage payments",
	}
	cmd.AddCommand(
		newPagosListCmd(a),
		newPagosCreateCmd(a),
		newPagosEditCmd(a),
		newPagosDeleteCmd(a),
		newPagosLastCmd(a),
	)
	return cmd
}

func newPagosListCmd(a *app) *cobra.Command {
	var (
		search  string
		limit   int
		maxRows int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List payments, loading pages until --max rows",
		Example: `  escuelactl pagos list
  escuelactl pagos list --search efectivo --max 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.requireSession(); err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()

			acc := escuela.NewAccumulator(a.client.PagoPages(), a.viewOptions(limit, search)...)
			for maxRows <= 0 || acc.Len() < maxRows {
				merged, err := acc.LoadMore(ctx)
				if err != nil {
					return err
				}
				if !merged {
					break
				}
			}
			st := acc.State()
			rows := st.Items
			if maxRows > 0 && len(rows) > maxRows {
				rows = rows[:maxRows]
			}

			if a.printer.JSON() {
				return a.printer.PrintJSON(map[string]any{"pagos": rows, "next_cursor": st.NextCursor})
			}
			if len(rows) == 0 {
				a.printer.Info("No hay pagos")
				return nil
			}
			dir, err := escuela.NewDirectory(a.client, 0)
			if err != nil {
				return err
			}
			if err := dir.Load(ctx); err != nil {
				a.printer.Warning("%v", err)
			}
			table := make([][]string, len(rows))
			for i, p := range rows {
				alumno := p.Alumno
				if alumno == "" {
					alumno = dir.AlumnoLabel(p.AlumnoID)
				}
				table[i] = []string{
					fmt.Sprint(p.ID), alumno, dir.CuotaLabel(p.CuotaID),
					escuela.FormatMonto(p.MontoPagado), p.Metodo, p.FechaPago,
				}
			}
			if err := a.printer.Table([]string{"id", "alumno", "cuota", "monto", "metodo", "fecha"}, table); err != nil {
				return err
			}
			status := "hay más"
			if st.Done {
				status = "fin de la lista"
			}
			fmt.Fprintln(a.stderr, a.printer.Dim(fmt.Sprintf("%d pagos · %s", len(rows), status)))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&search, "search", "s", "", "filter by student name or method")
	f.IntVarP(&limit, "limit", "l", 0, "rows per request (default page_size)")
	f.IntVar(&maxRows, "max", 50, "stop after this many rows, 0 for all")
	return cmd
}

func newPagosCreateCmd(a *app) *cobra.Command {
	var in escuela.NewPago
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Register a payment against a fee",
		Example: `  escuelactl pagos create --alumno 3 --cuota 5 --monto 15000 --metodo efectivo`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.client.CreatePago(ctx, in, escuela.WithIdempotencyKey("")); err != nil {
				return err
			}
			a.printer.Success("pago de %s registrado", escuela.FormatMonto(in.MontoPagado))
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&in.AlumnoID, "alumno", 0, "student id")
	f.Int64Var(&in.CuotaID, "cuota", 0, "fee id")
	f.Float64Var(&in.MontoPagado, "monto", 0, "amount paid")
	f.StringVar(&in.Metodo, "metodo", escuela.MetodoEfectivo, "efectivo, transferencia or mercado_pago")
	f.StringVar(&in.Comprobante, "comprobante", "", "receipt reference")
	for _, name := range []string{"alumno", "cuota", "monto"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newPagosEditCmd(a *app) *cobra.Command {
	var (
		alumno, cuota       int64
		monto               float64
		metodo, comprobante string
	)
	cmd := &cobra.Command{
		Use:     "edit <id>",
		Short:   "Change the given fields of a payment",
		Example: `  escuelactl pagos edit 7 --monto 7500`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			f := cmd.Flags()
			var in escuela.PagoUpdate
			if f.Changed("alumno") {
				in.AlumnoID = &alumno
			}
			if f.Changed("cuota") {
				in.CuotaID = &cuota
			}
			if f.Changed("monto") {
				in.MontoPagado = &monto
			}
			if f.Changed("metodo") {
				in.Metodo = &metodo
			}
			if f.Changed("comprobante") {
				in.Comprobante = &comprobante
			}
			if in == (escuela.PagoUpdate{}) {
				return fmt.Errorf("nothing to update: pass at least one of --alumno, --cuota, --monto, --metodo, --comprobante")
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.client.Pago(id).Edit(ctx, in); err != nil {
				return err
			}
			a.printer.Success("pago %d actualizado", id)
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&alumno, "alumno", 0, "student id")
	f.Int64Var(&cuota, "cuota", 0, "fee id")
	f.Float64Var(&monto, "monto", 0, "amount paid")
	f.StringVar(&metodo, "metodo", "", "efectivo, transferencia or mercado_pago")
	f.StringVar(&comprobante, "comprobante", "", "receipt reference")
	return cmd
}

func newPagosDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a payment and restore the fee balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if err := a.client.Pago(id).Delete(ctx); err != nil {
				return err
			}
			a.printer.Success("pago %d eliminado", id)
			return nil
		},
	}
}

func newPagosLastCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "last",
		Short: "Show the most recent payment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			last, err := a.client.LastPago(ctx)
			if escuela.IsNotFound(err) {
				a.printer.Info("No hay pagos registrados")
				return nil
			}
			if err != nil {
				return err
			}
			if a.printer.JSON() {
				return a.printer.PrintJSON(last)
			}
			a.printer.Info("%s pagó %s (%s) el %s", last.Alumno, escuela.FormatMonto(last.MontoPagado), last.Metodo, last.FechaPago)
			return nil
		},
	}
}
