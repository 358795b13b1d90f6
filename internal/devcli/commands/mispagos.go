package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apiesc/escuela-go/escuela"
)

func newMisPagosCmd(a *app) *cobra.Command {
	var jsonl bool
	cmd := &cobra.Command{
		Use:   "mis-pagos",
		Short: "Show the logged in student's payment history",
		Example: `  escuelactl mis-pagos
  escuelactl mis-pagos --jsonl | jq .monto_pagado`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			if jsonl {
				sc, err := a.client.StreamMisPagos(ctx)
				if err != nil {
					return err
				}
				defer sc.Close()
				var p escuela.MiPago
				for sc.Next(&p) {
					if err := a.printer.PrintJSONLine(p); err != nil {
						return err
					}
					p = escuela.MiPago{}
				}
				if err := sc.Err(); err != nil {
					return fmt.Errorf("stream read error: %w", err)
				}
				return nil
			}

			pagos, err := a.client.MisPagos(ctx)
			if err != nil {
				return err
			}
			if a.printer.JSON() {
				return a.printer.PrintJSON(pagos)
			}
			if len(pagos) == 0 {
				a.printer.Info("No hay pagos registrados")
				return nil
			}
			rows := make([][]string, len(pagos))
			var total float64
			for i, p := range pagos {
				rows[i] = []string{p.Periodo, escuela.FormatMonto(p.MontoPagado), p.Metodo, p.FechaPago}
				total += p.MontoPagado
			}
			if err := a.printer.Table([]string{"periodo", "monto", "metodo", "fecha"}, rows); err != nil {
				return err
			}
			fmt.Fprintln(a.stderr, a.printer.Dim("total pagado "+escuela.FormatMonto(total)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonl, "jsonl", false, "stream one JSON object per payment")
	return cmd
}

func newCuotasCmd(a *app) *cobra.Command {
	var pendientes bool
	cmd := &cobra.Command{
		Use:   "cuotas",
		Short: "List fees with their balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			cuotas, err := a.client.Cuotas(ctx)
			if err != nil {
				return err
			}
			if pendientes {
				kept := cuotas[:0]
				for _, c := range cuotas {
					if c.Estado != escuela.EstadoPagada {
						kept = append(kept, c)
					}
				}
				cuotas = kept
			}
			if a.printer.JSON() {
				return a.printer.PrintJSON(cuotas)
			}
			rows := make([][]string, len(cuotas))
			for i, c := range cuotas {
				rows[i] = []string{
					fmt.Sprint(c.ID), fmt.Sprint(c.AlumnoID), c.Periodo,
					escuela.FormatMonto(c.MontoAPagar), escuela.FormatMonto(c.SaldoPendiente),
					a.printer.Estado(c.Estado),
				}
			}
			return a.printer.Table([]string{"id", "alumno", "periodo", "monto", "saldo", "estado"}, rows)
		},
	}
	cmd.Flags().BoolVar(&pendientes, "pendientes", false, "only fees with a balance")
	return cmd
}

func newDashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show the latest student and payment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := a.ctx(cmd)
			defer cancel()
			s, err := a.client.Dashboard(ctx)
			if err != nil {
				return err
			}
			if a.printer.JSON() {
				return a.printer.PrintJSON(s)
			}
			alumno, pago := "sin registros", "sin registros"
			if s.LastAlumno != nil {
				alumno = s.LastAlumno.FirstName + " " + s.LastAlumno.LastName
			}
			if s.LastPago != nil {
				pago = fmt.Sprintf("%s · %s · %s", s.LastPago.Alumno, escuela.FormatMonto(s.LastPago.MontoPagado), s.LastPago.Metodo)
			}
			return a.printer.Table([]string{"", ""}, [][]string{
				{"último alumno", alumno},
				{"último pago", pago},
			})
		},
	}
}
