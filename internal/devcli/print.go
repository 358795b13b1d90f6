package devcli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// ColorMode selects when output is colored.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// ParseColorMode parses auto, always or never.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// Printer writes command output. Data goes to out, diagnostics to err.
type Printer struct {
	out       io.Writer
	err       io.Writer
	useColors bool
	json      bool
}

// NewPrinter returns a Printer. In auto mode colors follow NO_COLOR and
// whether out is a terminal.
func NewPrinter(out, errw io.Writer, mode ColorMode, asJSON bool) *Printer {
	use := false
	switch mode {
	case ColorAlways:
		use = true
	case ColorAuto:
		_, noColor := os.LookupEnv("NO_COLOR")
		use = !noColor && out == os.Stdout && !color.NoColor
	}
	return &Printer{out: out, err: errw, useColors: use, json: asJSON}
}

// JSON reports whether structured output was requested.
func (p *Printer) JSON() bool { return p.json }

// Out returns the data writer.
func (p *Printer) Out() io.Writer { return p.out }

// PrintJSON prints a value as pretty-printed JSON.
func (p *Printer) PrintJSON(v any) error {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// PrintJSONLine prints a value as a single JSON line.
func (p *Printer) PrintJSONLine(v any) error {
	return json.NewEncoder(p.out).Encode(v)
}

func (p *Printer) Success(format string, args ...any) {
	if p.useColors {
		color.New(color.FgGreen).Fprintf(p.out, "✓ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, "[OK] "+format+"\n", args...)
}

func (p *Printer) Info(format string, args ...any) {
	if p.useColors {
		color.New(color.FgCyan).Fprintf(p.out, format+"\n", args...)
		return
	}
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Warning(format string, args ...any) {
	if p.useColors {
		color.New(color.FgYellow).Fprintf(p.err, "⚠ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[WARN] "+format+"\n", args...)
}

func (p *Printer) Error(format string, args ...any) {
	if p.useColors {
		color.New(color.FgRed).Fprintf(p.err, "✗ "+format+"\n", args...)
		return
	}
	fmt.Fprintf(p.err, "[ERROR] "+format+"\n", args...)
}

// Dim returns text in a faint style.
func (p *Printer) Dim(text string) string {
	if p.useColors {
		return color.New(color.Faint).Sprint(text)
	}
	return text
}

// Estado renders a cuota estado badge.
func (p *Printer) Estado(estado string) string {
	if !p.useColors {
		return estado
	}
	switch estado {
	case "pagada":
		return color.GreenString(estado)
	case "parcial":
		return color.YellowString(estado)
	default:
		return color.RedString(estado)
	}
}

// Table renders rows under headers without borders.
func (p *Printer) Table(headers []string, rows [][]string) error {
	table := tablewriter.NewTable(p.out,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(headers)
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
