package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/apiesc/escuela-go/escuela"
)

// Labeler resolves the identifiers of a payment row for display.
type Labeler interface {
	AlumnoLabel(id int64) string
	CuotaLabel(id int64) string
}

type labelsLoadedMsg struct{ err error }

// PagosModel is the infinite-scroll payments list: rows accumulate as the
// selection nears the bottom.
type PagosModel struct {
	ctx    context.Context
	acc    *escuela.Accumulator[escuela.Pago]
	labels Labeler
	load   func(context.Context) error // preloads labels, may be nil
	bridge *bridge
	search *escuela.Debouncer

	input     textinput.Model
	searching bool
	spinner   spinner.Model
	body      body
	notice    *noticeMsg
}

// NewPagosModel builds the list over fetch. loadLabels, when set, runs once at
// start so rows show names instead of identifiers.
func NewPagosModel(ctx context.Context, fetch escuela.PageFunc[escuela.Pago], labels Labeler, loadLabels func(context.Context) error, opts Options) PagosModel {
	b := newBridge()
	return PagosModel{
		ctx:     ctx,
		acc:     escuela.NewAccumulator(fetch, opts.viewOptions(b)...),
		labels:  labels,
		load:    loadLabels,
		bridge:  b,
		search:  b.debouncer(opts),
		input:   newSearchInput(),
		spinner: newSpinner(),
		body:    newBody(),
	}
}

func (m PagosModel) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.loadMore(),
		m.bridge.waitSearch(),
		m.bridge.waitNotice(),
		m.spinner.Tick,
	}
	if m.load != nil {
		load := m.load
		ctx := m.ctx
		cmds = append(cmds, func() tea.Msg { return labelsLoadedMsg{err: load(ctx)} })
	}
	return tea.Batch(cmds...)
}

func (m PagosModel) loadMore() tea.Cmd {
	return run(m.ctx, func(ctx context.Context) error {
		_, err := m.acc.LoadMore(ctx)
		return err
	})
}

// scrolled asks for more rows when the view is near the end of the list.
func (m PagosModel) scrolled() tea.Cmd {
	pos := m.body.position(m.acc.Len())
	if !pos.NearBottom(escuela.ScrollThreshold) {
		return nil
	}
	return run(m.ctx, func(ctx context.Context) error {
		_, err := m.acc.OnScroll(ctx, pos)
		return err
	})
}

func (m PagosModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.body.resize(msg.Height)
		return m, m.scrolled()

	case fetchDoneMsg:
		// A short first page may not fill the screen.
		return m, m.scrolled()

	case labelsLoadedMsg:
		if msg.err != nil {
			m.notice = &noticeMsg{level: escuela.LevelError, text: "Error al cargar alumnos y cuotas: " + msg.err.Error()}
		}
		return m, nil

	case searchMsg:
		m.body.reset()
		cmd := run(m.ctx, func(ctx context.Context) error {
			_, err := m.acc.SetSearch(ctx, msg.term)
			return err
		})
		return m, tea.Batch(cmd, m.bridge.waitSearch())

	case noticeMsg:
		m.notice = &msg
		return m, m.bridge.waitNotice()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m PagosModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.input.Blur()
		m.input.SetValue("")
		m.search.Input("")
		return m, nil
	case tea.KeyEnter:
		m.searching = false
		m.input.Blur()
		m.search.Flush()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.search.Input(m.input.Value())
	return m, cmd
}

func (m PagosModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := m.acc.Len()
	switch {
	case key.Matches(msg, keys.Quit):
		m.search.Stop()
		return m, tea.Quit
	case key.Matches(msg, keys.Search):
		m.searching = true
		m.input.Focus()
		return m, textinput.Blink
	case key.Matches(msg, keys.Up):
		m.body.move(-1, count)
	case key.Matches(msg, keys.Down):
		m.body.move(1, count)
	case key.Matches(msg, keys.PageUp):
		m.body.move(-m.body.rows, count)
	case key.Matches(msg, keys.PageDown):
		m.body.move(m.body.rows, count)
	case key.Matches(msg, keys.Refresh):
		m.body.reset()
		return m, run(m.ctx, func(ctx context.Context) error {
			_, err := m.acc.Reset(ctx)
			return err
		})
	default:
		return m, nil
	}
	return m, m.scrolled()
}

func (m PagosModel) View() string {
	st := m.acc.State()
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Pagos · %d cargados", len(st.Items))))
	sb.WriteString("\n")
	switch {
	case m.searching:
		sb.WriteString("/" + m.input.View())
	case st.Search != "":
		sb.WriteString(mutedStyle.Render("filtro: " + st.Search))
	}
	sb.WriteString("\n")
	sb.WriteString(headerStyle.Render(pagoRow("ID", "ALUMNO", "CUOTA", "MONTO", "MÉTODO", "FECHA")))
	sb.WriteString("\n")

	// Rows stay visible while more are appended.
	loading := st.Loading && len(st.Items) == 0
	sb.WriteString(tableBody(m.spinner, loading, len(st.Items), "No hay pagos registrados", func() string {
		return m.body.render(len(st.Items), func(i int) string { return m.formatPago(st.Items[i]) })
	}))
	sb.WriteString("\n\n")

	var footer string
	switch {
	case st.Loading && len(st.Items) > 0:
		footer = m.spinner.View() + " cargando más..."
	case st.Done && len(st.Items) > 0:
		footer = "fin de la lista"
	}
	sb.WriteString(mutedStyle.Render(footer + "   / buscar  r recargar  q salir"))
	if n := renderNotice(m.notice); n != "" {
		sb.WriteString("\n" + n)
	}
	return sb.String()
}

func (m PagosModel) formatPago(p escuela.Pago) string {
	alumno := fmt.Sprintf("ID: %d", p.AlumnoID)
	cuota := fmt.Sprintf("ID: %d", p.CuotaID)
	if m.labels != nil {
		alumno = m.labels.AlumnoLabel(p.AlumnoID)
		cuota = m.labels.CuotaLabel(p.CuotaID)
	}
	if p.Alumno != "" {
		alumno = p.Alumno
	}
	fecha := p.FechaPago
	if t, ok := p.Fecha(); ok {
		fecha = t.Format("02/01/2006")
	}
	return pagoRow(fmt.Sprint(p.ID), alumno, cuota, escuela.FormatMonto(p.MontoPagado), p.Metodo, fecha)
}

func pagoRow(id, alumno, cuota, monto, metodo, fecha string) string {
	return fmt.Sprintf("%-6s %-24s %-24s %-12s %-14s %-10s",
		truncate(id, 6), truncate(alumno, 24), truncate(cuota, 24), truncate(monto, 12), truncate(metodo, 14), truncate(fecha, 10))
}
