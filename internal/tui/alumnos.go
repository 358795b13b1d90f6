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

// pageSizes are the choices cycled with +/-.
var pageSizes = []int{10, 20, 50, 100}

// AlumnosModel is the paged alumnos table: next/previous over cursor pages,
// debounced search and a selectable page size.
type AlumnosModel struct {
	ctx    context.Context
	pager  *escuela.Pager[escuela.Alumno]
	bridge *bridge
	search *escuela.Debouncer

	input     textinput.Model
	searching bool
	spinner   spinner.Model
	body      body
	notice    *noticeMsg
	width     int
}

// NewAlumnosModel builds the table over fetch.
func NewAlumnosModel(ctx context.Context, fetch escuela.PageFunc[escuela.Alumno], opts Options) AlumnosModel {
	b := newBridge()
	return AlumnosModel{
		ctx:     ctx,
		bridge:  b,
		search:  b.debouncer(opts),
		pager:   escuela.NewPager(fetch, opts.viewOptions(b)...),
		input:   newSearchInput(),
		spinner: newSpinner(),
		body:    newBody(),
		width:   80,
	}
}

func (m AlumnosModel) Init() tea.Cmd {
	return tea.Batch(
		run(m.ctx, m.pager.Load),
		m.bridge.waitSearch(),
		m.bridge.waitNotice(),
		m.spinner.Tick,
	)
}

func (m AlumnosModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.body.resize(msg.Height)
		return m, nil

	case fetchDoneMsg:
		m.body.reset()
		return m, nil

	case searchMsg:
		cmd := run(m.ctx, func(ctx context.Context) error {
			_, err := m.pager.SetSearch(ctx, msg.term)
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

func (m AlumnosModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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

func (m AlumnosModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.pager.State().Items)
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
	case key.Matches(msg, keys.Next):
		return m, run(m.ctx, func(ctx context.Context) error {
			_, err := m.pager.Next(ctx)
			return err
		})
	case key.Matches(msg, keys.Prev):
		return m, run(m.ctx, func(ctx context.Context) error {
			_, err := m.pager.Prev(ctx)
			return err
		})
	case key.Matches(msg, keys.Bigger), key.Matches(msg, keys.Smaller):
		n := stepPageSize(m.pager.State().Limit, key.Matches(msg, keys.Bigger))
		return m, run(m.ctx, func(ctx context.Context) error {
			_, err := m.pager.SetLimit(ctx, n)
			return err
		})
	case key.Matches(msg, keys.Refresh):
		return m, run(m.ctx, m.pager.Refresh)
	}
	return m, nil
}

func stepPageSize(cur int, up bool) int {
	for i, n := range pageSizes {
		if n < cur {
			continue
		}
		if n == cur {
			if up && i+1 < len(pageSizes) {
				return pageSizes[i+1]
			}
			if !up && i > 0 {
				return pageSizes[i-1]
			}
			return cur
		}
		switch {
		case up:
			return n
		case i > 0:
			return pageSizes[i-1]
		default:
			return cur
		}
	}
	if up {
		return cur
	}
	return pageSizes[len(pageSizes)-1]
}

func (m AlumnosModel) View() string {
	st := m.pager.State()
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(fmt.Sprintf("Alumnos · página %d · %d por página", st.Page, st.Limit)))
	sb.WriteString("\n")
	switch {
	case m.searching:
		sb.WriteString("/" + m.input.View())
	case st.Search != "":
		sb.WriteString(mutedStyle.Render("filtro: " + st.Search))
	}
	sb.WriteString("\n")
	sb.WriteString(headerStyle.Render(alumnoRow("ID", "USUARIO", "NOMBRE", "EMAIL", "TIPO")))
	sb.WriteString("\n")

	empty := "No hay alumnos registrados"
	if st.Search != "" {
		empty = "No se encontraron alumnos para la búsqueda"
	}
	sb.WriteString(tableBody(m.spinner, st.Loading, len(st.Items), empty, func() string {
		return m.body.render(len(st.Items), func(i int) string { return formatAlumno(st.Items[i]) })
	}))
	sb.WriteString("\n\n")

	nav := []string{}
	if st.HasPrev() {
		nav = append(nav, "← anterior")
	}
	if st.HasNext() {
		nav = append(nav, "siguiente →")
	}
	sb.WriteString(mutedStyle.Render(strings.Join(nav, "  ") + "   / buscar  +/- filas  r recargar  q salir"))
	if n := renderNotice(m.notice); n != "" {
		sb.WriteString("\n" + n)
	}
	return sb.String()
}

func formatAlumno(a escuela.Alumno) string {
	var email string
	if a.UserDetail != nil {
		email = a.UserDetail.Email
	}
	return alumnoRow(fmt.Sprint(a.ID), a.Username, a.FullName(), email, a.Role())
}

func alumnoRow(id, user, name, email, role string) string {
	return fmt.Sprintf("%-6s %-16s %-26s %-28s %-8s",
		truncate(id, 6), truncate(user, 16), truncate(name, 26), truncate(email, 28), truncate(role, 8))
}
