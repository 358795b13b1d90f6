// Package tui renders the alumnos and pagos tables as terminal views on top
// of the escuela pagination machinery.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/apiesc/escuela-go/escuela"
)

// Messages flowing from background work into Update.
type (
	fetchDoneMsg struct{ err error }
	searchMsg    struct{ term string }
	noticeMsg    struct {
		level escuela.Level
		text  string
	}
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Next     key.Binding
	Prev     key.Binding
	Bigger   key.Binding
	Smaller  key.Binding
	Refresh  key.Binding
	Search   key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Next:     key.NewBinding(key.WithKeys("right", "n"), key.WithHelp("→/n", "siguiente")),
	Prev:     key.NewBinding(key.WithKeys("left", "p"), key.WithHelp("←/p", "anterior")),
	Bigger:   key.NewBinding(key.WithKeys("+"), key.WithHelp("+", "más filas")),
	Smaller:  key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "menos filas")),
	Refresh:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "recargar")),
	Search:   key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "buscar")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "salir")),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// chrome is the number of terminal lines used around the table body.
const chrome = 6

// bridge carries debounced search terms and notifications from their own
// goroutines into the Bubble Tea loop.
type bridge struct {
	searches chan string
	notices  chan noticeMsg
}

func newBridge() *bridge {
	return &bridge{searches: make(chan string, 8), notices: make(chan noticeMsg, 8)}
}

func (b *bridge) notifier() escuela.Notifier {
	return escuela.NotifierFunc(func(l escuela.Level, msg string) {
		select {
		case b.notices <- noticeMsg{level: l, text: msg}:
		default:
		}
	})
}

func (b *bridge) debouncer(opts Options) *escuela.Debouncer {
	return escuela.NewDebouncer(opts.Debounce, func(term string) {
		select {
		case b.searches <- term:
		default:
		}
	})
}

func (b *bridge) waitSearch() tea.Cmd {
	return func() tea.Msg { return searchMsg{term: <-b.searches} }
}

func (b *bridge) waitNotice() tea.Cmd {
	return func() tea.Msg { return <-b.notices }
}

func run(ctx context.Context, f func(context.Context) error) tea.Cmd {
	return func() tea.Msg { return fetchDoneMsg{err: f(ctx)} }
}

func newSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle
	return s
}

func newSearchInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "buscar..."
	ti.CharLimit = 100
	ti.Width = 30
	return ti
}

// body tracks the selection and scroll offset of a virtualized table. Offsets
// are in Virtualizer units; one terminal line is one EstimateSize.
type body struct {
	virt   escuela.Virtualizer
	cursor int
	offset int
	rows   int // visible lines
}

func newBody() body { return body{virt: escuela.NewVirtualizer(), rows: 10} }

func (b body) viewport() int { return b.rows * b.virt.EstimateSize }

func (b *body) resize(height int) {
	b.rows = height - chrome
	if b.rows < 1 {
		b.rows = 1
	}
}

// move shifts the selection by delta and scrolls to keep it visible.
func (b *body) move(delta, count int) {
	if count == 0 {
		b.cursor, b.offset = 0, 0
		return
	}
	b.cursor += delta
	if b.cursor < 0 {
		b.cursor = 0
	}
	if b.cursor >= count {
		b.cursor = count - 1
	}
	first := b.offset / b.virt.EstimateSize
	switch {
	case b.cursor < first:
		b.offset = b.virt.RowOffset(b.cursor)
	case b.cursor >= first+b.rows:
		b.offset = b.virt.RowOffset(b.cursor - b.rows + 1)
	}
	b.offset = b.virt.ClampOffset(count, b.offset, b.viewport())
}

func (b *body) reset() { b.cursor, b.offset = 0, 0 }

func (b body) position(count int) escuela.ScrollPosition {
	return escuela.ScrollPosition{
		Offset:   b.offset,
		Viewport: b.viewport(),
		Content:  b.virt.TotalSize(count),
	}
}

// render formats the rows of the current window and returns the visible lines.
func (b body) render(count int, format func(i int) string) string {
	w := b.virt.Window(count, b.offset, b.viewport())
	lines := make([]string, 0, w.Len())
	for i := w.Start; i < w.End; i++ {
		line := format(i)
		if i == b.cursor {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	first := b.virt.ClampOffset(count, b.offset, b.viewport())/b.virt.EstimateSize - w.Start
	last := first + b.rows
	if last > len(lines) {
		last = len(lines)
	}
	if first < 0 || first > last {
		first = 0
	}
	return strings.Join(lines[first:last], "\n")
}

// tableBody picks between the loading line, the empty message and the rows.
func tableBody(sp spinner.Model, loading bool, count int, empty string, rows func() string) string {
	switch escuela.SelectBranch(loading, count) {
	case escuela.BranchLoading:
		return sp.View() + " Cargando..."
	case escuela.BranchEmpty:
		return mutedStyle.Render(empty)
	default:
		return rows()
	}
}

func renderNotice(n *noticeMsg) string {
	if n == nil {
		return ""
	}
	switch n.level {
	case escuela.LevelError:
		return errorStyle.Render(n.text)
	case escuela.LevelSuccess:
		return successStyle.Render(n.text)
	default:
		return mutedStyle.Render(n.text)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
