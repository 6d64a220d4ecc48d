package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"nixdex/internal/query"
	"nixdex/internal/store"
)

type searchModel struct {
	engine   *query.Engine
	input    textinput.Model
	detail   viewport.Model
	renderer *glamour.TermRenderer
	opts     query.Options

	results  []store.Package
	selected int
	seq      int
	err      error

	count       int
	width       int
	height      int
	initialized bool
}

// resultsMsg carries the answer to query number seq.
type resultsMsg struct {
	seq     int
	query   string
	results []store.Package
	err     error
}

func newSearchModel(engine *query.Engine, opts query.Options, count int) searchModel {
	ti := textinput.New()
	ti.Placeholder = "Search packages..."
	ti.Prompt = "❯ "
	ti.CharLimit = 200
	ti.Focus()

	return searchModel{
		engine: engine,
		input:  ti,
		opts:   opts,
		count:  count,
	}
}

func (m *searchModel) resize(width, height int) {
	m.width = width
	m.height = height

	// Layout: input (1) + gap (1) + panes + status bar (1).
	paneHeight := height - 3
	if paneHeight < 5 {
		paneHeight = 5
	}
	m.detail = viewport.New(m.detailWidth(), paneHeight)
	m.input.Width = width - 4

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(m.detailWidth()-2),
	)
	if err == nil {
		m.renderer = r
	}

	m.initialized = true
	m.refreshDetail()
}

func (m searchModel) listWidth() int {
	return m.width * 2 / 5
}

func (m searchModel) detailWidth() int {
	w := m.width - m.listWidth() - 1
	if w < 20 {
		w = 20
	}
	return w
}

func runQuery(engine *query.Engine, seq int, q string, opts query.Options) tea.Cmd {
	return func() tea.Msg {
		results, err := engine.Fuzzy(q, opts)
		return resultsMsg{seq: seq, query: q, results: results, err: err}
	}
}

func (m searchModel) Update(msg tea.Msg) (searchModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case resultsMsg:
		// Drop answers to queries the user has already typed past.
		if msg.seq != m.seq {
			return m, nil
		}
		m.results = msg.results
		m.err = msg.err
		m.selected = 0
		m.refreshDetail()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyUp, tea.KeyCtrlP:
			if m.selected > 0 {
				m.selected--
				m.refreshDetail()
			}
			return m, nil
		case tea.KeyDown, tea.KeyCtrlN:
			if m.selected < len(m.results)-1 {
				m.selected++
				m.refreshDetail()
			}
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		case tea.KeyEsc:
			m.input.Reset()
			m.seq++
			m.results = nil
			m.err = nil
			m.refreshDetail()
			return m, nil
		}
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if q := strings.TrimSpace(m.input.Value()); m.input.Value() != before {
		m.seq++
		if q == "" {
			m.results = nil
			m.refreshDetail()
			return m, cmd
		}
		return m, tea.Batch(cmd, runQuery(m.engine, m.seq, q, m.opts))
	}
	return m, cmd
}

func (m searchModel) current() (store.Package, bool) {
	if m.selected < 0 || m.selected >= len(m.results) {
		return store.Package{}, false
	}
	return m.results[m.selected], true
}

func (m *searchModel) refreshDetail() {
	if !m.initialized {
		return
	}
	p, ok := m.current()
	if !ok {
		m.detail.SetContent("")
		return
	}
	m.detail.SetContent(m.renderMarkdown(detailMarkdown(p)))
	m.detail.GotoTop()
}

func (m searchModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return content
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimRight(rendered, "\n")
}

// detailMarkdown describes one package for the detail pane.
func detailMarkdown(p store.Package) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", p.Attribute)
	if p.Description != nil {
		fmt.Fprintf(&sb, "%s\n\n", *p.Description)
	}

	row := func(label string, v *string) {
		if v != nil && *v != "" {
			fmt.Fprintf(&sb, "- **%s:** %s\n", label, *v)
		}
	}
	row("Name", p.Name)
	row("Version", p.Version)
	row("Homepage", p.Homepage)
	if p.StorePath != nil {
		state := "not built"
		if p.Present != nil && *p.Present {
			state = "built"
		}
		fmt.Fprintf(&sb, "- **Store path:** `%s` (%s)\n", *p.StorePath, state)
	}

	if p.LongDescription != nil && *p.LongDescription != "" {
		fmt.Fprintf(&sb, "\n%s\n", strings.TrimSpace(*p.LongDescription))
	}
	fmt.Fprintf(&sb, "\n```sh\nnix-shell -p %s\n```\n", p.Attribute)
	return sb.String()
}

func (m searchModel) renderList(height int) string {
	if m.err != nil {
		return errorStyle.Render("Error: " + m.err.Error())
	}
	if len(m.results) == 0 {
		if strings.TrimSpace(m.input.Value()) == "" {
			return dimStyle.Render("Type to search.")
		}
		return dimStyle.Render("No matches.")
	}

	// Keep the selection in view.
	start := 0
	if m.selected >= height {
		start = m.selected - height + 1
	}
	end := min(start+height, len(m.results))

	width := m.listWidth()
	var lines []string
	for i := start; i < end; i++ {
		p := m.results[i]
		line := p.Attribute
		if p.Version != nil {
			line += " " + versionStyle.Render(*p.Version)
		}
		if p.Present != nil && *p.Present {
			line += " " + successStyle.Render("●")
		}
		if i == m.selected {
			lines = append(lines, selectedStyle.MaxWidth(width).Render("▸ "+line))
		} else {
			lines = append(lines, lipgloss.NewStyle().MaxWidth(width).Render("  "+line))
		}
	}
	return strings.Join(lines, "\n")
}

func (m searchModel) View(width, height int) string {
	if !m.initialized {
		return ""
	}

	paneHeight := m.detail.Height
	list := lipgloss.NewStyle().
		Width(m.listWidth()).
		Height(paneHeight).
		Render(m.renderList(paneHeight))
	panes := lipgloss.JoinHorizontal(lipgloss.Top, list, " ", m.detail.View())

	status := fmt.Sprintf(" nixdex • %d packages indexed", m.count)
	if len(m.results) > 0 {
		status += fmt.Sprintf(" • %d/%d", m.selected+1, len(m.results))
	}
	if m.opts.FilterPresent {
		status += " • built only"
	}
	statusBar := statusBarStyle.Width(m.width).Render(status)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.input.View(),
		"",
		panes,
		statusBar,
	)
}
