package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"nixdex/internal/index"
	"nixdex/internal/registry"
)

type indexingModel struct {
	spinner spinner.Model
	phase   string
	done    int
	total   int
	started time.Time

	finished bool
	stats    *index.Stats
	err      error
}

func newIndexingModel() indexingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return indexingModel{
		spinner: sp,
		phase:   index.PhaseEvaluate,
		started: time.Now(),
	}
}

// indexDoneMsg is sent when indexing completes.
type indexDoneMsg struct {
	stats *index.Stats
	err   error
}

// indexProgressMsg is sent as the build moves through its phases.
type indexProgressMsg struct {
	phase string
	done  int
	total int
}

func runIndex(cfg Config) tea.Cmd {
	return func() tea.Msg {
		src, err := registry.NewSource(cfg.Source)
		if err != nil {
			return indexDoneMsg{err: err}
		}

		idx, err := index.New(index.Config{
			Output: cfg.IndexPath,
			Logger: cfg.Logger,
			OnProgress: func(phase string, done, total int) {
				if cfg.program != nil && cfg.program.p != nil {
					cfg.program.p.Send(indexProgressMsg{phase: phase, done: done, total: total})
				}
			},
		})
		if err != nil {
			return indexDoneMsg{err: err}
		}

		stats, err := idx.Build(src)
		return indexDoneMsg{stats: stats, err: err}
	}
}

func (m indexingModel) Update(msg tea.Msg) (indexingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case indexDoneMsg:
		m.finished = true
		m.stats = msg.stats
		m.err = msg.err
		return m, nil
	case indexProgressMsg:
		m.phase = msg.phase
		m.done = msg.done
		m.total = msg.total
		return m, nil
	case spinner.TickMsg:
		if m.finished {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m indexingModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Indexing") + "\n\n"

	if m.finished {
		if m.err != nil {
			s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
			s += dimStyle.Render("  Press q to quit.") + "\n"
			return s
		}
		s += successStyle.Render("  ✓ Indexing complete!") + "\n\n"
		if m.stats != nil {
			s += fmt.Sprintf("  Packages: %d total, %d indexed, %d skipped\n",
				m.stats.Total, m.stats.Indexed, m.stats.Skipped)
			s += fmt.Sprintf("  Flags:    %d broken, %d insecure, %d unfree\n",
				m.stats.Broken, m.stats.Insecure, m.stats.Unfree)
			s += fmt.Sprintf("  Took:     %s\n", m.stats.Elapsed.Round(time.Millisecond))
		}
		s += "\n"
		s += dimStyle.Render("  Press Enter to start searching") + "\n"
		return s
	}

	s += fmt.Sprintf("  %s %s\n", m.spinner.View(), m.phase)
	if m.total > 0 {
		s += fmt.Sprintf("  %d / %d packages\n", m.done, m.total)
	}
	s += "\n"
	s += dimStyle.Render(fmt.Sprintf("  Evaluating all of nixpkgs takes a few minutes (%s elapsed)...",
		time.Since(m.started).Round(time.Second))) + "\n"
	return s
}
