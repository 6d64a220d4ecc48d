package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"nixdex/internal/store"
)

type indexStatus int

const (
	indexNotFound indexStatus = iota
	indexReady
	indexInvalid
)

type welcomeModel struct {
	status  indexStatus
	count   int
	builtAt string
	source  string
	err     error
	ready   bool // true once the check has completed
}

// checkIndexMsg is sent after checking the index status.
type checkIndexMsg struct {
	status  indexStatus
	count   int
	builtAt string
	source  string
	err     error
}

func checkIndex(cfg Config) tea.Cmd {
	return func() tea.Msg {
		r, err := store.OpenReadOnly(cfg.IndexPath)
		if errors.Is(err, store.ErrIndexNotFound) {
			return checkIndexMsg{status: indexNotFound}
		}
		if err != nil {
			return checkIndexMsg{status: indexInvalid, err: err}
		}
		defer r.Close()

		n, err := r.Count()
		if err != nil {
			return checkIndexMsg{status: indexInvalid, err: err}
		}
		builtAt, err := r.Meta(store.MetaBuiltAt)
		if err != nil {
			return checkIndexMsg{status: indexInvalid, err: err}
		}
		source, err := r.Meta(store.MetaSource)
		if err != nil {
			return checkIndexMsg{status: indexInvalid, err: err}
		}
		return checkIndexMsg{status: indexReady, count: n, builtAt: builtAt, source: source}
	}
}

func (m welcomeModel) Update(msg tea.Msg) (welcomeModel, tea.Cmd) {
	if msg, ok := msg.(checkIndexMsg); ok {
		m.status = msg.status
		m.count = msg.count
		m.builtAt = msg.builtAt
		m.source = msg.source
		m.err = msg.err
		m.ready = true
	}
	return m, nil
}

func (m welcomeModel) View(width, height int, canBuild bool) string {
	s := "\n"
	s += titleStyle.Render("  ❄ nixdex") + "\n"
	s += subtitleStyle.Render("  Fast local search over nixpkgs") + "\n\n"

	if !m.ready {
		s += dimStyle.Render("  Checking index...") + "\n"
		return s
	}

	switch m.status {
	case indexReady:
		s += successStyle.Render(fmt.Sprintf("  ✓ Index ready: %d packages", m.count)) + "\n"
		if m.builtAt != "" {
			s += dimStyle.Render(fmt.Sprintf("    built %s from %s", m.builtAt, m.source)) + "\n"
		}
		hint := "  Press Enter to search"
		if canBuild {
			hint += ", r to rebuild"
		}
		s += "\n" + dimStyle.Render(hint) + "\n"
	case indexNotFound, indexInvalid:
		if m.status == indexNotFound {
			s += warnStyle.Render("  ✗ No index found") + "\n"
		} else {
			s += warnStyle.Render("  ⚠ Index unreadable") + "\n"
			s += dimStyle.Render("    "+m.err.Error()) + "\n"
		}
		s += "\n"
		if canBuild {
			s += dimStyle.Render("  Press Enter to build it") + "\n"
		} else {
			s += dimStyle.Render("  Set nixpkgs or registry in the config file, or run 'nixdex index'.") + "\n"
		}
	}
	s += dimStyle.Render("  q to quit") + "\n"
	return s
}
