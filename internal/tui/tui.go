package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"nixdex/internal/query"
	"nixdex/internal/registry"
	"nixdex/internal/store"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewWelcome ViewState = iota
	ViewIndexing
	ViewSearch
)

const defaultLimit = 50

// programRef is an indirect pointer to the tea.Program so background goroutines
// can send messages. It must be set after tea.NewProgram returns but before Run.
type programRef struct {
	p *tea.Program
}

// Config holds configuration passed from the CLI layer.
type Config struct {
	IndexPath   string
	Source      registry.Options
	Presence    query.Presence
	Limit       int
	FilterBuilt bool
	Logger      *zap.Logger

	// program is set internally so background goroutines can send messages.
	program *programRef
}

func (c Config) canBuild() bool {
	return c.Source.Nixpkgs != "" || c.Source.CachePath != ""
}

// Model is the top-level Bubble Tea model.
type Model struct {
	state  ViewState
	config Config
	width  int
	height int

	welcome  welcomeModel
	indexing indexingModel
	search   searchModel
	reader   *store.Reader
	err      error
}

// New creates a new TUI model with the given config.
func New(cfg Config) Model {
	if cfg.Limit <= 0 {
		cfg.Limit = defaultLimit
	}
	return Model{
		state:  ViewWelcome,
		config: cfg,
	}
}

func (m Model) Init() tea.Cmd {
	return checkIndex(m.config)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state == ViewSearch {
			var c tea.Cmd
			m.search, c = m.search.Update(msg)
			return m, c
		}
		return m, nil

	case tea.KeyMsg:
		// Global quit. q is a search character on the search screen.
		switch msg.String() {
		case "ctrl+c":
			return m, m.quit()
		case "q":
			if m.state != ViewSearch {
				return m, m.quit()
			}
		}
	}

	var cmd tea.Cmd

	switch m.state {
	case ViewWelcome:
		m.welcome, cmd = m.welcome.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		keyMsg, ok := msg.(tea.KeyMsg)
		if !ok || !m.welcome.ready {
			break
		}
		switch {
		case keyMsg.Type == tea.KeyEnter && m.welcome.status == indexReady:
			return m, m.transitionToSearch()
		case keyMsg.Type == tea.KeyEnter && m.config.canBuild(),
			keyMsg.String() == "r" && m.config.canBuild():
			m.state = ViewIndexing
			m.indexing = newIndexingModel()
			return m, tea.Batch(m.indexing.spinner.Tick, runIndex(m.config))
		}

	case ViewIndexing:
		m.indexing, cmd = m.indexing.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		// Handle Enter after indexing completes.
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.indexing.finished && m.indexing.err == nil {
			return m, m.transitionToSearch()
		}

	case ViewSearch:
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) transitionToSearch() tea.Cmd {
	r, err := store.OpenReadOnly(m.config.IndexPath)
	if err != nil {
		m.err = err
		return nil
	}
	n, err := r.Count()
	if err != nil {
		r.Close()
		m.err = err
		return nil
	}

	m.reader = r
	engine := query.New(r, m.config.Presence)
	m.search = newSearchModel(engine, query.Options{Limit: m.config.Limit, FilterPresent: m.config.FilterBuilt}, n)
	m.search.resize(m.width, m.height)
	m.state = ViewSearch
	return nil
}

func (m Model) quit() tea.Cmd {
	if m.reader != nil {
		m.reader.Close()
	}
	return tea.Quit
}

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	switch m.state {
	case ViewWelcome:
		return m.welcome.View(m.width, m.height, m.config.canBuild())
	case ViewIndexing:
		return m.indexing.View(m.width, m.height)
	case ViewSearch:
		return m.search.View(m.width, m.height)
	}
	return ""
}

// Run starts the TUI program.
func Run(cfg Config) error {
	ref := &programRef{}
	cfg.program = ref
	model := New(cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	ref.p = p
	_, err := p.Run()
	return err
}
