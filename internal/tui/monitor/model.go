package monitor

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/taskpad/internal/db"
	"github.com/marcus/taskpad/internal/sync"
)

const refreshInterval = 5 * time.Second

// Model is the main Bubble Tea model for the sync monitor TUI
type Model struct {
	DB     *db.DB
	Client sync.Transport

	Width  int
	Height int

	Snapshot   *StatusSnapshot
	Refreshing bool
	Spinner    spinner.Model
	Err        error
}

// refreshMsg carries a completed status fetch back into Update
type refreshMsg struct {
	snapshot *StatusSnapshot
	err      error
}

type tickMsg time.Time

// New creates a monitor model over the local store and transport.
func New(database *db.DB, client sync.Transport) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = titleStyle
	return Model{
		DB:         database,
		Client:     client,
		Spinner:    sp,
		Refreshing: true,
	}
}

// Init starts the first refresh and the tick loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.Spinner.Tick, tick())
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh fetches a fresh status snapshot off the Update loop.
func (m Model) refresh() tea.Cmd {
	database, client := m.DB, m.Client
	return func() tea.Msg {
		snap, err := FetchStatus(database, client)
		return refreshMsg{snapshot: snap, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			if !m.Refreshing {
				m.Refreshing = true
				return m, tea.Batch(m.refresh(), m.Spinner.Tick)
			}
		}
		return m, nil

	case tickMsg:
		cmds := []tea.Cmd{tick()}
		if !m.Refreshing {
			m.Refreshing = true
			cmds = append(cmds, m.refresh(), m.Spinner.Tick)
		}
		return m, tea.Batch(cmds...)

	case refreshMsg:
		m.Refreshing = false
		m.Err = msg.err
		if msg.err == nil {
			m.Snapshot = msg.snapshot
		}
		return m, nil

	case spinner.TickMsg:
		if !m.Refreshing {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}
