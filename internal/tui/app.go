// Package tui is the interactive dashboard: a full playback client with a
// terminal UI. It renders whatever state the shared session broadcasts and
// translates keystrokes into session commands.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/corvale/chorus/internal/core"
	"github.com/corvale/chorus/internal/library"
	"github.com/corvale/chorus/internal/tab"
	"github.com/corvale/chorus/internal/tui/components"
	"github.com/corvale/chorus/internal/tui/styles"
)

// Panel represents which panel is focused
type Panel int

const (
	PanelNowPlaying Panel = iota
	PanelQueue
	PanelLibrary
)

const panelCount = 3

const seekStep = 5.0

// App holds the TUI application dependencies
type App struct {
	adapter     *tab.Adapter
	lib         *library.Library
	refreshRate time.Duration
}

// NewApp creates a new TUI application
func NewApp(adapter *tab.Adapter, lib *library.Library, refreshRate time.Duration) *App {
	if refreshRate <= 0 {
		refreshRate = 250 * time.Millisecond
	}
	return &App{adapter: adapter, lib: lib, refreshRate: refreshRate}
}

// Run starts the dashboard and blocks until it exits.
func Run(adapter *tab.Adapter, lib *library.Library, refreshRate time.Duration) error {
	app := NewApp(adapter, lib, refreshRate)
	p := tea.NewProgram(NewModel(app), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Model is the main TUI model
type Model struct {
	app          *App
	width        int
	height       int
	focusedPanel Panel

	// State mirrored from the session
	state    core.PlaybackState
	isActive bool

	// Components
	nowPlaying  *components.NowPlaying
	queueView   *components.Queue
	libraryView *components.Library

	// Overlays
	showHelp bool

	// Library filter
	filtering   bool
	filterInput textinput.Model
	filter      string

	quitting bool
}

// NewModel creates a new TUI model
func NewModel(app *App) Model {
	ti := textinput.New()
	ti.Placeholder = "Filter by name or tag..."
	ti.CharLimit = 60
	ti.Width = 30

	m := Model{
		app:          app,
		focusedPanel: PanelNowPlaying,
		nowPlaying:   components.NewNowPlaying(),
		queueView:    components.NewQueue(),
		libraryView:  components.NewLibrary(),
		filterInput:  ti,
	}
	if app.lib != nil {
		m.libraryView.SetTracks(app.lib.Tracks(), "")
	}
	return m
}

// Messages
type syncMsg struct{}

// waitSync wakes the model on the next session broadcast, or after one
// refresh interval so the progress display keeps moving between updates.
func (m Model) waitSync() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.app.adapter.Updates():
		case <-time.After(m.app.refreshRate):
		}
		return syncMsg{}
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return syncMsg{} },
		textinput.Blink,
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// The capability probe runs on the first interaction, whatever it is.
		m.app.adapter.ProbeAudio()
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case syncMsg:
		m.state = m.app.adapter.State()
		m.isActive = m.app.adapter.Active()
		if m.app.lib != nil {
			m.libraryView.SetTracks(m.app.lib.Tracks(), m.filter)
		}
		return m, m.waitSync()
	}

	if m.filtering {
		var inputCmd tea.Cmd
		m.filterInput, inputCmd = m.filterInput.Update(msg)
		return m, inputCmd
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	// Help overlay
	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	// Filter input
	if m.filtering {
		switch msg.String() {
		case "esc":
			m.filtering = false
			m.filter = ""
			m.filterInput.SetValue("")
			m.libraryView.SetTracks(m.app.lib.Tracks(), "")
			return m, nil
		case "enter":
			m.filtering = false
			return m, nil
		default:
			var inputCmd tea.Cmd
			m.filterInput, inputCmd = m.filterInput.Update(msg)
			m.filter = m.filterInput.Value()
			m.libraryView.SetTracks(m.app.lib.Tracks(), m.filter)
			return m, inputCmd
		}
	}

	switch msg.String() {
	case "q":
		m.quitting = true
		return m, tea.Quit

	case "?":
		m.showHelp = true
		return m, nil

	case "tab":
		m.focusedPanel = (m.focusedPanel + 1) % panelCount
		return m, nil

	case "shift+tab":
		m.focusedPanel = (m.focusedPanel + panelCount - 1) % panelCount
		return m, nil

	case "/":
		if m.app.lib != nil {
			m.focusedPanel = PanelLibrary
			m.filtering = true
			m.filterInput.Focus()
			return m, textinput.Blink
		}
		return m, nil
	}

	// Playback controls
	switch msg.String() {
	case " ":
		m.app.adapter.TogglePlayPause()
		return m, nil
	case "n":
		m.app.adapter.PlayNext()
		return m, nil
	case "p":
		m.app.adapter.PlayPrevious()
		return m, nil
	case "+", "=":
		m.app.adapter.ChangeVolume(clampVolume(m.state.Volume + 0.1))
		return m, nil
	case "-":
		m.app.adapter.ChangeVolume(clampVolume(m.state.Volume - 0.1))
		return m, nil
	case "r":
		m.app.adapter.CycleRepeatMode()
		return m, nil
	case "left", "h":
		pos := m.state.Position - seekStep
		if pos < 0 {
			pos = 0
		}
		m.app.adapter.SeekTo(pos)
		return m, nil
	case "right", "l":
		m.app.adapter.SeekTo(m.state.Position + seekStep)
		return m, nil
	case "v":
		m.app.adapter.TogglePanel()
		return m, nil
	case "c":
		m.app.adapter.SetPanelCollapsed(!m.state.PanelCollapsed)
		return m, nil
	}

	// Panel-specific keys
	switch m.focusedPanel {
	case PanelQueue:
		switch msg.String() {
		case "j", "down":
			m.queueView.ScrollDown(len(m.state.Queue))
		case "k", "up":
			m.queueView.ScrollUp()
		case "enter":
			// Jump to the selected queue entry.
			if len(m.state.Queue) > 0 {
				m.app.adapter.ReplacePlaylist(m.state.Queue, m.queueView.Cursor(len(m.state.Queue)))
				if !m.state.IsPlaying {
					m.app.adapter.TogglePlayPause()
				}
			}
		case "x", "d":
			if len(m.state.Queue) > 0 {
				idx := m.queueView.Cursor(len(m.state.Queue))
				m.app.adapter.RemoveFromPlaylist(m.state.Queue[idx].ID)
			}
		}

	case PanelLibrary:
		switch msg.String() {
		case "j", "down":
			m.libraryView.ScrollDown()
		case "k", "up":
			m.libraryView.ScrollUp()
		case "enter":
			if t, ok := m.libraryView.Selected(); ok {
				m.app.adapter.AnnounceFiles(m.app.lib.Tracks())
				m.app.adapter.Play(t)
			}
		case "a":
			if t, ok := m.libraryView.Selected(); ok {
				m.app.adapter.AnnounceFiles(m.app.lib.Tracks())
				m.app.adapter.AddToPlaylist([]core.Track{t})
			}
		}
	}

	return m, nil
}

// View renders the dashboard
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	nowHeight := 9
	bottomHeight := m.height - nowHeight - 3
	if bottomHeight < 5 {
		bottomHeight = 5
	}

	now := m.nowPlaying.Render(m.state, m.isActive, m.width-2, nowHeight, m.focusedPanel == PanelNowPlaying)

	var bottom string
	if m.state.PanelVisible {
		half := (m.width - 4) / 2
		queue := m.queueView.Render(m.state, half, bottomHeight, m.focusedPanel == PanelQueue, m.state.PanelCollapsed)
		lib := m.libraryView.Render(m.filter, half, bottomHeight, m.focusedPanel == PanelLibrary)
		bottom = lipgloss.JoinHorizontal(lipgloss.Top, queue, lib)
	} else {
		bottom = m.libraryView.Render(m.filter, m.width-2, bottomHeight, m.focusedPanel == PanelLibrary)
	}

	var filterLine string
	if m.filtering {
		filterLine = m.filterInput.View()
	} else {
		filterLine = styles.Dim.Render("space play/pause  n/p skip  / filter  ? help  q quit")
	}

	return lipgloss.JoinVertical(lipgloss.Left, now, bottom, filterLine)
}

func (m Model) renderHelp() string {
	help := lipgloss.JoinVertical(lipgloss.Left,
		styles.Title.Render("Keyboard shortcuts"),
		"",
		"  q, Ctrl+C    Quit",
		"  ?            Toggle help",
		"  Tab          Switch panel",
		"  Space        Play/Pause",
		"  n / p        Next / previous track",
		"  ← / →        Seek 5s back / forward",
		"  + / -        Volume up / down",
		"  r            Cycle repeat mode",
		"  v            Show/hide queue panel",
		"  c            Collapse/expand queue panel",
		"  /            Filter the library",
		"  Enter        Play selection",
		"  a            Add selection to queue",
		"  x, d         Remove queue entry",
		"",
		styles.Muted.Render("Press ? or esc to close"),
	)
	return styles.Panel(true).Padding(1, 2).Render(help)
}

func clampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
