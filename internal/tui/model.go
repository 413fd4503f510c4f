// ABOUTME: Bubbletea model for the mixer live monitor
// ABOUTME: Defines application state and update logic
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// InputStatus is a snapshot of one mixer input for display.
type InputStatus struct {
	ID         string
	QueueDepth int
	Paused     bool
	Errored    bool
}

// Model represents the TUI state.
type Model struct {
	// Mixer state
	attached bool
	format   string
	gain     float32

	// Per-input snapshot
	inputs []InputStatus

	// Counters
	blocksEmitted int64
	staleDrops    int64
	pastDrops     int64
	gapDrops      int64
	lateResets    int64
	cursorDrifts  int64

	// Debug
	showDebug bool

	// Dimensions
	width  int
	height int
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	s := ""
	s += m.renderHeader()
	s += m.renderInputs()
	s += m.renderCounters()

	if m.showDebug {
		s += m.renderDebug()
	}

	s += m.renderHelp()

	return s
}

// renderHeader renders attachment status and gain.
func (m Model) renderHeader() string {
	status := "Detached"
	if m.attached {
		status = fmt.Sprintf("Attached (%s)", m.format)
	}

	return fmt.Sprintf(`┌─ mixcore monitor ─────────────────────────────────────┐
│ Mixer:  %-45s │
│ Gain:   %-45.3f │
├──────────────────────────────────────────────────────┤
`, status, m.gain)
}

// renderInputs renders one line per known input.
func (m Model) renderInputs() string {
	if len(m.inputs) == 0 {
		return "│ No inputs                                            │\n"
	}

	var b strings.Builder
	b.WriteString("│ Inputs:                                              │\n")
	for _, in := range m.inputs {
		flag := "active"
		switch {
		case in.Errored:
			flag = "errored"
		case in.Paused:
			flag = "paused"
		}
		fmt.Fprintf(&b, "│   %-20s depth=%-4d %-10s        │\n", truncate(in.ID, 20), in.QueueDepth, flag)
	}
	return b.String()
}

// renderCounters renders the running admission counters.
func (m Model) renderCounters() string {
	return fmt.Sprintf(`├──────────────────────────────────────────────────────┤
│ Blocks: %-8d Stale: %-6d Past: %-6d Gap: %-6d │
│                                                      │
`, m.blocksEmitted, m.staleDrops, m.pastDrops, m.gapDrops)
}

// renderHelp renders keyboard shortcuts.
func (m Model) renderHelp() string {
	return `│ d:Debug  q:Quit                                     │
└──────────────────────────────────────────────────────┘
`
}

// renderDebug renders debug information.
func (m Model) renderDebug() string {
	return fmt.Sprintf(`│ DEBUG:                                               │
│   Late resets:   %-8d                          │
│   Cursor drifts: %-8d                          │
`, m.lateResets, m.cursorDrifts)
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "d":
		m.showDebug = !m.showDebug
	}

	return m, nil
}

// applyStatus updates model from a status message.
func (m *Model) applyStatus(msg StatusMsg) {
	m.attached = msg.Attached
	if msg.Format != "" {
		m.format = msg.Format
	}
	m.gain = msg.Gain
	if msg.Inputs != nil {
		m.inputs = msg.Inputs
	}
	m.blocksEmitted = msg.BlocksEmitted
	m.staleDrops = msg.StaleDrops
	m.pastDrops = msg.PastDrops
	m.gapDrops = msg.GapDrops
	m.lateResets = msg.LateResets
	m.cursorDrifts = msg.CursorDrifts
}

// StatusMsg updates TUI state with a fresh snapshot of the mixer.
type StatusMsg struct {
	Attached bool
	Format   string
	Gain     float32
	Inputs   []InputStatus

	BlocksEmitted int64
	StaleDrops    int64
	PastDrops     int64
	GapDrops      int64
	LateResets    int64
	CursorDrifts  int64
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}
