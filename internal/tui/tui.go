// Package tui renders a live dashboard for an enforcement run: the observed
// panel as a table, warning countdowns, and a ticker of recent actions.
package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/JoeJoeGBoi/ZoomNoCam/internal/engine"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/session"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1)

	statusIdle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render("IDLE")
	statusRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("RUNNING")
	statusStopped = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render("STOPPED")

	tickerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// maxRecent caps the action ticker.
const maxRecent = 10

type actionEntry struct {
	at     time.Time
	action engine.Action
}

type Model struct {
	feed <-chan session.Snapshot

	snap    session.Snapshot
	recent  []actionEntry
	arrived time.Time // wall time the latest snapshot landed
	now     time.Time

	tbl    table.Model
	width  int
	height int
	ready  bool
}

func NewModel(feed <-chan session.Snapshot) Model {
	columns := []table.Column{
		{Title: "Participant", Width: 16},
		{Title: "Camera", Width: 8},
		{Title: "Pins", Width: 6},
		{Title: "Co-host", Width: 9},
		{Title: "Removal in", Width: 12},
	}
	tbl := table.New(table.WithColumns(columns), table.WithHeight(12))

	st := table.DefaultStyles()
	st.Header = st.Header.Bold(true).Foreground(lipgloss.Color("205"))
	st.Selected = lipgloss.NewStyle()
	tbl.SetStyles(st)

	return Model{
		feed:   feed,
		recent: make([]actionEntry, 0, maxRecent),
		now:    time.Now(),
		tbl:    tbl,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.feed), tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		// Remaining keys scroll the table.
		var cmd tea.Cmd
		m.tbl, cmd = m.tbl.Update(msg)
		cmds = append(cmds, cmd)

	case TickMsg:
		m.now = time.Time(msg)
		m.tbl.SetRows(m.rows())
		cmds = append(cmds, tick())

	case SnapshotMsg:
		m.snap = msg.Snapshot
		m.arrived = time.Now()
		m.now = m.arrived
		for _, a := range msg.Snapshot.Actions {
			m.recent = append(m.recent, actionEntry{at: msg.Snapshot.At, action: a})
		}
		if n := len(m.recent); n > maxRecent {
			m.recent = m.recent[n-maxRecent:]
		}
		m.tbl.SetRows(m.rows())
		cmds = append(cmds, waitForSnapshot(m.feed))

	case feedClosedMsg:
		return m, tea.Quit
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.ready {
		return "Starting dashboard...\n"
	}

	header := headerStyle.Render(fmt.Sprintf("ZoomNoCam  %s  cycle %d  participants: %d  warnings: %d",
		m.status(), m.snap.Version, len(m.snap.Participants), len(m.snap.Warnings)))

	panel := paneStyle.Render("PARTICIPANTS\n\n" + m.tbl.View())
	ticker := paneStyle.Render("ACTIONS\n\n" + m.renderTicker())

	return lipgloss.JoinVertical(lipgloss.Left, header, panel, ticker)
}

func (m Model) status() string {
	switch m.snap.Lifecycle {
	case session.Running:
		return statusRunning
	case session.Stopped:
		return statusStopped
	default:
		return statusIdle
	}
}

func (m Model) rows() []table.Row {
	rows := make([]table.Row, 0, len(m.snap.Participants))
	for _, p := range m.snap.Participants {
		cam := "on"
		if !p.CameraOn {
			cam = "off"
		}
		co := ""
		if p.CoHost {
			co = "yes"
		}
		rows = append(rows, table.Row{
			p.ID, cam, strconv.Itoa(p.PinCount), co, m.countdown(p.ID),
		})
	}
	return rows
}

// countdown renders time left on a participant's warning, aged by wall time
// since the snapshot arrived so it keeps moving between broadcasts.
func (m Model) countdown(id string) string {
	w, ok := m.snap.Warnings[id]
	if !ok {
		return "-"
	}
	left := w.Deadline.Sub(m.snap.At) - m.now.Sub(m.arrived)
	if left < 0 {
		left = 0
	}
	return left.Truncate(time.Second).String()
}

func (m Model) renderTicker() string {
	if len(m.recent) == 0 {
		return "No actions yet."
	}
	var out strings.Builder
	for i := len(m.recent) - 1; i >= 0; i-- {
		e := m.recent[i]
		out.WriteString(tickerStyle.Render(fmt.Sprintf("[%s] %-7s %s",
			e.at.Format("15:04:05"), e.action.Type, e.action.ParticipantID)))
		out.WriteString("\n")
	}
	return out.String()
}
