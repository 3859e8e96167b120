package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/JoeJoeGBoi/ZoomNoCam/internal/session"
)

// SnapshotMsg carries one session broadcast into the program.
type SnapshotMsg struct {
	Snapshot session.Snapshot
}

// feedClosedMsg means the session shut down; no more snapshots will come.
type feedClosedMsg struct{}

// TickMsg refreshes the removal countdowns between broadcasts.
type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// waitForSnapshot blocks on the subscription channel and hands the next
// broadcast to Update. Re-armed after every snapshot.
func waitForSnapshot(ch <-chan session.Snapshot) tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return feedClosedMsg{}
		}
		return SnapshotMsg{Snapshot: snap}
	}
}

// Run shows the dashboard until ctx is canceled, the user quits, or the
// session shuts down.
func Run(ctx context.Context, sess *session.Session) error {
	out := make(chan session.Snapshot, 16)
	sess.Inbox() <- session.Subscribe{ID: "dashboard", Outbox: out}

	p := tea.NewProgram(NewModel(out), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()

	sess.Inbox() <- session.Unsubscribe{ID: "dashboard"}

	if ctx.Err() != nil {
		// Canceled from outside; not a dashboard failure.
		return nil
	}
	return err
}
