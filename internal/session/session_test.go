package session

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/JoeJoeGBoi/ZoomNoCam/internal/engine"
)

var base = time.Date(2024, 6, 1, 20, 0, 0, 0, time.UTC)

// helper: receive one snapshot with a timeout so tests never hang
func recvSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) Snapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("subscriber outbox closed unexpectedly")
		}
		return snap
	case <-time.After(within):
		t.Fatalf("timed out waiting for snapshot")
		return Snapshot{} // unreachable
	}
}

func recvNoSnapshot(t *testing.T, ch <-chan Snapshot, within time.Duration) {
	t.Helper()
	select {
	case s, ok := <-ch:
		if !ok {
			// channel closed; no further snapshots possible
			return
		}
		t.Fatalf("expected no snapshot within %v, but got: %+v", within, s)
	case <-time.After(within):
		// good: no snapshot
	}
}

func recvView(t *testing.T, ch <-chan View, within time.Duration) View {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return View{} // unreachable
	}
}

func observe(t *testing.T, s *Session, batch []engine.Participant, at time.Time) []engine.Action {
	t.Helper()
	reply := make(chan []engine.Action, 1)
	s.Inbox() <- Observe{Batch: batch, At: at, Reply: reply}
	select {
	case actions := <-reply:
		return actions
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for observe reply")
		return nil // unreachable
	}
}

func TestSession_Observe_BroadcastsSnapshotAndVersionIncrements(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(ctx, engine.NewState(0), zap.NewNop())

	out := make(chan Snapshot, 2)
	s.Inbox() <- Subscribe{ID: "tui", Outbox: out}

	first := recvSnapshot(t, out, 100*time.Millisecond)
	if first.Version != 0 {
		t.Fatalf("after subscribe: want version=0, got %d", first.Version)
	}
	if first.Lifecycle != Idle {
		t.Fatalf("after subscribe: want lifecycle idle, got %q", first.Lifecycle)
	}

	actions := observe(t, s, []engine.Participant{
		{ID: "alice", CameraOn: false, ObservedAt: base},
	}, base)
	if len(actions) != 1 || actions[0].Type != engine.ActionWarn {
		t.Fatalf("expected a single warn action, got %+v", actions)
	}

	snap := recvSnapshot(t, out, 100*time.Millisecond)
	if snap.Version != 1 {
		t.Fatalf("after observe: want version=1, got %d", snap.Version)
	}
	if len(snap.Actions) != 1 || snap.Actions[0].ParticipantID != "alice" {
		t.Fatalf("snapshot actions mismatch: %+v", snap.Actions)
	}
	w, ok := snap.Warnings["alice"]
	if !ok {
		t.Fatalf("expected snapshot to carry alice's warning, got %+v", snap.Warnings)
	}
	if want := base.Add(engine.DefaultWindow); !w.Deadline.Equal(want) {
		t.Fatalf("warning deadline: want %v, got %v", want, w.Deadline)
	}

	s.Inbox() <- Shutdown{}
}

func TestSession_DropSlowSubscriber(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(ctx, engine.NewState(0), zap.NewNop())

	// Capacity 1: the subscribe-time snapshot fills the buffer, so the next
	// broadcast cannot be delivered.
	out := make(chan Snapshot, 1)
	s.Inbox() <- Subscribe{ID: "slow", Outbox: out}

	observe(t, s, []engine.Participant{
		{ID: "alice", CameraOn: false, ObservedAt: base},
	}, base)

	reply := make(chan View, 1)
	s.Inbox() <- GetView{Reply: reply}
	view := recvView(t, reply, 100*time.Millisecond)

	if view.NumSubscribers != 0 {
		t.Fatalf("expected slow subscriber to be dropped; NumSubscribers=%d", view.NumSubscribers)
	}
}

func TestSession_Reset_ClearsWarningsAndBumpsVersion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(ctx, engine.NewState(0), zap.NewNop())

	observe(t, s, []engine.Participant{
		{ID: "alice", CameraOn: false, ObservedAt: base},
	}, base)

	s.Inbox() <- Reset{At: base.Add(3 * time.Second)}

	reply := make(chan View, 1)
	s.Inbox() <- GetView{Reply: reply}
	view := recvView(t, reply, 100*time.Millisecond)

	if view.Version != 2 {
		t.Fatalf("want version=2 after observe+reset, got %d", view.Version)
	}
	if len(view.State.Warnings) != 0 {
		t.Fatalf("expected reset to clear warnings, got %+v", view.State.Warnings)
	}
	if view.State.Window != engine.DefaultWindow {
		t.Fatalf("reset must keep the configured window, got %v", view.State.Window)
	}
}

func TestSession_LifecycleTransition_BroadcastsOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(ctx, engine.NewState(0), zap.NewNop())

	out := make(chan Snapshot, 4)
	s.Inbox() <- Subscribe{ID: "tui", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond) // drain subscribe snapshot

	s.Inbox() <- SetLifecycle{State: Running, At: base}
	snap := recvSnapshot(t, out, 100*time.Millisecond)
	if snap.Lifecycle != Running {
		t.Fatalf("want lifecycle running, got %q", snap.Lifecycle)
	}

	// Same state again: no transition, no broadcast.
	s.Inbox() <- SetLifecycle{State: Running, At: base.Add(time.Second)}
	recvNoSnapshot(t, out, 150*time.Millisecond)
}

func TestSession_WarningSurvivesAcrossCycles(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(ctx, engine.NewState(0), zap.NewNop())

	observe(t, s, []engine.Participant{
		{ID: "alice", CameraOn: false, ObservedAt: base},
	}, base)

	// Second cycle inside the window: timer carried, no new action.
	mid := base.Add(10 * time.Second)
	actions := observe(t, s, []engine.Participant{
		{ID: "alice", CameraOn: false, ObservedAt: mid},
	}, mid)
	if len(actions) != 0 {
		t.Fatalf("pending warning must not re-fire, got %+v", actions)
	}

	// Past the deadline the removal comes out.
	late := base.Add(engine.DefaultWindow)
	actions = observe(t, s, []engine.Participant{
		{ID: "alice", CameraOn: false, ObservedAt: late},
	}, late)
	if len(actions) != 1 || actions[0].Type != engine.ActionRemove {
		t.Fatalf("expected removal at deadline, got %+v", actions)
	}
}

func TestSession_Shutdown_ClosesOutboxes(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := New(ctx, engine.NewState(0), zap.NewNop())

	out := make(chan Snapshot, 2)
	s.Inbox() <- Subscribe{ID: "tui", Outbox: out}
	_ = recvSnapshot(t, out, 100*time.Millisecond)

	s.Inbox() <- Shutdown{}

	select {
	case _, ok := <-out:
		if ok {
			t.Fatalf("expected outbox to be closed without further snapshots")
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for outbox close")
	}
}
