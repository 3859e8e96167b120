// Package session owns the engine state for the monitored meeting. One
// goroutine serializes every evaluation, reset and read; the dashboard and
// anything else that wants to watch subscribes to versioned snapshots.
package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JoeJoeGBoi/ZoomNoCam/internal/engine"
)

// Lifecycle is the run state of the monitored meeting: idle until the
// meeting window is found, running while it is enforced, stopped when the
// process shuts down.
type Lifecycle string

const (
	Idle    Lifecycle = "idle"
	Running Lifecycle = "running"
	Stopped Lifecycle = "stopped"
)

type Msg interface{ isSessionMsg() }

// Observe runs one evaluation cycle against the held state. The caller
// blocks on Reply, which keeps observe -> evaluate -> dispatch strictly
// sequential within a tick.
type Observe struct {
	Batch []engine.Participant
	At    time.Time
	Reply chan []engine.Action
}

func (Observe) isSessionMsg() {}

// Reset drops all engine state: the meeting ended or the window vanished.
type Reset struct{ At time.Time }

func (Reset) isSessionMsg() {}

// SetLifecycle records a run-state transition and broadcasts it.
type SetLifecycle struct {
	State Lifecycle
	At    time.Time
}

func (SetLifecycle) isSessionMsg() {}

type Subscribe struct {
	ID     string
	Outbox chan Snapshot // where this subscriber wants to receive snapshots
}

func (Subscribe) isSessionMsg() {}

type Unsubscribe struct{ ID string }

func (Unsubscribe) isSessionMsg() {}

type GetView struct {
	Reply chan View
}

func (GetView) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// Snapshot is one broadcast cycle result. Participants is the deduplicated
// batch as observed; Warnings is a copy, safe to read from any goroutine.
type Snapshot struct {
	Version      int
	At           time.Time
	Lifecycle    Lifecycle
	Participants []engine.Participant
	Actions      []engine.Action
	Warnings     map[string]engine.Warning
}

// View reflects internal state without data races; used by tests and
// diagnostics.
type View struct {
	Version        int
	Lifecycle      Lifecycle
	NumSubscribers int
	State          engine.State
}

type Session struct {
	inbox     chan Msg
	state     engine.State
	lifecycle Lifecycle
	version   int
	subs      map[string]chan Snapshot
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(parent context.Context, initial engine.State, log *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)

	s := &Session{
		inbox:     make(chan Msg, 64),
		state:     initial,
		lifecycle: Idle,
		subs:      make(map[string]chan Snapshot),
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}

	go s.loop()
	return s
}

// Inbox exposes the message channel so the runner, the dashboard feed and
// tests can talk to the session.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) loop() {
	for {
		select {
		case <-s.ctx.Done():
			s.shutdown()
			return

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Observe:
				batch := engine.Dedupe(msg.Batch)
				for _, p := range batch {
					if p.CoHost {
						s.log.Debug("co-host exempt", zap.String("participant", p.ID))
					}
				}
				actions, next := engine.Evaluate(s.state, batch, msg.At)
				s.state = next
				s.version++
				s.logActions(actions)
				s.broadcast(s.snapshot(msg.At, batch, actions))
				msg.Reply <- actions

			case Reset:
				s.state = engine.NewState(s.state.Window)
				s.version++
				s.broadcast(s.snapshot(msg.At, nil, nil))

			case SetLifecycle:
				if s.lifecycle == msg.State {
					break
				}
				s.log.Info("lifecycle transition",
					zap.String("from", string(s.lifecycle)),
					zap.String("to", string(msg.State)))
				s.lifecycle = msg.State
				s.version++
				s.broadcast(s.snapshot(msg.At, nil, nil))

			case Subscribe:
				// Register and send the current snapshot immediately.
				s.subs[msg.ID] = msg.Outbox
				msg.Outbox <- s.snapshot(time.Time{}, nil, nil)

			case Unsubscribe:
				delete(s.subs, msg.ID)

			case GetView:
				msg.Reply <- View{
					Version:        s.version,
					Lifecycle:      s.lifecycle,
					NumSubscribers: len(s.subs),
					State:          s.state,
				}

			case Shutdown:
				s.shutdown()
				return
			}
		}
	}
}

func (s *Session) snapshot(at time.Time, batch []engine.Participant, actions []engine.Action) Snapshot {
	return Snapshot{
		Version:      s.version,
		At:           at,
		Lifecycle:    s.lifecycle,
		Participants: batch,
		Actions:      actions,
		Warnings:     s.state.CopyWarnings(),
	}
}

func (s *Session) logActions(actions []engine.Action) {
	for _, a := range actions {
		switch a.Type {
		case engine.ActionWarn:
			s.log.Info("camera off, warning issued",
				zap.String("participant", a.ParticipantID),
				zap.Time("removal_due", a.Deadline))
		case engine.ActionRemove:
			s.log.Info("warning window expired, removing guest",
				zap.String("participant", a.ParticipantID))
		case engine.ActionUnpin:
			s.log.Info("multi-pin detected, stripping pin",
				zap.String("participant", a.ParticipantID))
		}
	}
}

func (s *Session) shutdown() {
	for id, ch := range s.subs {
		close(ch) // tell the subscriber no more snapshots are coming
		delete(s.subs, id)
	}
	s.cancel()
}

func (s *Session) broadcast(snap Snapshot) {
	for id, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Subscriber is slow or full - drop them.
			close(ch)
			delete(s.subs, id)
		}
	}
}
