package sim

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/JoeJoeGBoi/ZoomNoCam/internal/dispatcher"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/engine"
)

// Recorder is a Dispatcher that keeps every action it is handed instead of
// driving a UI. Failure injection per action type lets tests exercise the
// runner's error handling.
type Recorder struct {
	mu      sync.Mutex
	actions []engine.Action
	failing map[engine.ActionType]bool
	log     *zap.Logger
}

func NewRecorder(log *zap.Logger) *Recorder {
	return &Recorder{
		failing: make(map[engine.ActionType]bool),
		log:     log,
	}
}

// FailOn makes every subsequent dispatch of the given action type fail.
func (r *Recorder) FailOn(t engine.ActionType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing[t] = true
}

func (r *Recorder) Dispatch(ctx context.Context, action engine.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failing[action.Type] {
		return fmt.Errorf("%w: injected failure for %s", dispatcher.ErrDispatchFailed, action.Type)
	}

	r.actions = append(r.actions, action)
	r.log.Info("recorded action",
		zap.String("action", string(action.Type)),
		zap.String("participant", action.ParticipantID))
	return nil
}

// Actions returns a copy of everything dispatched so far.
func (r *Recorder) Actions() []engine.Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]engine.Action, len(r.actions))
	copy(out, r.actions)
	return out
}

// CountByType tallies recorded actions, convenient for end-of-run summaries.
func (r *Recorder) CountByType() map[engine.ActionType]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[engine.ActionType]int)
	for _, a := range r.actions {
		counts[a.Type]++
	}
	return counts
}
