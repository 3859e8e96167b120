package engine

import "time"

// DefaultWindow is the grace period between the camera-off warning and
// removal.
const DefaultWindow = 30 * time.Second

type ActionType string

const (
	ActionWarn   ActionType = "warn"
	ActionRemove ActionType = "remove"
	ActionUnpin  ActionType = "unpin"
)

// Action is one intended enforcement step. The engine only emits intents;
// delivering them through the meeting UI is the dispatcher's job.
type Action struct {
	Type          ActionType
	ParticipantID string
	// Deadline is set on warn actions: the instant removal becomes due if
	// the camera stays off.
	Deadline time.Time
}

// Participant is one participants-panel entry as observed this cycle. ID is
// the display name when the observer can read one, otherwise a stable
// panel-position key. The engine treats it as opaque.
type Participant struct {
	ID         string
	CameraOn   bool
	PinCount   int
	CoHost     bool
	ObservedAt time.Time
}

// Warning tracks one camera-off grace period. At most one exists per
// participant id at a time.
type Warning struct {
	StartedAt time.Time
	Deadline  time.Time
}

// State is everything the engine carries between cycles: the warning table
// and the configured grace window. Evaluate returns a fresh State; callers
// own the authoritative copy.
type State struct {
	Window   time.Duration
	Warnings map[string]Warning
}

/*
	Per cycle, per participant:

	  co-host              -> nothing, and any running warning is dropped
	  camera off, no timer -> start timer, emit warn
	  camera off, expired  -> emit remove, drop timer (terminal)
	  camera off, pending  -> nothing, timer keeps running
	  camera on            -> drop timer (camera restored cancels removal)
	  pins > 1 (not co-host) -> emit unpin, every cycle it is observed

	Warnings whose id is absent from the batch are discarded without an
	action: that guest already left.
*/

// Evaluate applies the house rules to one observation cycle. Pure: the input
// state is not mutated, the next state is returned alongside the actions.
// Evaluation is level-triggered on the current batch, so a camera that
// flickers back on before the deadline cancels the pending removal.
func Evaluate(s State, batch []Participant, now time.Time) ([]Action, State) {
	next := State{
		Window:   s.Window,
		Warnings: make(map[string]Warning, len(s.Warnings)),
	}

	var actions []Action
	for _, p := range Dedupe(batch) {
		if p.CoHost {
			// Exempt from everything. Status can change mid-meeting, so
			// the warning (if any) is simply not carried over.
			continue
		}

		if !p.CameraOn {
			w, ok := s.Warnings[p.ID]
			switch {
			case !ok:
				w = Warning{StartedAt: now, Deadline: now.Add(s.Window)}
				next.Warnings[p.ID] = w
				actions = append(actions, Action{
					Type:          ActionWarn,
					ParticipantID: p.ID,
					Deadline:      w.Deadline,
				})
			case !now.Before(w.Deadline):
				// Deadline reached. Removal is terminal: the timer does
				// not survive into the next state.
				actions = append(actions, Action{
					Type:          ActionRemove,
					ParticipantID: p.ID,
				})
			default:
				// Still inside the grace period.
				next.Warnings[p.ID] = w
			}
		}

		if p.PinCount > 1 {
			actions = append(actions, Action{
				Type:          ActionUnpin,
				ParticipantID: p.ID,
			})
		}
	}

	return actions, next
}

// Dedupe resolves duplicate ids within one batch: the last entry wins, and
// the result keeps the order in which ids first appeared, so evaluation is
// deterministic for a given batch order.
func Dedupe(batch []Participant) []Participant {
	if len(batch) == 0 {
		return nil
	}

	latest := make(map[string]Participant, len(batch))
	order := make([]string, 0, len(batch))
	for _, p := range batch {
		if _, seen := latest[p.ID]; !seen {
			order = append(order, p.ID)
		}
		latest[p.ID] = p
	}

	out := make([]Participant, 0, len(order))
	for _, id := range order {
		out = append(out, latest[id])
	}
	return out
}
