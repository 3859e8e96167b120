// Package observer defines the screen-observation contract. Anything that
// can produce participant entries for the monitored meeting (the live
// desktop adapter, the scripted simulator) implements Observer; the rule
// engine never learns how the entries were read.
package observer

import (
	"context"
	"errors"

	"github.com/JoeJoeGBoi/ZoomNoCam/internal/engine"
)

// ErrUnavailable means the meeting window or its participants panel could
// not be located this cycle. Transient: the caller skips the cycle and
// tries again on the next tick.
var ErrUnavailable = errors.New("participants panel unavailable")

type Observer interface {
	// ScrollToLastPage keeps the participants panel on its final page so
	// the next Snapshot sees the entries that scroll out of view first.
	ScrollToLastPage(ctx context.Context) error

	// Snapshot returns every participant entry currently visible on the
	// panel. Fails with ErrUnavailable when the panel cannot be located.
	Snapshot(ctx context.Context) ([]engine.Participant, error)
}
