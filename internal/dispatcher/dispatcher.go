// Package dispatcher defines the action-delivery contract: turning an
// intended enforcement action into simulated UI interaction.
package dispatcher

import (
	"context"
	"errors"

	"github.com/JoeJoeGBoi/ZoomNoCam/internal/engine"
)

// ErrDispatchFailed means the simulated interaction could not be delivered
// (control not found, target row gone). Transient: the action is dropped and
// the next cycle's fresh evaluation decides whether it is still needed.
var ErrDispatchFailed = errors.New("action could not be delivered")

type Dispatcher interface {
	Dispatch(ctx context.Context, action engine.Action) error
}
