package dispatcher

import (
	"context"

	"go.uber.org/zap"

	"github.com/JoeJoeGBoi/ZoomNoCam/internal/engine"
)

// DryRun logs every action instead of touching the screen. Used for
// rehearsing rule changes against a live meeting without moderating anyone.
type DryRun struct {
	log *zap.Logger
}

func NewDryRun(log *zap.Logger) *DryRun {
	return &DryRun{log: log}
}

func (d *DryRun) Dispatch(ctx context.Context, action engine.Action) error {
	fields := []zap.Field{
		zap.String("action", string(action.Type)),
		zap.String("participant", action.ParticipantID),
	}
	if action.Type == engine.ActionWarn {
		fields = append(fields, zap.Time("removal_due", action.Deadline))
	}
	d.log.Info("dry run: action suppressed", fields...)
	return nil
}
