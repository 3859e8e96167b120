// Package sim replays scenario scripts in place of a live meeting window.
// The observer serves whatever frame the script says is current, and the
// recorder collects dispatched actions so runs can be inspected afterwards.
package sim

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JoeJoeGBoi/ZoomNoCam/internal/clock"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/engine"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/observer"
	"github.com/JoeJoeGBoi/ZoomNoCam/pkg/scenario"
)

// Observer serves participant batches from a script. Script time starts
// when the observer is created, measured on the supplied clock.
type Observer struct {
	script scenario.Script
	clk    clock.Clock
	start  time.Time
	log    *zap.Logger
}

func NewObserver(script scenario.Script, clk clock.Clock, log *zap.Logger) *Observer {
	return &Observer{
		script: script,
		clk:    clk,
		start:  clk.Now(),
		log:    log,
	}
}

// ScrollToLastPage is a no-op: a script frame always shows the whole panel.
func (o *Observer) ScrollToLastPage(ctx context.Context) error { return nil }

func (o *Observer) Snapshot(ctx context.Context) ([]engine.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := o.clk.Now()
	elapsed := now.Sub(o.start)

	frame, ok := o.script.FrameAt(elapsed)
	if !ok {
		return nil, fmt.Errorf("%w: script has no frame at %v", observer.ErrUnavailable, elapsed)
	}
	if frame.Unavailable {
		return nil, fmt.Errorf("%w: scripted outage at %v", observer.ErrUnavailable, elapsed)
	}

	o.log.Debug("serving scripted frame",
		zap.Duration("elapsed", elapsed),
		zap.Int("participants", len(frame.Participants)))

	batch := make([]engine.Participant, 0, len(frame.Participants))
	for _, e := range frame.Participants {
		batch = append(batch, engine.Participant{
			ID:         e.Name,
			CameraOn:   e.CameraOn,
			PinCount:   e.PinCount,
			CoHost:     e.CoHost,
			ObservedAt: now,
		})
	}
	return batch, nil
}
