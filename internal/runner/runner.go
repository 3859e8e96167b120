// Package runner drives the enforcement loop: poll the observer on a fixed
// interval, feed each batch through the session, hand the resulting actions
// to the dispatcher. One runner per monitored meeting.
package runner

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/JoeJoeGBoi/ZoomNoCam/internal/clock"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/dispatcher"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/engine"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/observer"
	"github.com/JoeJoeGBoi/ZoomNoCam/internal/session"
)

const (
	DefaultPollInterval = 3 * time.Second

	// DefaultWindowGoneAfter is how many consecutive failed observations,
	// while running, mean the meeting is over rather than mid-hiccup.
	DefaultWindowGoneAfter = 5
)

type Config struct {
	PollInterval     time.Duration
	ScrollToLastPage bool
	WindowGoneAfter  int
}

// Runner polls on its own goroutine via Run. The session must outlive Run:
// lifecycle updates are delivered right up to shutdown.
type Runner struct {
	obs  observer.Observer
	disp dispatcher.Dispatcher
	sess *session.Session
	clk  clock.Clock
	cfg  Config
	log  *zap.Logger

	lifecycle session.Lifecycle
	misses    int
}

func New(obs observer.Observer, disp dispatcher.Dispatcher, sess *session.Session, clk clock.Clock, cfg Config, log *zap.Logger) *Runner {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.WindowGoneAfter <= 0 {
		cfg.WindowGoneAfter = DefaultWindowGoneAfter
	}
	return &Runner{
		obs:  obs,
		disp: disp,
		sess: sess,
		clk:  clk,
		cfg:  cfg,
		log:  log,
	}
}

// Run polls until ctx is canceled. Cancellation is the normal way to stop
// and returns nil.
func (r *Runner) Run(ctx context.Context) error {
	r.setLifecycle(session.Idle)

	ticker := r.clk.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	r.log.Info("enforcement loop started",
		zap.Duration("poll_interval", r.cfg.PollInterval),
		zap.Int("window_gone_after", r.cfg.WindowGoneAfter))

	// First poll right away; the ticker covers the rest.
	if ctx.Err() == nil {
		r.tick(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			r.setLifecycle(session.Stopped)
			r.log.Info("enforcement loop stopped")
			return nil
		case <-ticker.C():
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if r.cfg.ScrollToLastPage {
		if err := r.obs.ScrollToLastPage(ctx); err != nil {
			r.log.Debug("scroll to last page failed", zap.Error(err))
		}
	}

	batch, err := r.obs.Snapshot(ctx)
	if err != nil {
		r.observeMiss(err)
		return
	}
	r.misses = 0
	r.setLifecycle(session.Running)

	reply := make(chan []engine.Action, 1)
	select {
	case r.sess.Inbox() <- session.Observe{Batch: batch, At: r.clk.Now(), Reply: reply}:
	case <-ctx.Done():
		return
	}

	var actions []engine.Action
	select {
	case actions = <-reply:
	case <-ctx.Done():
		return
	}

	var errs error
	for _, a := range actions {
		if err := r.disp.Dispatch(ctx, a); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s %s: %w", a.Type, a.ParticipantID, err))
		}
	}
	if errs != nil {
		// A failed dispatch this cycle is retried naturally: the condition
		// that produced it will still be observed next cycle.
		r.log.Warn("not all actions could be delivered", zap.Error(errs))
	}
}

// observeMiss handles a failed observation. While idle a miss just means the
// meeting has not started. While running a single miss skips the cycle with
// timers intact, and a run of misses means the window is gone for good.
func (r *Runner) observeMiss(err error) {
	if r.lifecycle != session.Running {
		r.log.Debug("meeting window not found", zap.Error(err))
		return
	}

	r.misses++
	r.log.Warn("observation failed, keeping timers",
		zap.Int("consecutive", r.misses),
		zap.Int("threshold", r.cfg.WindowGoneAfter),
		zap.Error(err))

	if r.misses < r.cfg.WindowGoneAfter {
		return
	}

	r.log.Info("meeting window gone, clearing enforcement state")
	r.sess.Inbox() <- session.Reset{At: r.clk.Now()}
	r.setLifecycle(session.Idle)
	r.misses = 0
}

func (r *Runner) setLifecycle(next session.Lifecycle) {
	if r.lifecycle == next {
		return
	}
	r.lifecycle = next
	r.sess.Inbox() <- session.SetLifecycle{State: next, At: r.clk.Now()}
}
