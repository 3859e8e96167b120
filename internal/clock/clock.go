// Package clock abstracts the time operations the poll loop depends on, so
// tests drive ticks deterministically instead of sleeping. Production code
// injects Real(); tests inject NewFake and call Advance.
package clock

import "time"

type Clock interface {
	Now() time.Time

	// NewTicker delivers ticks on its channel every d. Panics if d <= 0,
	// matching time.NewTicker.
	NewTicker(d time.Duration) Ticker
}

// Ticker is the useful part of time.Ticker behind an interface. The channel
// has capacity 1: a consumer that falls behind loses ticks rather than
// queuing them.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Real returns a Clock backed by the standard time package.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{ticker: time.NewTicker(d)}
}

type realTicker struct{ ticker *time.Ticker }

func (t *realTicker) C() <-chan time.Time { return t.ticker.C }
func (t *realTicker) Stop()               { t.ticker.Stop() }
