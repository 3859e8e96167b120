package clock

import (
	"sync"
	"time"
)

// Fake is a manually advanced Clock. Time moves only through Advance, which
// fires due tickers in time order. When the code under test creates its
// ticker on another goroutine, call WaitForTickers before the first Advance
// so the tick cannot be scheduled before the ticker exists.
type Fake struct {
	mu      sync.Mutex
	cond    *sync.Cond
	now     time.Time
	tickers []*fakeTicker
}

func NewFake(start time.Time) *Fake {
	f := &Fake{now: start}
	f.cond = sync.NewCond(&f.mu)
	return f
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("clock: non-positive ticker interval")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{
		fake:     f,
		ch:       make(chan time.Time, 1),
		interval: d,
		next:     f.now.Add(d),
	}
	f.tickers = append(f.tickers, t)
	f.cond.Broadcast()
	return t
}

// WaitForTickers blocks until at least n unstopped tickers exist.
func (f *Fake) WaitForTickers(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for f.live() < n {
		f.cond.Wait()
	}
}

func (f *Fake) live() int {
	count := 0
	for _, t := range f.tickers {
		if !t.stopped {
			count++
		}
	}
	return count
}

// Advance moves the clock forward by d, delivering every tick that falls
// due on the way, in time order. A full tick channel drops the tick, the
// same way time.Ticker does.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.now.Add(d)
	for {
		t := f.earliestDue(target)
		if t == nil {
			break
		}
		f.now = t.next
		select {
		case t.ch <- t.next:
		default:
		}
		t.next = t.next.Add(t.interval)
	}
	f.now = target
}

func (f *Fake) earliestDue(limit time.Time) *fakeTicker {
	var due *fakeTicker
	for _, t := range f.tickers {
		if t.stopped || t.next.After(limit) {
			continue
		}
		if due == nil || t.next.Before(due.next) {
			due = t
		}
	}
	return due
}

type fakeTicker struct {
	fake     *Fake
	ch       chan time.Time
	interval time.Duration
	next     time.Time
	stopped  bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.fake.mu.Lock()
	defer t.fake.mu.Unlock()
	t.stopped = true
}
