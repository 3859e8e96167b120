package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFake_NowAdvances(t *testing.T) {
	start := time.Date(2025, time.March, 4, 12, 0, 0, 0, time.UTC)
	f := NewFake(start)

	require.Equal(t, start, f.Now())
	f.Advance(90 * time.Second)
	require.Equal(t, start.Add(90*time.Second), f.Now())
}

func TestFake_TickerFiresPerInterval(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	ticker := f.NewTicker(3 * time.Second)
	defer ticker.Stop()

	f.Advance(3 * time.Second)
	select {
	case at := <-ticker.C():
		require.Equal(t, time.Unix(3, 0).UTC(), at.UTC())
	default:
		t.Fatalf("expected a tick after one interval")
	}

	// Two intervals with an undrained buffer of one: the second tick is
	// dropped, matching time.Ticker.
	f.Advance(6 * time.Second)
	<-ticker.C()
	select {
	case <-ticker.C():
		t.Fatalf("tick should have been dropped while the buffer was full")
	default:
	}
}

func TestFake_StoppedTickerStaysQuiet(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	ticker := f.NewTicker(time.Second)
	ticker.Stop()

	f.Advance(5 * time.Second)
	select {
	case <-ticker.C():
		t.Fatalf("stopped ticker fired")
	default:
	}
}

func TestFake_WaitForTickers(t *testing.T) {
	f := NewFake(time.Unix(0, 0))

	done := make(chan struct{})
	go func() {
		f.WaitForTickers(1)
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("WaitForTickers returned before any ticker existed")
	case <-time.After(20 * time.Millisecond):
	}

	ticker := f.NewTicker(time.Second)
	defer ticker.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("WaitForTickers did not observe the new ticker")
	}
}
