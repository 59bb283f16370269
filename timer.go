package rgbmatrix

import (
	"sync/atomic"
	"time"
)

// IntervalTimer fires a callback once per expired period, on its own context,
// until stopped. It is the abstraction over a hardware interval timer: the
// refresh handler calls Reprogram on every invocation to set the next BCM
// interval before returning.
//
// The callback closure binds the timer to exactly one engine instance, so no
// process-wide "active panel" state is needed to route invocations.
type IntervalTimer interface {
	// Start begins invoking fn once per period.
	Start(fn func(), period time.Duration)
	// Reprogram changes the delay before the next invocation.
	Reprogram(period time.Duration)
	// Stop halts invocations. It does not return until any in-flight
	// callback has completed.
	Stop()
}

// sleepTimer is the default IntervalTimer, a goroutine around a time.Timer.
// Hosted Go has no hard real-time guarantee; a late firing only shortens the
// next on-interval, costing brightness precision, never state.
type sleepTimer struct {
	period atomic.Int64
	quit   chan struct{}
	done   chan struct{}
}

func newSleepTimer() *sleepTimer {
	return &sleepTimer{
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
}

func (t *sleepTimer) Start(fn func(), period time.Duration) {
	t.period.Store(int64(period))
	go t.run(fn, period)
}

func (t *sleepTimer) run(fn func(), period time.Duration) {
	defer close(t.done)
	tm := time.NewTimer(period)
	defer tm.Stop()
	for {
		select {
		case <-t.quit:
			return
		case <-tm.C:
			fn()
			tm.Reset(time.Duration(t.period.Load()))
		}
	}
}

func (t *sleepTimer) Reprogram(period time.Duration) {
	t.period.Store(int64(period))
}

func (t *sleepTimer) Stop() {
	close(t.quit)
	<-t.done
}
