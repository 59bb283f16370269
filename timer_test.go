package rgbmatrix

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestSleepTimer(t *testing.T) {
	tm := newSleepTimer()
	var fired atomic.Int32
	tm.Start(func() { fired.Add(1) }, time.Millisecond)

	deadline := time.Now().Add(2 * time.Second)
	for fired.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if fired.Load() < 3 {
		t.Fatal("timer did not fire repeatedly")
	}

	tm.Reprogram(2 * time.Millisecond)
	tm.Stop()
	after := fired.Load()
	time.Sleep(20 * time.Millisecond)
	if fired.Load() != after {
		t.Error("timer fired after Stop")
	}
}
