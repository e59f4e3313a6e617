package dashboard

import (
	"sync"
	"time"
)

// Clock returns the current time. Preset ids are derived from it.
type Clock func() time.Time

// RealScheduler schedules callbacks on the runtime timers.
type RealScheduler struct{}

// NewRealScheduler returns the wall-clock scheduler used outside tests.
func NewRealScheduler() RealScheduler {
	return RealScheduler{}
}

// AfterFunc implements Scheduler.
func (RealScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// Every implements Scheduler. The ticker goroutine exits once the returned timer is stopped.
func (RealScheduler) Every(d time.Duration, fn func()) Timer {
	t := &tickerTimer{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go t.run(fn)
	return t
}

type tickerTimer struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *tickerTimer) run(fn func()) {
	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			fn()
		}
	}
}

func (t *tickerTimer) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.ticker.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}
