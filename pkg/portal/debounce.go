package portal

import (
	"context"
	"sync"
	"time"

	dashboard "github.com/goliatone/go-portal-dashboard/components/dashboard"
)

// FetchFunc performs one request for params. It must honour ctx cancellation.
type FetchFunc[P, V any] func(ctx context.Context, params P) (V, error)

// ResultFunc receives the outcome of the latest request.
type ResultFunc[P, V any] func(params P, value V, err error)

// Debouncer runs a fetch after params stop changing for the debounce delay. A newer
// Trigger stops the pending timer and cancels the in-flight request; results of
// superseded requests are dropped.
type Debouncer[P, V any] struct {
	delay     time.Duration
	fetch     FetchFunc[P, V]
	deliver   ResultFunc[P, V]
	scheduler dashboard.Scheduler

	mu      sync.Mutex
	seq     uint64
	timer   dashboard.Timer
	cancel  context.CancelFunc
	closed  bool
	flights sync.WaitGroup
}

// NewDebouncer builds a debouncer. A nil scheduler uses real timers.
func NewDebouncer[P, V any](delay time.Duration, scheduler dashboard.Scheduler, fetch FetchFunc[P, V], deliver ResultFunc[P, V]) *Debouncer[P, V] {
	if scheduler == nil {
		scheduler = dashboard.NewRealScheduler()
	}
	return &Debouncer[P, V]{
		delay:     delay,
		fetch:     fetch,
		deliver:   deliver,
		scheduler: scheduler,
	}
}

// Trigger supersedes any pending or in-flight request with one for params.
func (d *Debouncer[P, V]) Trigger(params P) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.supersedeLocked()
	seq := d.seq
	d.timer = d.scheduler.AfterFunc(d.delay, func() { d.start(seq, params) })
}

// Cancel drops the pending timer and aborts the in-flight request.
func (d *Debouncer[P, V]) Cancel() {
	d.mu.Lock()
	d.supersedeLocked()
	d.mu.Unlock()
}

// Close cancels outstanding work and waits for running fetches to return.
func (d *Debouncer[P, V]) Close() {
	d.mu.Lock()
	d.closed = true
	d.supersedeLocked()
	d.mu.Unlock()
	d.flights.Wait()
}

func (d *Debouncer[P, V]) supersedeLocked() {
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Debouncer[P, V]) start(seq uint64, params P) {
	d.mu.Lock()
	if d.closed || seq != d.seq {
		d.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.timer = nil
	d.flights.Add(1)
	d.mu.Unlock()

	defer d.flights.Done()
	defer cancel()
	value, err := d.fetch(ctx, params)

	d.mu.Lock()
	current := !d.closed && seq == d.seq
	if current {
		d.cancel = nil
	}
	d.mu.Unlock()
	if current && d.deliver != nil {
		d.deliver(params, value, err)
	}
}
