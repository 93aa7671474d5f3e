package session

import (
	"sync"
	"time"
)

// Debouncer runs fn once a burst of Trigger calls has been quiet for delay.
// At most one run is pending at any time.
type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func() error
	timer *time.Timer
	// gen tells a timer that fired late whether it is still the pending one.
	gen uint64
	// running counts timer-fired runs still in fn; idle signals it hit zero.
	running int
	idle    *sync.Cond
}

func NewDebouncer(delay time.Duration, fn func() error) *Debouncer {
	d := &Debouncer{delay: delay, fn: fn}
	d.idle = sync.NewCond(&d.mu)
	return d
}

// Trigger (re)arms the timer, dropping the run pending so far.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.timer == nil {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.running++
	d.mu.Unlock()

	d.fn()

	d.mu.Lock()
	d.running--
	if d.running == 0 {
		d.idle.Broadcast()
	}
	d.mu.Unlock()
}

// wait blocks until no timer-fired run is in fn.
func (d *Debouncer) wait() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.running > 0 {
		d.idle.Wait()
	}
}

func (d *Debouncer) take() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	t := d.timer
	d.timer = nil
	d.gen++
	if t == nil {
		return false
	}
	t.Stop()
	return true
}

// Pending reports whether a run is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

// Flush runs the pending fn now, in the caller's goroutine, then waits for
// any run the timer already started. It returns nil when nothing was pending.
func (d *Debouncer) Flush() error {
	var err error
	if d.take() {
		err = d.fn()
	}
	d.wait()
	return err
}

// Stop drops the pending run.
func (d *Debouncer) Stop() bool {
	return d.take()
}
