package shared

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer a Debouncer needs.
type Timer interface {
	Stop() bool
}

// Clock schedules delayed calls. RealClock uses time.AfterFunc.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock is the wall clock.
type RealClock struct{}

// Now implements Clock.
func (RealClock) Now() time.Time { return time.Now() }

// AfterFunc implements Clock.
func (RealClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Debouncer runs the most recent call once no new call arrived for Delay.
// Every Call cancels the pending one.
type Debouncer struct {
	delay time.Duration
	clock Clock

	mu      sync.Mutex
	timer   Timer
	version uint64
}

// NewDebouncer constructs a Debouncer; a nil clock means RealClock.
func NewDebouncer(delay time.Duration, clock Clock) *Debouncer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Debouncer{delay: delay, clock: clock}
}

// Call schedules fn, replacing whatever was pending.
func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.version++
	version := d.version
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.version == version
		if current {
			d.timer = nil
		}
		d.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Stop cancels the pending call, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.version++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Pending reports whether a call is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}
