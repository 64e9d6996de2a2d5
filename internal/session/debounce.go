package session

import "time"

// Debouncer is a trailing-edge debounce timer driven by an injected clock:
// callers pass the current time instead of sleeping, so the logic tests
// without real delays. Touch marks activity and reports the leading edge;
// Expire reports the trailing edge once the quiet interval has passed.
//
// The typing coordinator runs one at 1s (re-announce quiet) and the user
// search overlays run one at 300ms (query dispatch).
type Debouncer struct {
	interval time.Duration
	deadline time.Time
	active   bool
}

// NewDebouncer creates a debouncer with the given quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Touch registers activity at now, resetting the quiet interval. It returns
// true only on the leading edge, i.e. when the debouncer was idle.
func (d *Debouncer) Touch(now time.Time) bool {
	leading := !d.active
	d.active = true
	d.deadline = now.Add(d.interval)
	return leading
}

// Expire fires the trailing edge: it returns true exactly once after the
// quiet interval elapses with no further touches.
func (d *Debouncer) Expire(now time.Time) bool {
	if !d.active || now.Before(d.deadline) {
		return false
	}
	d.active = false
	return true
}

// Cancel stops the timer without firing. It returns true when the timer was
// armed, so callers know an explicit "stopped" announcement is owed.
func (d *Debouncer) Cancel() bool {
	armed := d.active
	d.active = false
	return armed
}

// Active reports whether the timer is armed.
func (d *Debouncer) Active() bool { return d.active }

// Deadline returns when the trailing edge is due. Only meaningful while
// Active.
func (d *Debouncer) Deadline() time.Time { return d.deadline }

// Interval returns the configured quiet interval.
func (d *Debouncer) Interval() time.Duration { return d.interval }
