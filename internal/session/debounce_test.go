package session

import (
	"testing"
	"time"
)

func TestDebouncerLeadingEdgeOnce(t *testing.T) {
	d := NewDebouncer(time.Second)
	now := time.Unix(0, 0)

	if !d.Touch(now) {
		t.Fatal("first touch should be the leading edge")
	}
	// A burst of keystrokes well inside the quiet interval.
	for i := 0; i < 4; i++ {
		now = now.Add(100 * time.Millisecond)
		if d.Touch(now) {
			t.Errorf("touch %d fired the leading edge again", i+2)
		}
	}
}

func TestDebouncerTrailingEdge(t *testing.T) {
	d := NewDebouncer(time.Second)
	start := time.Unix(0, 0)
	d.Touch(start)

	if d.Expire(start.Add(999 * time.Millisecond)) {
		t.Error("expired before the quiet interval elapsed")
	}
	if !d.Expire(start.Add(time.Second)) {
		t.Error("did not expire at the deadline")
	}
	if d.Expire(start.Add(2 * time.Second)) {
		t.Error("expired twice")
	}
}

func TestDebouncerTouchPushesDeadline(t *testing.T) {
	d := NewDebouncer(time.Second)
	start := time.Unix(0, 0)
	d.Touch(start)
	d.Touch(start.Add(900 * time.Millisecond))

	// The first deadline has passed, but the second touch moved it.
	if d.Expire(start.Add(time.Second)) {
		t.Error("stale deadline fired after a later touch")
	}
	if !d.Expire(start.Add(1900 * time.Millisecond)) {
		t.Error("did not expire at the pushed deadline")
	}
}

func TestDebouncerCancel(t *testing.T) {
	d := NewDebouncer(time.Second)
	if d.Cancel() {
		t.Error("cancel on an idle debouncer reported armed")
	}

	now := time.Unix(0, 0)
	d.Touch(now)
	if !d.Cancel() {
		t.Error("cancel on an armed debouncer reported idle")
	}
	if d.Expire(now.Add(2 * time.Second)) {
		t.Error("expired after cancel")
	}
	// The next touch is a fresh leading edge.
	if !d.Touch(now.Add(3 * time.Second)) {
		t.Error("touch after cancel was not a leading edge")
	}
}
