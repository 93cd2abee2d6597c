package tutor

import "time"

// Timer is the session countdown. It counts whole seconds and only moves
// when Tick is called; the owner schedules ticks. Timer is not safe for
// concurrent use.
type Timer struct {
	full      int
	remaining int
	running   bool
	expired   bool
}

// NewTimer creates a stopped timer holding the full duration.
func NewTimer(d time.Duration) *Timer {
	secs := int(d / time.Second)
	return &Timer{full: secs, remaining: secs}
}

// Start begins counting down from the current remaining time. It has no
// effect on an expired timer.
func (t *Timer) Start() {
	if t.expired {
		return
	}
	t.running = true
}

// Tick consumes one second. It reports whether another tick should be
// scheduled; false once the timer is stopped or has reached zero.
func (t *Timer) Tick() bool {
	if !t.running {
		return false
	}
	t.remaining--
	if t.remaining <= 0 {
		t.remaining = 0
		t.running = false
		t.expired = true
		return false
	}
	return true
}

// Acknowledge clears an expiry, refills the timer and resumes it.
func (t *Timer) Acknowledge() {
	t.remaining = t.full
	t.expired = false
	t.running = true
}

// Reset refills and stops the timer.
func (t *Timer) Reset() {
	t.remaining = t.full
	t.expired = false
	t.running = false
}

func (t *Timer) Remaining() time.Duration { return time.Duration(t.remaining) * time.Second }
func (t *Timer) Running() bool            { return t.running }
func (t *Timer) Expired() bool            { return t.expired }
