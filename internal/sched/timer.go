// internal/sched/timer.go
package sched

// Timer is a cooperative "has this period elapsed" check.
// Elapsed time is computed with unsigned subtraction, which stays correct
// across a 32-bit clock wrap.
type Timer struct {
	Period uint32
	last   uint32
}

// NewTimer returns a timer whose first period starts at now.
func NewTimer(period, now uint32) *Timer {
	return &Timer{Period: period, last: now}
}

// Due reports whether a period has elapsed since the last firing and, if
// so, records now as the new reference. Calls between firings are no-ops.
func (t *Timer) Due(now uint32) bool {
	if now-t.last < t.Period {
		return false
	}
	t.last = now
	return true
}

// Reset restarts the period at now.
func (t *Timer) Reset(now uint32) {
	t.last = now
}
