// Package simhal is an in-memory board used by tests and by the bench (-sim) mode.
// Time only moves when Sleep or Advance is called, which keeps every timing
// contract deterministic.
package simhal

import (
	"sync"

	"github.com/tamzrod/modbus-ledpanel/internal/hal"
)

// ---- clock ----

// Clock is a manual millisecond clock.
type Clock struct {
	mu  sync.Mutex
	now uint32
}

// NewClock returns a clock starting at start (use values near 2^32 to test wraparound).
func NewClock(start uint32) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Millis() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Sleep advances the clock; it never blocks.
func (c *Clock) Sleep(ms uint32) {
	c.Advance(ms)
}

// Advance moves the clock forward by ms, wrapping at 2^32.
func (c *Clock) Advance(ms uint32) {
	c.mu.Lock()
	c.now += ms
	c.mu.Unlock()
}

// ---- outputs ----

// Outputs records the last colour per channel and every status LED write.
type Outputs struct {
	mu        sync.Mutex
	Channels  []hal.Color
	Writes    int
	StatusLED bool
	Toggles   int
}

// NewOutputs returns a recorder for n channels.
func NewOutputs(n int) *Outputs {
	return &Outputs{Channels: make([]hal.Color, n)}
}

func (o *Outputs) SetChannel(ch int, c hal.Color) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if ch >= 0 && ch < len(o.Channels) {
		o.Channels[ch] = c
	}
	o.Writes++
	return nil
}

func (o *Outputs) SetStatusLED(on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if on != o.StatusLED {
		o.Toggles++
	}
	o.StatusLED = on
	return nil
}

// Lit reports whether channel ch currently shows a non-off colour.
func (o *Outputs) Lit(ch int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Channels[ch] != hal.Off
}

// ---- switch ----

// HeldSwitch is pressed from the moment of creation until the clock has
// advanced by Hold milliseconds.
type HeldSwitch struct {
	Clock hal.Clock
	Hold  uint32
	start uint32
}

// NewHeldSwitch starts the press at the current clock value.
func NewHeldSwitch(c hal.Clock, holdMs uint32) *HeldSwitch {
	return &HeldSwitch{Clock: c, Hold: holdMs, start: c.Millis()}
}

func (s *HeldSwitch) Pressed() bool {
	return s.Clock.Millis()-s.start < s.Hold
}

// ---- latch ----

// Latch models the actuator and its sense input.
// While the actuator is active and ReleaseAfter elapses, the sense clears.
// ReleaseAfter == 0 means the mechanism never reports release.
type Latch struct {
	mu           sync.Mutex
	Clock        hal.Clock
	IsLocked     bool
	ReleaseAfter uint32

	Active     bool
	Pulses     int
	activeAt   uint32
	LastPulse  uint32
	NoiseQueue []bool // consumed by Locked before the real state
}

// NewLatch returns a locked latch.
func NewLatch(c hal.Clock) *Latch {
	return &Latch{Clock: c, IsLocked: true}
}

func (l *Latch) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.NoiseQueue) > 0 {
		v := l.NoiseQueue[0]
		l.NoiseQueue = l.NoiseQueue[1:]
		return v
	}
	if l.Active && l.ReleaseAfter > 0 && l.Clock.Millis()-l.activeAt >= l.ReleaseAfter {
		l.IsLocked = false
	}
	return l.IsLocked
}

func (l *Latch) Set(active bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.Clock.Millis()
	if active && !l.Active {
		l.Pulses++
		l.activeAt = now
	}
	if !active && l.Active {
		l.LastPulse = now - l.activeAt
	}
	l.Active = active
	return nil
}

// Relock puts the mechanism back into the locked state.
func (l *Latch) Relock() {
	l.mu.Lock()
	l.IsLocked = true
	l.mu.Unlock()
}

// ---- sensor ----

// Sensor returns a fixed temperature.
type Sensor struct {
	Celsius float64
	Err     error
}

func (s *Sensor) Temperature() (float64, error) {
	return s.Celsius, s.Err
}

// ---- resetter ----

// Resetter records reset requests instead of restarting.
type Resetter struct {
	mu      sync.Mutex
	Count   int
	Reasons []string
}

func (r *Resetter) Reset(reason string) {
	r.mu.Lock()
	r.Count++
	r.Reasons = append(r.Reasons, reason)
	r.mu.Unlock()
}

var (
	_ hal.Clock    = (*Clock)(nil)
	_ hal.Outputs  = (*Outputs)(nil)
	_ hal.Switch   = (*HeldSwitch)(nil)
	_ hal.Sense    = (*Latch)(nil)
	_ hal.Actuator = (*Latch)(nil)
	_ hal.Sensor   = (*Sensor)(nil)
	_ hal.Resetter = (*Resetter)(nil)
)
