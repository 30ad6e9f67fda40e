// internal/channel/tracker.go
package channel

import (
	"github.com/golang/glog"

	"github.com/tamzrod/modbus-ledpanel/internal/hal"
	"github.com/tamzrod/modbus-ledpanel/internal/store"
	"github.com/tamzrod/modbus-ledpanel/internal/xmath"
)

// State is the live accounting of one output channel.
// The on-timer runs iff the channel is on.
type State struct {
	On      bool
	Count   uint32
	Seconds float64 // accumulated on-time

	running bool
	start   uint32
	color   hal.Color
}

// Tracker enforces the max-on-time policy and keeps usage statistics,
// independent of what the bus master does.
type Tracker struct {
	clock  hal.Clock
	out    hal.Outputs
	states []State
}

// New returns a tracker for n channels, all off.
func New(n int, clock hal.Clock, out hal.Outputs) *Tracker {
	return &Tracker{
		clock:  clock,
		out:    out,
		states: make([]State, n),
	}
}

// Len returns the number of channels.
func (t *Tracker) Len() int { return len(t.states) }

// State returns a copy of channel i.
func (t *Tracker) State(i int) State { return t.states[i] }

// Set applies an observed enable state for channel i, lighting it with c.
// Redundant writes of the current state are no-ops.
// It reports whether a transition happened.
func (t *Tracker) Set(i int, on bool, c hal.Color) bool {
	st := &t.states[i]
	if st.On == on {
		return false
	}

	now := t.clock.Millis()
	if on {
		t.drive(i, c)
		st.color = c
		st.On = true
		st.Count++
		st.running = true
		st.start = now
		glog.V(2).Infof("[channel] L%d on (count=%d)", i+1, st.Count)
		return true
	}

	t.drive(i, hal.Off)
	st.On = false
	t.fold(st, now)
	glog.V(2).Infof("[channel] L%d off (on-time=%.1fs)", i+1, st.Seconds)
	return true
}

// Refresh re-drives a lit channel when its colour changed.
// Off channels and unchanged colours are left alone.
func (t *Tracker) Refresh(i int, c hal.Color) {
	st := &t.states[i]
	if !st.On || st.color == c {
		return
	}
	t.drive(i, c)
	st.color = c
}

// Enforce forces off every channel that has been on longer than
// limit(i) seconds. A limit of 0 disables the check for that channel.
// It returns the channels that were cut off.
func (t *Tracker) Enforce(limit func(i int) uint16) []int {
	now := t.clock.Millis()

	var cut []int
	for i := range t.states {
		st := &t.states[i]
		if !st.running {
			continue
		}
		secs := limit(i)
		if secs == 0 {
			continue
		}
		if now-st.start <= uint32(secs)*1000 {
			continue
		}

		glog.Warningf("[channel] L%d max on-time (%ds) exceeded, turning off", i+1, secs)
		t.drive(i, hal.Off)
		st.On = false
		t.fold(st, now)
		cut = append(cut, i)
	}
	return cut
}

// Stats returns the wire view of channel i: activation count and whole
// seconds of on-time, both saturated at 65535.
func (t *Tracker) Stats(i int) (count, seconds uint16) {
	st := t.states[i]
	return xmath.Sat16(st.Count), xmath.Sat16(uint64(st.Seconds))
}

// Totals returns the aggregate wire view across channels, saturated at 65535.
func (t *Tracker) Totals() (count, seconds uint16) {
	var n uint64
	var s float64
	for _, st := range t.states {
		n += uint64(st.Count)
		s += st.Seconds
	}
	return xmath.Sat16(n), xmath.Sat16(uint64(s))
}

// Render computes the output colour of a channel: each component scaled by brightness/100.
func Render(c store.ChannelConfig) hal.Color {
	b := uint32(xmath.Clamp(c.Brightness, 0, 100))
	return hal.Color{
		R: uint8(uint32(c.Red) * b / 100),
		G: uint8(uint32(c.Green) * b / 100),
		B: uint8(uint32(c.Blue) * b / 100),
	}
}

func (t *Tracker) fold(st *State, now uint32) {
	if !st.running {
		return
	}
	st.Seconds += float64(now-st.start) / 1000.0
	st.running = false
	st.start = 0
}

func (t *Tracker) drive(i int, c hal.Color) {
	if err := t.out.SetChannel(i, c); err != nil {
		glog.Errorf("[channel] L%d output failed: %v", i+1, err)
	}
}
