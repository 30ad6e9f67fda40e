package sched

import "github.com/tamzrod/modbus-ledpanel/internal/hal"

// Routine identifies one of the fixed periodic routines.
type Routine int

const (
	StatusBlink Routine = iota
	DemoBlink
	IdentifyBlink
	SensorSample

	routineCount
)

func (r Routine) String() string {
	switch r {
	case StatusBlink:
		return "status-blink"
	case DemoBlink:
		return "demo-blink"
	case IdentifyBlink:
		return "identify-blink"
	case SensorSample:
		return "sensor-sample"
	default:
		return "unknown"
	}
}

// Periods holds the period of each routine in milliseconds.
type Periods struct {
	StatusBlink   uint32
	DemoBlink     uint32
	IdentifyBlink uint32
	SensorSample  uint32
}

// DefaultPeriods are the stock blink and sampling periods.
var DefaultPeriods = Periods{
	StatusBlink:   500,
	DemoBlink:     300,
	IdentifyBlink: 100,
	SensorSample:  2000,
}

// Routines drives the independent periodic timers from one clock.
// Each routine keeps its own last-fired timestamp.
type Routines struct {
	clock  hal.Clock
	timers [routineCount]*Timer
	fns    [routineCount]func(now uint32)
}

// NewRoutines creates the timers with their first period starting now.
func NewRoutines(clock hal.Clock, p Periods) *Routines {
	now := clock.Millis()
	r := &Routines{clock: clock}
	r.timers[StatusBlink] = NewTimer(p.StatusBlink, now)
	r.timers[DemoBlink] = NewTimer(p.DemoBlink, now)
	r.timers[IdentifyBlink] = NewTimer(p.IdentifyBlink, now)
	r.timers[SensorSample] = NewTimer(p.SensorSample, now)
	return r
}

// On registers fn for routine id. A routine without a function never fires.
func (r *Routines) On(id Routine, fn func(now uint32)) {
	r.fns[id] = fn
}

// Tick runs every routine whose period has elapsed. It never blocks.
func (r *Routines) Tick() {
	now := r.clock.Millis()
	for id, t := range r.timers {
		if r.fns[id] == nil {
			continue
		}
		if t.Due(now) {
			r.fns[id](now)
		}
	}
}
