// internal/latch/latch.go
package latch

import (
	"github.com/golang/glog"

	"github.com/tamzrod/modbus-ledpanel/internal/hal"
)

// Config bounds the actuator duty cycle.
type Config struct {
	MaxPulseMs    uint32 // hardware ceiling on one pulse
	MinIntervalMs uint32 // minimum time between successful unlocks
	DebounceMs    uint32
	PollMs        uint32
}

// DefaultConfig suits the stock 12V solenoid.
var DefaultConfig = Config{
	MaxPulseMs:    1000,
	MinIntervalMs: 5000,
	DebounceMs:    20,
	PollMs:        10,
}

// Result is the outcome of the last unlock request, as exposed on the bus.
type Result uint16

const (
	ResultNone Result = iota
	ResultOK
	ResultRejected
)

// Controller drives the latch actuator under its rate and width limits.
type Controller struct {
	cfg   Config
	clock hal.Clock
	sense hal.Sense
	act   hal.Actuator

	locked      bool
	hasUnlocked bool
	lastUnlock  uint32
	last        Result
}

// New returns a controller. The latch is assumed locked until sampled.
func New(cfg Config, clock hal.Clock, sense hal.Sense, act hal.Actuator) *Controller {
	if cfg.PollMs == 0 {
		cfg.PollMs = DefaultConfig.PollMs
	}
	return &Controller{
		cfg:    cfg,
		clock:  clock,
		sense:  sense,
		act:    act,
		locked: true,
	}
}

// IsLocked samples the sense input twice, debounceMs apart.
// The reported state only changes when both samples agree.
func (c *Controller) IsLocked(debounceMs uint32) bool {
	a := c.sense.Locked()
	c.clock.Sleep(debounceMs)
	b := c.sense.Locked()
	if a == b {
		c.locked = a
	}
	return c.locked
}

// Locked returns the last debounced state without sampling.
func (c *Controller) Locked() bool { return c.locked }

// LastResult returns the outcome of the most recent Unlock call.
func (c *Controller) LastResult() Result { return c.last }

// Unlock pulses the actuator for at most requestedMs, clamped to MaxPulseMs.
// It returns false without side effects when the latch already reads
// unlocked or the previous successful unlock is more recent than
// MinIntervalMs. The pulse ends early once the sense input clears.
func (c *Controller) Unlock(requestedMs uint32) bool {
	d := requestedMs
	if d > c.cfg.MaxPulseMs {
		d = c.cfg.MaxPulseMs
	}

	if c.hasUnlocked && c.clock.Millis()-c.lastUnlock < c.cfg.MinIntervalMs {
		glog.Warningf("[latch] unlock rejected: %dms since last unlock (min %dms)",
			c.clock.Millis()-c.lastUnlock, c.cfg.MinIntervalMs)
		c.last = ResultRejected
		return false
	}
	if !c.IsLocked(c.cfg.DebounceMs) {
		glog.Warningf("[latch] unlock rejected: already unlocked")
		c.last = ResultRejected
		return false
	}

	c.drive(true)
	start := c.clock.Millis()
	for {
		if !c.sense.Locked() {
			break
		}
		elapsed := c.clock.Millis() - start
		if elapsed >= d {
			break
		}
		step := c.cfg.PollMs
		if rem := d - elapsed; rem < step {
			step = rem
		}
		c.clock.Sleep(step)
	}
	c.drive(false)

	c.lastUnlock = c.clock.Millis()
	c.hasUnlocked = true
	c.last = ResultOK
	glog.Infof("[latch] unlocked (pulse %dms of %dms)", c.lastUnlock-start, d)
	return true
}

func (c *Controller) drive(active bool) {
	if err := c.act.Set(active); err != nil {
		glog.Errorf("[latch] actuator: %v", err)
	}
}
