package mode

import (
	"github.com/golang/glog"

	"github.com/tamzrod/modbus-ledpanel/internal/hal"
	"github.com/tamzrod/modbus-ledpanel/internal/sched"
)

// Config holds the classifier timing.
type Config struct {
	PollMs    uint32
	MaxWaitMs uint32
	SettleMs  uint32
	Bands     []Band
}

// DefaultConfig polls every 20ms for at most 15s and settles for 200ms.
var DefaultConfig = Config{
	PollMs:    20,
	MaxWaitMs: 15000,
	SettleMs:  200,
	Bands:     DefaultBands,
}

// Result is the outcome of one classification.
type Result struct {
	Mode     Mode
	HeldMs   uint32
	TimedOut bool
}

// Classifier times the function switch once at start-up.
type Classifier struct {
	cfg   Config
	clock hal.Clock
	sw    hal.Switch
	led   hal.Outputs
}

// NewClassifier returns a classifier. led may be nil (no feedback).
func NewClassifier(cfg Config, clock hal.Clock, sw hal.Switch, led hal.Outputs) *Classifier {
	if cfg.PollMs == 0 {
		cfg.PollMs = DefaultConfig.PollMs
	}
	if len(cfg.Bands) == 0 {
		cfg.Bands = DefaultBands
	}
	return &Classifier{cfg: cfg, clock: clock, sw: sw, led: led}
}

// Run blocks while the switch is held, bounded by MaxWaitMs, and returns
// the classification. It is not cancellable.
func (c *Classifier) Run() Result {
	if !c.sw.Pressed() {
		return Result{Mode: Run}
	}

	start := c.clock.Millis()
	blink := sched.NewTimer(0, start)
	ledOn := true
	c.setLED(ledOn)

	var held uint32
	timedOut := false

	for {
		c.clock.Sleep(c.cfg.PollMs)
		now := c.clock.Millis()
		held = now - start

		if !c.sw.Pressed() {
			break
		}
		if held >= c.cfg.MaxWaitMs {
			timedOut = true
			break
		}

		// Feedback follows the band the press is in now, not the final result.
		b, ok := bandFor(c.cfg.Bands, held)
		switch {
		case !ok:
			if ledOn {
				ledOn = false
				c.setLED(false)
			}
		case b.BlinkMs == 0:
			if !ledOn {
				ledOn = true
				c.setLED(true)
			}
		default:
			blink.Period = b.BlinkMs
			if blink.Due(now) {
				ledOn = !ledOn
				c.setLED(ledOn)
			}
		}
	}

	c.setLED(false)
	c.clock.Sleep(c.cfg.SettleMs)

	res := Result{Mode: Run, HeldMs: held, TimedOut: timedOut}
	if !timedOut {
		res.Mode = Classify(c.cfg.Bands, held)
	}
	glog.Infof("[mode] switch held %dms -> %s (timed out=%t)", held, res.Mode, timedOut)
	return res
}

func (c *Classifier) setLED(on bool) {
	if c.led == nil {
		return
	}
	if err := c.led.SetStatusLED(on); err != nil {
		glog.Errorf("[mode] status LED: %v", err)
	}
}
