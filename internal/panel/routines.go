package panel

import (
	"errors"

	"github.com/golang/glog"

	"github.com/tamzrod/modbus-ledpanel/internal/channel"
	"github.com/tamzrod/modbus-ledpanel/internal/hal"
	"github.com/tamzrod/modbus-ledpanel/internal/mode"
	"github.com/tamzrod/modbus-ledpanel/internal/sched"
)

// bindRoutines registers the periodic work of the current mode.
func (c *Controller) bindRoutines() {
	switch c.mode {
	case mode.SetID:
		c.routines.On(sched.IdentifyBlink, c.toggleStatus)
	case mode.Demo:
		c.routines.On(sched.StatusBlink, c.toggleStatus)
		c.routines.On(sched.DemoBlink, c.demoCycle)
	default:
		c.routines.On(sched.StatusBlink, c.toggleStatus)
	}
	c.routines.On(sched.SensorSample, c.sample)
}

func (c *Controller) toggleStatus(uint32) {
	c.statusOn = !c.statusOn
	if err := c.board.Outputs.SetStatusLED(c.statusOn); err != nil {
		glog.Errorf("[panel] status led: %v", err)
	}
}

// demoCycle lights one channel at a time in its configured colour.
func (c *Controller) demoCycle(uint32) {
	n := c.tracker.Len()
	prev := (c.demoStep + n - 1) % n
	cfg := c.store.Working().Channels[c.demoStep]

	if err := c.board.Outputs.SetChannel(prev, hal.Off); err != nil {
		glog.Errorf("[panel] demo: %v", err)
	}
	if err := c.board.Outputs.SetChannel(c.demoStep, channel.Render(cfg)); err != nil {
		glog.Errorf("[panel] demo: %v", err)
	}
	c.demoStep = (c.demoStep + 1) % n
}

func (c *Controller) sample(uint32) {
	if c.board.Sensor != nil {
		t, err := c.board.Sensor.Temperature()
		switch {
		case err == nil:
			c.bridge.SetTemperature(t)
		case errors.Is(err, hal.ErrNoSensor):
		default:
			glog.Errorf("[panel] sensor: %v", err)
		}
	}
	c.latch.IsLocked(c.cfg.Latch.DebounceMs)
}
