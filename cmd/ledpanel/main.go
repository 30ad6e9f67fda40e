// cmd/ledpanel/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/physic"

	"github.com/tamzrod/modbus-ledpanel/internal/broadcast"
	"github.com/tamzrod/modbus-ledpanel/internal/config"
	"github.com/tamzrod/modbus-ledpanel/internal/hal"
	"github.com/tamzrod/modbus-ledpanel/internal/hal/periphhal"
	"github.com/tamzrod/modbus-ledpanel/internal/hal/simhal"
	"github.com/tamzrod/modbus-ledpanel/internal/panel"
	"github.com/tamzrod/modbus-ledpanel/internal/regmap"
	"github.com/tamzrod/modbus-ledpanel/internal/store"
	"github.com/tamzrod/modbus-ledpanel/internal/transport"
)

var (
	cfgPath = flag.String("config", "ledpanel.yaml", "path to the YAML configuration")
	sim     = flag.Bool("sim", false, "bench mode: in-memory board instead of GPIO")
	simHold = flag.Uint("sim_hold_ms", 0, "bench mode: simulated switch hold at boot")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		glog.Exitf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		glog.Exitf("config validation failed: %v", err)
	}
	config.Normalize(cfg)
	p := cfg.Panel

	// --------------------
	// Storage
	// --------------------

	med, err := store.OpenFile(p.Storage.Path, p.Storage.Size)
	if err != nil {
		glog.Exitf("storage open failed: %v", err)
	}
	defer med.Close()

	baud := p.Bus.BaudRate
	if baud == 0 {
		baud = persistedBaud(med)
	}

	// --------------------
	// Transport + peers
	// --------------------

	runner, queue, line, err := transport.Build(p.Bus, baud)
	if err != nil {
		glog.Exitf("transport build failed: %v", err)
	}
	defer runner.Close()

	var peers panel.Peers
	if p.Broadcast.Enabled {
		b, err := broadcast.New(line, broadcast.Config{PerSecond: p.Broadcast.PerSecond, Burst: p.Broadcast.Burst})
		if err != nil {
			glog.Exitf("broadcast: %v", err)
		}
		peers = b
	}

	// --------------------
	// Board
	// --------------------

	board, err := buildBoard(p)
	if err != nil {
		glog.Exitf("board: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := runner.Run(ctx); err != nil {
			glog.Errorf("transport stopped: %v", err)
			stop()
		}
	}()

	glog.Infof("ledpanel starting (transport=%s baud=%d sim=%t)", p.Bus.Transport, baud, *sim)

	ctrl := panel.New(panel.BuildConfig(p), board, store.New(med), queue, peers)
	if err := ctrl.Run(ctx); err != nil && !errors.Is(err, panel.ErrReset) {
		glog.Exitf("panel: %v", err)
	}
	glog.Info("ledpanel stopped")
}

// persistedBaud returns the committed bus rate, or the default when the
// record is erased or pending a reset.
func persistedBaud(m store.Medium) int {
	st := store.New(m)
	if err := st.Load(); err != nil {
		glog.Warningf("reading persisted baud: %v", err)
		return int(store.DefaultBaudRate)
	}
	c := st.Working()
	if c.FirstBoot || c.ResetExceptAddress || c.BaudRate == 0 || c.BaudRate > 115200 {
		return int(store.DefaultBaudRate)
	}
	return int(c.BaudRate)
}

func buildBoard(p config.PanelConfig) (panel.Board, error) {
	clock := hal.NewSystemClock()
	b := panel.Board{
		Clock:    clock,
		Sensor:   periphhal.Thermal{Path: p.Sensor.ThermalPath},
		Resetter: execResetter{},
	}

	if *sim {
		sl := simhal.NewLatch(clock)
		sl.ReleaseAfter = 50
		b.Outputs = simhal.NewOutputs(regmap.Channels)
		b.Switch = simhal.NewHeldSwitch(clock, uint32(*simHold))
		b.Sense = sl
		b.Actuator = sl
		return b, nil
	}

	pins := make([][3]string, len(p.GPIO.Channels))
	for i, ch := range p.GPIO.Channels {
		pins[i] = [3]string{ch.Red, ch.Green, ch.Blue}
	}
	hw, err := periphhal.Open(periphhal.Config{
		StatusLED:       p.GPIO.StatusLED,
		Switch:          p.GPIO.Switch,
		Sense:           p.GPIO.Sense,
		Actuator:        p.GPIO.Actuator,
		Channels:        pins,
		SwitchActiveLow: p.GPIO.SwitchActiveLow,
		SenseActiveLow:  p.GPIO.SenseActiveLow,
		PWM:             physic.Frequency(p.GPIO.PWMHz) * physic.Hertz,
	})
	if err != nil {
		return b, err
	}
	b.Outputs = hw
	b.Switch = hw
	b.Sense = hw
	b.Actuator = hw
	return b, nil
}
