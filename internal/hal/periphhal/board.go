// internal/hal/periphhal/board.go
package periphhal

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/tamzrod/modbus-ledpanel/internal/hal"
)

// Config names the pins of one board (BCM names, e.g. "GPIO17").
// An empty name leaves that collaborator unwired.
type Config struct {
	StatusLED string
	Switch    string
	Sense     string
	Actuator  string
	Channels  [][3]string // r, g, b per channel

	SwitchActiveLow bool
	SenseActiveLow  bool
	PWM             physic.Frequency
}

// Board drives indicator channels with PWM and samples the switch and
// latch sense through periph.io.
type Board struct {
	cfg      Config
	status   gpio.PinIO
	sw       gpio.PinIO
	sense    gpio.PinIO
	actuator gpio.PinIO
	channels [][3]gpio.PinIO
}

// Open initialises the host drivers and claims every configured pin.
func Open(cfg Config) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio: host init failed: %w", err)
	}
	if cfg.PWM == 0 {
		cfg.PWM = physic.KiloHertz
	}

	b := &Board{cfg: cfg}
	var err error

	if b.status, err = output(cfg.StatusLED); err != nil {
		return nil, err
	}
	if b.actuator, err = output(cfg.Actuator); err != nil {
		return nil, err
	}
	if b.sw, err = input(cfg.Switch); err != nil {
		return nil, err
	}
	if b.sense, err = input(cfg.Sense); err != nil {
		return nil, err
	}

	b.channels = make([][3]gpio.PinIO, len(cfg.Channels))
	for i, names := range cfg.Channels {
		for k, name := range names {
			if b.channels[i][k], err = output(name); err != nil {
				return nil, fmt.Errorf("channel %d: %w", i+1, err)
			}
		}
	}
	return b, nil
}

// ---- hal.Outputs ----

func (b *Board) SetChannel(ch int, c hal.Color) error {
	if ch < 0 || ch >= len(b.channels) {
		return nil
	}
	for k, v := range [3]uint8{c.R, c.G, c.B} {
		if err := b.drive(b.channels[ch][k], v); err != nil {
			return fmt.Errorf("gpio: channel %d: %w", ch+1, err)
		}
	}
	return nil
}

func (b *Board) SetStatusLED(on bool) error {
	if b.status == nil {
		return nil
	}
	return b.status.Out(gpio.Level(on))
}

// ---- hal.Switch ----

func (b *Board) Pressed() bool {
	if b.sw == nil {
		return false
	}
	return bool(b.sw.Read()) != b.cfg.SwitchActiveLow
}

// ---- hal.Sense ----

func (b *Board) Locked() bool {
	if b.sense == nil {
		return true
	}
	return bool(b.sense.Read()) != b.cfg.SenseActiveLow
}

// ---- hal.Actuator ----

func (b *Board) Set(active bool) error {
	if b.actuator == nil {
		return nil
	}
	return b.actuator.Out(gpio.Level(active))
}

// drive sets one colour component: full off and full on are plain levels,
// anything between is PWM.
func (b *Board) drive(p gpio.PinIO, v uint8) error {
	switch {
	case p == nil:
		return nil
	case v == 0:
		return p.Out(gpio.Low)
	case v == 255:
		return p.Out(gpio.High)
	}
	duty := gpio.Duty(uint64(v) * uint64(gpio.DutyMax) / 255)
	return p.PWM(duty, b.cfg.PWM)
}

func output(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio: failed to open %s", name)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("gpio: %s as output: %w", name, err)
	}
	return p, nil
}

func input(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, nil
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("gpio: failed to open %s", name)
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("gpio: %s as input: %w", name, err)
	}
	return p, nil
}

var (
	_ hal.Outputs  = (*Board)(nil)
	_ hal.Switch   = (*Board)(nil)
	_ hal.Sense    = (*Board)(nil)
	_ hal.Actuator = (*Board)(nil)
)
