// internal/config/validate.go
package config

import (
	"fmt"

	"github.com/tamzrod/modbus-ledpanel/internal/regmap"
	"github.com/tamzrod/modbus-ledpanel/internal/store"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values are legal wherever Normalize supplies a default.
func Validate(cfg *Config) error {
	p := cfg.Panel

	// ------------------------------------------------------------
	// BUS
	// ------------------------------------------------------------

	switch p.Bus.Transport {
	case TransportRTU:
		if p.Bus.Port == "" {
			return fmt.Errorf("bus: transport %q requires port", p.Bus.Transport)
		}
	case TransportTCP:
		if p.Bus.Listen == "" {
			return fmt.Errorf("bus: transport %q requires listen", p.Bus.Transport)
		}
	default:
		return fmt.Errorf("bus: unknown transport %q", p.Bus.Transport)
	}

	switch p.Bus.Parity {
	case "", "N", "E", "O":
	default:
		return fmt.Errorf("bus: parity must be N, E or O, got %q", p.Bus.Parity)
	}
	if p.Bus.DataBits != 0 && p.Bus.DataBits != 7 && p.Bus.DataBits != 8 {
		return fmt.Errorf("bus: data_bits must be 7 or 8, got %d", p.Bus.DataBits)
	}
	if p.Bus.StopBits != 0 && p.Bus.StopBits != 1 && p.Bus.StopBits != 2 {
		return fmt.Errorf("bus: stop_bits must be 1 or 2, got %d", p.Bus.StopBits)
	}
	if p.Bus.BaudRate < 0 || p.Bus.TimeoutMs < 0 || p.Bus.QueueDepth < 0 {
		return fmt.Errorf("bus: negative value")
	}

	// ------------------------------------------------------------
	// STORAGE
	// ------------------------------------------------------------

	if p.Storage.Path == "" {
		return fmt.Errorf("storage: path required")
	}
	if p.Storage.Size != 0 && p.Storage.Size < store.RecordSize {
		return fmt.Errorf("storage: size %d smaller than record (%d)", p.Storage.Size, store.RecordSize)
	}

	// ------------------------------------------------------------
	// GPIO PIN OWNERSHIP
	// ------------------------------------------------------------

	if n := len(p.GPIO.Channels); n != 0 && n != regmap.Channels {
		return fmt.Errorf("gpio: %d channels configured, want %d", n, regmap.Channels)
	}

	// key = pin name
	pinOwner := make(map[string]string)
	claim := func(pin, owner string) error {
		if pin == "" {
			return nil
		}
		if prev, exists := pinOwner[pin]; exists {
			return fmt.Errorf("gpio: pin %s used by %s and %s", pin, prev, owner)
		}
		pinOwner[pin] = owner
		return nil
	}

	fixed := []struct{ pin, owner string }{
		{p.GPIO.StatusLED, "status_led"},
		{p.GPIO.Switch, "switch"},
		{p.GPIO.Sense, "sense"},
		{p.GPIO.Actuator, "actuator"},
	}
	for _, f := range fixed {
		if err := claim(f.pin, f.owner); err != nil {
			return err
		}
	}
	for i, ch := range p.GPIO.Channels {
		for _, c := range []struct{ pin, comp string }{{ch.Red, "red"}, {ch.Green, "green"}, {ch.Blue, "blue"}} {
			if c.pin == "" {
				return fmt.Errorf("gpio: channel %d %s pin required", i+1, c.comp)
			}
			if err := claim(c.pin, fmt.Sprintf("channel %d %s", i+1, c.comp)); err != nil {
				return err
			}
		}
	}
	if p.GPIO.PWMHz < 0 {
		return fmt.Errorf("gpio: pwm_hz must be positive")
	}

	// ------------------------------------------------------------
	// LATCH
	// ------------------------------------------------------------

	if p.Latch.MaxPulseMs != 0 && p.Latch.PulseMs > p.Latch.MaxPulseMs {
		return fmt.Errorf("latch: pulse_ms %d exceeds max_pulse_ms %d", p.Latch.PulseMs, p.Latch.MaxPulseMs)
	}

	// ------------------------------------------------------------
	// BROADCAST
	// ------------------------------------------------------------

	if p.Broadcast.Enabled && p.Bus.Transport != TransportRTU {
		return fmt.Errorf("broadcast: requires transport %q", TransportRTU)
	}
	if p.Broadcast.PerSecond < 0 || p.Broadcast.Burst < 0 {
		return fmt.Errorf("broadcast: negative rate")
	}

	return nil
}
