// internal/hal/hal.go
package hal

import (
	"errors"
	"time"
)

// Collaborator contracts consumed by the control core.
// Implementations live in hal/periphhal (hardware) and hal/simhal (tests, bench).

// Clock is a monotonic millisecond source.
// Millis wraps at 2^32; callers MUST compute elapsed time with unsigned subtraction.
type Clock interface {
	Millis() uint32
	Sleep(ms uint32)
}

// Color is one RGB output value.
type Color struct {
	R, G, B uint8
}

// Off is the colour driven into a channel that is not lit.
var Off = Color{}

// Outputs drives the indicator channels and the status LED.
type Outputs interface {
	SetChannel(ch int, c Color) error
	SetStatusLED(on bool) error
}

// Switch is the momentary function switch sampled at boot.
type Switch interface {
	Pressed() bool
}

// Sense reports the raw (undebounced) latch sense input.
type Sense interface {
	Locked() bool
}

// Actuator is the solenoid/MOSFET output that releases the latch.
type Actuator interface {
	Set(active bool) error
}

// Sensor provides telemetry values exposed in the status group.
type Sensor interface {
	Temperature() (float64, error)
}

// Resetter restarts the device.
// On hardware it does not return; test and bench implementations record the call.
type Resetter interface {
	Reset(reason string)
}

// ErrNoSensor is returned by boards without a temperature source.
var ErrNoSensor = errors.New("hal: no sensor")

// ---- system clock ----

// SystemClock is a Clock backed by the Go runtime monotonic clock.
type SystemClock struct {
	start time.Time
}

// NewSystemClock returns a clock whose epoch is the moment of the call.
func NewSystemClock() *SystemClock {
	return &SystemClock{start: time.Now()}
}

func (c *SystemClock) Millis() uint32 {
	return uint32(time.Since(c.start).Milliseconds())
}

func (c *SystemClock) Sleep(ms uint32) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}
