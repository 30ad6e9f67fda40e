// internal/bridge/bridge.go
package bridge

import (
	"errors"
	"fmt"

	"github.com/goburrow/modbus"
	"github.com/golang/glog"

	"github.com/tamzrod/modbus-ledpanel/internal/channel"
	"github.com/tamzrod/modbus-ledpanel/internal/hal"
	"github.com/tamzrod/modbus-ledpanel/internal/latch"
	mb "github.com/tamzrod/modbus-ledpanel/internal/modbus"
	"github.com/tamzrod/modbus-ledpanel/internal/mode"
	"github.com/tamzrod/modbus-ledpanel/internal/regmap"
	"github.com/tamzrod/modbus-ledpanel/internal/store"
)

// ErrReset is returned when serviced state requires a device restart.
// The error text carries the reason; the loop owner performs the reset
// after answering the master.
var ErrReset = errors.New("bridge: device reset requested")

// Config is the runtime configuration of the bridge.
type Config struct {
	Mode    mode.Mode
	PulseMs uint32 // requested unlock pulse, clamped by the latch
}

// Bridge binds the register bank to the store, tracker and latch.
// It has a single owner: the control loop.
type Bridge struct {
	cfg     Config
	bank    *regmap.Bank
	store   *store.Store
	tracker *channel.Tracker
	latch   *latch.Controller
	clock   hal.Clock

	// Last values fanned out by the broadcast setters.
	lastBrightness uint16
	lastMaxOnTime  uint16

	unlockArmed    bool
	unlockDeadline uint32

	broadcastPending bool
	temperature      float64
}

// New returns an unarmed bridge. Call MapConfigToRegisters before serving.
func New(
	cfg Config,
	bank *regmap.Bank,
	st *store.Store,
	tr *channel.Tracker,
	lc *latch.Controller,
	clock hal.Clock,
) *Bridge {
	return &Bridge{
		cfg:     cfg,
		bank:    bank,
		store:   st,
		tracker: tr,
		latch:   lc,
		clock:   clock,
	}
}

// Bank returns the register bank served to the master.
func (b *Bridge) Bank() *regmap.Bank { return b.bank }

// Handle applies one request PDU and services its side effects.
// It returns ErrReset when the request triggered a restart.
func (b *Bridge) Handle(req modbus.ProtocolDataUnit) (modbus.ProtocolDataUnit, error) {
	resp := mb.Serve(b.bank, req)
	if resp.FunctionCode&0x80 != 0 || !mb.IsWrite(req.FunctionCode) {
		return resp, nil
	}
	return resp, b.Service()
}

// Service reacts to the current register and coil contents:
// broadcast setters, control coils, then channel enable levels.
func (b *Bridge) Service() error {
	b.fanOut()

	if err := b.serviceCoils(); err != nil {
		return err
	}

	b.serviceChannels()
	return nil
}

// SetTemperature records the latest sensor reading for the status group.
func (b *Bridge) SetTemperature(c float64) {
	b.temperature = c
}

// TakeBroadcast returns the channel enable levels requested for
// broadcast to peers, at most once per request.
func (b *Bridge) TakeBroadcast() ([]bool, bool) {
	if !b.broadcastPending {
		return nil, false
	}
	b.broadcastPending = false

	out := make([]bool, b.tracker.Len())
	for i := range out {
		out[i] = b.bank.Coil(regmap.ChannelCoil(i))
	}
	return out, true
}

func (b *Bridge) reset(reason string) error {
	glog.Warningf("[bridge] device reset: %s", reason)
	return fmt.Errorf("%w: %s", ErrReset, reason)
}
