// internal/panel/panel.go
package panel

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/glog"

	"github.com/tamzrod/modbus-ledpanel/internal/bridge"
	"github.com/tamzrod/modbus-ledpanel/internal/channel"
	"github.com/tamzrod/modbus-ledpanel/internal/hal"
	"github.com/tamzrod/modbus-ledpanel/internal/latch"
	mb "github.com/tamzrod/modbus-ledpanel/internal/modbus"
	"github.com/tamzrod/modbus-ledpanel/internal/mode"
	"github.com/tamzrod/modbus-ledpanel/internal/regmap"
	"github.com/tamzrod/modbus-ledpanel/internal/sched"
	"github.com/tamzrod/modbus-ledpanel/internal/store"
	"github.com/tamzrod/modbus-ledpanel/internal/transport"
)

// ErrReset is returned by Boot, Step and Run after the device reset
// collaborator has been invoked.
var ErrReset = errors.New("panel: device reset")

// Board groups the hardware collaborators.
type Board struct {
	Clock    hal.Clock
	Outputs  hal.Outputs
	Switch   hal.Switch
	Sense    hal.Sense
	Actuator hal.Actuator
	Sensor   hal.Sensor
	Resetter hal.Resetter
}

// Peers receives channel states broadcast to other devices on the bus.
type Peers interface {
	Channels(ctx context.Context, states []bool) error
}

// Config is the runtime configuration of the controller.
type Config struct {
	Classifier mode.Config
	Latch      latch.Config
	Periods    sched.Periods
	PulseMs    uint32 // unlock pulse requested by the latch trigger coil
	LoopMs     uint32 // idle sleep between steps in Run
}

// DefaultConfig is the stock panel profile.
var DefaultConfig = Config{
	Classifier: mode.DefaultConfig,
	Latch:      latch.DefaultConfig,
	Periods:    sched.DefaultPeriods,
	PulseMs:    latch.DefaultConfig.MaxPulseMs,
	LoopMs:     2,
}

// Controller owns every piece of engine state. It is driven by a single
// goroutine; transports only hand it requests.
type Controller struct {
	cfg    Config
	board  Board
	store  *store.Store
	source transport.Source
	peers  Peers

	mode    mode.Mode
	address uint8

	bank     *regmap.Bank
	tracker  *channel.Tracker
	latch    *latch.Controller
	bridge   *bridge.Bridge
	routines *sched.Routines

	statusOn bool
	demoStep int
}

// New returns a controller. peers may be nil.
func New(cfg Config, board Board, st *store.Store, src transport.Source, peers Peers) *Controller {
	return &Controller{
		cfg:    cfg,
		board:  board,
		store:  st,
		source: src,
		peers:  peers,
	}
}

// Mode returns the classification made at boot.
func (c *Controller) Mode() mode.Mode { return c.mode }

// Address returns the unit id the bridge answers on.
func (c *Controller) Address() uint8 { return c.address }

// Bank exposes the register bank (bench inspection and tests).
func (c *Controller) Bank() *regmap.Bank { return c.bank }

// Boot loads the configuration, resolves a pending factory reset,
// classifies the operating mode and arms the bridge.
func (c *Controller) Boot() error {
	if err := regmap.Validate(); err != nil {
		return err
	}
	if bands := c.cfg.Classifier.Bands; len(bands) > 0 {
		if err := mode.ValidateBands(bands); err != nil {
			return err
		}
	}
	if err := c.store.Load(); err != nil {
		return fmt.Errorf("panel: boot: %w", err)
	}

	resolved, err := c.store.ResolveFirstBoot()
	if err != nil {
		return fmt.Errorf("panel: boot: %w", err)
	}
	if resolved {
		return c.reset("defaults applied")
	}

	res := mode.NewClassifier(c.cfg.Classifier, c.board.Clock, c.board.Switch, c.board.Outputs).Run()
	c.mode = res.Mode
	glog.Infof("[panel] mode %s (held %dms, timed out %t)", res.Mode, res.HeldMs, res.TimedOut)

	if c.mode == mode.FactoryReset {
		if err := c.store.RequestReset(false); err != nil {
			glog.Errorf("[panel] factory reset: %v", err)
		}
		return c.reset("factory reset by switch")
	}

	c.address = c.store.Working().BusAddress
	if c.mode == mode.SetID {
		c.address = store.AddressUnassigned
	}

	c.bank = regmap.NewBank()
	c.tracker = channel.New(regmap.Channels, c.board.Clock, c.board.Outputs)
	c.latch = latch.New(c.cfg.Latch, c.board.Clock, c.board.Sense, c.board.Actuator)
	c.bridge = bridge.New(
		bridge.Config{Mode: c.mode, PulseMs: c.cfg.PulseMs},
		c.bank,
		c.store,
		c.tracker,
		c.latch,
		c.board.Clock,
	)
	c.bridge.MapConfigToRegisters()

	c.latch.IsLocked(c.cfg.Latch.DebounceMs)
	c.bridge.UpdateStatus()

	c.routines = sched.NewRoutines(c.board.Clock, c.cfg.Periods)
	c.bindRoutines()

	glog.Infof("[panel] armed on address %d", c.address)
	return nil
}

// Step runs one iteration of the cooperative loop: periodic routines,
// at most one bus request, peer broadcast, then the bridge tick.
func (c *Controller) Step(ctx context.Context) error {
	c.routines.Tick()

	if req, ok := c.source.Poll(); ok {
		if err := c.serve(req); err != nil {
			return err
		}
	}

	if states, ok := c.bridge.TakeBroadcast(); ok {
		c.broadcast(ctx, states)
	}

	c.bridge.Tick()
	return nil
}

// Run boots and steps until ctx is done or the device resets.
func (c *Controller) Run(ctx context.Context) error {
	if err := c.Boot(); err != nil {
		return err
	}
	for ctx.Err() == nil {
		if err := c.Step(ctx); err != nil {
			return err
		}
		c.board.Clock.Sleep(c.cfg.LoopMs)
	}
	return nil
}

// serve answers one request. Only the armed address is answered;
// broadcast writes are applied silently.
func (c *Controller) serve(req transport.Request) error {
	switch {
	case req.UnitID == c.address:
	case req.UnitID == 0 && mb.IsWrite(req.PDU.FunctionCode):
	default:
		glog.V(2).Infof("[panel] ignoring unit %d fc=%d", req.UnitID, req.PDU.FunctionCode)
		return nil
	}

	resp, err := c.bridge.Handle(req.PDU)
	if req.UnitID != 0 {
		if rerr := req.Reply(resp); rerr != nil {
			glog.Errorf("[panel] reply: %v", rerr)
		}
	}

	if errors.Is(err, bridge.ErrReset) {
		return c.reset(err.Error())
	}
	return err
}

func (c *Controller) broadcast(ctx context.Context, states []bool) {
	if c.peers == nil {
		glog.Warningf("[panel] broadcast requested but no peer line configured")
		return
	}
	if err := c.peers.Channels(ctx, states); err != nil {
		glog.Errorf("[panel] broadcast: %v", err)
	}
}

func (c *Controller) reset(reason string) error {
	glog.Infof("[panel] reset: %s", reason)
	c.board.Resetter.Reset(reason)
	return ErrReset
}
