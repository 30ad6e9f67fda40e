package panel

import (
	"context"
	"errors"
	"testing"

	"github.com/goburrow/modbus"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-ledpanel/internal/config"
	"github.com/tamzrod/modbus-ledpanel/internal/hal/simhal"
	"github.com/tamzrod/modbus-ledpanel/internal/mode"
	"github.com/tamzrod/modbus-ledpanel/internal/regmap"
	"github.com/tamzrod/modbus-ledpanel/internal/store"
	"github.com/tamzrod/modbus-ledpanel/internal/transport"
)

// ---- fakes ----

type recorder struct {
	resp []modbus.ProtocolDataUnit
}

type fakeSource struct {
	reqs []transport.Request
}

func (f *fakeSource) Poll() (transport.Request, bool) {
	if len(f.reqs) == 0 {
		return transport.Request{}, false
	}
	r := f.reqs[0]
	f.reqs = f.reqs[1:]
	return r, true
}

func (f *fakeSource) push(unit uint8, fc byte, data ...byte) *recorder {
	rec := &recorder{}
	f.reqs = append(f.reqs, transport.NewRequest(unit, modbus.ProtocolDataUnit{FunctionCode: fc, Data: data},
		func(p modbus.ProtocolDataUnit) error {
			rec.resp = append(rec.resp, p)
			return nil
		}))
	return rec
}

type fakePeers struct {
	sent [][]bool
}

func (f *fakePeers) Channels(_ context.Context, states []bool) error {
	f.sent = append(f.sent, states)
	return nil
}

// ---- rig ----

type rig struct {
	med   *store.MemMedium
	clk   *simhal.Clock
	out   *simhal.Outputs
	latch *simhal.Latch
	rst   *simhal.Resetter
	src   *fakeSource
	peers *fakePeers
}

func newRig() *rig {
	clk := simhal.NewClock(0)
	return &rig{
		med:   store.NewMemMedium(256),
		clk:   clk,
		out:   simhal.NewOutputs(regmap.Channels),
		latch: simhal.NewLatch(clk),
		rst:   &simhal.Resetter{},
		src:   &fakeSource{},
		peers: &fakePeers{},
	}
}

// boot creates a fresh controller over the shared medium, as after a restart.
func (r *rig) boot(holdMs uint32) (*Controller, error) {
	board := Board{
		Clock:    r.clk,
		Outputs:  r.out,
		Switch:   simhal.NewHeldSwitch(r.clk, holdMs),
		Sense:    r.latch,
		Actuator: r.latch,
		Sensor:   &simhal.Sensor{Celsius: 24.5},
		Resetter: r.rst,
	}
	c := New(DefaultConfig, board, store.New(r.med), r.src, r.peers)
	return c, c.Boot()
}

func (r *rig) ready(t *testing.T, holdMs uint32) *Controller {
	t.Helper()
	_, err := r.boot(0)
	require.True(t, errors.Is(err, ErrReset), "erased storage must resolve to defaults")
	c, err := r.boot(holdMs)
	require.NoError(t, err)
	return c
}

// ---- tests ----

func TestBoot_ErasedStorageAppliesDefaultsAndResets(t *testing.T) {
	r := newRig()

	_, err := r.boot(0)
	require.True(t, errors.Is(err, ErrReset))
	require.Equal(t, 1, r.rst.Count)

	c, err := r.boot(0)
	require.NoError(t, err)
	require.Equal(t, mode.Run, c.Mode())
	require.Equal(t, store.DefaultBusAddress, c.Address())
	require.Equal(t, 1, r.rst.Count)
}

func TestFactoryReset_EndToEnd(t *testing.T) {
	r := newRig()
	r.ready(t, 0)

	// Customise and persist.
	st := store.New(r.med)
	require.NoError(t, st.Load())
	st.Working().BusAddress = 42
	st.Working().Channels[1].Blue = 9
	_, err := st.Save()
	require.NoError(t, err)

	// Held 9s: factory reset requested.
	_, err = r.boot(9000)
	require.True(t, errors.Is(err, ErrReset))

	// Next boot sees the flag and applies defaults.
	_, err = r.boot(0)
	require.True(t, errors.Is(err, ErrReset))

	// Flag clear, defaults in effect.
	c, err := r.boot(0)
	require.NoError(t, err)
	require.Equal(t, store.DefaultBusAddress, c.Address())
	require.Equal(t, uint16(store.Defaults().Channels[1].Blue), c.Bank().Get(regmap.FieldBlue, 1))

	st = store.New(r.med)
	require.NoError(t, st.Load())
	require.False(t, st.Working().FirstBoot)
	require.False(t, st.Working().ResetExceptAddress)
	require.Equal(t, 3, r.rst.Count)
}

func TestStep_AnswersOwnAddressOnly(t *testing.T) {
	r := newRig()
	c := r.ready(t, 0)

	mine := r.src.push(store.DefaultBusAddress, modbus.FuncCodeReadHoldingRegisters, 0, 2, 0, 1)
	other := r.src.push(12, modbus.FuncCodeReadHoldingRegisters, 0, 2, 0, 1)

	require.NoError(t, c.Step(context.Background()))
	require.NoError(t, c.Step(context.Background()))

	require.Len(t, mine.resp, 1)
	require.Equal(t, []byte{2, 0x6D, 0xB5}, mine.resp[0].Data)
	require.Empty(t, other.resp)
}

func TestStep_BroadcastWriteAppliedWithoutReply(t *testing.T) {
	r := newRig()
	c := r.ready(t, 0)

	bc := r.src.push(0, modbus.FuncCodeWriteSingleCoil, 0x03, 0xE9, 0xFF, 0x00)
	rd := r.src.push(0, modbus.FuncCodeReadCoils, 0x03, 0xE9, 0, 1)

	require.NoError(t, c.Step(context.Background()))
	require.NoError(t, c.Step(context.Background()))

	require.True(t, r.out.Lit(0))
	require.Empty(t, bc.resp)
	require.Empty(t, rd.resp)
}

func TestStep_CommitRepliesThenResets(t *testing.T) {
	r := newRig()
	c := r.ready(t, 0)

	rec := r.src.push(store.DefaultBusAddress, modbus.FuncCodeWriteSingleCoil, 0x01, 0xF7, 0xFF, 0x00)

	err := c.Step(context.Background())
	require.True(t, errors.Is(err, ErrReset))
	require.Len(t, rec.resp, 1)
	require.Contains(t, r.rst.Reasons[len(r.rst.Reasons)-1], "commit")
}

func TestStep_BroadcastCoilReachesPeers(t *testing.T) {
	r := newRig()
	c := r.ready(t, 0)

	r.src.push(store.DefaultBusAddress, modbus.FuncCodeWriteSingleCoil, 0x03, 0xEA, 0xFF, 0x00) // channel 2
	r.src.push(store.DefaultBusAddress, modbus.FuncCodeWriteSingleCoil, 0x01, 0xFA, 0xFF, 0x00) // 506

	require.NoError(t, c.Step(context.Background()))
	require.NoError(t, c.Step(context.Background()))

	require.Len(t, r.peers.sent, 1)
	require.Equal(t, []bool{false, true, false, false, false, false, false, false}, r.peers.sent[0])
}

func TestStep_SensorRoutineUpdatesTemperature(t *testing.T) {
	r := newRig()
	c := r.ready(t, 0)

	r.clk.Advance(2000)
	require.NoError(t, c.Step(context.Background()))
	require.Equal(t, uint16(2450), c.Bank().Reg(regmap.RegTemperature))
}

func TestStep_StatusBlink(t *testing.T) {
	r := newRig()
	c := r.ready(t, 0)

	toggles := r.out.Toggles
	r.clk.Advance(500)
	require.NoError(t, c.Step(context.Background()))
	require.Equal(t, toggles+1, r.out.Toggles)
}

func TestSetID_ArmsReservedAddress(t *testing.T) {
	r := newRig()
	c := r.ready(t, 6000)
	require.Equal(t, mode.SetID, c.Mode())
	require.Equal(t, store.AddressUnassigned, c.Address())

	configured := r.src.push(store.DefaultBusAddress, modbus.FuncCodeReadHoldingRegisters, 0, 5, 0, 1)
	reserved := r.src.push(store.AddressUnassigned, modbus.FuncCodeReadHoldingRegisters, 0, 5, 0, 1)
	require.NoError(t, c.Step(context.Background()))
	require.NoError(t, c.Step(context.Background()))

	require.Empty(t, configured.resp)
	require.Len(t, reserved.resp, 1)
	require.Equal(t, []byte{2, 0, store.DefaultBusAddress}, reserved.resp[0].Data)
}

func TestDemo_CyclesChannels(t *testing.T) {
	r := newRig()
	c := r.ready(t, 3000)
	require.Equal(t, mode.Demo, c.Mode())

	r.clk.Advance(300)
	require.NoError(t, c.Step(context.Background()))
	require.True(t, r.out.Lit(0))

	r.clk.Advance(300)
	require.NoError(t, c.Step(context.Background()))
	require.False(t, r.out.Lit(0))
	require.True(t, r.out.Lit(1))
	require.Equal(t, uint16(mode.Demo), c.Bank().Reg(regmap.RegMode))
}

func TestRun_StopsOnCancel(t *testing.T) {
	r := newRig()
	r.ready(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := New(DefaultConfig, Board{
		Clock:    r.clk,
		Outputs:  r.out,
		Switch:   simhal.NewHeldSwitch(r.clk, 0),
		Sense:    r.latch,
		Actuator: r.latch,
		Resetter: r.rst,
	}, store.New(r.med), r.src, nil)
	require.NoError(t, c.Run(ctx))
}

func TestBuildConfig_FromNormalizedYAML(t *testing.T) {
	c := &config.Config{Panel: config.PanelConfig{
		Bus:     config.BusConfig{Transport: config.TransportTCP, Listen: ":1502"},
		Storage: config.StorageConfig{Path: "x"},
		Latch:   config.LatchConfig{MaxPulseMs: 600},
	}}
	require.NoError(t, config.Validate(c))
	config.Normalize(c)

	got := BuildConfig(c.Panel)
	require.Equal(t, uint32(600), got.Latch.MaxPulseMs)
	require.Equal(t, uint32(600), got.PulseMs)
	require.Equal(t, DefaultConfig.Periods, got.Periods)
	require.Equal(t, DefaultConfig.Classifier.MaxWaitMs, got.Classifier.MaxWaitMs)
}
