package latch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-ledpanel/internal/hal/simhal"
)

var testCfg = Config{MaxPulseMs: 800, MinIntervalMs: 5000, DebounceMs: 20, PollMs: 10}

func newLatch(releaseAfter uint32) (*Controller, *simhal.Latch, *simhal.Clock) {
	clk := simhal.NewClock(0)
	hw := simhal.NewLatch(clk)
	hw.ReleaseAfter = releaseAfter
	return New(testCfg, clk, hw, hw), hw, clk
}

func TestUnlock_ReleasesEarlyWhenSenseClears(t *testing.T) {
	c, hw, _ := newLatch(120)
	require.True(t, c.Unlock(500))
	require.False(t, hw.Active)
	require.Equal(t, 1, hw.Pulses)
	require.Equal(t, uint32(120), hw.LastPulse)
	require.Equal(t, ResultOK, c.LastResult())
}

func TestUnlock_TwiceWithinIntervalRejected(t *testing.T) {
	c, hw, clk := newLatch(100)
	require.True(t, c.Unlock(500))
	hw.Relock()

	clk.Advance(testCfg.MinIntervalMs - 1)
	require.False(t, c.Unlock(500))
	require.Equal(t, 1, hw.Pulses)
	require.Equal(t, ResultRejected, c.LastResult())

	clk.Advance(1)
	require.True(t, c.Unlock(500))
	require.Equal(t, 2, hw.Pulses)
}

func TestUnlock_AlreadyUnlockedRejected(t *testing.T) {
	c, hw, _ := newLatch(0)
	hw.IsLocked = false
	require.False(t, c.Unlock(500))
	require.Equal(t, 0, hw.Pulses)
}

func TestUnlock_ClampedToMaxPulse(t *testing.T) {
	long, hwLong, _ := newLatch(0) // never releases
	capped, hwMax, _ := newLatch(0)

	require.True(t, long.Unlock(60000))
	require.True(t, capped.Unlock(testCfg.MaxPulseMs))

	require.Equal(t, testCfg.MaxPulseMs, hwLong.LastPulse)
	require.Equal(t, hwMax.LastPulse, hwLong.LastPulse)
	require.Equal(t, hwMax.Pulses, hwLong.Pulses)
}

func TestIsLocked_SingleSampleNoiseIgnored(t *testing.T) {
	c, hw, clk := newLatch(0)

	hw.NoiseQueue = []bool{false, true}
	require.True(t, c.IsLocked(20))
	require.Equal(t, uint32(20), clk.Millis())

	hw.IsLocked = false
	hw.NoiseQueue = []bool{true}
	require.True(t, c.IsLocked(20), "disagreeing samples keep previous state")

	require.False(t, c.IsLocked(20))
	require.False(t, c.Locked())
}

func TestUnlock_MinIntervalAcrossWrap(t *testing.T) {
	clk := simhal.NewClock(0xFFFFF000)
	hw := simhal.NewLatch(clk)
	hw.ReleaseAfter = 50
	c := New(testCfg, clk, hw, hw)

	require.True(t, c.Unlock(100))
	hw.Relock()
	clk.Advance(4500) // wraps
	require.False(t, c.Unlock(100))
	clk.Advance(500)
	require.True(t, c.Unlock(100))
}
