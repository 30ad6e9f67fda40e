package sched

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-ledpanel/internal/hal/simhal"
)

func TestTimer_IdempotentBetweenFirings(t *testing.T) {
	tm := NewTimer(500, 0)
	require.False(t, tm.Due(0))
	require.False(t, tm.Due(499))
	require.True(t, tm.Due(500))
	require.False(t, tm.Due(500))
	require.False(t, tm.Due(999))
	require.True(t, tm.Due(1000))
}

func TestTimer_Wraparound(t *testing.T) {
	tm := NewTimer(100, 0xFFFFFFC0) // 64ms before wrap
	require.False(t, tm.Due(0xFFFFFFFF))
	require.False(t, tm.Due(35))
	require.True(t, tm.Due(36))
	require.False(t, tm.Due(100))
}

func TestRoutines_IndependentPeriods(t *testing.T) {
	clk := simhal.NewClock(0)
	r := NewRoutines(clk, Periods{StatusBlink: 500, DemoBlink: 300, IdentifyBlink: 100, SensorSample: 2000})

	fired := map[Routine]int{}
	for _, id := range []Routine{StatusBlink, DemoBlink, IdentifyBlink, SensorSample} {
		id := id
		r.On(id, func(uint32) { fired[id]++ })
	}

	for i := 0; i < 200; i++ { // 2000ms in 10ms steps
		clk.Advance(10)
		r.Tick()
	}

	require.Equal(t, 4, fired[StatusBlink])
	require.Equal(t, 6, fired[DemoBlink])
	require.Equal(t, 20, fired[IdentifyBlink])
	require.Equal(t, 1, fired[SensorSample])
}

func TestRoutines_UnregisteredNeverFires(t *testing.T) {
	clk := simhal.NewClock(0)
	r := NewRoutines(clk, DefaultPeriods)
	n := 0
	r.On(SensorSample, func(uint32) { n++ })
	clk.Advance(5000)
	r.Tick()
	require.Equal(t, 1, n)
	require.Equal(t, "identify-blink", IdentifyBlink.String())
}
