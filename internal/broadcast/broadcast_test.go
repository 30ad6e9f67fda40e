package broadcast

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/goburrow/modbus"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, adu []byte) *modbus.ProtocolDataUnit {
	t.Helper()
	pdu, err := modbus.NewRTUClientHandler("").Decode(adu)
	require.NoError(t, err)
	return pdu
}

func TestChannels_FrameToBroadcastAddress(t *testing.T) {
	var buf bytes.Buffer
	b, err := New(&buf, Config{})
	require.NoError(t, err)

	require.NoError(t, b.Channels(context.Background(), []bool{true, false, true, false, false, false, false, true}))

	adu := buf.Bytes()
	require.Equal(t, byte(Address), adu[0])
	pdu := decode(t, adu)
	require.Equal(t, byte(modbus.FuncCodeWriteMultipleCoils), pdu.FunctionCode)
	require.Equal(t, []byte{0x03, 0xE9, 0, 8, 1, 0b1000_0101}, pdu.Data)
}

func TestChannel_SingleCoil(t *testing.T) {
	var buf bytes.Buffer
	b, err := New(&buf, Config{})
	require.NoError(t, err)

	require.NoError(t, b.Channel(context.Background(), 2, true))
	pdu := decode(t, buf.Bytes())
	require.Equal(t, byte(modbus.FuncCodeWriteSingleCoil), pdu.FunctionCode)
	require.Equal(t, []byte{0x03, 0xEB, 0xFF, 0x00}, pdu.Data)

	require.Error(t, b.Channel(context.Background(), 8, true))
}

func TestAll(t *testing.T) {
	var buf bytes.Buffer
	b, err := New(&buf, Config{})
	require.NoError(t, err)

	require.NoError(t, b.All(context.Background(), true))
	pdu := decode(t, buf.Bytes())
	require.Equal(t, byte(0xFF), pdu.Data[5])
	require.Equal(t, 1, b.Frames())
}

func TestRateLimit_HonoursContext(t *testing.T) {
	var buf bytes.Buffer
	b, err := New(&buf, Config{PerSecond: 0.001, Burst: 1})
	require.NoError(t, err)

	require.NoError(t, b.All(context.Background(), false))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.Error(t, b.All(ctx, false))
	require.Equal(t, 1, b.Frames())
}
