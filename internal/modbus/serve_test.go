package modbus

import (
	"errors"
	"testing"

	"github.com/goburrow/modbus"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/modbus-ledpanel/internal/regmap"
)

func req(fc byte, data ...byte) modbus.ProtocolDataUnit {
	return modbus.ProtocolDataUnit{FunctionCode: fc, Data: data}
}

func requireException(t *testing.T, resp modbus.ProtocolDataUnit, fc, code byte) {
	t.Helper()
	require.Equal(t, fc|0x80, resp.FunctionCode)
	require.Equal(t, []byte{code}, resp.Data)
}

func TestServe_ReadHoldingRegisters(t *testing.T) {
	b := regmap.NewBank()
	b.SetReg(regmap.RegFirmwareVersion, 28085)

	resp := Serve(b, req(modbus.FuncCodeReadHoldingRegisters, 0, 2, 0, 1))
	require.Equal(t, byte(modbus.FuncCodeReadHoldingRegisters), resp.FunctionCode)
	require.Equal(t, []byte{2, 0x6D, 0xB5}, resp.Data)
}

func TestServe_WriteSingleRegisterEchoes(t *testing.T) {
	b := regmap.NewBank()
	resp := Serve(b, req(modbus.FuncCodeWriteSingleRegister, 0, 10, 0, 42))
	require.Equal(t, []byte{0, 10, 0, 42}, resp.Data)
	require.Equal(t, uint16(42), b.Reg(regmap.RegGlobalBrightness))
}

func TestServe_WriteMultipleRegisters(t *testing.T) {
	b := regmap.NewBank()
	resp := Serve(b, req(modbus.FuncCodeWriteMultipleRegisters,
		0, 100, 0, 4, 8,
		0, 50, 0, 1, 0, 2, 0, 3))
	require.Equal(t, []byte{0, 100, 0, 4}, resp.Data)
	require.Equal(t, uint16(50), b.Get(regmap.FieldBrightness, 0))
	require.Equal(t, uint16(3), b.Get(regmap.FieldBlue, 0))
}

func TestServe_Coils(t *testing.T) {
	b := regmap.NewBank()

	resp := Serve(b, req(modbus.FuncCodeWriteSingleCoil, 0x03, 0xE9, 0xFF, 0x00))
	require.Equal(t, byte(modbus.FuncCodeWriteSingleCoil), resp.FunctionCode)
	require.True(t, b.Coil(regmap.ChannelCoil(0)))

	resp = Serve(b, req(modbus.FuncCodeWriteMultipleCoils, 0x03, 0xE9, 0, 8, 1, 0b1010_0101))
	require.Equal(t, []byte{0x03, 0xE9, 0, 8}, resp.Data)
	require.True(t, b.Coil(regmap.ChannelCoil(2)))
	require.False(t, b.Coil(regmap.ChannelCoil(1)))

	resp = Serve(b, req(modbus.FuncCodeReadCoils, 0x03, 0xE9, 0, 8))
	require.Equal(t, []byte{1, 0b1010_0101}, resp.Data)
}

func TestServe_Exceptions(t *testing.T) {
	b := regmap.NewBank()

	cases := []struct {
		name string
		pdu  modbus.ProtocolDataUnit
		code byte
	}{
		{"unsupported function", req(modbus.FuncCodeReadInputRegisters, 0, 0, 0, 1), modbus.ExceptionCodeIllegalFunction},
		{"undefined register", req(modbus.FuncCodeReadHoldingRegisters, 0, 7, 0, 1), modbus.ExceptionCodeIllegalDataAddress},
		{"status write", req(modbus.FuncCodeWriteSingleRegister, 0, 21, 0, 1), modbus.ExceptionCodeIllegalDataAddress},
		{"identity write", req(modbus.FuncCodeWriteSingleRegister, 0, 1, 0, 1), modbus.ExceptionCodeIllegalDataAddress},
		{"zero quantity", req(modbus.FuncCodeReadHoldingRegisters, 0, 1, 0, 0), modbus.ExceptionCodeIllegalDataValue},
		{"bad coil value", req(modbus.FuncCodeWriteSingleCoil, 0x03, 0xE9, 0x12, 0x34), modbus.ExceptionCodeIllegalDataValue},
		{"byte count mismatch", req(modbus.FuncCodeWriteMultipleRegisters, 0, 10, 0, 2, 2, 0, 1), modbus.ExceptionCodeIllegalDataValue},
		{"short request", req(modbus.FuncCodeReadCoils, 0x03), modbus.ExceptionCodeIllegalDataValue},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			requireException(t, Serve(b, c.pdu), c.pdu.FunctionCode, c.code)
		})
	}
}

type failingMemory struct{ regmap.Bank }

func (failingMemory) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	return nil, errors.New("bus fault")
}

func TestServe_MemoryFailure(t *testing.T) {
	m := &failingMemory{Bank: *regmap.NewBank()}
	resp := Serve(m, req(modbus.FuncCodeReadHoldingRegisters, 0, 1, 0, 1))
	requireException(t, resp, modbus.FuncCodeReadHoldingRegisters, modbus.ExceptionCodeServerDeviceFailure)
}

func TestIsWrite(t *testing.T) {
	require.True(t, IsWrite(modbus.FuncCodeWriteMultipleCoils))
	require.False(t, IsWrite(modbus.FuncCodeReadCoils))
}
