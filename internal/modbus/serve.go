// internal/modbus/serve.go
package modbus

import (
	"encoding/binary"
	"errors"

	"github.com/goburrow/modbus"
	"github.com/golang/glog"

	"github.com/tamzrod/modbus-ledpanel/internal/regmap"
)

// Memory is the slave-side address space.
// Errors wrapping regmap.ErrUndefined or regmap.ErrReadOnly map to
// exception 2; any other error maps to exception 4.
type Memory interface {
	ReadCoils(addr, qty uint16) ([]bool, error)
	WriteCoils(addr uint16, vals []bool) error
	ReadHoldingRegisters(addr, qty uint16) ([]uint16, error)
	WriteHoldingRegisters(addr uint16, vals []uint16) error
}

// Protocol quantity limits.
const (
	maxReadBits      = 2000
	maxWriteBits     = 1968
	maxReadRegisters = 125
	maxWriteRegs     = 123
)

const (
	coilOn  uint16 = 0xFF00
	coilOff uint16 = 0x0000
)

// IsWrite reports whether fc mutates slave memory.
// Only write function codes are honoured on the broadcast address.
func IsWrite(fc byte) bool {
	switch fc {
	case modbus.FuncCodeWriteSingleCoil,
		modbus.FuncCodeWriteMultipleCoils,
		modbus.FuncCodeWriteSingleRegister,
		modbus.FuncCodeWriteMultipleRegisters:
		return true
	}
	return false
}

// Serve applies one request PDU to mem and returns the response PDU.
// Failures are returned as exception responses; Serve never fails.
func Serve(mem Memory, req modbus.ProtocolDataUnit) modbus.ProtocolDataUnit {
	data, err := handle(mem, req)
	if err == nil {
		return modbus.ProtocolDataUnit{FunctionCode: req.FunctionCode, Data: data}
	}

	var me *modbus.ModbusError
	if !errors.As(err, &me) {
		me = exception(req.FunctionCode, modbus.ExceptionCodeServerDeviceFailure)
	}
	glog.V(2).Infof("[modbus] fc=%d -> %v", req.FunctionCode, me)
	return modbus.ProtocolDataUnit{
		FunctionCode: me.FunctionCode | 0x80,
		Data:         []byte{me.ExceptionCode},
	}
}

func handle(mem Memory, req modbus.ProtocolDataUnit) ([]byte, error) {
	fc := req.FunctionCode
	d := req.Data

	switch fc {
	case modbus.FuncCodeReadCoils:
		addr, qty, err := addrQty(fc, d, 4, maxReadBits)
		if err != nil {
			return nil, err
		}
		bits, err := mem.ReadCoils(addr, qty)
		if err != nil {
			return nil, memoryError(fc, err)
		}
		packed := packBits(bits)
		return append([]byte{byte(len(packed))}, packed...), nil

	case modbus.FuncCodeReadHoldingRegisters:
		addr, qty, err := addrQty(fc, d, 4, maxReadRegisters)
		if err != nil {
			return nil, err
		}
		regs, err := mem.ReadHoldingRegisters(addr, qty)
		if err != nil {
			return nil, memoryError(fc, err)
		}
		packed := packRegisters(regs)
		return append([]byte{byte(len(packed))}, packed...), nil

	case modbus.FuncCodeWriteSingleCoil:
		if len(d) != 4 {
			return nil, exception(fc, modbus.ExceptionCodeIllegalDataValue)
		}
		addr := binary.BigEndian.Uint16(d[0:2])
		v := binary.BigEndian.Uint16(d[2:4])
		if v != coilOn && v != coilOff {
			return nil, exception(fc, modbus.ExceptionCodeIllegalDataValue)
		}
		if err := mem.WriteCoils(addr, []bool{v == coilOn}); err != nil {
			return nil, memoryError(fc, err)
		}
		return echo(d), nil

	case modbus.FuncCodeWriteSingleRegister:
		if len(d) != 4 {
			return nil, exception(fc, modbus.ExceptionCodeIllegalDataValue)
		}
		addr := binary.BigEndian.Uint16(d[0:2])
		v := binary.BigEndian.Uint16(d[2:4])
		if err := mem.WriteHoldingRegisters(addr, []uint16{v}); err != nil {
			return nil, memoryError(fc, err)
		}
		return echo(d), nil

	case modbus.FuncCodeWriteMultipleCoils:
		addr, qty, err := addrQty(fc, d, 5, maxWriteBits)
		if err != nil {
			return nil, err
		}
		n := int(d[4])
		if n != (int(qty)+7)/8 || len(d) != 5+n {
			return nil, exception(fc, modbus.ExceptionCodeIllegalDataValue)
		}
		if err := mem.WriteCoils(addr, unpackBits(d[5:], int(qty))); err != nil {
			return nil, memoryError(fc, err)
		}
		return echo(d[0:4]), nil

	case modbus.FuncCodeWriteMultipleRegisters:
		addr, qty, err := addrQty(fc, d, 5, maxWriteRegs)
		if err != nil {
			return nil, err
		}
		n := int(d[4])
		if n != 2*int(qty) || len(d) != 5+n {
			return nil, exception(fc, modbus.ExceptionCodeIllegalDataValue)
		}
		if err := mem.WriteHoldingRegisters(addr, unpackRegisters(d[5:])); err != nil {
			return nil, memoryError(fc, err)
		}
		return echo(d[0:4]), nil
	}

	return nil, exception(fc, modbus.ExceptionCodeIllegalFunction)
}

// ---- request/response helpers ----

// addrQty parses the address/quantity header shared by read and
// multi-write requests. minLen is the shortest valid data length.
func addrQty(fc byte, d []byte, minLen int, maxQty uint16) (uint16, uint16, error) {
	if len(d) < minLen {
		return 0, 0, exception(fc, modbus.ExceptionCodeIllegalDataValue)
	}
	addr := binary.BigEndian.Uint16(d[0:2])
	qty := binary.BigEndian.Uint16(d[2:4])
	if qty == 0 || qty > maxQty {
		return 0, 0, exception(fc, modbus.ExceptionCodeIllegalDataValue)
	}
	if minLen == 4 && len(d) != 4 {
		return 0, 0, exception(fc, modbus.ExceptionCodeIllegalDataValue)
	}
	return addr, qty, nil
}

func memoryError(fc byte, err error) error {
	if errors.Is(err, regmap.ErrUndefined) || errors.Is(err, regmap.ErrReadOnly) {
		return exception(fc, modbus.ExceptionCodeIllegalDataAddress)
	}
	glog.Errorf("[modbus] fc=%d memory failure: %v", fc, err)
	return exception(fc, modbus.ExceptionCodeServerDeviceFailure)
}

func exception(fc byte, code byte) *modbus.ModbusError {
	return &modbus.ModbusError{FunctionCode: fc, ExceptionCode: code}
}

func echo(d []byte) []byte {
	out := make([]byte, len(d))
	copy(out, d)
	return out
}
