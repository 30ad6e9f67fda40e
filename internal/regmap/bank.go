// internal/regmap/bank.go
package regmap

import (
	"errors"
	"fmt"
)

var (
	// ErrUndefined is returned for an access touching an unmapped address.
	ErrUndefined = errors.New("regmap: undefined address")

	// ErrReadOnly is returned for a bus write into an identity or status register.
	ErrReadOnly = errors.New("regmap: read-only address")
)

// Bank is the addressable memory behind the slave.
//
// Bus-facing methods (ReadCoils, WriteCoils, ReadHoldingRegisters,
// WriteHoldingRegisters) enforce the map. Engine-facing accessors
// (Coil, SetCoil, Reg, SetReg, Get, Set) bypass access control.
//
// A Bank has a single owner; it is not safe for concurrent use.
type Bank struct {
	coils     []bool
	coilGroup []Group

	regs     []uint16
	regGroup []Group
}

// NewBank allocates memory covering every address in Table and Coils.
func NewBank() *Bank {
	var maxReg, maxCoil uint16
	for _, s := range Table {
		if a := s.Addr(s.Count - 1); a > maxReg {
			maxReg = a
		}
	}
	for _, c := range Coils {
		if a := c.Base + uint16(c.Count) - 1; a > maxCoil {
			maxCoil = a
		}
	}

	b := &Bank{
		coils:     make([]bool, int(maxCoil)+1),
		coilGroup: make([]Group, int(maxCoil)+1),
		regs:      make([]uint16, int(maxReg)+1),
		regGroup:  make([]Group, int(maxReg)+1),
	}
	for _, s := range Table {
		for i := 0; i < s.Count; i++ {
			b.regGroup[s.Addr(i)] = s.Group
		}
	}
	for _, c := range Coils {
		for i := 0; i < c.Count; i++ {
			b.coilGroup[c.Base+uint16(i)] = c.Group
		}
	}
	return b
}

// ------------------------------------------------------------
// Bus-facing access
// ------------------------------------------------------------

func (b *Bank) ReadCoils(addr, qty uint16) ([]bool, error) {
	if err := b.checkCoils(addr, qty); err != nil {
		return nil, err
	}
	out := make([]bool, qty)
	copy(out, b.coils[addr:int(addr)+int(qty)])
	return out, nil
}

func (b *Bank) WriteCoils(addr uint16, vals []bool) error {
	if err := b.checkCoils(addr, uint16(len(vals))); err != nil {
		return err
	}
	copy(b.coils[addr:], vals)
	return nil
}

func (b *Bank) ReadHoldingRegisters(addr, qty uint16) ([]uint16, error) {
	if err := b.checkRegs(addr, qty, false); err != nil {
		return nil, err
	}
	out := make([]uint16, qty)
	copy(out, b.regs[addr:int(addr)+int(qty)])
	return out, nil
}

func (b *Bank) WriteHoldingRegisters(addr uint16, vals []uint16) error {
	if err := b.checkRegs(addr, uint16(len(vals)), true); err != nil {
		return err
	}
	copy(b.regs[addr:], vals)
	return nil
}

func (b *Bank) checkCoils(addr, qty uint16) error {
	end := int(addr) + int(qty)
	if qty == 0 || end > len(b.coils) {
		return fmt.Errorf("%w: coils %d+%d", ErrUndefined, addr, qty)
	}
	for a := int(addr); a < end; a++ {
		if b.coilGroup[a] == GroupNone {
			return fmt.Errorf("%w: coil %d", ErrUndefined, a)
		}
	}
	return nil
}

func (b *Bank) checkRegs(addr, qty uint16, write bool) error {
	end := int(addr) + int(qty)
	if qty == 0 || end > len(b.regs) {
		return fmt.Errorf("%w: registers %d+%d", ErrUndefined, addr, qty)
	}
	for a := int(addr); a < end; a++ {
		switch g := b.regGroup[a]; {
		case g == GroupNone:
			return fmt.Errorf("%w: register %d", ErrUndefined, a)
		case write && g != GroupConfig:
			return fmt.Errorf("%w: register %d (%s)", ErrReadOnly, a, g)
		}
	}
	return nil
}

// ------------------------------------------------------------
// Engine-facing access
// ------------------------------------------------------------

// Coil returns the coil at addr; unmapped addresses read false.
func (b *Bank) Coil(addr uint16) bool {
	if int(addr) >= len(b.coils) {
		return false
	}
	return b.coils[addr]
}

// SetCoil stores v at addr; unmapped addresses are ignored.
func (b *Bank) SetCoil(addr uint16, v bool) {
	if int(addr) < len(b.coils) && b.coilGroup[addr] != GroupNone {
		b.coils[addr] = v
	}
}

func (b *Bank) Reg(addr uint16) uint16 {
	if int(addr) >= len(b.regs) {
		return 0
	}
	return b.regs[addr]
}

func (b *Bank) SetReg(addr uint16, v uint16) {
	if int(addr) < len(b.regs) && b.regGroup[addr] != GroupNone {
		b.regs[addr] = v
	}
}

// Get returns the wire value of field f for instance i.
func (b *Bank) Get(f Field, i int) uint16 {
	return b.Reg(Table[f].Addr(i))
}

// Set stores the wire value of field f for instance i.
func (b *Bank) Set(f Field, i int, v uint16) {
	b.SetReg(Table[f].Addr(i), v)
}
