// internal/transport/types.go
package transport

import (
	"github.com/goburrow/modbus"
)

// Request is one decoded master request awaiting a reply.
// Geometry only: no semantics.
type Request struct {
	UnitID uint8
	PDU    modbus.ProtocolDataUnit

	reply func(modbus.ProtocolDataUnit) error
}

// NewRequest builds a request answered through reply (nil for none).
func NewRequest(unitID uint8, pdu modbus.ProtocolDataUnit, reply func(modbus.ProtocolDataUnit) error) Request {
	return Request{UnitID: unitID, PDU: pdu, reply: reply}
}

// Reply sends resp back to the master that issued the request.
// Requests left unanswered (broadcast, other units) are simply dropped.
func (r Request) Reply(resp modbus.ProtocolDataUnit) error {
	if r.reply == nil {
		return nil
	}
	return r.reply(resp)
}

// Source yields completed requests without blocking.
type Source interface {
	Poll() (Request, bool)
}
