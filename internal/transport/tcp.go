// internal/transport/tcp.go
package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/goburrow/modbus"
	"github.com/golang/glog"
)

// MBAP:
//   TID(2) PID(2=0) LEN(2) UID(1)
const mbapLen = 7

// maxPDU bounds the length field of an incoming header.
const maxPDU = 253

// TCP is a Modbus TCP slave. One goroutine per connection; requests are
// handed to the control loop through the queue.
type TCP struct {
	ln    net.Listener
	queue *Queue
}

// ListenTCP binds addr.
func ListenTCP(addr string, q *Queue) (*TCP, error) {
	if addr == "" {
		return nil, errors.New("transport tcp: listen address required")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport tcp: listen %s: %w", addr, err)
	}
	return &TCP{ln: ln, queue: q}, nil
}

// Addr returns the bound address.
func (s *TCP) Addr() net.Addr { return s.ln.Addr() }

// Close stops accepting connections.
func (s *TCP) Close() error { return s.ln.Close() }

// Run accepts connections until ctx is done.
func (s *TCP) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("transport tcp: accept: %w", err)
		}
		glog.Infof("[tcp] master connected from %s", conn.RemoteAddr())
		go s.serve(ctx, conn)
	}
}

func (s *TCP) serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var mu sync.Mutex
	for {
		tid, unit, pdu, err := readMBAP(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				glog.Warningf("[tcp] %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		req := NewRequest(unit, pdu, func(resp modbus.ProtocolDataUnit) error {
			mu.Lock()
			defer mu.Unlock()
			_, err := conn.Write(buildMBAP(tid, unit, resp))
			return err
		})
		if !s.queue.Push(ctx, req) {
			return
		}
	}
}

// readMBAP reads one request ADU.
func readMBAP(r io.Reader) (tid uint16, unit uint8, pdu modbus.ProtocolDataUnit, err error) {
	hdr := make([]byte, mbapLen)
	if _, err = io.ReadFull(r, hdr); err != nil {
		return
	}
	tid = binary.BigEndian.Uint16(hdr[0:2])
	pid := binary.BigEndian.Uint16(hdr[2:4])
	length := binary.BigEndian.Uint16(hdr[4:6])
	unit = hdr[6]

	if pid != 0 {
		err = fmt.Errorf("modbus tcp: protocol id mismatch: got=%d want=0", pid)
		return
	}
	if length < 2 || length > maxPDU+1 {
		err = fmt.Errorf("modbus tcp: bad length %d", length)
		return
	}

	body := make([]byte, length-1)
	if _, err = io.ReadFull(r, body); err != nil {
		return
	}
	pdu = modbus.ProtocolDataUnit{FunctionCode: body[0], Data: body[1:]}
	return
}

// buildMBAP builds a response ADU echoing the request transaction id.
func buildMBAP(tid uint16, unit uint8, pdu modbus.ProtocolDataUnit) []byte {
	const protoID uint16 = 0

	adu := make([]byte, mbapLen+1+len(pdu.Data))
	binary.BigEndian.PutUint16(adu[0:2], tid)
	binary.BigEndian.PutUint16(adu[2:4], protoID)
	binary.BigEndian.PutUint16(adu[4:6], uint16(2+len(pdu.Data)))
	adu[6] = unit
	adu[7] = pdu.FunctionCode
	copy(adu[8:], pdu.Data)
	return adu
}
