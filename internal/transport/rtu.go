// internal/transport/rtu.go
package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/goburrow/serial"
	"github.com/golang/glog"
)

// RTUConfig is minimal serial line config.
type RTUConfig struct {
	Address  string
	BaudRate int
	DataBits int
	StopBits int
	Parity   string
	Timeout  time.Duration
}

// RTU is a Modbus RTU slave on a serial line.
// It serializes replies because it mutates SlaveId per response.
type RTU struct {
	port  io.ReadWriteCloser
	queue *Queue

	mu sync.Mutex
	pk *modbus.RTUClientHandler // used as ADU packager only
}

// OpenRTU opens the serial port described by cfg.
func OpenRTU(cfg RTUConfig, q *Queue) (*RTU, error) {
	if cfg.Address == "" {
		return nil, errors.New("transport rtu: serial address required")
	}
	port, err := serial.Open(&serial.Config{
		Address:  cfg.Address,
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		StopBits: cfg.StopBits,
		Parity:   cfg.Parity,
		Timeout:  cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("transport rtu: open %s: %w", cfg.Address, err)
	}
	return NewRTU(port, q), nil
}

// NewRTU wraps an already open byte stream.
func NewRTU(port io.ReadWriteCloser, q *Queue) *RTU {
	return &RTU{
		port:  port,
		queue: q,
		pk:    modbus.NewRTUClientHandler(""),
	}
}

// Close closes the port; Run returns shortly after.
func (s *RTU) Close() error {
	return s.port.Close()
}

// Run reads request frames until ctx is done or the port fails.
// Line timeouts are idle periods; a partial frame is discarded.
func (s *RTU) Run(ctx context.Context) error {
	r := bufio.NewReader(s.port)

	for {
		if ctx.Err() != nil {
			return nil
		}

		adu, err := readRTUFrame(r)
		switch {
		case err == nil:
		case errors.Is(err, serial.ErrTimeout):
			continue
		case errors.Is(err, errFrame):
			glog.V(2).Infof("[rtu] %v, resync", err)
			r.Reset(s.port)
			continue
		default:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("transport rtu: read: %w", err)
		}

		pdu, err := s.pk.Decode(adu)
		if err != nil {
			glog.V(2).Infof("[rtu] drop frame: %v", err)
			r.Reset(s.port)
			continue
		}

		unit := adu[0]
		req := NewRequest(unit, *pdu, func(resp modbus.ProtocolDataUnit) error {
			return s.write(unit, resp)
		})
		if !s.queue.Push(ctx, req) {
			return nil
		}
	}
}

// Write puts raw frames on the line between replies (peer broadcasts).
func (s *RTU) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port.Write(p)
}

func (s *RTU) write(unit uint8, resp modbus.ProtocolDataUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pk.SlaveId = unit
	adu, err := s.pk.Encode(&resp)
	if err != nil {
		return fmt.Errorf("transport rtu: encode: %w", err)
	}
	_, err = s.port.Write(adu)
	return err
}

// ---- framing ----

var errFrame = errors.New("unframeable request")

// readRTUFrame reads one request ADU (address, function, data, CRC).
// Request length is fixed by function code; multi-writes carry a byte count.
func readRTUFrame(r io.Reader) ([]byte, error) {
	head := make([]byte, 2)
	if _, err := io.ReadFull(r, head); err != nil {
		return nil, err
	}

	var rest int
	switch head[1] {
	case modbus.FuncCodeReadCoils,
		modbus.FuncCodeReadDiscreteInputs,
		modbus.FuncCodeReadHoldingRegisters,
		modbus.FuncCodeReadInputRegisters,
		modbus.FuncCodeWriteSingleCoil,
		modbus.FuncCodeWriteSingleRegister:
		rest = 4 + 2

	case modbus.FuncCodeWriteMultipleCoils,
		modbus.FuncCodeWriteMultipleRegisters:
		hdr := make([]byte, 5)
		if _, err := io.ReadFull(r, hdr); err != nil {
			return nil, err
		}
		body := make([]byte, int(hdr[4])+2)
		if _, err := io.ReadFull(r, body); err != nil {
			return nil, err
		}
		adu := append(head, hdr...)
		return append(adu, body...), nil

	default:
		return nil, fmt.Errorf("%w: function %d", errFrame, head[1])
	}

	body := make([]byte, rest)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return append(head, body...), nil
}
