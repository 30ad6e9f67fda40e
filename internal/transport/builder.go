// internal/transport/builder.go
package transport

import (
	"context"
	"fmt"
	"io"
	"time"

	cfg "github.com/tamzrod/modbus-ledpanel/internal/config"
)

// Runner is a started slave transport.
type Runner interface {
	Run(ctx context.Context) error
	Close() error
}

// Build constructs the slave transport described by bus.
// It returns the runner, the queue it feeds and, for RTU, the line
// writer used for peer broadcasts (nil otherwise).
func Build(bus cfg.BusConfig, baud int) (Runner, *Queue, io.Writer, error) {
	q := NewQueue(bus.QueueDepth)

	switch bus.Transport {
	case cfg.TransportRTU:
		s, err := OpenRTU(RTUConfig{
			Address:  bus.Port,
			BaudRate: baud,
			DataBits: bus.DataBits,
			StopBits: bus.StopBits,
			Parity:   bus.Parity,
			Timeout:  time.Duration(bus.TimeoutMs) * time.Millisecond,
		}, q)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, q, s, nil

	case cfg.TransportTCP:
		s, err := ListenTCP(bus.Listen, q)
		if err != nil {
			return nil, nil, nil, err
		}
		return s, q, nil, nil
	}

	return nil, nil, nil, fmt.Errorf("transport: unknown %q", bus.Transport)
}
