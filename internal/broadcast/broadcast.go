// internal/broadcast/broadcast.go
package broadcast

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/goburrow/modbus"
	"github.com/golang/glog"
	"golang.org/x/time/rate"

	"github.com/tamzrod/modbus-ledpanel/internal/regmap"
)

// Address is the Modbus broadcast unit id. Slaves apply, never reply.
const Address = 0

// Config is minimal broadcaster config.
type Config struct {
	PerSecond float64 // 0 disables limiting
	Burst     int
}

// Broadcaster writes channel enable coils to every peer on the line.
// It serializes writes because it mutates SlaveId per frame.
type Broadcaster struct {
	mu      sync.Mutex
	w       io.Writer
	pk      *modbus.RTUClientHandler // used as ADU packager only
	limiter *rate.Limiter
	frames  int
}

// New returns a broadcaster writing frames to w.
func New(w io.Writer, cfg Config) (*Broadcaster, error) {
	if w == nil {
		return nil, errors.New("broadcast: writer required")
	}
	lim := rate.NewLimiter(rate.Inf, 0)
	if cfg.PerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		lim = rate.NewLimiter(rate.Limit(cfg.PerSecond), burst)
	}

	pk := modbus.NewRTUClientHandler("")
	pk.SlaveId = Address

	return &Broadcaster{w: w, pk: pk, limiter: lim}, nil
}

// Channels writes the enable coils of channels 1..len(states) in one frame.
func (b *Broadcaster) Channels(ctx context.Context, states []bool) error {
	if len(states) == 0 || len(states) > regmap.Channels {
		return fmt.Errorf("broadcast: %d channels out of range", len(states))
	}

	qty := uint16(len(states))
	payload := packBits(states)

	data := make([]byte, 5, 5+len(payload))
	binary.BigEndian.PutUint16(data[0:2], regmap.CoilChannelBase)
	binary.BigEndian.PutUint16(data[2:4], qty)
	data[4] = byte(len(payload))
	data = append(data, payload...)

	return b.send(ctx, modbus.ProtocolDataUnit{FunctionCode: modbus.FuncCodeWriteMultipleCoils, Data: data})
}

// Channel writes the enable coil of channel i (0-based).
func (b *Broadcaster) Channel(ctx context.Context, i int, on bool) error {
	if i < 0 || i >= regmap.Channels {
		return fmt.Errorf("broadcast: channel %d out of range", i)
	}
	v := uint16(0x0000)
	if on {
		v = 0xFF00
	}
	data := make([]byte, 4)
	binary.BigEndian.PutUint16(data[0:2], regmap.ChannelCoil(i))
	binary.BigEndian.PutUint16(data[2:4], v)

	return b.send(ctx, modbus.ProtocolDataUnit{FunctionCode: modbus.FuncCodeWriteSingleCoil, Data: data})
}

// All switches every channel of every peer on or off.
func (b *Broadcaster) All(ctx context.Context, on bool) error {
	states := make([]bool, regmap.Channels)
	for i := range states {
		states[i] = on
	}
	return b.Channels(ctx, states)
}

// Frames returns the number of frames written.
func (b *Broadcaster) Frames() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames
}

func (b *Broadcaster) send(ctx context.Context, pdu modbus.ProtocolDataUnit) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	adu, err := b.pk.Encode(&pdu)
	if err != nil {
		return fmt.Errorf("broadcast: encode: %w", err)
	}
	if _, err := b.w.Write(adu); err != nil {
		return fmt.Errorf("broadcast: write: %w", err)
	}
	b.frames++
	glog.V(2).Infof("[broadcast] fc=%d % x", pdu.FunctionCode, pdu.Data)
	return nil
}

func packBits(bits []bool) []byte {
	n := (len(bits) + 7) / 8
	out := make([]byte, n)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}
