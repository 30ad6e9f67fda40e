// internal/mode/mode.go
package mode

import (
	"errors"
	"fmt"
)

// Mode is the operating mode selected once per boot.
type Mode uint16

const (
	Run Mode = iota
	Demo
	SetID
	FactoryReset
)

func (m Mode) String() string {
	switch m {
	case Run:
		return "RUN"
	case Demo:
		return "DEMO"
	case SetID:
		return "SET_ID"
	case FactoryReset:
		return "FACTORY_RESET"
	default:
		return fmt.Sprintf("MODE(%d)", uint16(m))
	}
}

// Band maps a press duration range [From, To) in milliseconds to a mode.
// BlinkMs is the feedback cadence while the press is inside the band;
// 0 keeps the feedback LED steadily on.
type Band struct {
	From    uint32
	To      uint32
	Mode    Mode
	BlinkMs uint32
}

// DefaultBands is the press-duration table:
// [0,2s) RUN, [2s,5s) DEMO, [5s,8s) SET_ID, [8s,11s) FACTORY_RESET.
var DefaultBands = []Band{
	{From: 0, To: 2000, Mode: Run, BlinkMs: 0},
	{From: 2000, To: 5000, Mode: Demo, BlinkMs: 500},
	{From: 5000, To: 8000, Mode: SetID, BlinkMs: 250},
	{From: 8000, To: 11000, Mode: FactoryReset, BlinkMs: 100},
}

// Classify maps a press duration to a mode.
// Durations outside every band classify as Run.
func Classify(bands []Band, heldMs uint32) Mode {
	if b, ok := bandFor(bands, heldMs); ok {
		return b.Mode
	}
	return Run
}

// ValidateBands checks that bands are non-empty, ordered and non-overlapping.
func ValidateBands(bands []Band) error {
	if len(bands) == 0 {
		return errors.New("mode: at least one band required")
	}
	for i, b := range bands {
		if b.To <= b.From {
			return fmt.Errorf("mode: band %d empty range [%d,%d)", i, b.From, b.To)
		}
		if i > 0 && b.From < bands[i-1].To {
			return fmt.Errorf(
				"mode: band overlap: [%d,%d) overlaps [%d,%d)",
				b.From, b.To, bands[i-1].From, bands[i-1].To,
			)
		}
	}
	return nil
}

func bandFor(bands []Band, ms uint32) (Band, bool) {
	for _, b := range bands {
		if ms >= b.From && ms < b.To {
			return b, true
		}
	}
	return Band{}, false
}
