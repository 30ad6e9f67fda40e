package status

import (
	"github.com/tamzrod/modbus-ledpanel/internal/latch"
	"github.com/tamzrod/modbus-ledpanel/internal/mode"
)

// ChannelStats is the wire view of one channel.
type ChannelStats struct {
	Count   uint16
	Seconds uint16
}

// Snapshot represents exactly what the status group is allowed to expose.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Temperature float64 // °C
	Channels    []ChannelStats
	TotalCount  uint16
	TotalOnTime uint16

	UnlockCountdown uint16 // seconds
	Locked          bool
	UnlockResult    latch.Result
	Mode            mode.Mode
}
