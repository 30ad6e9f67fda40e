package status

import (
	"math"

	"github.com/tamzrod/modbus-ledpanel/internal/regmap"
	"github.com/tamzrod/modbus-ledpanel/internal/xmath"
)

// Entry is one encoded status register.
type Entry struct {
	Field regmap.Field
	Index int
	Value uint16
}

// Encode converts a Snapshot into status register values.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) []Entry {
	out := make([]Entry, 0, 7+2*len(s.Channels))

	out = append(out,
		Entry{Field: regmap.FieldTemperature, Value: EncodeTemperature(s.Temperature)},
		Entry{Field: regmap.FieldTotalCount, Value: s.TotalCount},
		Entry{Field: regmap.FieldTotalOnTime, Value: s.TotalOnTime},
		Entry{Field: regmap.FieldUnlockCountdown, Value: s.UnlockCountdown},
		Entry{Field: regmap.FieldLatchLocked, Value: boolReg(s.Locked)},
		Entry{Field: regmap.FieldUnlockResult, Value: uint16(s.UnlockResult)},
		Entry{Field: regmap.FieldMode, Value: uint16(s.Mode)},
	)

	for i, ch := range s.Channels {
		out = append(out,
			Entry{Field: regmap.FieldCount, Index: i, Value: ch.Count},
			Entry{Field: regmap.FieldOnTime, Index: i, Value: ch.Seconds},
		)
	}
	return out
}

// EncodeTemperature converts °C into the x100 two's complement register value.
// Out-of-range readings saturate.
func EncodeTemperature(c float64) uint16 {
	if math.IsNaN(c) {
		return 0
	}
	c = xmath.Clamp(c, TemperatureMin, TemperatureMax)
	return uint16(int16(math.Round(c * TemperatureScale)))
}

func boolReg(v bool) uint16 {
	if v {
		return LatchLocked
	}
	return LatchUnlocked
}
