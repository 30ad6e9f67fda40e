// internal/panel/builder.go
package panel

import (
	cfg "github.com/tamzrod/modbus-ledpanel/internal/config"
	"github.com/tamzrod/modbus-ledpanel/internal/latch"
	"github.com/tamzrod/modbus-ledpanel/internal/mode"
	"github.com/tamzrod/modbus-ledpanel/internal/sched"
)

// BuildConfig maps a normalized panel configuration to controller config.
func BuildConfig(p cfg.PanelConfig) Config {
	t := p.Timing
	return Config{
		Classifier: mode.Config{
			PollMs:    t.ClassifierPollMs,
			MaxWaitMs: t.ClassifierMaxWaitMs,
			SettleMs:  t.ClassifierSettleMs,
			Bands:     mode.DefaultBands,
		},
		Latch: latch.Config{
			MaxPulseMs:    p.Latch.MaxPulseMs,
			MinIntervalMs: p.Latch.MinIntervalMs,
			DebounceMs:    p.Latch.DebounceMs,
			PollMs:        p.Latch.PollMs,
		},
		Periods: sched.Periods{
			StatusBlink:   t.StatusBlinkMs,
			DemoBlink:     t.DemoBlinkMs,
			IdentifyBlink: t.IdentifyBlinkMs,
			SensorSample:  t.SensorSampleMs,
		},
		PulseMs: p.Latch.PulseMs,
		LoopMs:  t.LoopMs,
	}
}
