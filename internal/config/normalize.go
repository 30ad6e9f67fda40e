// internal/config/normalize.go
package config

import (
	"github.com/tamzrod/modbus-ledpanel/internal/latch"
	"github.com/tamzrod/modbus-ledpanel/internal/mode"
	"github.com/tamzrod/modbus-ledpanel/internal/sched"
)

// Storage image size used when none is configured.
const DefaultStorageSize = 512

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	p := &cfg.Panel

	// ------------------------------------------------------------
	// BUS
	// ------------------------------------------------------------

	def(&p.Bus.DataBits, 8)
	def(&p.Bus.StopBits, 1)
	def(&p.Bus.TimeoutMs, 100)
	def(&p.Bus.QueueDepth, 16)
	if p.Bus.Parity == "" {
		p.Bus.Parity = "N"
	}

	def(&p.Storage.Size, DefaultStorageSize)
	def(&p.GPIO.PWMHz, 1000)

	// ------------------------------------------------------------
	// TIMING
	// ------------------------------------------------------------

	t := &p.Timing
	def(&t.StatusBlinkMs, sched.DefaultPeriods.StatusBlink)
	def(&t.DemoBlinkMs, sched.DefaultPeriods.DemoBlink)
	def(&t.IdentifyBlinkMs, sched.DefaultPeriods.IdentifyBlink)
	def(&t.SensorSampleMs, sched.DefaultPeriods.SensorSample)
	def(&t.ClassifierPollMs, mode.DefaultConfig.PollMs)
	def(&t.ClassifierMaxWaitMs, mode.DefaultConfig.MaxWaitMs)
	def(&t.ClassifierSettleMs, mode.DefaultConfig.SettleMs)
	def(&t.LoopMs, 2)

	// ------------------------------------------------------------
	// LATCH
	// ------------------------------------------------------------

	l := &p.Latch
	def(&l.MaxPulseMs, latch.DefaultConfig.MaxPulseMs)
	def(&l.MinIntervalMs, latch.DefaultConfig.MinIntervalMs)
	def(&l.DebounceMs, latch.DefaultConfig.DebounceMs)
	def(&l.PollMs, latch.DefaultConfig.PollMs)
	def(&l.PulseMs, l.MaxPulseMs)

	if p.Broadcast.Enabled {
		def(&p.Broadcast.Burst, 1)
	}
}

func def[T int | uint32](v *T, d T) {
	if *v == 0 {
		*v = d
	}
}
