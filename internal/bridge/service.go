package bridge

import (
	"github.com/golang/glog"

	"github.com/tamzrod/modbus-ledpanel/internal/channel"
	"github.com/tamzrod/modbus-ledpanel/internal/mode"
	"github.com/tamzrod/modbus-ledpanel/internal/regmap"
	"github.com/tamzrod/modbus-ledpanel/internal/status"
)

// ------------------------------------------------------------
// Control coils
// ------------------------------------------------------------

func (b *Bridge) serviceCoils() error {
	if b.take(regmap.CoilLatchTrigger) {
		b.armUnlock()
	}

	if b.take(regmap.CoilBroadcast) {
		b.broadcastPending = true
	}

	// Factory reset needs the arm coil plus one apply coil.
	except := b.take(regmap.CoilResetExceptAddress)
	all := b.take(regmap.CoilResetAllData)
	if except || all {
		if !b.bank.Coil(regmap.CoilFactoryReset) {
			glog.Warningf("[bridge] factory reset apply without arm, ignored")
		} else {
			b.bank.SetCoil(regmap.CoilFactoryReset, false)
			if err := b.store.RequestReset(except && !all); err != nil {
				glog.Errorf("[bridge] factory reset: %v", err)
			}
			return b.reset("factory reset")
		}
	}

	if b.take(regmap.CoilCommit) {
		return b.MapRegistersToConfig(true)
	}

	if b.take(regmap.CoilSoftwareReset) {
		return b.reset("software reset")
	}
	return nil
}

// take reports whether control coil addr is set and clears it.
func (b *Bridge) take(addr uint16) bool {
	if !b.bank.Coil(addr) {
		return false
	}
	b.bank.SetCoil(addr, false)
	return true
}

func (b *Bridge) armUnlock() {
	delay := uint32(b.bank.Get(regmap.FieldUnlockDelay, 0)) * 1000
	b.unlockArmed = true
	b.unlockDeadline = b.clock.Millis() + delay
	glog.Infof("[bridge] latch trigger, unlock in %dms", delay)
}

// ------------------------------------------------------------
// Channel enable levels
// ------------------------------------------------------------

func (b *Bridge) serviceChannels() {
	if b.cfg.Mode == mode.Demo {
		return
	}
	for i := 0; i < b.tracker.Len(); i++ {
		c := channel.Render(b.liveChannel(i))
		on := b.bank.Coil(regmap.ChannelCoil(i))
		if !b.tracker.Set(i, on, c) {
			b.tracker.Refresh(i, c)
		}
	}
}

// ------------------------------------------------------------
// Per-tick work
// ------------------------------------------------------------

// Tick runs the safety cutoff, the pending unlock and refreshes the
// status registers. It never fails.
func (b *Bridge) Tick() {
	if b.cfg.Mode != mode.Demo {
		cut := b.tracker.Enforce(func(i int) uint16 {
			return b.bank.Get(regmap.FieldMaxOnTime, i)
		})
		for _, i := range cut {
			b.bank.SetCoil(regmap.ChannelCoil(i), false)
		}
	}

	if b.unlockArmed && int32(b.clock.Millis()-b.unlockDeadline) >= 0 {
		b.unlockArmed = false
		if !b.latch.Unlock(b.cfg.PulseMs) {
			glog.Warningf("[bridge] unlock rejected")
		}
	}

	b.UpdateStatus()
}

// UpdateStatus recomputes every status register.
func (b *Bridge) UpdateStatus() {
	for _, e := range status.Encode(b.snapshot()) {
		b.bank.Set(e.Field, e.Index, e.Value)
	}
}

func (b *Bridge) snapshot() status.Snapshot {
	s := status.Snapshot{
		Temperature:  b.temperature,
		Channels:     make([]status.ChannelStats, b.tracker.Len()),
		Locked:       b.latch.Locked(),
		UnlockResult: b.latch.LastResult(),
		Mode:         b.cfg.Mode,
	}
	for i := range s.Channels {
		s.Channels[i].Count, s.Channels[i].Seconds = b.tracker.Stats(i)
	}
	s.TotalCount, s.TotalOnTime = b.tracker.Totals()

	if b.unlockArmed {
		left := b.unlockDeadline - b.clock.Millis()
		if int32(left) > 0 {
			s.UnlockCountdown = uint16((left + 999) / 1000)
		}
	}
	return s
}
