package bridge

import (
	"fmt"

	"github.com/golang/glog"

	"github.com/tamzrod/modbus-ledpanel/internal/regmap"
	"github.com/tamzrod/modbus-ledpanel/internal/store"
	"github.com/tamzrod/modbus-ledpanel/internal/xmath"
)

// Baud rates accepted from the bus; anything else is ignored.
var validBaud = map[uint32]bool{
	1200: true, 2400: true, 4800: true, 9600: true, 14400: true,
	19200: true, 28800: true, 38400: true, 57600: true, 115200: true,
}

// MapConfigToRegisters copies the working configuration into the bank
// and arms the broadcast setters with the configured global values.
func (b *Bridge) MapConfigToRegisters() {
	c := b.store.Working()
	tab := regmap.Table

	b.bank.Set(regmap.FieldDeviceType, 0, c.DeviceType)
	b.bank.Set(regmap.FieldFirmwareVersion, 0, c.FirmwareVersion)
	b.bank.Set(regmap.FieldHardwareVersion, 0, c.HardwareVersion)

	b.bank.Set(regmap.FieldBaudRate, 0, tab[regmap.FieldBaudRate].Encode(c.BaudRate))
	b.bank.Set(regmap.FieldBusAddress, 0, uint16(c.BusAddress))
	b.bank.Set(regmap.FieldGlobalBrightness, 0, uint16(c.GlobalBrightness))
	b.bank.Set(regmap.FieldGlobalMaxOnTime, 0, c.GlobalMaxOnTime)
	b.bank.Set(regmap.FieldUnlockDelay, 0, c.UnlockDelay)

	for i, ch := range c.Channels {
		b.bank.Set(regmap.FieldBrightness, i, uint16(ch.Brightness))
		b.bank.Set(regmap.FieldRed, i, uint16(ch.Red))
		b.bank.Set(regmap.FieldGreen, i, uint16(ch.Green))
		b.bank.Set(regmap.FieldBlue, i, uint16(ch.Blue))
		b.bank.Set(regmap.FieldMaxOnTime, i, ch.MaxOnTime)
	}

	b.lastBrightness = uint16(c.GlobalBrightness)
	b.lastMaxOnTime = c.GlobalMaxOnTime
}

// MapRegistersToConfig copies the config registers into the working
// configuration. Out-of-range values are clamped or ignored.
// With persist it saves and restarts the device, returning ErrReset.
func (b *Bridge) MapRegistersToConfig(persist bool) error {
	c := b.store.Working()

	if baud := regmap.Table[regmap.FieldBaudRate].Decode(b.bank.Get(regmap.FieldBaudRate, 0)); validBaud[baud] {
		c.BaudRate = baud
	} else {
		glog.Warningf("[bridge] ignoring baud rate %d", baud)
	}

	if a := b.bank.Get(regmap.FieldBusAddress, 0); a <= 0xFF && (store.ValidAddress(uint8(a)) || a == uint16(store.AddressUnassigned)) {
		c.BusAddress = uint8(a)
	} else {
		glog.Warningf("[bridge] ignoring bus address %d", a)
	}

	c.GlobalBrightness = uint8(xmath.Clamp(b.bank.Get(regmap.FieldGlobalBrightness, 0), 0, regmap.MaxBrightness))
	c.GlobalMaxOnTime = b.bank.Get(regmap.FieldGlobalMaxOnTime, 0)
	c.UnlockDelay = b.bank.Get(regmap.FieldUnlockDelay, 0)

	for i := range c.Channels {
		c.Channels[i] = b.liveChannel(i)
	}

	if !persist {
		return nil
	}

	wrote, err := b.store.Save()
	if err != nil {
		// Not surfaced to the master; the restart reloads the last good record.
		glog.Errorf("[bridge] commit: %v", err)
	}
	return b.reset(fmt.Sprintf("commit (written=%t)", wrote))
}

// liveChannel reads channel i from the registers with values clamped.
func (b *Bridge) liveChannel(i int) store.ChannelConfig {
	get := func(f regmap.Field, hi uint16) uint8 {
		return uint8(xmath.Clamp(b.bank.Get(f, i), 0, hi))
	}
	return store.ChannelConfig{
		Brightness: get(regmap.FieldBrightness, regmap.MaxBrightness),
		Red:        get(regmap.FieldRed, regmap.MaxColor),
		Green:      get(regmap.FieldGreen, regmap.MaxColor),
		Blue:       get(regmap.FieldBlue, regmap.MaxColor),
		MaxOnTime:  b.bank.Get(regmap.FieldMaxOnTime, i),
	}
}

// fanOut applies the broadcast setters once per changed value.
// The comparison is against the last applied value, not the register's
// previous contents: masters may echo a value back unchanged.
func (b *Bridge) fanOut() {
	if g := b.bank.Get(regmap.FieldGlobalBrightness, 0); g != b.lastBrightness {
		v := xmath.Clamp(g, 0, regmap.MaxBrightness)
		for i := 0; i < regmap.Channels; i++ {
			b.bank.Set(regmap.FieldBrightness, i, v)
		}
		b.lastBrightness = g
		glog.Infof("[bridge] global brightness -> %d", v)
	}

	if g := b.bank.Get(regmap.FieldGlobalMaxOnTime, 0); g != b.lastMaxOnTime {
		for i := 0; i < regmap.Channels; i++ {
			b.bank.Set(regmap.FieldMaxOnTime, i, g)
		}
		b.lastMaxOnTime = g
		glog.Infof("[bridge] global max on-time -> %ds", g)
	}
}
