// internal/store/record.go
package store

import (
	"encoding/binary"
	"fmt"
)

// Record geometry. The layout is persisted in nonvolatile storage and
// MUST NOT be reordered: existing devices would read garbage.

// Channels is the number of output channels in a record.
const Channels = 8

// ---- BUS ADDRESS ----

const (
	AddressMin        uint8 = 1
	AddressMax        uint8 = 246
	AddressUnassigned uint8 = 247 // also the SET_ID identification address
)

// ---- COMPILED-IN DEFAULTS ----

const (
	DefaultDeviceType       uint16 = 0
	DefaultFirmwareVersion  uint16 = 28085 // ddmmy
	DefaultHardwareVersion  uint16 = 401   // mnp
	DefaultBaudRate         uint32 = 9600
	DefaultBusAddress       uint8  = 99
	DefaultBrightness       uint8  = 20
	DefaultMaxOnTimeSeconds uint16 = 300
)

var (
	defaultRed   = [Channels]uint8{255, 0, 0, 255, 0, 255, 255, 255}
	defaultGreen = [Channels]uint8{0, 255, 0, 255, 255, 0, 128, 255}
	defaultBlue  = [Channels]uint8{0, 0, 255, 0, 255, 255, 0, 235}
)

// ChannelConfig holds the persisted tunables of one output channel.
type ChannelConfig struct {
	Brightness uint8 // 0-100
	Red        uint8
	Green      uint8
	Blue       uint8
	MaxOnTime  uint16 // seconds, 0 = no limit
}

// Config is the persisted device configuration (working copy).
type Config struct {
	FirstBoot          bool
	ResetExceptAddress bool

	DeviceType      uint16
	FirmwareVersion uint16
	HardwareVersion uint16

	BaudRate   uint32
	BusAddress uint8

	Channels [Channels]ChannelConfig

	GlobalBrightness uint8
	GlobalMaxOnTime  uint16
	UnlockDelay      uint16 // seconds
}

// Defaults returns the compiled-in configuration.
func Defaults() Config {
	c := Config{
		DeviceType:       DefaultDeviceType,
		FirmwareVersion:  DefaultFirmwareVersion,
		HardwareVersion:  DefaultHardwareVersion,
		BaudRate:         DefaultBaudRate,
		BusAddress:       DefaultBusAddress,
		GlobalBrightness: DefaultBrightness,
		GlobalMaxOnTime:  DefaultMaxOnTimeSeconds,
	}
	for i := range c.Channels {
		c.Channels[i] = ChannelConfig{
			Brightness: DefaultBrightness,
			Red:        defaultRed[i],
			Green:      defaultGreen[i],
			Blue:       defaultBlue[i],
			MaxOnTime:  DefaultMaxOnTimeSeconds,
		}
	}
	return c
}

// ValidAddress reports whether a is an assignable slave address or the unassigned sentinel.
func ValidAddress(a uint8) bool {
	return (a >= AddressMin && a <= AddressMax) || a == AddressUnassigned
}

// ------------------------------------------------------------
// RECORD LAYOUT (little-endian)
// ------------------------------------------------------------
//
//  0     first boot flag (0 = clear, anything else = set; erased 0xFF = set)
//  1     reset-except-address flag
//  2-3   device type
//  4-5   firmware version
//  6-7   hardware version
//  8-11  baud rate
//  12    bus address
//  13+6i channel i: brightness, red, green, blue, max on-time (2)
//  61    global brightness
//  62-63 global max on-time
//  64-65 unlock delay

const (
	offFirstBoot   = 0
	offResetExcept = 1
	offDeviceType  = 2
	offFirmware    = 4
	offHardware    = 6
	offBaud        = 8
	offAddress     = 12
	offChannels    = 13
	channelSize    = 6
	offGlobalBri   = offChannels + Channels*channelSize
	offGlobalMax   = offGlobalBri + 1
	offUnlockDelay = offGlobalMax + 2

	// RecordSize is the exact number of bytes occupied in storage.
	RecordSize = offUnlockDelay + 2
)

// Encode serialises c into its fixed storage layout.
// No IO. No side effects.
func Encode(c Config) []byte {
	b := make([]byte, RecordSize)
	le := binary.LittleEndian

	b[offFirstBoot] = flag(c.FirstBoot)
	b[offResetExcept] = flag(c.ResetExceptAddress)
	le.PutUint16(b[offDeviceType:], c.DeviceType)
	le.PutUint16(b[offFirmware:], c.FirmwareVersion)
	le.PutUint16(b[offHardware:], c.HardwareVersion)
	le.PutUint32(b[offBaud:], c.BaudRate)
	b[offAddress] = c.BusAddress

	for i, ch := range c.Channels {
		o := offChannels + i*channelSize
		b[o] = ch.Brightness
		b[o+1] = ch.Red
		b[o+2] = ch.Green
		b[o+3] = ch.Blue
		le.PutUint16(b[o+4:], ch.MaxOnTime)
	}

	b[offGlobalBri] = c.GlobalBrightness
	le.PutUint16(b[offGlobalMax:], c.GlobalMaxOnTime)
	le.PutUint16(b[offUnlockDelay:], c.UnlockDelay)
	return b
}

// Decode parses a stored record. It does not validate field ranges;
// corrupt content is resolved by the first-boot path, not here.
func Decode(b []byte) (Config, error) {
	if len(b) < RecordSize {
		return Config{}, fmt.Errorf("store: short record: got=%d want=%d", len(b), RecordSize)
	}
	le := binary.LittleEndian

	c := Config{
		FirstBoot:          b[offFirstBoot] != 0,
		ResetExceptAddress: b[offResetExcept] != 0,
		DeviceType:         le.Uint16(b[offDeviceType:]),
		FirmwareVersion:    le.Uint16(b[offFirmware:]),
		HardwareVersion:    le.Uint16(b[offHardware:]),
		BaudRate:           le.Uint32(b[offBaud:]),
		BusAddress:         b[offAddress],
		GlobalBrightness:   b[offGlobalBri],
		GlobalMaxOnTime:    le.Uint16(b[offGlobalMax:]),
		UnlockDelay:        le.Uint16(b[offUnlockDelay:]),
	}
	for i := range c.Channels {
		o := offChannels + i*channelSize
		c.Channels[i] = ChannelConfig{
			Brightness: b[o],
			Red:        b[o+1],
			Green:      b[o+2],
			Blue:       b[o+3],
			MaxOnTime:  le.Uint16(b[o+4:]),
		}
	}
	return c, nil
}

func flag(v bool) byte {
	if v {
		return 1
	}
	return 0
}
