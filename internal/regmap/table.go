package regmap

import "fmt"

// Group is the lifetime class of an address.
type Group int

const (
	GroupNone     Group = iota
	GroupIdentity       // read-only, fixed at compile time
	GroupConfig         // read/write, survives reset only after commit
	GroupStatus         // read-only, recomputed every tick
	GroupControl        // coils: self-clearing actions
	GroupEnable         // coils: channel enable level
)

func (g Group) String() string {
	switch g {
	case GroupIdentity:
		return "identity"
	case GroupConfig:
		return "config"
	case GroupStatus:
		return "status"
	case GroupControl:
		return "control"
	case GroupEnable:
		return "enable"
	default:
		return "none"
	}
}

// Field is a logical register.
type Field int

const (
	FieldDeviceType Field = iota
	FieldFirmwareVersion
	FieldHardwareVersion
	FieldBaudRate
	FieldBusAddress
	FieldGlobalBrightness
	FieldGlobalMaxOnTime
	FieldUnlockDelay
	FieldTemperature
	FieldTotalCount
	FieldTotalOnTime
	FieldUnlockCountdown
	FieldLatchLocked
	FieldUnlockResult
	FieldMode
	FieldBrightness
	FieldRed
	FieldGreen
	FieldBlue
	FieldMaxOnTime
	FieldCount
	FieldOnTime

	fieldCount
)

// Spec binds a field to its address and encoding.
// Per-channel fields repeat Count times at Base + i*Stride.
type Spec struct {
	Name   string
	Group  Group
	Base   uint16
	Stride uint16
	Count  int
	Scale  uint32 // wire value = native / Scale
}

// Addr returns the address of instance i (0 for scalar fields).
func (s Spec) Addr(i int) uint16 {
	return s.Base + uint16(i)*s.Stride
}

// Encode converts a native value into its wire value.
func (s Spec) Encode(v uint32) uint16 {
	if s.Scale > 1 {
		v /= s.Scale
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}

// Decode converts a wire value into its native value.
func (s Spec) Decode(r uint16) uint32 {
	if s.Scale > 1 {
		return uint32(r) * s.Scale
	}
	return uint32(r)
}

func scalar(name string, g Group, addr uint16) Spec {
	return Spec{Name: name, Group: g, Base: addr, Count: 1, Scale: 1}
}

func perChannel(name string, g Group, off uint16) Spec {
	return Spec{Name: name, Group: g, Base: ChannelBase + off, Stride: ChannelStride, Count: Channels, Scale: 1}
}

// Table is the holding register map, keyed by Field.
var Table = [fieldCount]Spec{
	FieldDeviceType:      scalar("device_type", GroupIdentity, RegDeviceType),
	FieldFirmwareVersion: scalar("firmware_version", GroupIdentity, RegFirmwareVersion),
	FieldHardwareVersion: scalar("hardware_version", GroupIdentity, RegHardwareVersion),

	FieldBaudRate:   {Name: "baud_rate", Group: GroupConfig, Base: RegBaudRate, Count: 1, Scale: BaudScale},
	FieldBusAddress: scalar("bus_address", GroupConfig, RegBusAddress),

	FieldGlobalBrightness: scalar("global_brightness", GroupConfig, RegGlobalBrightness),
	FieldGlobalMaxOnTime:  scalar("global_max_on_time", GroupConfig, RegGlobalMaxOnTime),
	FieldUnlockDelay:      scalar("unlock_delay", GroupConfig, RegUnlockDelay),

	FieldTemperature:     scalar("temperature", GroupStatus, RegTemperature),
	FieldTotalCount:      scalar("total_count", GroupStatus, RegTotalCount),
	FieldTotalOnTime:     scalar("total_on_time", GroupStatus, RegTotalOnTime),
	FieldUnlockCountdown: scalar("unlock_countdown", GroupStatus, RegUnlockCountdown),
	FieldLatchLocked:     scalar("latch_locked", GroupStatus, RegLatchLocked),
	FieldUnlockResult:    scalar("unlock_result", GroupStatus, RegUnlockResult),
	FieldMode:            scalar("mode", GroupStatus, RegMode),

	FieldBrightness: perChannel("brightness", GroupConfig, OffBrightness),
	FieldRed:        perChannel("red", GroupConfig, OffRed),
	FieldGreen:      perChannel("green", GroupConfig, OffGreen),
	FieldBlue:       perChannel("blue", GroupConfig, OffBlue),
	FieldMaxOnTime:  perChannel("max_on_time", GroupConfig, OffMaxOnTime),
	FieldCount:      perChannel("count", GroupStatus, OffCount),
	FieldOnTime:     perChannel("on_time", GroupStatus, OffOnTime),
}

// CoilSpec describes a coil range.
type CoilSpec struct {
	Name  string
	Group Group
	Base  uint16
	Count int
}

// Coils is the coil map.
var Coils = []CoilSpec{
	{Name: "factory_reset", Group: GroupControl, Base: CoilFactoryReset, Count: 1},
	{Name: "reset_except_address", Group: GroupControl, Base: CoilResetExceptAddress, Count: 1},
	{Name: "reset_all_data", Group: GroupControl, Base: CoilResetAllData, Count: 1},
	{Name: "commit", Group: GroupControl, Base: CoilCommit, Count: 1},
	{Name: "software_reset", Group: GroupControl, Base: CoilSoftwareReset, Count: 1},
	{Name: "latch_trigger", Group: GroupControl, Base: CoilLatchTrigger, Count: 1},
	{Name: "broadcast", Group: GroupControl, Base: CoilBroadcast, Count: 1},
	{Name: "channel_enable", Group: GroupEnable, Base: CoilChannelBase, Count: Channels},
}

// ChannelCoil returns the enable coil of channel i.
func ChannelCoil(i int) uint16 {
	return CoilChannelBase + uint16(i)
}

// Validate checks that no two registers and no two coils share an address.
// It performs declarative validation only.
func Validate() error {
	regOwner := make(map[uint16]string)
	for f := Field(0); f < fieldCount; f++ {
		s := Table[f]
		if s.Name == "" || s.Count < 1 {
			return fmt.Errorf("regmap: field %d has no spec", f)
		}
		if s.Count > 1 && s.Stride == 0 {
			return fmt.Errorf("regmap: field %s repeats without stride", s.Name)
		}
		for i := 0; i < s.Count; i++ {
			a := s.Addr(i)
			if prev, exists := regOwner[a]; exists {
				return fmt.Errorf("regmap: register %d used by %q and %q", a, prev, s.Name)
			}
			regOwner[a] = s.Name
		}
	}

	coilOwner := make(map[uint16]string)
	for _, c := range Coils {
		for i := 0; i < c.Count; i++ {
			a := c.Base + uint16(i)
			if prev, exists := coilOwner[a]; exists {
				return fmt.Errorf("regmap: coil %d used by %q and %q", a, prev, c.Name)
			}
			coilOwner[a] = c.Name
		}
	}
	return nil
}
