// internal/regmap/constants.go
package regmap

// Register map layout constants.
// These values define the bus protocol and MUST NOT be configurable.

// ---- CHANNEL GEOMETRY ----

// Channels is the number of output channels exposed on the bus.
const Channels = 8

// ChannelStride is the register distance between consecutive channels.
const ChannelStride = 10

// ChannelBase is the first register of channel 1.
const ChannelBase = 100

// ---- HOLDING REGISTERS: IDENTITY (read-only) ----

const RegDeviceType uint16 = 1
const RegFirmwareVersion uint16 = 2
const RegHardwareVersion uint16 = 3

// ---- HOLDING REGISTERS: DEVICE CONFIG (persisted) ----

const RegBaudRate uint16 = 4  // baud / 100
const RegBusAddress uint16 = 5

// ---- HOLDING REGISTERS: GLOBAL CONFIG (persisted) ----

// RegGlobalBrightness and RegGlobalMaxOnTime are broadcast setters:
// a changed value is fanned out to every channel.
const RegGlobalBrightness uint16 = 10
const RegGlobalMaxOnTime uint16 = 11
const RegUnlockDelay uint16 = 12

// ---- HOLDING REGISTERS: LIVE STATUS (read-only, recomputed) ----

const RegTemperature uint16 = 20 // °C x100, two's complement
const RegTotalCount uint16 = 21
const RegTotalOnTime uint16 = 22
const RegUnlockCountdown uint16 = 23
const RegLatchLocked uint16 = 24
const RegUnlockResult uint16 = 25
const RegMode uint16 = 26

// ---- PER-CHANNEL OFFSETS (ChannelBase + i*ChannelStride + offset) ----

const OffBrightness uint16 = 0
const OffRed uint16 = 1
const OffGreen uint16 = 2
const OffBlue uint16 = 3
const OffMaxOnTime uint16 = 4 // persisted
const OffCount uint16 = 5     // status
const OffOnTime uint16 = 6    // status

// ---- COILS: CONTROL (edge-triggered, self-clearing) ----

const CoilFactoryReset uint16 = 500
const CoilResetExceptAddress uint16 = 501
const CoilResetAllData uint16 = 502
const CoilCommit uint16 = 503
const CoilSoftwareReset uint16 = 504
const CoilLatchTrigger uint16 = 505
const CoilBroadcast uint16 = 506

// ---- COILS: CHANNEL ENABLE (level) ----

// CoilChannelBase is the enable coil of channel 1; channel i uses CoilChannelBase+i.
const CoilChannelBase uint16 = 1001

// ---- LIMITS ----

// MaxBrightness is the upper bound of every brightness register.
const MaxBrightness = 100

// MaxColor is the upper bound of every colour component register.
const MaxColor = 255

// BaudScale is the divisor applied to the baud rate on the wire.
const BaudScale = 100
