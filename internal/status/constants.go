// internal/status/constants.go
package status

// Live status encoding constants.
// These values define the protocol and MUST NOT be configurable.

// ---- LATCH ----

// LatchUnlocked and LatchLocked are the values of the latch-locked register.
const LatchUnlocked uint16 = 0
const LatchLocked uint16 = 1

// ---- TEMPERATURE ----

// TemperatureScale is the fixed-point factor of the temperature register.
const TemperatureScale = 100

// TemperatureMin and TemperatureMax bound the encodable range (°C).
const TemperatureMin = -327.68
const TemperatureMax = 327.67
