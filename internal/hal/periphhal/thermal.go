package periphhal

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tamzrod/modbus-ledpanel/internal/hal"
)

// DefaultThermalPath is the SoC thermal zone on Raspberry Pi class boards.
const DefaultThermalPath = "/sys/class/thermal/thermal_zone0/temp"

// Thermal reads a sysfs thermal zone (millidegrees Celsius).
type Thermal struct {
	Path string
}

func (t Thermal) Temperature() (float64, error) {
	if t.Path == "" {
		return 0, hal.ErrNoSensor
	}
	data, err := os.ReadFile(t.Path)
	if err != nil {
		return 0, fmt.Errorf("thermal: read %s: %w", t.Path, err)
	}
	millideg, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("thermal: parse: %w", err)
	}
	return float64(millideg) / 1000.0, nil
}

var _ hal.Sensor = Thermal{}
