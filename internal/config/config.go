// internal/config/config.go
package config

type Config struct {
	Panel PanelConfig `yaml:"panel"`
}

type PanelConfig struct {
	Bus       BusConfig       `yaml:"bus"`
	Storage   StorageConfig   `yaml:"storage"`
	GPIO      GPIOConfig      `yaml:"gpio"`
	Timing    TimingConfig    `yaml:"timing"`
	Latch     LatchConfig     `yaml:"latch"`
	Sensor    SensorConfig    `yaml:"sensor"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
}

// ---- BUS ----

const (
	TransportRTU = "rtu"
	TransportTCP = "tcp"
)

type BusConfig struct {
	Transport string `yaml:"transport"` // rtu | tcp

	// RTU
	Port      string `yaml:"port"`
	BaudRate  int    `yaml:"baud_rate"` // 0 = use the persisted rate
	DataBits  int    `yaml:"data_bits"`
	Parity    string `yaml:"parity"` // N | E | O
	StopBits  int    `yaml:"stop_bits"`
	TimeoutMs int    `yaml:"timeout_ms"`

	// TCP
	Listen string `yaml:"listen"`

	QueueDepth int `yaml:"queue_depth"`
}

// ---- STORAGE ----

type StorageConfig struct {
	Path string `yaml:"path"`
	Size int    `yaml:"size"`
}

// ---- GPIO ----

type GPIOConfig struct {
	StatusLED string        `yaml:"status_led"`
	Switch    string        `yaml:"switch"`
	Sense     string        `yaml:"sense"`
	Actuator  string        `yaml:"actuator"`
	Channels  []ChannelPins `yaml:"channels"`

	SwitchActiveLow bool `yaml:"switch_active_low"`
	SenseActiveLow  bool `yaml:"sense_active_low"`
	PWMHz           int  `yaml:"pwm_hz"`
}

type ChannelPins struct {
	Red   string `yaml:"red"`
	Green string `yaml:"green"`
	Blue  string `yaml:"blue"`
}

// ---- TIMING ----

type TimingConfig struct {
	StatusBlinkMs   uint32 `yaml:"status_blink_ms"`
	DemoBlinkMs     uint32 `yaml:"demo_blink_ms"`
	IdentifyBlinkMs uint32 `yaml:"identify_blink_ms"`
	SensorSampleMs  uint32 `yaml:"sensor_sample_ms"`

	ClassifierPollMs    uint32 `yaml:"classifier_poll_ms"`
	ClassifierMaxWaitMs uint32 `yaml:"classifier_max_wait_ms"`
	ClassifierSettleMs  uint32 `yaml:"classifier_settle_ms"`

	LoopMs uint32 `yaml:"loop_ms"`
}

// ---- LATCH ----

type LatchConfig struct {
	PulseMs       uint32 `yaml:"pulse_ms"`
	MaxPulseMs    uint32 `yaml:"max_pulse_ms"`
	MinIntervalMs uint32 `yaml:"min_interval_ms"`
	DebounceMs    uint32 `yaml:"debounce_ms"`
	PollMs        uint32 `yaml:"poll_ms"`
}

// ---- SENSOR ----

type SensorConfig struct {
	ThermalPath string `yaml:"thermal_path"` // empty = no sensor
}

// ---- BROADCAST ----

type BroadcastConfig struct {
	Enabled   bool    `yaml:"enabled"`
	PerSecond float64 `yaml:"per_second"`
	Burst     int     `yaml:"burst"`
}
