package config

import (
	"strconv"
	"strings"
	"testing"

	"github.com/tamzrod/modbus-ledpanel/internal/latch"
)

// helper to build a minimal valid config quickly
func valid() *Config {
	return &Config{
		Panel: PanelConfig{
			Bus:     BusConfig{Transport: TransportRTU, Port: "/dev/ttyS0"},
			Storage: StorageConfig{Path: "/var/lib/ledpanel/eeprom.bin"},
		},
	}
}

func channels() []ChannelPins {
	out := make([]ChannelPins, 8)
	for i := range out {
		n := 10 + 3*i
		out[i] = ChannelPins{
			Red:   "GPIO" + strconv.Itoa(n),
			Green: "GPIO" + strconv.Itoa(n+1),
			Blue:  "GPIO" + strconv.Itoa(n+2),
		}
	}
	return out
}

func expectErr(t *testing.T, cfg *Config, substr string) {
	t.Helper()
	err := Validate(cfg)
	if err == nil {
		t.Fatalf("expected error containing %q, got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Fatalf("expected error containing %q, got %v", substr, err)
	}
}

// ---- tests ----

func TestValidate_Minimal(t *testing.T) {
	if err := Validate(valid()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_TransportRequirements(t *testing.T) {
	cfg := valid()
	cfg.Panel.Bus.Port = ""
	expectErr(t, cfg, "requires port")

	cfg = valid()
	cfg.Panel.Bus.Transport = TransportTCP
	expectErr(t, cfg, "requires listen")

	cfg.Panel.Bus.Listen = ":502"
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg.Panel.Bus.Transport = "udp"
	expectErr(t, cfg, "unknown transport")
}

func TestValidate_SerialFraming(t *testing.T) {
	cfg := valid()
	cfg.Panel.Bus.Parity = "X"
	expectErr(t, cfg, "parity")

	cfg = valid()
	cfg.Panel.Bus.DataBits = 9
	expectErr(t, cfg, "data_bits")
}

func TestValidate_StorageTooSmall(t *testing.T) {
	cfg := valid()
	cfg.Panel.Storage.Size = 8
	expectErr(t, cfg, "smaller than record")
}

func TestValidate_PinsNoOverlap(t *testing.T) {
	cfg := valid()
	cfg.Panel.GPIO.StatusLED = "GPIO4"
	cfg.Panel.GPIO.Switch = "GPIO5"
	cfg.Panel.GPIO.Channels = channels()

	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_PinOverlapStatusAndChannel(t *testing.T) {
	cfg := valid()
	cfg.Panel.GPIO.Channels = channels()
	cfg.Panel.GPIO.StatusLED = cfg.Panel.GPIO.Channels[2].Green

	expectErr(t, cfg, "used by status_led and channel 3 green")
}

func TestValidate_PinOverlapBetweenChannels(t *testing.T) {
	cfg := valid()
	cfg.Panel.GPIO.Channels = channels()
	cfg.Panel.GPIO.Channels[7].Blue = cfg.Panel.GPIO.Channels[0].Red

	expectErr(t, cfg, "channel 1 red and channel 8 blue")
}

func TestValidate_ChannelCount(t *testing.T) {
	cfg := valid()
	cfg.Panel.GPIO.Channels = channels()[:3]
	expectErr(t, cfg, "want 8")
}

func TestValidate_PulseAboveCeiling(t *testing.T) {
	cfg := valid()
	cfg.Panel.Latch.PulseMs = 2000
	cfg.Panel.Latch.MaxPulseMs = 1000
	expectErr(t, cfg, "exceeds max_pulse_ms")
}

func TestValidate_BroadcastNeedsRTU(t *testing.T) {
	cfg := valid()
	cfg.Panel.Bus.Transport = TransportTCP
	cfg.Panel.Bus.Listen = ":502"
	cfg.Panel.Broadcast.Enabled = true
	expectErr(t, cfg, "broadcast")
}

func TestNormalize_Defaults(t *testing.T) {
	cfg := valid()
	Normalize(cfg)

	p := cfg.Panel
	if p.Bus.Parity != "N" || p.Bus.DataBits != 8 || p.Bus.StopBits != 1 {
		t.Fatalf("serial defaults not applied: %+v", p.Bus)
	}
	if p.Storage.Size != DefaultStorageSize {
		t.Fatalf("storage size: got %d", p.Storage.Size)
	}
	if p.Latch.PulseMs != latch.DefaultConfig.MaxPulseMs {
		t.Fatalf("pulse default: got %d", p.Latch.PulseMs)
	}
	if p.Timing.ClassifierMaxWaitMs != 15000 {
		t.Fatalf("classifier max wait: got %d", p.Timing.ClassifierMaxWaitMs)
	}
}

func TestNormalize_KeepsExplicit(t *testing.T) {
	cfg := valid()
	cfg.Panel.Latch.MaxPulseMs = 400
	cfg.Panel.Timing.StatusBlinkMs = 250
	Normalize(cfg)

	if cfg.Panel.Latch.PulseMs != 400 {
		t.Fatalf("pulse should follow ceiling: got %d", cfg.Panel.Latch.PulseMs)
	}
	if cfg.Panel.Timing.StatusBlinkMs != 250 {
		t.Fatalf("explicit period overwritten: got %d", cfg.Panel.Timing.StatusBlinkMs)
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("panel:\n  bogus: 1\n"))
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestParse_Document(t *testing.T) {
	doc := `
panel:
  bus:
    transport: tcp
    listen: "127.0.0.1:1502"
  storage:
    path: /tmp/eeprom.bin
  latch:
    max_pulse_ms: 800
  broadcast:
    per_second: 5
`
	cfg, err := Parse([]byte(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Panel.Bus.Listen != "127.0.0.1:1502" || cfg.Panel.Latch.MaxPulseMs != 800 {
		t.Fatalf("unexpected decode: %+v", cfg.Panel)
	}
}
