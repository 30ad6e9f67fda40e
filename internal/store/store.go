// internal/store/store.go
package store

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/glog"
)

// Medium is the byte-addressable nonvolatile storage primitive.
// *os.File satisfies it; see FileMedium and MemMedium.
type Medium interface {
	io.ReaderAt
	io.WriterAt
}

// Store owns the working configuration and the last-saved shadow.
// Cells have bounded write endurance: Save writes only when the encoded
// working copy differs from the shadow.
type Store struct {
	medium  Medium
	working Config
	shadow  []byte
	writes  int
}

// New returns a store over m. Call Load before use.
func New(m Medium) *Store {
	return &Store{medium: m}
}

// Load reads the record into the working copy and the shadow.
// Identity fields are refreshed from the compiled-in values.
func (s *Store) Load() error {
	buf, err := s.readRecord()
	if err != nil {
		return err
	}
	cfg, err := Decode(buf)
	if err != nil {
		return err
	}

	s.shadow = buf
	s.working = cfg

	s.working.DeviceType = DefaultDeviceType
	s.working.FirmwareVersion = DefaultFirmwareVersion
	s.working.HardwareVersion = DefaultHardwareVersion
	return nil
}

// Working returns the mutable working copy.
func (s *Store) Working() *Config {
	return &s.working
}

// Save persists the working copy if it differs from the shadow.
// It reports whether a write was issued.
func (s *Store) Save() (bool, error) {
	buf := Encode(s.working)
	if bytes.Equal(buf, s.shadow) {
		return false, nil
	}
	if err := s.writeRecord(buf); err != nil {
		return false, err
	}
	s.shadow = buf
	glog.Infof("[store] configuration saved (%d bytes)", len(buf))
	return true, nil
}

// Writes returns the number of record writes issued since creation.
func (s *Store) Writes() int {
	return s.writes
}

// RequestReset arms a first-boot flag and persists it.
// The caller is responsible for restarting the device afterwards.
func (s *Store) RequestReset(exceptAddress bool) error {
	if exceptAddress {
		s.working.ResetExceptAddress = true
	} else {
		s.working.FirstBoot = true
	}
	_, err := s.Save()
	return err
}

// ResolveFirstBoot replaces the working copy with defaults when a
// first-boot flag is set, preserving the bus address for the
// reset-except-address variant, and persists the result with flags cleared.
// It reports whether a reset was resolved; the caller then restarts.
func (s *Store) ResolveFirstBoot() (bool, error) {
	if !s.working.FirstBoot && !s.working.ResetExceptAddress {
		return false, nil
	}

	full := s.working.FirstBoot
	keep := s.working.BusAddress

	s.working = Defaults()
	if !full && ValidAddress(keep) {
		s.working.BusAddress = keep
	}

	if _, err := s.Save(); err != nil {
		return false, fmt.Errorf("store: first boot save: %w", err)
	}

	glog.Infof("[store] defaults applied (full=%t address=%d)", full, s.working.BusAddress)
	return true, nil
}

// ---- raw record primitives ----

func (s *Store) readRecord() ([]byte, error) {
	buf := make([]byte, RecordSize)
	n, err := s.medium.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("store: read record: %w", err)
	}
	// Short media read as erased cells.
	for i := n; i < len(buf); i++ {
		buf[i] = 0xFF
	}
	return buf, nil
}

func (s *Store) writeRecord(buf []byte) error {
	if _, err := s.medium.WriteAt(buf, 0); err != nil {
		return fmt.Errorf("store: write record: %w", err)
	}
	s.writes++
	return nil
}
