package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// ---- file-backed image ----

// OpenFile opens (or creates) a storage image of size bytes at path.
// A new image is filled with 0xFF, the erased state of EEPROM cells.
func OpenFile(path string, size int) (*os.File, error) {
	if size < RecordSize {
		return nil, fmt.Errorf("store: image size %d smaller than record (%d)", size, RecordSize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: mkdir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("store: stat %s: %w", path, err)
	}
	if st.Size() < int64(size) {
		erased := make([]byte, int64(size)-st.Size())
		for i := range erased {
			erased[i] = 0xFF
		}
		if _, err := f.WriteAt(erased, st.Size()); err != nil {
			f.Close()
			return nil, fmt.Errorf("store: erase %s: %w", path, err)
		}
		if err := f.Sync(); err != nil {
			f.Close()
			return nil, fmt.Errorf("store: sync %s: %w", path, err)
		}
	}
	return f, nil
}

// ---- in-memory image ----

// MemMedium is an in-memory image. New images read as erased.
type MemMedium struct {
	mu     sync.Mutex
	data   []byte
	Writes int
}

// NewMemMedium returns an erased image of size bytes.
func NewMemMedium(size int) *MemMedium {
	d := make([]byte, size)
	for i := range d {
		d[i] = 0xFF
	}
	return &MemMedium{data: d}
}

func (m *MemMedium) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (m *MemMedium) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if off+int64(len(p)) > int64(len(m.data)) {
		return 0, fmt.Errorf("store: write beyond image (%d+%d > %d)", off, len(p), len(m.data))
	}
	m.Writes++
	return copy(m.data[off:], p), nil
}

// Bytes returns a copy of the image.
func (m *MemMedium) Bytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]byte(nil), m.data...)
}
