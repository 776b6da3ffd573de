package mem

import (
	"os"
)

// SRAM is the battery-backed save store. Writes land in memory and are
// persisted by Flush, which the machine calls at the start of every frame.
type SRAM struct {
	data  []byte
	path  string
	dirty bool
}

// NewSRAM loads the save file at path, or creates a zeroed store of the given
// size when the file is missing or the wrong length. A size of zero yields a
// store whose reads return 0 and whose writes are dropped.
func NewSRAM(path string, size int) (*SRAM, error) {
	s := &SRAM{data: make([]byte, size), path: path}
	if size == 0 || path == "" {
		return s, nil
	}
	existing, err := os.ReadFile(path)
	if err == nil && len(existing) == size {
		copy(s.data, existing)
	}
	return s, nil
}

func (s *SRAM) Read(addr uint32) byte {
	if len(s.data) == 0 {
		return 0
	}
	return s.data[int(addr)%len(s.data)]
}

func (s *SRAM) Write(addr uint32, value byte) {
	if len(s.data) == 0 {
		return
	}
	s.data[int(addr)%len(s.data)] = value
	s.dirty = true
}

// Flush writes the store back to disk if anything changed since the last
// flush. Best effort: a failed write leaves the data dirty for the next try.
func (s *SRAM) Flush() {
	if !s.dirty || s.path == "" || len(s.data) == 0 {
		return
	}
	if err := os.WriteFile(s.path, s.data, 0644); err == nil {
		s.dirty = false
	}
}

// Size returns the backing store length.
func (s *SRAM) Size() int { return len(s.data) }
