package writer

import (
	"errors"
	"io"
)

// MemSink is a minimal in-memory io.WriteSeeker, since bytes.Buffer does
// not implement Seek and Write needs to rewind to the reserved header slot.
type MemSink struct {
	buf []byte
	pos int64
}

// NewMemSink returns an io.WriteSeeker backed by a growable in-memory
// buffer, useful for tests and for building a database before copying it to
// its final destination.
func NewMemSink() *MemSink {
	return &MemSink{}
}

func (m *MemSink) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.buf)) {
		grown := make([]byte, end)
		copy(grown, m.buf)
		m.buf = grown
	}
	copy(m.buf[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *MemSink) Seek(offset int64, whence int) (int64, error) {
	var target int64
	switch whence {
	case io.SeekStart:
		target = offset
	case io.SeekCurrent:
		target = m.pos + offset
	case io.SeekEnd:
		target = int64(len(m.buf)) + offset
	default:
		return 0, errors.New("writer: invalid whence")
	}
	if target < 0 {
		return 0, errors.New("writer: negative seek position")
	}
	m.pos = target
	return m.pos, nil
}

// Bytes returns the buffer written so far.
func (m *MemSink) Bytes() []byte {
	return m.buf
}
