/*
Package stringpool implements the append-only intern table used by the
writer to store vendor/description/license text, AS names, and country
names: a NUL-terminated byte buffer addressed by stable offsets.
*/
package stringpool

import (
	"bytes"
	"io"
)

// Pool is an append-only string intern table. The zero value is a Pool with
// a single empty string at offset 0, mirroring libloc's convention that
// offset 0 is always the empty string.
type Pool struct {
	buf []byte
	// index maps an already-interned string to its offset, so repeated
	// Add calls for the same text share storage.
	index map[string]uint32
}

// New returns an initialized, empty Pool.
func New() *Pool {
	p := &Pool{
		buf:   []byte{0},
		index: map[string]uint32{"": 0},
	}
	return p
}

// Add interns s, returning the offset of its first byte. The empty string
// always returns offset 0. Identical strings share an offset.
func (p *Pool) Add(s string) uint32 {
	if p.index == nil {
		p.buf = []byte{0}
		p.index = map[string]uint32{"": 0}
	}
	if s == "" {
		return 0
	}
	if off, ok := p.index[s]; ok {
		return off
	}
	off := uint32(len(p.buf))
	p.buf = append(p.buf, s...)
	p.buf = append(p.buf, 0)
	p.index[s] = off
	return off
}

// Get returns the NUL-terminated string starting at offset. An out-of-range
// offset yields the empty string rather than panicking.
func (p *Pool) Get(offset uint32) string {
	if p == nil || int(offset) >= len(p.buf) {
		return ""
	}
	end := bytes.IndexByte(p.buf[offset:], 0)
	if end < 0 {
		return ""
	}
	return string(p.buf[offset : int(offset)+end])
}

// Len returns the size of the pool in bytes.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.buf)
}

// WriteTo writes the raw buffer to w, returning the number of bytes written.
func (p *Pool) WriteTo(w io.Writer) (int64, error) {
	if p == nil || len(p.buf) == 0 {
		return 0, nil
	}
	n, err := w.Write(p.buf)
	return int64(n), err
}

// FromBytes wraps a raw, already-assembled buffer (as read off disk) in a
// read-only Pool. Add must not be called on the result.
func FromBytes(buf []byte) *Pool {
	return &Pool{buf: buf}
}
