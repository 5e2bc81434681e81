package stringpool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddAndGet(t *testing.T) {
	p := New()
	assert.Equal(t, uint32(0), p.Add(""))
	assert.Equal(t, "", p.Get(0))

	off := p.Add("Google LLC")
	assert.Equal(t, "Google LLC", p.Get(off))

	// Identical strings share an offset.
	off2 := p.Add("Google LLC")
	assert.Equal(t, off, off2)

	offOther := p.Add("United States")
	assert.NotEqual(t, off, offOther)
	assert.Equal(t, "United States", p.Get(offOther))
}

func TestGetOutOfRange(t *testing.T) {
	p := New()
	assert.Equal(t, "", p.Get(9999))
}

func TestWriteToRoundTrip(t *testing.T) {
	p := New()
	a := p.Add("vendor")
	b := p.Add("description")

	var buf bytes.Buffer
	n, err := p.WriteTo(&buf)
	assert.NoError(t, err)
	assert.Equal(t, int64(p.Len()), n)

	p2 := FromBytes(buf.Bytes())
	assert.Equal(t, "vendor", p2.Get(a))
	assert.Equal(t, "description", p2.Get(b))
}
