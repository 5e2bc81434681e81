package dbformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeaderV1RoundTrip(t *testing.T) {
	h := HeaderV1{
		CreatedAt:         1234,
		Vendor:            1,
		Description:       2,
		License:           3,
		ASOffset:          4096,
		ASLength:          16,
		NetworkTreeOffset: 8192,
		NetworkTreeLength: 12,
		NetworkDataOffset: 12288,
		NetworkDataLength: 8,
		PoolOffset:        16384,
		PoolLength:        64,
		CountriesOffset:   20480,
		CountriesLength:   8,
	}
	enc := EncodeHeaderV1(h)
	assert.Len(t, enc, HeaderV1Size)

	dec, err := DecodeHeaderV1(enc)
	assert.NoError(t, err)
	assert.Equal(t, h, dec)
}

func TestDecodeHeaderV1Truncated(t *testing.T) {
	_, err := DecodeHeaderV1([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestDecodeHeaderV0Upgrade(t *testing.T) {
	h0 := HeaderV0{CreatedAt: 1, Vendor: 2, ASOffset: 4096, ASLength: 8}
	v1 := h0.AsV1()
	assert.Equal(t, uint32(0), v1.License)
	assert.Equal(t, uint32(0), v1.CountriesOffset)
	assert.Equal(t, h0.Vendor, v1.Vendor)
}

func TestAlignToPage(t *testing.T) {
	assert.Equal(t, int64(0), AlignToPage(0))
	assert.Equal(t, int64(PageSize), AlignToPage(1))
	assert.Equal(t, int64(PageSize), AlignToPage(PageSize))
	assert.Equal(t, int64(2*PageSize), AlignToPage(PageSize+1))
}
