package dbformat

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// EncodeHeaderV1 renders h as the fixed HeaderV1Size byte payload.
func EncodeHeaderV1(h HeaderV1) []byte {
	buf := make([]byte, 0, HeaderV1Size)
	buf = appendU64(buf, h.CreatedAt)
	buf = appendU32(buf, h.Vendor)
	buf = appendU32(buf, h.Description)
	buf = appendU32(buf, h.License)
	buf = appendU32(buf, h.ASOffset)
	buf = appendU32(buf, h.ASLength)
	buf = appendU32(buf, h.NetworkTreeOffset)
	buf = appendU32(buf, h.NetworkTreeLength)
	buf = appendU32(buf, h.NetworkDataOffset)
	buf = appendU32(buf, h.NetworkDataLength)
	buf = appendU32(buf, h.PoolOffset)
	buf = appendU32(buf, h.PoolLength)
	buf = appendU32(buf, h.CountriesOffset)
	buf = appendU32(buf, h.CountriesLength)
	return buf
}

// DecodeHeaderV1 parses a HeaderV1Size byte payload.
func DecodeHeaderV1(b []byte) (HeaderV1, error) {
	if len(b) < HeaderV1Size {
		return HeaderV1{}, fmt.Errorf("%w: header v1 needs %d bytes, got %d", ErrTruncated, HeaderV1Size, len(b))
	}
	r := bytes.NewReader(b)
	var h HeaderV1
	h.CreatedAt = readU64(r)
	h.Vendor = readU32(r)
	h.Description = readU32(r)
	h.License = readU32(r)
	h.ASOffset = readU32(r)
	h.ASLength = readU32(r)
	h.NetworkTreeOffset = readU32(r)
	h.NetworkTreeLength = readU32(r)
	h.NetworkDataOffset = readU32(r)
	h.NetworkDataLength = readU32(r)
	h.PoolOffset = readU32(r)
	h.PoolLength = readU32(r)
	h.CountriesOffset = readU32(r)
	h.CountriesLength = readU32(r)
	return h, nil
}

// DecodeHeaderV0 parses a HeaderV0Size byte payload.
func DecodeHeaderV0(b []byte) (HeaderV0, error) {
	if len(b) < HeaderV0Size {
		return HeaderV0{}, fmt.Errorf("%w: header v0 needs %d bytes, got %d", ErrTruncated, HeaderV0Size, len(b))
	}
	r := bytes.NewReader(b)
	var h HeaderV0
	h.CreatedAt = readU64(r)
	h.Vendor = readU32(r)
	h.Description = readU32(r)
	h.ASOffset = readU32(r)
	h.ASLength = readU32(r)
	h.NetworkTreeOffset = readU32(r)
	h.NetworkTreeLength = readU32(r)
	h.NetworkDataOffset = readU32(r)
	h.NetworkDataLength = readU32(r)
	h.PoolOffset = readU32(r)
	h.PoolLength = readU32(r)
	return h, nil
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func readU32(r *bytes.Reader) uint32 {
	var tmp [4]byte
	r.Read(tmp[:])
	return binary.BigEndian.Uint32(tmp[:])
}

func readU64(r *bytes.Reader) uint64 {
	var tmp [8]byte
	r.Read(tmp[:])
	return binary.BigEndian.Uint64(tmp[:])
}
