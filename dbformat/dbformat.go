/*
Package dbformat defines the on-disk layout shared by writer and reader:
magic, version dispatch, page alignment, fixed record sizes, and the
header layouts for schema v1 (current, countries + license) and v0
(legacy, no countries/license — readable but never written).

Every multi-byte field on disk is big-endian, regardless of host
endianness. This package encodes and decodes the header; the writer and
reader packages encode and decode section records with their own
big-endian helpers.
*/
package dbformat

import "errors"

// Magic is the fixed 7-byte signature, followed by a single NUL terminator.
const Magic = "LOCDBXX"

// MagicLen is len(Magic) + 1 (the NUL terminator), the on-disk magic field
// width.
const MagicLen = len(Magic) + 1

// PageSize is the alignment boundary every section is padded to.
const PageSize = 4096

// Schema versions.
const (
	VersionLegacy  = uint16(0) // no license, no countries section
	VersionCurrent = uint16(1)
)

// Record sizes in bytes.
const (
	ASRecordSize          = 8  // u32 number, u32 name_offset
	TrieNodeRecordSize    = 12 // u32 child0, u32 child1, u32 network_index
	NetworkDataRecordSize = 8  // u8[2] country_code, u32 asn, u16 flags
	CountryRecordSize     = 8  // u8[2] code, u8[2] continent, u32 name_offset
)

// NoNetworkIndex marks a trie node with no Network.
const NoNetworkIndex = 0xFFFFFFFF

// ErrBadMagic is returned when the file does not start with Magic.
var ErrBadMagic = errors.New("dbformat: not a database")

// ErrUnsupportedVersion is returned for any version dbformat does not know
// how to read.
var ErrUnsupportedVersion = errors.New("dbformat: unsupported version")

// ErrTruncated is returned when a section's (offset, length) falls outside
// the file.
var ErrTruncated = errors.New("dbformat: truncated record or section")

// HeaderV1 is the version-1 header payload, following the 10-byte
// magic+version prefix.
type HeaderV1 struct {
	CreatedAt         uint64
	Vendor            uint32
	Description       uint32
	License           uint32
	ASOffset          uint32
	ASLength          uint32
	NetworkTreeOffset uint32
	NetworkTreeLength uint32
	NetworkDataOffset uint32
	NetworkDataLength uint32
	PoolOffset        uint32
	PoolLength        uint32
	CountriesOffset   uint32
	CountriesLength   uint32
}

// HeaderV1Size is the encoded size of HeaderV1 in bytes.
const HeaderV1Size = 8 + 4*13

// HeaderV0 is the legacy header payload: no License, no Countries.
type HeaderV0 struct {
	CreatedAt         uint64
	Vendor            uint32
	Description       uint32
	ASOffset          uint32
	ASLength          uint32
	NetworkTreeOffset uint32
	NetworkTreeLength uint32
	NetworkDataOffset uint32
	NetworkDataLength uint32
	PoolOffset        uint32
	PoolLength        uint32
}

// HeaderV0Size is the encoded size of HeaderV0 in bytes.
const HeaderV0Size = 8 + 4*10

// AsV1 upgrades a legacy header to the v1 shape, with License, Countries
// fields left zero.
func (h HeaderV0) AsV1() HeaderV1 {
	return HeaderV1{
		CreatedAt:         h.CreatedAt,
		Vendor:            h.Vendor,
		Description:       h.Description,
		ASOffset:          h.ASOffset,
		ASLength:          h.ASLength,
		NetworkTreeOffset: h.NetworkTreeOffset,
		NetworkTreeLength: h.NetworkTreeLength,
		NetworkDataOffset: h.NetworkDataOffset,
		NetworkDataLength: h.NetworkDataLength,
		PoolOffset:        h.PoolOffset,
		PoolLength:        h.PoolLength,
	}
}

// AlignToPage rounds offset up to the next multiple of PageSize.
func AlignToPage(offset int64) int64 {
	rem := offset % PageSize
	if rem == 0 {
		return offset
	}
	return offset + (PageSize - rem)
}
