/*
Package reader opens a database file, validates its magic/version, and
offers AS lookup, address lookup, and filtered enumeration, without ever
loading the whole trie into a pointer-linked structure — lookups walk the
on-disk node records directly by byte offset, the way a memory-mapped
reader would.
*/
package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/locdb/locdb/address"
	"github.com/locdb/locdb/as"
	"github.com/locdb/locdb/country"
	"github.com/locdb/locdb/dbformat"
	"github.com/locdb/locdb/loccontext"
	"github.com/locdb/locdb/network"
	"github.com/locdb/locdb/stringpool"
)

// State is the reader's position in the Closed -> Validated -> Ready state
// machine.
type State int

const (
	StateClosed State = iota
	StateValidated
	StateReady
)

// ErrNotFound is returned by GetAS and Lookup on a miss.
var ErrNotFound = errors.New("reader: not found")

// DB is an opened, validated locdb database. All reads are random access;
// lookups are safe for concurrent use by multiple goroutines once Ready,
// since no mutation occurs after Open returns.
type DB struct {
	ctx   *loccontext.Context
	state State

	header dbformat.HeaderV1

	asTable      []as.AS
	countryTable []country.Country
	pool         *stringpool.Pool

	treeNodes   []byte // raw TrieNodeRecordSize-byte records
	networkData []byte // raw NetworkDataRecordSize-byte records
}

// Option configures Open.
type Option func(*options)

type options struct {
	ctx *loccontext.Context
}

// WithContext attaches a logging context.
func WithContext(ctx *loccontext.Context) Option {
	return func(o *options) { o.ctx = ctx }
}

// Open reads magic, version, and header from source (size bytes long),
// validates every section lies inside the file, and loads the sections
// needed for lookup. source can be backed by a memory-mapped file when
// the platform supports it, or by a buffered *os.File otherwise — Open
// only requires io.ReaderAt, so either works unchanged.
func Open(source io.ReaderAt, size int64, opts ...Option) (*DB, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.ctx == nil {
		o.ctx = loccontext.NewFromEnv()
	}
	db := &DB{ctx: o.ctx}

	prefix := make([]byte, dbformat.MagicLen+2)
	if _, err := readFullAt(source, prefix, 0); err != nil {
		return nil, err
	}
	if string(prefix[:len(dbformat.Magic)]) != dbformat.Magic || prefix[len(dbformat.Magic)] != 0 {
		return nil, dbformat.ErrBadMagic
	}
	version := uint16(prefix[dbformat.MagicLen])<<8 | uint16(prefix[dbformat.MagicLen+1])
	db.state = StateValidated

	headerOffset := int64(dbformat.MagicLen + 2)
	switch version {
	case dbformat.VersionCurrent:
		buf := make([]byte, dbformat.HeaderV1Size)
		if _, err := readFullAt(source, buf, headerOffset); err != nil {
			return nil, err
		}
		h, err := dbformat.DecodeHeaderV1(buf)
		if err != nil {
			return nil, err
		}
		db.header = h
	case dbformat.VersionLegacy:
		buf := make([]byte, dbformat.HeaderV0Size)
		if _, err := readFullAt(source, buf, headerOffset); err != nil {
			return nil, err
		}
		h, err := dbformat.DecodeHeaderV0(buf)
		if err != nil {
			return nil, err
		}
		db.header = h.AsV1()
	default:
		return nil, fmt.Errorf("%w: version %d", dbformat.ErrUnsupportedVersion, version)
	}

	sections := []struct {
		name           string
		offset, length uint32
	}{
		{"as", db.header.ASOffset, db.header.ASLength},
		{"network tree", db.header.NetworkTreeOffset, db.header.NetworkTreeLength},
		{"network data", db.header.NetworkDataOffset, db.header.NetworkDataLength},
		{"pool", db.header.PoolOffset, db.header.PoolLength},
		{"countries", db.header.CountriesOffset, db.header.CountriesLength},
	}
	for _, s := range sections {
		if int64(s.offset)+int64(s.length) > size {
			return nil, fmt.Errorf("%w: %s section out of bounds", dbformat.ErrTruncated, s.name)
		}
	}

	asBytes := make([]byte, db.header.ASLength)
	if _, err := readFullAt(source, asBytes, int64(db.header.ASOffset)); err != nil {
		return nil, err
	}
	db.asTable = decodeASTable(asBytes)

	db.treeNodes = make([]byte, db.header.NetworkTreeLength)
	if _, err := readFullAt(source, db.treeNodes, int64(db.header.NetworkTreeOffset)); err != nil {
		return nil, err
	}

	db.networkData = make([]byte, db.header.NetworkDataLength)
	if _, err := readFullAt(source, db.networkData, int64(db.header.NetworkDataOffset)); err != nil {
		return nil, err
	}

	poolBytes := make([]byte, db.header.PoolLength)
	if _, err := readFullAt(source, poolBytes, int64(db.header.PoolOffset)); err != nil {
		return nil, err
	}
	db.pool = stringpool.FromBytes(poolBytes)

	countryBytes := make([]byte, db.header.CountriesLength)
	if _, err := readFullAt(source, countryBytes, int64(db.header.CountriesOffset)); err != nil {
		return nil, err
	}
	db.countryTable = decodeCountryTable(countryBytes)

	db.state = StateReady
	return db, nil
}

func readFullAt(r io.ReaderAt, buf []byte, offset int64) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}
	return io.ReadFull(io.NewSectionReader(r, offset, int64(len(buf))), buf)
}

// State returns the reader's current state.
func (db *DB) State() State {
	return db.state
}

// Vendor returns the vendor string.
func (db *DB) Vendor() string { return db.pool.Get(db.header.Vendor) }

// Description returns the description string.
func (db *DB) Description() string { return db.pool.Get(db.header.Description) }

// License returns the license string.
func (db *DB) License() string { return db.pool.Get(db.header.License) }

// CreatedAt returns the seconds-since-epoch creation timestamp.
func (db *DB) CreatedAt() uint64 { return db.header.CreatedAt }

// CountAS returns the number of AS records.
func (db *DB) CountAS() int { return len(db.asTable) }

// CountNetworks returns the number of networks in the network data section.
func (db *DB) CountNetworks() int {
	return len(db.networkData) / dbformat.NetworkDataRecordSize
}

// ASName returns the interned name of a.
func (db *DB) ASName(a as.AS) string { return db.pool.Get(a.NameOffset) }

// CountryName returns the interned name of c.
func (db *DB) CountryName(c country.Country) string { return db.pool.Get(c.NameOffset) }

// GetAS binary searches the AS section by number.
func (db *DB) GetAS(number uint32) (as.AS, error) {
	i, found := as.Search(db.asTable, number)
	if !found {
		return as.AS{}, fmt.Errorf("%w: AS%d", ErrNotFound, number)
	}
	return db.asTable[i], nil
}

// Lookup descends the trie by bit(addr, i), returning the deepest leaf's
// Network. addr is used as given: an IPv4 address must already be in the
// IPv4-mapped form that address.FromNetIP produces.
func (db *DB) Lookup(addr address.Address) (network.Network, error) {
	n, ok := db.lookup(addr)
	if !ok {
		return network.Network{}, fmt.Errorf("%w: %s", ErrNotFound, addr.String())
	}
	return n, nil
}

func (db *DB) lookup(addr address.Address) (network.Network, bool) {
	type match struct {
		depth int
		data  uint32 // index into the network data section
	}
	var best *match

	idx := uint32(0)
	count := uint32(len(db.treeNodes) / dbformat.TrieNodeRecordSize)
	for depth := 0; depth <= address.BitLen; depth++ {
		if idx >= count {
			break
		}
		child0, child1, dataIdx := decodeTrieNode(db.treeNodes, idx)
		if dataIdx != dbformat.NoNetworkIndex {
			best = &match{depth: depth, data: dataIdx}
		}
		if depth == address.BitLen {
			break
		}
		bit, err := addr.Bit(uint(depth))
		if err != nil {
			break
		}
		next := child0
		if bit == 1 {
			next = child1
		}
		if next == 0 {
			// 0 always means "absent child": the root is never anyone's
			// child, so index 0 is never a valid non-root destination.
			break
		}
		idx = next
	}
	if best == nil {
		return network.Network{}, false
	}
	return db.buildNetwork(addr, best.depth, best.data), true
}

func (db *DB) buildNetwork(addr address.Address, depth int, dataIdx uint32) network.Network {
	first := address.First(addr, depth)
	last := address.Last(first, depth)
	family := network.FamilyIPv6
	if depth > 96 && first.IsIPv4Mapped() {
		family = network.FamilyIPv4
	}
	n := network.Network{First: first, Last: last, Prefix: depth, Family: family}
	n = decodeNetworkData(db.networkData, dataIdx, n)
	return n
}

// EnumerateNetworks walks the trie in ascending order, returning every
// Network whose country code, ASN, and flags (each optional — nil/zero
// means "don't filter on this") match.
func (db *DB) EnumerateNetworks(countryCode string, asn *uint32, flagsMask *network.Flags) ([]network.Network, error) {
	var out []network.Network
	var walk func(idx uint32, depth int, cur address.Address) error
	count := uint32(len(db.treeNodes) / dbformat.TrieNodeRecordSize)
	walk = func(idx uint32, depth int, cur address.Address) error {
		if idx >= count {
			return nil
		}
		child0, child1, dataIdx := decodeTrieNode(db.treeNodes, idx)
		if dataIdx != dbformat.NoNetworkIndex {
			n := db.buildNetwork(cur, depth, dataIdx)
			if matches(n, countryCode, asn, flagsMask) {
				out = append(out, n)
			}
		}
		if child0 != 0 {
			if err := walk(child0, depth+1, address.SetBit(cur, uint(depth), 0)); err != nil {
				return err
			}
		}
		if child1 != 0 {
			if err := walk(child1, depth+1, address.SetBit(cur, uint(depth), 1)); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0, 0, address.Address{}); err != nil {
		return nil, err
	}
	return out, nil
}

func matches(n network.Network, countryCode string, asn *uint32, flagsMask *network.Flags) bool {
	if countryCode != "" && n.CountryCodeString() != countryCode {
		return false
	}
	if asn != nil && n.ASN != *asn {
		return false
	}
	if flagsMask != nil && n.Flags&*flagsMask == 0 {
		return false
	}
	return true
}

// EnumerateASes scans the AS section. If prefix is all-decimal, it matches
// ASN numbers by decimal string prefix; otherwise it matches AS names by
// case-insensitive substring.
func (db *DB) EnumerateASes(prefix string) []as.AS {
	if prefix == "" {
		return append([]as.AS(nil), db.asTable...)
	}
	if isDecimal(prefix) {
		var out []as.AS
		for _, a := range db.asTable {
			if strings.HasPrefix(strconv.FormatUint(uint64(a.Number), 10), prefix) {
				out = append(out, a)
			}
		}
		return out
	}
	needle := strings.ToLower(prefix)
	var out []as.AS
	for _, a := range db.asTable {
		if strings.Contains(strings.ToLower(db.ASName(a)), needle) {
			out = append(out, a)
		}
	}
	return out
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func decodeASTable(buf []byte) []as.AS {
	count := len(buf) / dbformat.ASRecordSize
	table := make([]as.AS, count)
	r := bytes.NewReader(buf)
	for i := 0; i < count; i++ {
		var rec [dbformat.ASRecordSize]byte
		r.Read(rec[:])
		table[i] = as.AS{
			Number:     be32(rec[0:4]),
			NameOffset: be32(rec[4:8]),
		}
	}
	return table
}

func decodeCountryTable(buf []byte) []country.Country {
	count := len(buf) / dbformat.CountryRecordSize
	table := make([]country.Country, count)
	for i := 0; i < count; i++ {
		off := i * dbformat.CountryRecordSize
		rec := buf[off : off+dbformat.CountryRecordSize]
		var c country.Country
		copy(c.Code[:], rec[0:2])
		copy(c.ContinentCode[:], rec[2:4])
		c.NameOffset = be32(rec[4:8])
		table[i] = c
	}
	sort.Slice(table, func(i, j int) bool { return country.Less(table[i], table[j]) })
	return table
}

func decodeTrieNode(buf []byte, idx uint32) (child0, child1, dataIdx uint32) {
	off := int(idx) * dbformat.TrieNodeRecordSize
	if off+dbformat.TrieNodeRecordSize > len(buf) {
		return 0, 0, dbformat.NoNetworkIndex
	}
	rec := buf[off : off+dbformat.TrieNodeRecordSize]
	return be32(rec[0:4]), be32(rec[4:8]), be32(rec[8:12])
}

func decodeNetworkData(buf []byte, idx uint32, n network.Network) network.Network {
	off := int(idx) * dbformat.NetworkDataRecordSize
	if off+dbformat.NetworkDataRecordSize > len(buf) {
		return n
	}
	rec := buf[off : off+dbformat.NetworkDataRecordSize]
	copy(n.CountryCode[:], rec[0:2])
	n.ASN = be32(rec[2:6])
	n.Flags = network.Flags(be16(rec[6:8]))
	return n
}

func be32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func be16(b []byte) uint16 {
	return uint16(b[0])<<8 | uint16(b[1])
}
