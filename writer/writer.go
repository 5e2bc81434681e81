/*
Package writer implements the Writer pipeline: accumulate ASes, countries,
and networks, then serialize them to the on-disk format in one shot. A
Writer owns a stringpool, two sorted tables (AS, country), and a trie of
networks, and commits them to storage only once, on Write.
*/
package writer

import (
	"errors"
	"fmt"
	"io"

	"github.com/locdb/locdb/as"
	"github.com/locdb/locdb/country"
	"github.com/locdb/locdb/dbformat"
	"github.com/locdb/locdb/loccontext"
	"github.com/locdb/locdb/network"
	"github.com/locdb/locdb/stringpool"
	"github.com/locdb/locdb/trie"
)

// State is the writer's position in the Empty -> Populating -> (Writing ->
// Done | Aborted) state machine.
type State int

const (
	StateEmpty State = iota
	StatePopulating
	StateWriting
	StateDone
	StateAborted
)

// ErrAlreadyPresent is returned by AddAS/AddCountry for duplicate keys.
// AddNetwork reports a duplicate network with trie.ErrAlreadyPresent.
var ErrAlreadyPresent = errors.New("writer: already present")

// ErrClosed is returned by every mutator once Write has been called.
var ErrClosed = errors.New("writer: closed for writing")

// Writer accumulates a database's contents and serializes them in the v1
// format.
type Writer struct {
	ctx   *loccontext.Context
	state State

	pool          *stringpool.Pool
	vendorOffset  uint32
	descOffset    uint32
	licenseOffset uint32

	asTable      []as.AS
	countryTable []country.Country
	trie         *trie.Trie
}

// Option configures a Writer.
type Option func(*Writer)

// WithContext attaches a logging context.
func WithContext(ctx *loccontext.Context) Option {
	return func(w *Writer) { w.ctx = ctx }
}

// New returns an empty Writer, ready to populate.
func New(opts ...Option) *Writer {
	w := &Writer{
		pool:  stringpool.New(),
		trie:  trie.New(),
		state: StateEmpty,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.ctx == nil {
		w.ctx = loccontext.NewFromEnv()
	}
	return w
}

// State returns the writer's current state.
func (w *Writer) State() State {
	return w.state
}

func (w *Writer) beginMutation() error {
	if w.state == StateWriting || w.state == StateDone || w.state == StateAborted {
		return ErrClosed
	}
	if w.state == StateEmpty {
		w.state = StatePopulating
	}
	return nil
}

// SetVendor interns text and stores the vendor offset.
func (w *Writer) SetVendor(text string) error {
	if err := w.beginMutation(); err != nil {
		return err
	}
	w.vendorOffset = w.pool.Add(text)
	return nil
}

// SetDescription interns text and stores the description offset.
func (w *Writer) SetDescription(text string) error {
	if err := w.beginMutation(); err != nil {
		return err
	}
	w.descOffset = w.pool.Add(text)
	return nil
}

// SetLicense interns text and stores the license offset.
func (w *Writer) SetLicense(text string) error {
	if err := w.beginMutation(); err != nil {
		return err
	}
	w.licenseOffset = w.pool.Add(text)
	return nil
}

// AddAS allocates an AS with the given number and name, inserting it in
// sorted position. Duplicate numbers fail with ErrAlreadyPresent.
func (w *Writer) AddAS(number uint32, name string) (as.AS, error) {
	if err := w.beginMutation(); err != nil {
		return as.AS{}, err
	}
	if _, found := as.Search(w.asTable, number); found {
		return as.AS{}, fmt.Errorf("%w: AS%d", ErrAlreadyPresent, number)
	}
	entry := as.AS{Number: number, NameOffset: w.pool.Add(name)}
	w.asTable = append(w.asTable, entry)
	as.SortTable(w.asTable)
	w.ctx.Logger().Debugf("writer: added AS%d %q", number, name)
	return entry, nil
}

// AddCountry allocates a Country, inserting it in sorted position. Duplicate
// codes fail with ErrAlreadyPresent.
func (w *Writer) AddCountry(code, continent, name string) (country.Country, error) {
	if err := w.beginMutation(); err != nil {
		return country.Country{}, err
	}
	if _, found := country.Search(w.countryTable, code); found {
		return country.Country{}, fmt.Errorf("%w: %s", ErrAlreadyPresent, code)
	}
	entry, err := country.New(code, continent, w.pool.Add(name))
	if err != nil {
		return country.Country{}, err
	}
	w.countryTable = append(w.countryTable, entry)
	country.SortTable(w.countryTable)
	w.ctx.Logger().Debugf("writer: added country %s", code)
	return entry, nil
}

// AddNetwork parses cidr, validates it, attaches countryCode/asn/flags, and
// inserts it into the trie. Fails with network.Err* on malformed input or
// trie.ErrAlreadyPresent on duplicate insertion.
func (w *Writer) AddNetwork(cidr string, countryCode string, asn uint32, flags network.Flags) (network.Network, error) {
	if err := w.beginMutation(); err != nil {
		return network.Network{}, err
	}
	n, err := network.ParseCIDR(cidr)
	if err != nil {
		return network.Network{}, err
	}
	n, err = n.WithCountry(countryCode)
	if err != nil {
		return network.Network{}, err
	}
	n = n.WithASN(asn).WithFlags(flags)

	if err := w.trie.Insert(n); err != nil {
		return network.Network{}, err
	}
	w.ctx.Logger().Debugf("writer: added network %s", n.String())
	return n, nil
}

// Write serializes the writer's contents to sink in the fixed section
// order (header, AS table, trie, pool, countries), then moves the writer
// to StateDone (or StateAborted on error). Write is one-shot: further
// mutators fail with ErrClosed.
func (w *Writer) Write(sink io.WriteSeeker) error {
	if err := w.beginMutation(); err != nil {
		return err
	}
	w.state = StateWriting

	if err := w.write(sink); err != nil {
		w.state = StateAborted
		return err
	}
	w.state = StateDone
	return nil
}

func (w *Writer) write(sink io.WriteSeeker) error {
	if _, err := sink.Write([]byte(dbformat.Magic)); err != nil {
		return err
	}
	if _, err := sink.Write([]byte{0}); err != nil {
		return err
	}
	if err := writeU16(sink, dbformat.VersionCurrent); err != nil {
		return err
	}

	headerOffset, err := currentOffset(sink)
	if err != nil {
		return err
	}
	if _, err := sink.Write(make([]byte, dbformat.HeaderV1Size)); err != nil {
		return err
	}

	if err := alignToPage(sink); err != nil {
		return err
	}
	asOffset, asLength, err := w.writeASSection(sink)
	if err != nil {
		return err
	}

	if err := alignToPage(sink); err != nil {
		return err
	}
	treeOffset, treeLength, dataOffset, dataLength, err := w.writeTrieSections(sink)
	if err != nil {
		return err
	}

	if err := alignToPage(sink); err != nil {
		return err
	}
	poolOffset, poolLength, err := w.writePoolSection(sink)
	if err != nil {
		return err
	}

	if err := alignToPage(sink); err != nil {
		return err
	}
	countriesOffset, countriesLength, err := w.writeCountriesSection(sink)
	if err != nil {
		return err
	}

	header := dbformat.HeaderV1{
		CreatedAt:         0, // always 0: Writer has no creation-time setting and does not read the clock
		Vendor:            w.vendorOffset,
		Description:       w.descOffset,
		License:           w.licenseOffset,
		ASOffset:          uint32(asOffset),
		ASLength:          uint32(asLength),
		NetworkTreeOffset: uint32(treeOffset),
		NetworkTreeLength: uint32(treeLength),
		NetworkDataOffset: uint32(dataOffset),
		NetworkDataLength: uint32(dataLength),
		PoolOffset:        uint32(poolOffset),
		PoolLength:        uint32(poolLength),
		CountriesOffset:   uint32(countriesOffset),
		CountriesLength:   uint32(countriesLength),
	}

	if _, err := sink.Seek(headerOffset, io.SeekStart); err != nil {
		return err
	}
	if _, err := sink.Write(dbformat.EncodeHeaderV1(header)); err != nil {
		return err
	}
	return nil
}

func (w *Writer) writeASSection(sink io.WriteSeeker) (offset, length int64, err error) {
	offset, err = currentOffset(sink)
	if err != nil {
		return 0, 0, err
	}
	for _, entry := range w.asTable {
		if err := writeU32(sink, entry.Number); err != nil {
			return 0, 0, err
		}
		if err := writeU32(sink, entry.NameOffset); err != nil {
			return 0, 0, err
		}
	}
	length = int64(len(w.asTable)) * dbformat.ASRecordSize
	return offset, length, nil
}

// bfsOrder walks the trie breadth-first from the root, returning nodes in
// that order alongside a lookup from node to assigned index. Child indices
// always strictly exceed their parent's.
func bfsOrder(root *trie.Node) ([]*trie.Node, map[*trie.Node]uint32) {
	order := []*trie.Node{root}
	index := map[*trie.Node]uint32{root: 0}
	for i := 0; i < len(order); i++ {
		node := order[i]
		for _, child := range node.Children {
			if child == nil {
				continue
			}
			index[child] = uint32(len(order))
			order = append(order, child)
		}
	}
	return order, index
}

func (w *Writer) writeTrieSections(sink io.WriteSeeker) (treeOffset, treeLength, dataOffset, dataLength int64, err error) {
	order, index := bfsOrder(w.trie.Root)

	leafIndex := make(map[*trie.Node]uint32)
	var leaves []*network.Network
	for _, node := range order {
		if node.Network != nil {
			leafIndex[node] = uint32(len(leaves))
			leaves = append(leaves, node.Network)
		}
	}

	treeOffset, err = currentOffset(sink)
	if err != nil {
		return
	}
	for _, node := range order {
		child0 := uint32(0)
		if node.Children[0] != nil {
			child0 = index[node.Children[0]]
		}
		child1 := uint32(0)
		if node.Children[1] != nil {
			child1 = index[node.Children[1]]
		}
		networkIndex := uint32(dbformat.NoNetworkIndex)
		if node.Network != nil {
			networkIndex = leafIndex[node]
		}
		if err = writeU32(sink, child0); err != nil {
			return
		}
		if err = writeU32(sink, child1); err != nil {
			return
		}
		if err = writeU32(sink, networkIndex); err != nil {
			return
		}
	}
	treeLength = int64(len(order)) * dbformat.TrieNodeRecordSize

	if err = alignToPage(sink); err != nil {
		return
	}
	dataOffset, err = currentOffset(sink)
	if err != nil {
		return
	}
	for _, n := range leaves {
		if _, err = sink.Write(n.CountryCode[:]); err != nil {
			return
		}
		if err = writeU32(sink, n.ASN); err != nil {
			return
		}
		if err = writeU16(sink, uint16(n.Flags)); err != nil {
			return
		}
	}
	dataLength = int64(len(leaves)) * dbformat.NetworkDataRecordSize
	return
}

func (w *Writer) writePoolSection(sink io.WriteSeeker) (offset, length int64, err error) {
	offset, err = currentOffset(sink)
	if err != nil {
		return 0, 0, err
	}
	n, err := w.pool.WriteTo(sink)
	if err != nil {
		return 0, 0, err
	}
	return offset, n, nil
}

func (w *Writer) writeCountriesSection(sink io.WriteSeeker) (offset, length int64, err error) {
	offset, err = currentOffset(sink)
	if err != nil {
		return 0, 0, err
	}
	for _, c := range w.countryTable {
		if _, err = sink.Write(c.Code[:]); err != nil {
			return 0, 0, err
		}
		if _, err = sink.Write(c.ContinentCode[:]); err != nil {
			return 0, 0, err
		}
		if err = writeU32(sink, c.NameOffset); err != nil {
			return 0, 0, err
		}
	}
	length = int64(len(w.countryTable)) * dbformat.CountryRecordSize
	return offset, length, nil
}
