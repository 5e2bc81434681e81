package network

import (
	"errors"
	"sort"

	"github.com/locdb/locdb/address"
)

// MaxListSize is the fixed capacity of a List.
const MaxListSize = 1024

// ErrCapacityExceeded is returned by Push once a List holds MaxListSize
// entries.
var ErrCapacityExceeded = errors.New("network: capacity exceeded")

// List is a bounded, ordered sequence of Networks, capacity MaxListSize.
type List struct {
	entries []Network
}

// NewList returns an empty List.
func NewList() *List {
	return &List{entries: make([]Network, 0, 16)}
}

// Push appends n, failing with ErrCapacityExceeded once Size() == MaxListSize.
func (l *List) Push(n Network) error {
	if len(l.entries) >= MaxListSize {
		return ErrCapacityExceeded
	}
	l.entries = append(l.entries, n)
	return nil
}

// Pop removes and returns the last entry. Returns false if the list is empty.
func (l *List) Pop() (Network, bool) {
	if len(l.entries) == 0 {
		return Network{}, false
	}
	last := l.entries[len(l.entries)-1]
	l.entries = l.entries[:len(l.entries)-1]
	return last, true
}

// Get returns the entry at i. Returns false if i is out of range.
func (l *List) Get(i int) (Network, bool) {
	if i < 0 || i >= len(l.entries) {
		return Network{}, false
	}
	return l.entries[i], true
}

// Size returns the number of entries.
func (l *List) Size() int {
	return len(l.entries)
}

// Empty reports whether the list has no entries.
func (l *List) Empty() bool {
	return len(l.entries) == 0
}

// Clear removes all entries.
func (l *List) Clear() {
	l.entries = l.entries[:0]
}

// Dump returns a copy of the underlying entries, in current order.
func (l *List) Dump() []Network {
	out := make([]Network, len(l.entries))
	copy(out, l.entries)
	return out
}

// Sort orders entries ascending by first address, breaking ties with the
// smaller prefix first (enclosing supernet before contained subnet).
func (l *List) Sort() {
	sort.SliceStable(l.entries, func(i, j int) bool {
		return byFirstAddressThenPrefix(l.entries[i], l.entries[j])
	})
}

func byFirstAddressThenPrefix(a, b Network) bool {
	if c := address.Cmp(a.First, b.First); c != 0 {
		return c < 0
	}
	return a.Prefix < b.Prefix
}

// Contains reports whether an entry equal (by family, first address,
// prefix) to n is present, via linear scan.
func (l *List) Contains(n Network) bool {
	for _, e := range l.entries {
		if Equal(e, n) {
			return true
		}
	}
	return false
}

// Reverse reverses the list in place.
func (l *List) Reverse() {
	for i, j := 0, len(l.entries)-1; i < j; i, j = i+1, j-1 {
		l.entries[i], l.entries[j] = l.entries[j], l.entries[i]
	}
}
