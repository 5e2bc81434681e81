/*
Package trie implements a bit-indexed binary network trie: a tree keyed by
successive bits of an address, leaves carrying a network.Network,
supporting insertion, ordered walk, longest-prefix lookup, subnet
splitting, and exclusion.

The trie is deliberately uncompressed, one bit per level, rather than
path/level-compressed: the writer needs an exact bit-indexed structure to
assign breadth-first node indices for the on-disk format, and undoing path
compression at serialization time would just be extra work for no benefit.
*/
package trie

import (
	"errors"

	"github.com/locdb/locdb/address"
	"github.com/locdb/locdb/network"
)

// ErrAlreadyPresent is returned by Insert when the target node already
// holds a Network.
var ErrAlreadyPresent = errors.New("trie: already present")

// ErrMaxPrefix is returned by Subnets when asked to split a /128.
var ErrMaxPrefix = errors.New("trie: network has no subnets at max prefix")

// ErrFamilyMismatch is returned by Exclude when self and other are of
// different address families.
var ErrFamilyMismatch = errors.New("trie: family mismatch")

// ErrNotStrictSubset is returned by Exclude when other is not a strict
// subset of self.
var ErrNotStrictSubset = errors.New("trie: other is not a strict subset of self")

// Node is a trie node: two children and an optional Network. Depth of a
// leaf equals the prefix of its Network; the root is depth 0.
type Node struct {
	Children [2]*Node
	Network  *network.Network
}

// Trie is a binary trie over 128-bit address prefixes.
type Trie struct {
	Root  *Node
	count int
}

// New returns an empty Trie.
func New() *Trie {
	return &Trie{Root: &Node{}}
}

// Count returns the number of networks held in the trie, maintained by
// incrementing t.count itself on every successful Insert.
func (t *Trie) Count() int {
	return t.count
}

// Insert descends the trie for exactly n.Prefix steps, creating missing
// nodes along n.First's bits, and stores n at the reached node. Fails with
// ErrAlreadyPresent if that node already holds a Network.
func (t *Trie) Insert(n network.Network) error {
	node := t.Root
	for i := 0; i < n.Prefix; i++ {
		bit, err := n.First.Bit(uint(i))
		if err != nil {
			return err
		}
		child := node.Children[bit]
		if child == nil {
			child = &Node{}
			node.Children[bit] = child
		}
		node = child
	}
	if node.Network != nil {
		return ErrAlreadyPresent
	}
	nCopy := n
	node.Network = &nCopy
	t.count++
	return nil
}

// FilterFunc is consulted for every Network a Walk visits. Returning
// skip=true omits the Network from visit without aborting the walk;
// returning a non-nil error aborts the walk.
type FilterFunc func(network.Network) (skip bool, err error)

// VisitFunc receives each Network a Walk does not skip. A non-nil error
// aborts the walk.
type VisitFunc func(network.Network) error

// Walk performs a depth-first, left-first (child 0 before child 1) traversal
// — equivalently ascending by first address with supernets visited before
// their contained subnets — consulting filter and calling visit for every
// Network encountered.
func (t *Trie) Walk(filter FilterFunc, visit VisitFunc) error {
	return t.Root.walk(filter, visit)
}

func (n *Node) walk(filter FilterFunc, visit VisitFunc) error {
	if n.Network != nil {
		skip := false
		var err error
		if filter != nil {
			skip, err = filter(*n.Network)
			if err != nil {
				return err
			}
		}
		if !skip {
			if err := visit(*n.Network); err != nil {
				return err
			}
		}
	}
	for _, child := range n.Children {
		if child == nil {
			continue
		}
		if err := child.walk(filter, visit); err != nil {
			return err
		}
	}
	return nil
}

// Lookup performs longest-prefix match for addr: the deepest node on
// addr's path that holds a Network, or false if none does.
func (t *Trie) Lookup(addr address.Address) (network.Network, bool) {
	var best *network.Network
	node := t.Root
	for i := 0; i <= address.BitLen; i++ {
		if node.Network != nil {
			best = node.Network
		}
		if i == address.BitLen {
			break
		}
		bit, err := addr.Bit(uint(i))
		if err != nil {
			break
		}
		child := node.Children[bit]
		if child == nil {
			break
		}
		node = child
	}
	if best == nil {
		return network.Network{}, false
	}
	return *best, true
}

// Subnets splits n at prefix n.Prefix+1, producing two equal halves. Fails
// with ErrMaxPrefix when n.Prefix == 128.
func Subnets(n network.Network) (network.Network, network.Network, error) {
	if n.Prefix >= address.BitLen {
		return network.Network{}, network.Network{}, ErrMaxPrefix
	}
	childPrefix := n.Prefix + 1
	left := n
	left.Prefix = childPrefix
	left.Last = address.Last(left.First, childPrefix)

	right := n
	right.Prefix = childPrefix
	right.First = address.Increment(left.Last)
	right.Last = n.Last

	return left, right, nil
}

// Exclude returns the minimal set of non-overlapping Networks whose union
// equals self \ other. other must be a strict subset of self sharing its
// family. Implemented by repeatedly splitting self at the bit that
// distinguishes other and keeping the half that does not contain it.
func Exclude(self, other network.Network) ([]network.Network, error) {
	if self.Family != other.Family {
		return nil, ErrFamilyMismatch
	}
	if network.Equal(self, other) || !self.Covers(other) {
		return nil, ErrNotStrictSubset
	}

	var result []network.Network
	cur := self
	for {
		left, right, err := Subnets(cur)
		if err != nil {
			return nil, err
		}
		if left.Covers(other) {
			result = append(result, right)
			cur = left
		} else {
			result = append(result, left)
			cur = right
		}
		if network.Equal(cur, other) {
			break
		}
	}
	return result, nil
}

// ExcludeList computes self minus every network in list (iterated in the
// order given — callers typically pass a list.Sort()-ed slice): each
// surviving piece is left intact, dropped entirely, or replaced by the
// Exclude of it against the excluded network.
func ExcludeList(self network.Network, list []network.Network) ([]network.Network, error) {
	pieces := []network.Network{self}
	for _, x := range list {
		var next []network.Network
		for _, p := range pieces {
			switch {
			case network.Equal(p, x):
				// dropped: p is entirely excluded.
			case p.Family == x.Family && p.Covers(x):
				sub, err := Exclude(p, x)
				if err != nil {
					return nil, err
				}
				next = append(next, sub...)
			case p.Family == x.Family && x.Covers(p):
				// dropped: x fully contains p.
			default:
				next = append(next, p)
			}
		}
		pieces = next
	}
	return pieces, nil
}
