/*
Package network implements the Network record — a CIDR block tagged with
ASN, country code, and policy flags — and List, a bounded, ordered
collection of Networks.
*/
package network

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/locdb/locdb/address"
)

// Flags is a bitset of policy tags attached to a Network.
type Flags uint16

const (
	FlagAnonymousProxy Flags = 1 << iota
	FlagSatelliteProvider
	FlagAnycast
	FlagReserved
)

// Family distinguishes the address family a Network was parsed from, used
// only for display and for exclude/subnets family checks.
type Family uint8

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
)

var (
	// ErrInvalidCIDR is returned when a CIDR string cannot be parsed.
	ErrInvalidCIDR = errors.New("network: invalid cidr")
	// ErrInvalidPrefix is returned when prefix is 0 or greater than 128, or
	// an IPv4-mapped address is given a prefix <= 96.
	ErrInvalidPrefix = errors.New("network: invalid prefix")
	// ErrDisallowedAddress is returned for unspecified, loopback,
	// link-local, or site-local addresses.
	ErrDisallowedAddress = errors.New("network: disallowed address class")
	// ErrInvalidCountryCode is returned when a country code is set but is
	// not two ASCII letters.
	ErrInvalidCountryCode = errors.New("network: invalid country code")
)

// Network is (first, last, prefix, family, country_code, asn, flags).
type Network struct {
	First       address.Address
	Last        address.Address
	Prefix      int // internal prefix, always against the 128-bit form
	Family      Family
	CountryCode [2]byte // ASCII letters, or zero value for "unset"
	ASN         uint32
	Flags       Flags
}

// ParseCIDR parses a CIDR string (e.g. "8.8.8.0/24" or "2001:db8::/32"),
// validates it, and returns the canonical Network.
func ParseCIDR(cidr string) (Network, error) {
	ip, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return Network{}, fmt.Errorf("%w: %s: %v", ErrInvalidCIDR, cidr, err)
	}
	if isDisallowed(ip) {
		return Network{}, fmt.Errorf("%w: %s", ErrDisallowedAddress, cidr)
	}

	ones, _ := ipnet.Mask.Size()
	family := FamilyIPv6
	prefix := ones
	if ip.To4() != nil {
		family = FamilyIPv4
		prefix = ones + 96
	}
	if prefix == 0 || prefix > address.BitLen {
		return Network{}, fmt.Errorf("%w: %s", ErrInvalidPrefix, cidr)
	}
	if family == FamilyIPv4 && prefix <= 96 {
		return Network{}, fmt.Errorf("%w: %s", ErrInvalidPrefix, cidr)
	}
	if isDisallowed(ip) {
		return Network{}, fmt.Errorf("%w: %s", ErrDisallowedAddress, cidr)
	}

	addr, err := address.FromNetIP(ip)
	if err != nil {
		return Network{}, fmt.Errorf("%w: %s", ErrInvalidCIDR, cidr)
	}
	first := address.First(addr, prefix)
	last := address.Last(first, prefix)

	return Network{
		First:  first,
		Last:   last,
		Prefix: prefix,
		Family: family,
	}, nil
}

// isDisallowed rejects the unspecified, loopback, link-local, and
// site-local address classes: none of them identify a routable network
// worth recording.
func isDisallowed(ip net.IP) bool {
	return ip.IsUnspecified() || ip.IsLoopback() || ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() || isSiteLocal(ip)
}

// isSiteLocal reports fec0::/10, the IPv6 site-local block deprecated by
// RFC 3879 but still rejected by libloc's construction checks.
func isSiteLocal(ip net.IP) bool {
	v6 := ip.To16()
	if v6 == nil || ip.To4() != nil {
		return false
	}
	return v6[0] == 0xfe && v6[1]&0xc0 == 0xc0
}

// WithCountry returns a copy of n with its country code set. code must be
// two ASCII letters or empty.
func (n Network) WithCountry(code string) (Network, error) {
	if code != "" && !validCountryCode(code) {
		return n, ErrInvalidCountryCode
	}
	copy(n.CountryCode[:], code)
	return n, nil
}

func validCountryCode(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, c := range code {
		if !((c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')) {
			return false
		}
	}
	return true
}

// WithASN returns a copy of n with its ASN set.
func (n Network) WithASN(asn uint32) Network {
	n.ASN = asn
	return n
}

// WithFlags returns a copy of n with its flags set.
func (n Network) WithFlags(flags Flags) Network {
	n.Flags = flags
	return n
}

// CountryCodeString renders the country code, or "" if unset.
func (n Network) CountryCodeString() string {
	if n.CountryCode == ([2]byte{}) {
		return ""
	}
	return string(n.CountryCode[:])
}

// Contains reports whether addr lies within [First, Last].
func (n Network) Contains(addr address.Address) bool {
	return address.Cmp(addr, n.First) >= 0 && address.Cmp(addr, n.Last) <= 0
}

// Covers reports whether n fully contains other: same family, n.First <=
// other.First, other.Last <= n.Last.
func (n Network) Covers(other Network) bool {
	return n.Family == other.Family &&
		address.Cmp(n.First, other.First) <= 0 &&
		address.Cmp(other.Last, n.Last) <= 0
}

// Equal reports equality by (family, first address, prefix), the identity
// used by List.Contains.
func Equal(a, b Network) bool {
	return a.Family == b.Family && a.Prefix == b.Prefix && address.Equal(a.First, b.First)
}

// userPrefix returns the CIDR prefix as the caller would write it: internal
// prefix minus 96 for IPv4.
func (n Network) userPrefix() int {
	if n.Family == FamilyIPv4 {
		return n.Prefix - 96
	}
	return n.Prefix
}

// String renders the canonical CIDR form.
func (n Network) String() string {
	return n.First.String() + "/" + strconv.Itoa(n.userPrefix())
}
