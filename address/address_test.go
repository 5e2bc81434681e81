package address

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromNetIPv4(t *testing.T) {
	a, err := FromNetIP(net.ParseIP("128.0.0.0"))
	assert.NoError(t, err)
	assert.True(t, a.IsIPv4Mapped())
	assert.Equal(t, uint32(ipv4MappedPrefixWord), a.Words[2])
	assert.Equal(t, uint32(0x80000000), a.Words[3])
}

func TestFromNetIPv6(t *testing.T) {
	a, err := FromNetIP(net.ParseIP("2001:db8::ff00:42:8329"))
	assert.NoError(t, err)
	assert.False(t, a.IsIPv4Mapped())
}

func TestBit(t *testing.T) {
	cases := []struct {
		ip   string
		ones map[uint]bool
		name string
	}{
		{"128.0.0.0", withMappedPrefix(96 + 0), "128.0.0.0 top bit"},
		{"1.1.1.1", withMappedPrefix(96+7, 96+15, 96+23, 96+31), "1.1.1.1"},
		{"8000::", map[uint]bool{0: true}, "8000:: top bit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, err := FromNetIP(net.ParseIP(tc.ip))
			assert.NoError(t, err)
			for i := uint(0); i < BitLen; i++ {
				bit, err := a.Bit(i)
				assert.NoError(t, err)
				if tc.ones[i] {
					assert.Equal(t, uint32(1), bit, "bit %d", i)
				} else {
					assert.Equal(t, uint32(0), bit, "bit %d", i)
				}
			}
		})
	}
}

// withMappedPrefix returns the set bits of an IPv4-mapped address: the
// 0xffff in bits 80-95 plus the given IPv4 bits.
func withMappedPrefix(ipv4Bits ...uint) map[uint]bool {
	ones := make(map[uint]bool)
	for i := uint(80); i < 96; i++ {
		ones[i] = true
	}
	for _, i := range ipv4Bits {
		ones[i] = true
	}
	return ones
}

func TestBitOutOfRange(t *testing.T) {
	a, _ := FromNetIP(net.ParseIP("::"))
	_, err := a.Bit(128)
	assert.ErrorIs(t, err, ErrInvalidBitPosition)
}

func TestMaskAndFirstLast(t *testing.T) {
	addr, _ := FromNetIP(net.ParseIP("10.1.2.3"))
	first := First(addr, 104) // /8 for IPv4 (96+8)
	last := Last(first, 104)
	assert.Equal(t, "10.0.0.0", first.String())
	assert.Equal(t, "10.255.255.255", last.String())
}

func TestIncrementDecrementRollover(t *testing.T) {
	cases := []struct {
		ip, next string
	}{
		{"0.0.0.0", "0.0.0.1"},
		{"0.0.0.255", "0.0.1.0"},
		{"0.255.255.255", "1.0.0.0"},
		{"8000::0", "8000::1"},
		{"0:ffff:ffff:ffff:ffff:ffff:ffff:ffff", "1::"},
	}
	for _, tc := range cases {
		ip, _ := FromNetIP(net.ParseIP(tc.ip))
		next, _ := FromNetIP(net.ParseIP(tc.next))
		assert.Equal(t, next, Increment(ip), tc.ip)
		assert.Equal(t, ip, Decrement(next), tc.next)
	}
}

func TestCmp(t *testing.T) {
	a, _ := FromNetIP(net.ParseIP("1.1.1.1"))
	b, _ := FromNetIP(net.ParseIP("1.1.1.2"))
	assert.Equal(t, -1, Cmp(a, b))
	assert.Equal(t, 1, Cmp(b, a))
	assert.Equal(t, 0, Cmp(a, a))
}

func TestLeastCommonBitPosition(t *testing.T) {
	a, _ := FromNetIP(net.ParseIP("10.0.0.0"))
	b, _ := FromNetIP(net.ParseIP("10.1.0.0"))
	pos := LeastCommonBitPosition(a, b)
	assert.Equal(t, uint(104+7), pos)
}

func TestValidPrefix(t *testing.T) {
	assert.False(t, ValidPrefix(0))
	assert.True(t, ValidPrefix(1))
	assert.True(t, ValidPrefix(128))
	assert.False(t, ValidPrefix(129))
}
