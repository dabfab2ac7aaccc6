package geoip

import (
	"encoding/binary"
	"fmt"
	"math/bits"
	"net/netip"
)

// Family identifies the address family a record or query belongs to. The
// family is fixed when the address is parsed and never changes afterwards.
type Family uint8

const (
	FamilyIPv4 Family = iota
	FamilyIPv6
)

func (f Family) String() string {
	if f == FamilyIPv4 {
		return "IPv4"
	}
	return "IPv6"
}

// Bits returns the address width of the family.
func (f Family) Bits() int {
	if f == FamilyIPv4 {
		return 32
	}
	return 128
}

// FamilyOf reports the family of addr. IPv4-mapped IPv6 addresses count as
// IPv4; callers are expected to pass addresses through ParseAddr first.
func FamilyOf(addr netip.Addr) Family {
	if addr.Unmap().Is4() {
		return FamilyIPv4
	}
	return FamilyIPv6
}

// ParseAddr parses s into a canonical address. IPv4-mapped IPv6 input
// ("::ffff:10.0.0.1") collapses to plain IPv4 so both spellings land in the
// same family sequence. Zoned addresses are rejected; a scoped link-local
// address can never appear in a range table.
func ParseAddr(s string) (netip.Addr, error) {
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Addr{}, err
	}
	if addr.Zone() != "" {
		return netip.Addr{}, fmt.Errorf("zoned address %q not allowed", s)
	}
	return addr.Unmap(), nil
}

// uint128 is a big-endian 128-bit view of an address. IPv4 addresses occupy
// the low 32 bits with hi == 0, so the same arithmetic serves both families.
type uint128 struct {
	hi, lo uint64
}

func addrValue(a netip.Addr) uint128 {
	if a.Is4() {
		b := a.As4()
		return uint128{0, uint64(binary.BigEndian.Uint32(b[:]))}
	}
	b := a.As16()
	return uint128{binary.BigEndian.Uint64(b[:8]), binary.BigEndian.Uint64(b[8:])}
}

func valueAddr(v uint128, f Family) netip.Addr {
	if f == FamilyIPv4 {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(v.lo))
		return netip.AddrFrom4(b)
	}
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], v.hi)
	binary.BigEndian.PutUint64(b[8:], v.lo)
	return netip.AddrFrom16(b)
}

func (u uint128) isZero() bool {
	return u.hi == 0 && u.lo == 0
}

func (u uint128) cmp(v uint128) int {
	switch {
	case u.hi != v.hi:
		if u.hi < v.hi {
			return -1
		}
		return 1
	case u.lo != v.lo:
		if u.lo < v.lo {
			return -1
		}
		return 1
	}
	return 0
}

// add returns u+v and whether the sum wrapped.
func (u uint128) add(v uint128) (uint128, bool) {
	lo, carry := bits.Add64(u.lo, v.lo, 0)
	hi, carry := bits.Add64(u.hi, v.hi, carry)
	return uint128{hi, lo}, carry != 0
}

// sub returns u-v; callers guarantee u >= v.
func (u uint128) sub(v uint128) uint128 {
	lo, borrow := bits.Sub64(u.lo, v.lo, 0)
	hi, _ := bits.Sub64(u.hi, v.hi, borrow)
	return uint128{hi, lo}
}

func (u uint128) trailingZeros() int {
	if u.lo != 0 {
		return bits.TrailingZeros64(u.lo)
	}
	if u.hi != 0 {
		return 64 + bits.TrailingZeros64(u.hi)
	}
	return 128
}

func (u uint128) bitLen() int {
	if u.hi != 0 {
		return 64 + bits.Len64(u.hi)
	}
	return bits.Len64(u.lo)
}

// pow128 returns 2^k for 0 <= k < 128.
func pow128(k int) uint128 {
	if k < 64 {
		return uint128{0, 1 << uint(k)}
	}
	return uint128{1 << uint(k-64), 0}
}

// maxValue returns the all-ones value of the family's width.
func maxValue(f Family) uint128 {
	if f == FamilyIPv4 {
		return uint128{0, 1<<32 - 1}
	}
	return uint128{^uint64(0), ^uint64(0)}
}
