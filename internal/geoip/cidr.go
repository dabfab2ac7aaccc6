package geoip

import (
	"fmt"
	"net/netip"
)

// SummarizeRange decomposes the closed interval [start, end] into the minimal
// ordered sequence of CIDR blocks whose union is exactly the interval. Blocks
// never overlap and never extend outside the interval.
//
// The decomposition is greedy from the low end: each step emits the largest
// power-of-two block that is aligned to the current lower bound and still fits
// below end, then advances past it. At most one block per address bit is
// emitted, so the loop is bounded by the family's width.
func SummarizeRange(start, end netip.Addr) ([]netip.Prefix, error) {
	if !start.IsValid() || !end.IsValid() {
		return nil, fmt.Errorf("summarize: invalid address bounds")
	}
	start, end = start.Unmap(), end.Unmap()
	if start.Is4() != end.Is4() {
		return nil, fmt.Errorf("summarize: mixed families %s and %s", start, end)
	}

	fam := FamilyOf(start)
	width := fam.Bits()
	s, e := addrValue(start), addrValue(end)
	if s.cmp(e) > 0 {
		return nil, fmt.Errorf("summarize: start %s above end %s", start, end)
	}

	// The whole address space cannot be expressed through the size
	// arithmetic below (the count overflows), so it is its own case.
	if s.isZero() && e == maxValue(fam) {
		return []netip.Prefix{netip.PrefixFrom(start, 0)}, nil
	}

	var out []netip.Prefix
	cur := s
	for {
		// Largest alignment the lower bound allows.
		k := cur.trailingZeros()
		if k > width {
			k = width
		}
		// Largest size that stays at or below end: 2^m - 1 <= end-cur.
		if m := e.sub(cur).add1BitLen() - 1; m < k {
			k = m
		}

		out = append(out, netip.PrefixFrom(valueAddr(cur, fam), width-k))

		next, wrapped := cur.add(pow128(k))
		if wrapped || next.cmp(e) > 0 {
			return out, nil
		}
		cur = next
	}
}

// add1BitLen returns bitLen(u+1), tolerating the all-ones overflow case.
func (u uint128) add1BitLen() int {
	v, wrapped := u.add(uint128{0, 1})
	if wrapped {
		return 129
	}
	return v.bitLen()
}

// FormatPrefixes renders prefixes the way result rows carry them, a single
// comma-joined string.
func FormatPrefixes(prefixes []netip.Prefix) string {
	switch len(prefixes) {
	case 0:
		return ""
	case 1:
		return prefixes[0].String()
	}
	out := prefixes[0].String()
	for _, p := range prefixes[1:] {
		out += ", " + p.String()
	}
	return out
}
