package geoip

import (
	"fmt"
	"net/netip"
	"strings"

	"go4.org/netipx"
)

// Match is the outcome of resolving one query against a table. Found false
// means the query was well-formed but no loaded range contains it; that is an
// absent result, not an error.
type Match struct {
	Country   string
	Continent string
	Prefixes  []netip.Prefix
	Found     bool
}

// CIDR renders the matched record's covering blocks as one comma-joined
// string, empty when nothing matched.
func (m Match) CIDR() string {
	return FormatPrefixes(m.Prefixes)
}

// Resolve classifies raw as a single address or, when it contains a slash, a
// CIDR block, then scans the matching family's records in load order for the
// first one whose interval fully contains the query. For a CIDR query both
// the network address and the last address of the block must be inside the
// record. The returned prefixes summarize the matched record's own interval,
// not the query.
func (t *RangeTable) Resolve(raw string) (Match, error) {
	lo, hi, err := queryBounds(raw)
	if err != nil {
		return Match{}, err
	}

	for _, rec := range t.Records(FamilyOf(lo)) {
		if rec.Range.Contains(lo) && rec.Range.Contains(hi) {
			prefixes, err := SummarizeRange(rec.Range.From(), rec.Range.To())
			if err != nil {
				return Match{}, fmt.Errorf("summarize matched range: %w", err)
			}
			return Match{
				Country:   rec.Country,
				Continent: rec.Continent,
				Prefixes:  prefixes,
				Found:     true,
			}, nil
		}
	}

	return Match{}, nil
}

// queryBounds returns the inclusive address interval a query stands for: the
// address itself, or the first and last address of a CIDR block. Host bits in
// CIDR input are tolerated and masked away.
func queryBounds(raw string) (lo, hi netip.Addr, err error) {
	if strings.Contains(raw, "/") {
		p, err := netip.ParsePrefix(raw)
		if err != nil {
			return netip.Addr{}, netip.Addr{}, fmt.Errorf("parse cidr %q: %w", raw, err)
		}
		if p.Addr().Is4In6() {
			p = netip.PrefixFrom(p.Addr().Unmap(), max(p.Bits()-96, 0))
		}
		r := netipx.RangeOfPrefix(p.Masked())
		return r.From(), r.To(), nil
	}

	addr, err := ParseAddr(raw)
	if err != nil {
		return netip.Addr{}, netip.Addr{}, fmt.Errorf("parse address %q: %w", raw, err)
	}
	return addr, addr, nil
}
