package geoip

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/oschwald/maxminddb-golang/v2"
	"go4.org/netipx"
)

// mmdbCountry is the minimal record shape shared by GeoLite2-Country and the
// DB-IP country MMDB editions.
type mmdbCountry struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
	Continent struct {
		Code string `maxminddb:"code"`
	} `maxminddb:"continent"`
}

// LoadTableFromMMDB enumerates every network of an MMDB country database and
// builds a range table from it. Enumeration order is the reader's traversal
// order; MMDB networks never overlap, so load-order precedence is moot here.
func LoadTableFromMMDB(path string) (*RangeTable, error) {
	r, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mmdb %s: %w", path, err)
	}
	defer r.Close()

	t := &RangeTable{}
	for result := range r.Networks() {
		if err := result.Err(); err != nil {
			return nil, fmt.Errorf("walk mmdb networks: %w", err)
		}

		var rec mmdbCountry
		if err := result.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode mmdb record for %s: %w", result.Prefix(), err)
		}
		if rec.Country.ISOCode == "" {
			continue
		}

		p := result.Prefix()
		if p.Addr().Is4In6() {
			p = netip.PrefixFrom(p.Addr().Unmap(), max(p.Bits()-96, 0))
		}

		t.add(RangeRecord{
			Range:     netipx.RangeOfPrefix(p),
			Country:   strings.ToUpper(rec.Country.ISOCode),
			Continent: strings.ToUpper(rec.Continent.Code),
		})
	}
	return t, nil
}
