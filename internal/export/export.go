// Package export filters a range table by continent, country and family and
// renders the selected ranges as minimal CIDR lists.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/netip"
	"os"
	"path/filepath"
	"strings"

	"rangemap/internal/geoip"
)

// Filter selects which records to export. Empty Continents and Countries
// select everything; Family zero selects both families. Reverse flips the
// continent/country selection into an exclusion.
type Filter struct {
	Continents []string
	Countries  []string
	Family     int // 0, 4 or 6
	Reverse    bool
}

// Entry is one exported CIDR block with its provenance.
type Entry struct {
	Prefix    netip.Prefix
	Country   string
	Continent string
	Family    geoip.Family
}

// Collect walks both family sequences in load order, applies the filter and
// summarizes every selected record's interval into its covering blocks.
func Collect(t *geoip.RangeTable, f Filter) ([]Entry, error) {
	continents := toUpperSet(f.Continents)
	countries := toUpperSet(f.Countries)

	var entries []Entry
	for _, fam := range []geoip.Family{geoip.FamilyIPv4, geoip.FamilyIPv6} {
		if f.Family == 4 && fam != geoip.FamilyIPv4 {
			continue
		}
		if f.Family == 6 && fam != geoip.FamilyIPv6 {
			continue
		}

		for _, rec := range t.Records(fam) {
			if !selects(rec, continents, countries, f.Reverse) {
				continue
			}
			prefixes, err := geoip.SummarizeRange(rec.Range.From(), rec.Range.To())
			if err != nil {
				return nil, fmt.Errorf("summarize %s-%s: %w", rec.Range.From(), rec.Range.To(), err)
			}
			for _, p := range prefixes {
				entries = append(entries, Entry{
					Prefix:    p,
					Country:   rec.Country,
					Continent: rec.Continent,
					Family:    fam,
				})
			}
		}
	}
	return entries, nil
}

func selects(rec geoip.RangeRecord, continents, countries map[string]bool, reverse bool) bool {
	if len(continents) == 0 && len(countries) == 0 {
		return true
	}
	matched := continents[strings.ToUpper(rec.Continent)] || countries[strings.ToUpper(rec.Country)]
	if reverse {
		return !matched
	}
	return matched
}

func toUpperSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.ToUpper(strings.TrimSpace(v))
		if v != "" {
			set[v] = true
		}
	}
	return set
}

// WriteList writes one CIDR per line.
func WriteList(w io.Writer, entries []Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, e.Prefix); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV writes entries with their provenance columns.
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"cidr", "country", "continent", "ip_version"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.Prefix.String(), e.Country, e.Continent, e.Family.String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteGroups splits entries across files under dir, one file per country
// and/or family bucket. With neither split set everything lands in a single
// output_cidrs.txt, matching the flat list layout.
func WriteGroups(dir string, entries []Entry, byCountry, byFamily bool) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	grouped := make(map[string][]Entry)
	var order []string
	for _, e := range entries {
		name := GroupFileName(e, byCountry, byFamily)
		if _, seen := grouped[name]; !seen {
			order = append(order, name)
		}
		grouped[name] = append(grouped[name], e)
	}

	for _, name := range order {
		f, err := os.Create(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		err = WriteList(f, grouped[name])
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// GroupFileName names the bucket file an entry belongs to, always lowercase.
func GroupFileName(e Entry, byCountry, byFamily bool) string {
	switch {
	case byCountry && byFamily:
		return strings.ToLower(fmt.Sprintf("%s_%s.txt", e.Country, e.Family))
	case byCountry:
		return strings.ToLower(e.Country) + ".txt"
	case byFamily:
		return strings.ToLower(e.Family.String()) + ".txt"
	}
	return "output_cidrs.txt"
}
