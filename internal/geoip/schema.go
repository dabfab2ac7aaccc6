package geoip

import (
	"errors"
	"strings"
)

// Dialect identifies one of the recognized source table layouts.
type Dialect uint8

const (
	DialectUnknown Dialect = iota
	DialectIPInfo          // ipinfo.io country.csv: named header columns
	DialectDBIPLite        // dbip-country-lite: three headerless columns
	DialectIPAPI           // ipapi.is: ip_version/start_ip/end_ip/country_code header
)

func (d Dialect) String() string {
	switch d {
	case DialectIPInfo:
		return "ipinfo.io country.csv"
	case DialectDBIPLite:
		return "dbip-country-lite"
	case DialectIPAPI:
		return "ipapi.is csv"
	}
	return "unknown"
}

// ErrUnknownSchema reports that no recognized dialect matched the source.
// It aborts table construction; no partial table is produced.
var ErrUnknownSchema = errors.New("geoip: unknown source schema")

// ColumnMap locates the range fields within a source row. Continent is -1
// when the source carries no continent column. SkipHeader tells the loader
// whether the first source row is a header rather than data.
type ColumnMap struct {
	StartIP    int
	EndIP      int
	Country    int
	Continent  int
	SkipHeader bool
}

// DetectSchema inspects the first row of a tabular source and returns the
// column mapping for the dialect it matches. Detection only looks at the row
// it is handed; when the returned map has SkipHeader false the caller must
// re-supply that row to the loader, since it is data.
//
// Dialects are tried in priority order, first match wins:
//
//  1. header naming start_ip, end_ip and country
//  2. exactly three headerless columns where the first two fields of the
//     first data row are dotted (dbip publishes no header at all)
//  3. header naming ip_version, start_ip, end_ip and country_code
func DetectSchema(first []string) (ColumnMap, Dialect, error) {
	byName := make(map[string]int, len(first))
	for i, cell := range first {
		byName[strings.ToLower(strings.TrimSpace(cell))] = i
	}

	if hasAll(byName, "start_ip", "end_ip", "country") {
		cm := ColumnMap{
			StartIP:    byName["start_ip"],
			EndIP:      byName["end_ip"],
			Country:    byName["country"],
			Continent:  continentColumn(byName),
			SkipHeader: true,
		}
		return cm, DialectIPInfo, nil
	}

	if len(first) == 3 && strings.Contains(first[0], ".") && strings.Contains(first[1], ".") {
		return ColumnMap{StartIP: 0, EndIP: 1, Country: 2, Continent: -1}, DialectDBIPLite, nil
	}

	if hasAll(byName, "ip_version", "start_ip", "end_ip", "country_code") {
		cm := ColumnMap{
			StartIP:    byName["start_ip"],
			EndIP:      byName["end_ip"],
			Country:    byName["country_code"],
			Continent:  continentColumn(byName),
			SkipHeader: true,
		}
		return cm, DialectIPAPI, nil
	}

	return ColumnMap{}, DialectUnknown, ErrUnknownSchema
}

func hasAll(byName map[string]int, names ...string) bool {
	for _, n := range names {
		if _, ok := byName[n]; !ok {
			return false
		}
	}
	return true
}

// continentColumn prefers the code column over the spelled-out name; sources
// disagree on which of the two they carry.
func continentColumn(byName map[string]int) int {
	if i, ok := byName["continent"]; ok {
		return i
	}
	if i, ok := byName["continent_name"]; ok {
		return i
	}
	return -1
}
