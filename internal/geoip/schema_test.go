package geoip

import (
	"errors"
	"testing"
)

func TestDetectSchemaIPInfo(t *testing.T) {
	header := []string{"start_ip", "end_ip", "country", "country_name", "continent", "continent_name"}

	cm, dialect, err := DetectSchema(header)
	if err != nil {
		t.Fatalf("DetectSchema returned error: %v", err)
	}
	if dialect != DialectIPInfo {
		t.Fatalf("dialect was %s, want %s", dialect, DialectIPInfo)
	}
	if !cm.SkipHeader {
		t.Fatal("expected SkipHeader for a named header")
	}
	if cm.StartIP != 0 || cm.EndIP != 1 || cm.Country != 2 || cm.Continent != 4 {
		t.Fatalf("unexpected column mapping %+v", cm)
	}
}

func TestDetectSchemaIPInfoContinentFallback(t *testing.T) {
	header := []string{"country", "continent_name", "start_ip", "end_ip"}

	cm, dialect, err := DetectSchema(header)
	if err != nil {
		t.Fatalf("DetectSchema returned error: %v", err)
	}
	if dialect != DialectIPInfo {
		t.Fatalf("dialect was %s, want %s", dialect, DialectIPInfo)
	}
	if cm.Continent != 1 {
		t.Fatalf("continent column was %d, want 1 (continent_name fallback)", cm.Continent)
	}
}

func TestDetectSchemaDBIPLite(t *testing.T) {
	firstDataRow := []string{"1.0.0.0", "1.0.0.255", "AU"}

	cm, dialect, err := DetectSchema(firstDataRow)
	if err != nil {
		t.Fatalf("DetectSchema returned error: %v", err)
	}
	if dialect != DialectDBIPLite {
		t.Fatalf("dialect was %s, want %s", dialect, DialectDBIPLite)
	}
	if cm.SkipHeader {
		t.Fatal("dbip sources have no header to skip")
	}
	if cm.StartIP != 0 || cm.EndIP != 1 || cm.Country != 2 || cm.Continent != -1 {
		t.Fatalf("unexpected column mapping %+v", cm)
	}
}

func TestDetectSchemaIPAPI(t *testing.T) {
	header := []string{"ip_version", "start_ip", "end_ip", "country_code", "continent"}

	cm, dialect, err := DetectSchema(header)
	if err != nil {
		t.Fatalf("DetectSchema returned error: %v", err)
	}
	if dialect != DialectIPAPI {
		t.Fatalf("dialect was %s, want %s", dialect, DialectIPAPI)
	}
	if !cm.SkipHeader {
		t.Fatal("expected SkipHeader for the ipapi header")
	}
	if cm.StartIP != 1 || cm.EndIP != 2 || cm.Country != 3 || cm.Continent != 4 {
		t.Fatalf("unexpected column mapping %+v", cm)
	}
}

func TestDetectSchemaPriorityOrder(t *testing.T) {
	// A header naming both the ipinfo and ipapi columns must resolve to the
	// higher-priority ipinfo dialect.
	header := []string{"ip_version", "start_ip", "end_ip", "country", "country_code"}

	cm, dialect, err := DetectSchema(header)
	if err != nil {
		t.Fatalf("DetectSchema returned error: %v", err)
	}
	if dialect != DialectIPInfo {
		t.Fatalf("dialect was %s, want %s", dialect, DialectIPInfo)
	}
	if cm.Country != 3 {
		t.Fatalf("country column was %d, want 3 (country, not country_code)", cm.Country)
	}
}

func TestDetectSchemaUnknown(t *testing.T) {
	cases := [][]string{
		{"network", "geoname_id", "registered_country_geoname_id"},
		{"1.0.0.0", "1.0.0.255", "AU", "Australia"},  // four columns, no header
		{"2600::", "2600::ffff", "US"},               // three columns but not dotted
		{},
	}

	for _, first := range cases {
		if _, _, err := DetectSchema(first); !errors.Is(err, ErrUnknownSchema) {
			t.Fatalf("DetectSchema(%v) error = %v, want ErrUnknownSchema", first, err)
		}
	}
}
