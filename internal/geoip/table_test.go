package geoip

import (
	"errors"
	"io"
	"testing"
)

// sliceSource feeds canned rows to the loader.
type sliceSource struct {
	rows [][]string
	next int
}

func (s *sliceSource) Read() ([]string, error) {
	if s.next >= len(s.rows) {
		return nil, io.EOF
	}
	row := s.rows[s.next]
	s.next++
	return row, nil
}

func dbipColumns() ColumnMap {
	return ColumnMap{StartIP: 0, EndIP: 1, Country: 2, Continent: -1}
}

func TestLoadTableSplitsFamilies(t *testing.T) {
	src := &sliceSource{rows: [][]string{
		{"10.0.0.0", "10.0.0.255", "US"},
		{"2001:db8::", "2001:db8::ffff", "DE"},
		{"192.168.0.0", "192.168.255.255", "FR"},
	}}

	table, rowErrs, err := LoadTable(src, dbipColumns())
	if err != nil {
		t.Fatalf("LoadTable returned error: %v", err)
	}
	if len(rowErrs) != 0 {
		t.Fatalf("LoadTable reported %d row errors: %v", len(rowErrs), rowErrs)
	}
	if table.Len() != 3 {
		t.Fatalf("table holds %d records, want 3", table.Len())
	}
	if got := len(table.Records(FamilyIPv4)); got != 2 {
		t.Fatalf("IPv4 sequence holds %d records, want 2", got)
	}
	if got := len(table.Records(FamilyIPv6)); got != 1 {
		t.Fatalf("IPv6 sequence holds %d records, want 1", got)
	}
}

func TestLoadTablePreservesLoadOrder(t *testing.T) {
	// Overlapping and unsorted on purpose; the table must not reorder.
	src := &sliceSource{rows: [][]string{
		{"10.0.0.0", "10.0.255.255", "US"},
		{"10.0.0.0", "10.0.0.255", "CA"},
		{"9.0.0.0", "9.255.255.255", "GB"},
	}}

	table, _, err := LoadTable(src, dbipColumns())
	if err != nil {
		t.Fatalf("LoadTable returned error: %v", err)
	}

	countries := make([]string, 0, 3)
	for _, rec := range table.Records(FamilyIPv4) {
		countries = append(countries, rec.Country)
	}
	want := []string{"US", "CA", "GB"}
	for i := range want {
		if countries[i] != want[i] {
			t.Fatalf("record %d is %s, want %s (load order lost)", i, countries[i], want[i])
		}
	}
}

func TestLoadTableSkipsMalformedRows(t *testing.T) {
	cols := ColumnMap{StartIP: 0, EndIP: 1, Country: 2, Continent: 3, SkipHeader: true}
	src := &sliceSource{rows: [][]string{
		{"start_ip", "end_ip", "country", "continent"},
		{"10.0.0.0", "10.0.0.255", "US", "NA"},
		{"not-an-ip", "10.1.0.255", "XX", "NA"},
		{"10.2.0.255", "10.2.0.0", "YY", "NA"}, // start above end
		{"10.3.0.0"},                           // short row
		{"10.4.0.0", "10.4.0.255", "DE", "EU"},
	}}

	table, rowErrs, err := LoadTable(src, cols)
	if err != nil {
		t.Fatalf("LoadTable returned error: %v", err)
	}
	if table.Len() != 2 {
		t.Fatalf("table holds %d records, want 2", table.Len())
	}
	if len(rowErrs) != 3 {
		t.Fatalf("LoadTable reported %d row errors, want 3: %v", len(rowErrs), rowErrs)
	}

	// Line numbers count the header line.
	wantLines := []int{3, 4, 5}
	for i, re := range rowErrs {
		if re.Line != wantLines[i] {
			t.Fatalf("row error %d is for line %d, want %d", i, re.Line, wantLines[i])
		}
	}
}

func TestLoadTableRecordsContinent(t *testing.T) {
	cols := ColumnMap{StartIP: 0, EndIP: 1, Country: 2, Continent: 3}
	src := &sliceSource{rows: [][]string{
		{"10.0.0.0", "10.0.0.255", "US", "NA"},
	}}

	table, _, err := LoadTable(src, cols)
	if err != nil {
		t.Fatalf("LoadTable returned error: %v", err)
	}
	rec := table.Records(FamilyIPv4)[0]
	if rec.Continent != "NA" {
		t.Fatalf("continent was %q, want NA", rec.Continent)
	}
}

// failingSource dies mid-stream without producing a row.
type failingSource struct {
	rows int
}

func (s *failingSource) Read() ([]string, error) {
	if s.rows > 0 {
		s.rows--
		return []string{"10.0.0.0", "10.0.0.255", "US"}, nil
	}
	return nil, errors.New("disk on fire")
}

func TestLoadTableAbortsOnSourceFailure(t *testing.T) {
	_, _, err := LoadTable(&failingSource{rows: 2}, dbipColumns())
	if err == nil {
		t.Fatal("expected error when the source fails without a row")
	}
}
