package geoip

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"go4.org/netipx"
)

// RangeRecord assigns a country and continent to a contiguous address
// interval. Records are immutable once loaded.
type RangeRecord struct {
	Range     netipx.IPRange
	Country   string
	Continent string
}

// RangeTable is the read-only collection of range records, split by family.
// Records keep their load order: the table neither sorts nor deduplicates,
// because load order is the documented precedence for overlapping ranges.
// Once built the table is safe to share across workers without locking.
type RangeTable struct {
	v4, v6 []RangeRecord
}

// NewRangeTable builds a table from records, splitting them by family while
// preserving their relative order.
func NewRangeTable(records []RangeRecord) *RangeTable {
	t := &RangeTable{}
	for _, rec := range records {
		t.add(rec)
	}
	return t
}

func (t *RangeTable) add(rec RangeRecord) {
	if rec.Range.From().Is4() {
		t.v4 = append(t.v4, rec)
	} else {
		t.v6 = append(t.v6, rec)
	}
}

// Records returns the load-ordered record sequence of one family. The
// returned slice is shared; callers must not mutate it.
func (t *RangeTable) Records(f Family) []RangeRecord {
	if f == FamilyIPv4 {
		return t.v4
	}
	return t.v6
}

// Len reports the total number of loaded records across both families.
func (t *RangeTable) Len() int {
	return len(t.v4) + len(t.v6)
}

// RowSource yields one raw source row at a time and io.EOF when exhausted.
// encoding/csv's Reader satisfies it directly.
type RowSource interface {
	Read() ([]string, error)
}

// RowError records one source row that could not be loaded. Line numbers
// count from 1 and include a skipped header line.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d skipped: %v", e.Line, e.Err)
}

// LoadTable streams rows from src and appends a record per well-formed row.
// A malformed row (unparsable address, missing columns) is recorded as a
// RowError and skipped; a single bad row never aborts the load. The returned
// error is only non-nil when the source itself fails mid-stream.
func LoadTable(src RowSource, cols ColumnMap) (*RangeTable, []RowError, error) {
	t := &RangeTable{}
	var rowErrs []RowError

	line := 0
	for {
		row, err := src.Read()
		if errors.Is(err, io.EOF) {
			return t, rowErrs, nil
		}
		line++
		if err != nil {
			if row == nil {
				return t, rowErrs, fmt.Errorf("read source row %d: %w", line, err)
			}
			// Recoverable reader complaint (e.g. ragged column count):
			// the row itself still came through.
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		if line == 1 && cols.SkipHeader {
			continue
		}

		rec, err := parseRecord(row, cols)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Line: line, Err: err})
			continue
		}
		t.add(rec)
	}
}

func parseRecord(row []string, cols ColumnMap) (RangeRecord, error) {
	need := cols.StartIP
	for _, i := range []int{cols.EndIP, cols.Country} {
		if i > need {
			need = i
		}
	}
	if len(row) <= need {
		return RangeRecord{}, fmt.Errorf("row has %d columns, need at least %d", len(row), need+1)
	}

	start, err := ParseAddr(strings.TrimSpace(row[cols.StartIP]))
	if err != nil {
		return RangeRecord{}, fmt.Errorf("start_ip: %w", err)
	}
	end, err := ParseAddr(strings.TrimSpace(row[cols.EndIP]))
	if err != nil {
		return RangeRecord{}, fmt.Errorf("end_ip: %w", err)
	}

	r := netipx.IPRangeFrom(start, end)
	if !r.IsValid() {
		return RangeRecord{}, fmt.Errorf("invalid range %s-%s", start, end)
	}

	rec := RangeRecord{Range: r, Country: strings.TrimSpace(row[cols.Country])}
	if cols.Continent >= 0 && cols.Continent < len(row) {
		rec.Continent = strings.TrimSpace(row[cols.Continent])
	}
	return rec, nil
}
