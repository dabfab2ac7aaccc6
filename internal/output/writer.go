// Package output serializes batch results and reports accumulated errors,
// keeping the two streams strictly separate.
package output

import (
	"encoding/csv"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/log"

	"rangemap/internal/batch"
	"rangemap/internal/geoip"
	"rangemap/internal/pipeline"
)

// Create opens path for writing, with "-" standing for stdout.
func Create(path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// WriteRows writes resolved rows as CSV in the order given. Unmatched rows
// keep their place with empty geo columns unless includeUnmatched is false.
func WriteRows(w io.Writer, rows []batch.Row, includeUnmatched bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"ip", "country", "continent", "cidr"}); err != nil {
		return err
	}
	for _, row := range rows {
		if !row.Matched && !includeUnmatched {
			continue
		}
		if err := cw.Write([]string{row.Query, row.Country, row.Continent, row.CIDR}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReportItemErrors logs every accumulated item error after the success
// stream has been written, ordered by input position for readability.
func ReportItemErrors(errs []pipeline.ItemError) {
	if len(errs) == 0 {
		return
	}
	sorted := make([]pipeline.ItemError, len(errs))
	copy(sorted, errs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	log.Warn("some inputs could not be processed", "count", len(sorted))
	for _, e := range sorted {
		log.Warn("skipped input", "position", e.Position, "error", e.Err)
	}
}

// ReportRowErrors logs source rows that were skipped while the range table
// loaded. The load itself already succeeded; these are advisory.
func ReportRowErrors(errs []geoip.RowError) {
	if len(errs) == 0 {
		return
	}
	log.Warn("some source rows were skipped", "count", len(errs))
	for _, e := range errs {
		log.Warn("skipped source row", "line", e.Line, "error", e.Err)
	}
}
