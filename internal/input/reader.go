// Package input owns file-shaped plumbing: opening possibly-compressed CSV
// sources, peeking the first row for schema detection, and parsing query
// lists out of plain text files.
package input

import (
	"archive/zip"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"rangemap/internal/geoip"
)

// OpenInput opens path for reading, with "-" standing for stdin.
func OpenInput(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}

// Open opens path for reading, transparently unwrapping .gz files and .zip
// archives. For archives the first .csv member is served.
func Open(path string) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip %s: %w", path, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil

	case strings.HasSuffix(path, ".zip"):
		zr, err := zip.OpenReader(path)
		if err != nil {
			return nil, fmt.Errorf("open zip %s: %w", path, err)
		}
		for _, member := range zr.File {
			if !strings.HasSuffix(member.Name, ".csv") {
				continue
			}
			rc, err := member.Open()
			if err != nil {
				zr.Close()
				return nil, fmt.Errorf("open zip member %s: %w", member.Name, err)
			}
			return &stackedCloser{Reader: rc, closers: []io.Closer{rc, zr}}, nil
		}
		zr.Close()
		return nil, fmt.Errorf("no .csv member in %s", path)

	default:
		return os.Open(path)
	}
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// replaySource hands back a peeked first row before delegating to the
// underlying source, so schema detection never costs the loader a data row.
type replaySource struct {
	first []string
	src   geoip.RowSource
}

func (r *replaySource) Read() ([]string, error) {
	if r.first != nil {
		row := r.first
		r.first = nil
		return row, nil
	}
	return r.src.Read()
}

// LoadRangeTable builds a range table from path. An .mmdb file is enumerated
// directly; anything else is treated as a CSV source (optionally gzipped or
// zipped) whose dialect is auto-detected unless an explicit column mapping
// overrides it.
func LoadRangeTable(path string, override *geoip.ColumnMap) (*geoip.RangeTable, []geoip.RowError, error) {
	if strings.HasSuffix(path, ".mmdb") {
		t, err := geoip.LoadTableFromMMDB(path)
		return t, nil, err
	}

	rc, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	cr := csv.NewReader(rc)
	cr.FieldsPerRecord = -1

	first, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("source %s is empty", path)
		}
		return nil, nil, fmt.Errorf("read first row of %s: %w", path, err)
	}

	var cols geoip.ColumnMap
	if override != nil {
		cols = *override
	} else {
		var dialect geoip.Dialect
		cols, dialect, err = geoip.DetectSchema(first)
		if err != nil {
			return nil, nil, err
		}
		log.Info("format detected", "dialect", dialect.String(), "file", path)
	}

	return geoip.LoadTable(&replaySource{first: first, src: cr}, cols)
}
