package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"rangemap/internal/batch"
	"rangemap/internal/config"
	"rangemap/internal/geoip"
	"rangemap/internal/input"
	"rangemap/internal/output"
	"rangemap/internal/pipeline"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found. Falling back to system environment variables.")
	}
	config.ReadSettings()
	cfg := config.GetConfig()

	dataFile := cfg.Query.DataFile
	if env := os.Getenv("RANGEMAP_GEOIP_FILE"); env != "" {
		dataFile = env
	}

	inputPath := flag.String("input", "", "query list file, '-' for stdin")
	geoipPath := flag.String("geoip", dataFile, "range table source (.csv, .csv.gz, .csv.zip or .mmdb)")
	outputPath := flag.String("output", "-", "output CSV file, '-' for stdout")
	chunkSize := flag.Int("chunk", cfg.Query.ChunkSize, "items per chunk, 0 spans the whole input")
	workers := flag.Int("workers", cfg.Query.Workers, "concurrent chunk workers, 0 means NumCPU")
	columnsFlag := flag.String("columns", "", "explicit column indices start,end,country[,continent]; overrides detection")
	headerFlag := flag.Bool("header", false, "with -columns: the first source row is a header")
	matchedOnly := flag.Bool("matched-only", false, "drop unmatched rows from the output")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *inputPath == "" {
		log.Fatal("missing -input")
	}

	override, err := parseColumns(*columnsFlag, *headerFlag)
	if err != nil {
		log.Fatal("invalid -columns", "error", err)
	}

	start := time.Now()
	table, rowErrs, err := input.LoadRangeTable(*geoipPath, override)
	if err != nil {
		log.Fatal("failed to load range table", "file", *geoipPath, "error", err)
	}
	output.ReportRowErrors(rowErrs)
	log.Info("range table loaded", "records", table.Len(), "duration", time.Since(start))

	in, err := input.OpenInput(*inputPath)
	if err != nil {
		log.Fatal("failed to open query list", "file", *inputPath, "error", err)
	}
	queries, err := input.ReadQueries(in)
	in.Close()
	if err != nil {
		log.Fatal("failed to read query list", "file", *inputPath, "error", err)
	}
	if len(queries) == 0 {
		log.Warn("query list is empty, nothing to do")
		return
	}

	progress := pipeline.NewProgress("resolving queries", len(queries))
	rows, errs := batch.ResolveAll(context.Background(), table, queries, pipeline.Options{
		ChunkSize: *chunkSize,
		Workers:   *workers,
		Progress:  progress,
	})
	progress.Close()

	out, err := output.Create(*outputPath)
	if err != nil {
		log.Fatal("failed to create output file", "file", *outputPath, "error", err)
	}
	if err := output.WriteRows(out, rows, !*matchedOnly); err != nil {
		out.Close()
		log.Fatal("failed to write results", "error", err)
	}
	if err := out.Close(); err != nil {
		log.Fatal("failed to close output file", "error", err)
	}

	output.ReportItemErrors(errs)
	log.Info("batch complete", "rows", len(rows), "errors", len(errs), "duration", time.Since(start))
}

// parseColumns turns "1,2,3" or "1,2,3,5" into an explicit column mapping.
func parseColumns(spec string, header bool) (*geoip.ColumnMap, error) {
	if spec == "" {
		return nil, nil
	}

	parts := strings.Split(spec, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return nil, fmt.Errorf("want 3 or 4 comma-separated indices, got %d", len(parts))
	}

	indices := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("bad column index %q", p)
		}
		indices[i] = n
	}

	cm := &geoip.ColumnMap{
		StartIP:    indices[0],
		EndIP:      indices[1],
		Country:    indices[2],
		Continent:  -1,
		SkipHeader: header,
	}
	if len(indices) == 4 {
		cm.Continent = indices[3]
	}
	return cm, nil
}
