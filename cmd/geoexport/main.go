package main

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"rangemap/internal/config"
	"rangemap/internal/export"
	"rangemap/internal/input"
	"rangemap/internal/output"
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

	geoipPath := flag.String("geoip", dataFile, "range table source (.csv, .csv.gz, .csv.zip or .mmdb)")
	outputPath := flag.String("output", "-", "output file, or directory when splitting")
	continents := flag.String("continents", "", "comma-separated continent codes to select")
	countries := flag.String("countries", "", "comma-separated country codes to select")
	family := flag.Int("family", 0, "restrict to one family: 4 or 6, 0 for both")
	reverse := flag.Bool("reverse", false, "exclude the selected continents/countries instead")
	splitCountries := flag.Bool("split-countries", false, "write one file per country under -output")
	splitFamilies := flag.Bool("split-families", false, "write one file per family under -output")
	format := flag.String("format", cfg.Export.OutputFormat, "output format: txt or csv")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *family != 0 && *family != 4 && *family != 6 {
		log.Fatal("invalid -family", "value", *family)
	}

	start := time.Now()
	table, rowErrs, err := input.LoadRangeTable(*geoipPath, nil)
	if err != nil {
		log.Fatal("failed to load range table", "file", *geoipPath, "error", err)
	}
	output.ReportRowErrors(rowErrs)
	log.Info("range table loaded", "records", table.Len(), "duration", time.Since(start))

	entries, err := export.Collect(table, export.Filter{
		Continents: splitList(*continents),
		Countries:  splitList(*countries),
		Family:     *family,
		Reverse:    *reverse,
	})
	if err != nil {
		log.Fatal("failed to collect export entries", "error", err)
	}
	if len(entries) == 0 {
		log.Warn("no ranges matched the export filter")
		return
	}

	if *splitCountries || *splitFamilies {
		if *outputPath == "-" {
			log.Fatal("splitting requires -output to name a directory")
		}
		if err := export.WriteGroups(*outputPath, entries, *splitCountries, *splitFamilies); err != nil {
			log.Fatal("failed to write grouped output", "error", err)
		}
		log.Info("export complete", "cidrs", len(entries), "dir", *outputPath, "duration", time.Since(start))
		return
	}

	out, err := output.Create(*outputPath)
	if err != nil {
		log.Fatal("failed to create output file", "file", *outputPath, "error", err)
	}
	switch *format {
	case "csv":
		err = export.WriteCSV(out, entries)
	default:
		err = export.WriteList(out, entries)
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Fatal("failed to write export", "error", err)
	}

	log.Info("export complete", "cidrs", len(entries), "duration", time.Since(start))
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
