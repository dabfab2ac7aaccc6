package main

import (
	"context"
	"encoding/csv"
	"flag"
	"time"

	"github.com/ammario/ipisp"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"rangemap/internal/config"
	"rangemap/internal/input"
	"rangemap/internal/output"
	"rangemap/internal/pipeline"
	"rangemap/internal/whois"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found. Falling back to system environment variables.")
	}
	config.ReadSettings()
	cfg := config.GetConfig()

	inputPath := flag.String("input", "", "IP list file, '-' for stdin")
	outputPath := flag.String("output", "-", "output CSV file, '-' for stdout")
	chunkSize := flag.Int("chunk", cfg.Whois.ChunkSize, "IPs per bulk whois request")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *inputPath == "" {
		log.Fatal("missing -input")
	}

	in, err := input.OpenInput(*inputPath)
	if err != nil {
		log.Fatal("failed to open IP list", "file", *inputPath, "error", err)
	}
	queries, err := input.ReadQueries(in)
	in.Close()
	if err != nil {
		log.Fatal("failed to read IP list", "file", *inputPath, "error", err)
	}
	if len(queries) == 0 {
		log.Warn("IP list is empty, nothing to do")
		return
	}

	client, err := ipisp.NewWhoisClient()
	if err != nil {
		log.Fatal("failed to connect to bulk whois service", "error", err)
	}
	defer client.Close()

	start := time.Now()
	progress := pipeline.NewProgress("whois lookups", len(queries))
	rows, errs := whois.Lookup(context.Background(), client, queries, pipeline.Options{
		ChunkSize: *chunkSize,
		Progress:  progress,
	})
	progress.Close()

	out, err := output.Create(*outputPath)
	if err != nil {
		log.Fatal("failed to create output file", "file", *outputPath, "error", err)
	}
	cw := csv.NewWriter(out)
	_ = cw.Write([]string{"ip", "asn", "name", "registry", "country", "route"})
	for _, row := range rows {
		_ = cw.Write([]string{row.Query, row.ASN, row.Name, row.Registry, row.Country, row.Route})
	}
	cw.Flush()
	werr := cw.Error()
	if cerr := out.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		log.Fatal("failed to write results", "error", werr)
	}

	output.ReportItemErrors(errs)
	log.Info("whois batch complete", "rows", len(rows), "errors", len(errs), "duration", time.Since(start))
}
