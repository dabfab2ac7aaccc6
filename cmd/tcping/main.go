package main

import (
	"context"
	"flag"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"rangemap/internal/config"
	"rangemap/internal/input"
	"rangemap/internal/output"
	"rangemap/internal/pipeline"
	"rangemap/internal/tcping"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found. Falling back to system environment variables.")
	}
	config.ReadSettings()
	cfg := config.GetConfig()

	inputPath := flag.String("input", "", "target list file, '-' for stdin")
	outputPath := flag.String("output", "-", "output CSV file, '-' for stdout")
	portsFlag := flag.String("ports", joinPorts(cfg.Tcping.DefaultPorts), "default ports for targets without one")
	attempts := flag.Int("attempts", cfg.Tcping.Attempts, "connection attempts per target")
	timeout := flag.Duration("timeout", time.Duration(cfg.Tcping.TimeoutMs)*time.Millisecond, "per-connection timeout")
	interval := flag.Duration("interval", time.Duration(cfg.Tcping.IntervalMs)*time.Millisecond, "pause between attempts")
	workers := flag.Int("workers", cfg.Tcping.Workers, "concurrent probe workers")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	if *inputPath == "" {
		log.Fatal("missing -input")
	}

	defaultPorts, err := parsePorts(*portsFlag)
	if err != nil {
		log.Fatal("invalid -ports", "error", err)
	}

	in, err := input.OpenInput(*inputPath)
	if err != nil {
		log.Fatal("failed to open target list", "file", *inputPath, "error", err)
	}
	targets, err := tcping.ParseTargets(in, defaultPorts)
	in.Close()
	if err != nil {
		log.Fatal("failed to parse target list", "file", *inputPath, "error", err)
	}
	if len(targets) == 0 {
		log.Warn("target list is empty, nothing to do")
		return
	}

	start := time.Now()
	progress := pipeline.NewProgress("probing targets", len(targets))
	results, errs := tcping.Run(context.Background(), targets, tcping.Config{
		Attempts: *attempts,
		Timeout:  *timeout,
		Interval: *interval,
	}, pipeline.Options{
		ChunkSize: 1,
		Workers:   *workers,
		Progress:  progress,
	})
	progress.Close()

	out, err := output.Create(*outputPath)
	if err != nil {
		log.Fatal("failed to create output file", "file", *outputPath, "error", err)
	}
	werr := tcping.WriteCSV(out, results)
	if cerr := out.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		log.Fatal("failed to write results", "error", werr)
	}

	output.ReportItemErrors(errs)
	log.Info("probe batch complete", "targets", len(results), "errors", len(errs), "duration", time.Since(start))
}

func parsePorts(s string) ([]int, error) {
	var ports []int
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return nil, strconv.ErrRange
		}
		ports = append(ports, n)
	}
	if len(ports) == 0 {
		ports = []int{80}
	}
	return ports, nil
}

func joinPorts(ports []int) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}
