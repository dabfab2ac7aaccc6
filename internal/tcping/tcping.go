// Package tcping probes TCP reachability of target lists through the shared
// chunk pipeline.
package tcping

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"rangemap/internal/pipeline"
)

// Target is one host/port probe destination.
type Target struct {
	Host string
	Port int
}

func (t Target) String() string {
	return net.JoinHostPort(t.Host, strconv.Itoa(t.Port))
}

// ParseTargets reads a target list: "host:port" or "host port" per line,
// '#' comments, and a bare host fanned out across defaultPorts.
func ParseTargets(r io.Reader, defaultPorts []int) ([]Target, error) {
	var targets []Target

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		host, portText := splitTarget(text)
		if portText == "" {
			for _, port := range defaultPorts {
				targets = append(targets, Target{Host: host, Port: port})
			}
			continue
		}

		port, err := strconv.Atoi(portText)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("line %d: invalid port %q", line, portText)
		}
		targets = append(targets, Target{Host: host, Port: port})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return targets, nil
}

func splitTarget(text string) (host, port string) {
	if fields := strings.Fields(text); len(fields) == 2 {
		return fields[0], fields[1]
	}
	// host:port only when the colon cannot belong to an IPv6 literal
	if strings.Count(text, ":") == 1 {
		i := strings.IndexByte(text, ':')
		return text[:i], text[i+1:]
	}
	if strings.HasPrefix(text, "[") {
		if i := strings.Index(text, "]:"); i > 0 {
			return text[1:i], text[i+2:]
		}
	}
	return text, ""
}

// Config tunes the probe loop.
type Config struct {
	Attempts int
	Timeout  time.Duration
	Interval time.Duration
}

// Result aggregates one target's connection statistics. A target that never
// connected (including resolution failure) shows full loss rather than an
// error; only list parsing produces errors.
type Result struct {
	Target    Target
	Attempted int
	Connected int
	Failed    int
	LossPct   float64
	MinTime   time.Duration
	AvgTime   time.Duration
	MaxTime   time.Duration
}

// Probe dials the target cfg.Attempts times and aggregates latency stats
// over the successful connections.
func Probe(t Target, cfg Config) Result {
	attempts := cfg.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	res := Result{Target: t, Attempted: attempts}
	var total time.Duration

	for i := 0; i < attempts; i++ {
		if i > 0 && cfg.Interval > 0 {
			time.Sleep(cfg.Interval)
		}

		start := time.Now()
		conn, err := net.DialTimeout("tcp", t.String(), cfg.Timeout)
		elapsed := time.Since(start)
		if err != nil {
			res.Failed++
			continue
		}
		conn.Close()

		res.Connected++
		total += elapsed
		if res.MinTime == 0 || elapsed < res.MinTime {
			res.MinTime = elapsed
		}
		if elapsed > res.MaxTime {
			res.MaxTime = elapsed
		}
	}

	if res.Connected > 0 {
		res.AvgTime = total / time.Duration(res.Connected)
	}
	res.LossPct = float64(res.Failed) / float64(res.Attempted) * 100
	return res
}

// Run probes every target through the chunk pipeline, preserving input
// order in the returned results.
func Run(ctx context.Context, targets []Target, cfg Config, opts pipeline.Options) ([]Result, []pipeline.ItemError) {
	return pipeline.Run(ctx, pipeline.Items(targets), func(it pipeline.Item[Target]) (Result, error) {
		return Probe(it.Value, cfg), nil
	}, opts)
}

// WriteCSV writes probe results with their latency columns in milliseconds.
func WriteCSV(w io.Writer, results []Result) error {
	if _, err := fmt.Fprintln(w, "target,attempted,connected,failed,loss_pct,min_ms,avg_ms,max_ms"); err != nil {
		return err
	}
	for _, r := range results {
		_, err := fmt.Fprintf(w, "%s,%d,%d,%d,%.1f,%.1f,%.1f,%.1f\n",
			r.Target, r.Attempted, r.Connected, r.Failed, r.LossPct,
			ms(r.MinTime), ms(r.AvgTime), ms(r.MaxTime))
		if err != nil {
			return err
		}
	}
	return nil
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
