package tcping

import (
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"rangemap/internal/pipeline"
)

func TestParseTargets(t *testing.T) {
	text := `# staging probes
10.0.0.1:8080
10.0.0.2 443
example.com          # fan out across defaults
[2001:db8::1]:8443
`

	targets, err := ParseTargets(strings.NewReader(text), []int{80, 443})
	if err != nil {
		t.Fatalf("ParseTargets returned error: %v", err)
	}

	want := []Target{
		{Host: "10.0.0.1", Port: 8080},
		{Host: "10.0.0.2", Port: 443},
		{Host: "example.com", Port: 80},
		{Host: "example.com", Port: 443},
		{Host: "2001:db8::1", Port: 8443},
	}
	if len(targets) != len(want) {
		t.Fatalf("got %d targets %v, want %d", len(targets), targets, len(want))
	}
	for i := range want {
		if targets[i] != want[i] {
			t.Fatalf("target %d is %+v, want %+v", i, targets[i], want[i])
		}
	}
}

func TestParseTargetsBadPort(t *testing.T) {
	for _, text := range []string{"10.0.0.1:0", "10.0.0.1:70000", "10.0.0.1:http"} {
		_, err := ParseTargets(strings.NewReader(text), nil)
		if err == nil {
			t.Fatalf("ParseTargets(%q) did not fail", text)
		}
		if !strings.Contains(err.Error(), "line 1") {
			t.Fatalf("error %q does not name the offending line", err)
		}
	}
}

func TestSplitTarget(t *testing.T) {
	cases := []struct {
		in, host, port string
	}{
		{"10.0.0.1:8080", "10.0.0.1", "8080"},
		{"10.0.0.1 8080", "10.0.0.1", "8080"},
		{"example.com", "example.com", ""},
		{"2001:db8::1", "2001:db8::1", ""}, // bare IPv6, colons are not a port
		{"[2001:db8::1]:443", "2001:db8::1", "443"},
	}
	for _, tc := range cases {
		host, port := splitTarget(tc.in)
		if host != tc.host || port != tc.port {
			t.Fatalf("splitTarget(%q) = (%q, %q), want (%q, %q)", tc.in, host, port, tc.host, tc.port)
		}
	}
}

func TestProbeReachableTarget(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("starting listener: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	_, portText, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portText)

	res := Probe(Target{Host: "127.0.0.1", Port: port}, Config{Attempts: 3, Timeout: time.Second})
	if res.Attempted != 3 {
		t.Fatalf("attempted %d, want 3", res.Attempted)
	}
	if res.Connected != 3 || res.Failed != 0 {
		t.Fatalf("connected %d, failed %d, want 3/0", res.Connected, res.Failed)
	}
	if res.LossPct != 0 {
		t.Fatalf("loss was %.1f%%, want 0", res.LossPct)
	}
	if res.MinTime <= 0 || res.AvgTime < res.MinTime || res.MaxTime < res.AvgTime {
		t.Fatalf("implausible latency stats %v/%v/%v", res.MinTime, res.AvgTime, res.MaxTime)
	}
}

func TestProbeClosedPortIsFullLossNotError(t *testing.T) {
	// Grab a port the kernel just released; nothing listens on it.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("starting listener: %v", err)
	}
	_, portText, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portText)
	ln.Close()

	res := Probe(Target{Host: "127.0.0.1", Port: port}, Config{Attempts: 2, Timeout: 500 * time.Millisecond})
	if res.Connected != 0 || res.Failed != 2 {
		t.Fatalf("connected %d, failed %d, want 0/2", res.Connected, res.Failed)
	}
	if res.LossPct != 100 {
		t.Fatalf("loss was %.1f%%, want 100", res.LossPct)
	}
}

func TestRunPreservesTargetOrder(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("starting listener: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	_, portText, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portText)

	targets := make([]Target, 8)
	for i := range targets {
		targets[i] = Target{Host: "127.0.0.1", Port: port}
	}

	results, errs := Run(context.Background(), targets, Config{Attempts: 1, Timeout: time.Second},
		pipeline.Options{ChunkSize: 1, Workers: 4})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(results) != len(targets) {
		t.Fatalf("got %d results, want %d", len(results), len(targets))
	}
	for i, res := range results {
		if res.Target != targets[i] {
			t.Fatalf("result %d is for %s, want %s (order lost)", i, res.Target, targets[i])
		}
	}
}

func TestWriteCSV(t *testing.T) {
	results := []Result{
		{
			Target:    Target{Host: "10.0.0.1", Port: 80},
			Attempted: 4, Connected: 3, Failed: 1, LossPct: 25,
			MinTime: 10 * time.Millisecond,
			AvgTime: 15 * time.Millisecond,
			MaxTime: 20 * time.Millisecond,
		},
	}

	var sb strings.Builder
	if err := WriteCSV(&sb, results); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}

	want := "target,attempted,connected,failed,loss_pct,min_ms,avg_ms,max_ms\n" +
		"10.0.0.1:80,4,3,1,25.0,10.0,15.0,20.0\n"
	if sb.String() != want {
		t.Fatalf("WriteCSV wrote:\n%s\nwant:\n%s", sb.String(), want)
	}
}
