// Package whois resolves batches of IP addresses to their origin ASN, AS
// name, registry and announced route over the Team Cymru bulk interface.
package whois

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/ammario/ipisp"

	"rangemap/internal/pipeline"
)

// Row is one bulk lookup outcome.
type Row struct {
	Position int
	Query    string
	ASN      string
	Name     string
	Registry string
	Country  string
	Route    string
}

// Lookup resolves every input through client, chunk by chunk. The bulk
// endpoint is one connection, so chunk lookups serialize on a mutex; the
// pipeline still owns ordering and error accounting.
func Lookup(ctx context.Context, client ipisp.Client, queries []string, opts pipeline.Options) ([]Row, []pipeline.ItemError) {
	var mu sync.Mutex

	return pipeline.RunChunks(ctx, pipeline.Items(queries), func(chunk []pipeline.Item[string], report func(int)) ([]Row, []pipeline.ItemError) {
		var errs []pipeline.ItemError

		ips := make([]net.IP, 0, len(chunk))
		valid := make([]pipeline.Item[string], 0, len(chunk))
		for _, it := range chunk {
			ip := net.ParseIP(it.Value)
			if ip == nil {
				errs = append(errs, pipeline.ItemError{Position: it.Position, Err: fmt.Errorf("parse address %q", it.Value)})
				report(1)
				continue
			}
			ips = append(ips, ip)
			valid = append(valid, it)
		}
		if len(ips) == 0 {
			return nil, errs
		}

		mu.Lock()
		resps, err := client.LookupIPs(ips)
		mu.Unlock()
		if err != nil {
			for _, it := range valid {
				errs = append(errs, pipeline.ItemError{Position: it.Position, Err: err})
			}
			report(len(valid))
			return nil, errs
		}

		byIP := make(map[string]ipisp.Response, len(resps))
		for _, resp := range resps {
			byIP[resp.IP.String()] = resp
		}

		rows := make([]Row, 0, len(valid))
		for i, it := range valid {
			resp, ok := byIP[ips[i].String()]
			if !ok {
				errs = append(errs, pipeline.ItemError{Position: it.Position, Err: fmt.Errorf("no whois response for %s", it.Value)})
				report(1)
				continue
			}
			rows = append(rows, buildRow(it, resp))
			report(1)
		}
		return rows, errs
	}, opts)
}

func buildRow(it pipeline.Item[string], resp ipisp.Response) Row {
	row := Row{
		Position: it.Position,
		Query:    it.Value,
		ASN:      fmt.Sprintf("AS%d", int(resp.ASN)),
		Name:     resp.Name.Raw,
		Registry: resp.Registry,
		Country:  resp.Country,
	}
	if resp.Range != nil {
		row.Route = resp.Range.String()
	}
	return row
}
