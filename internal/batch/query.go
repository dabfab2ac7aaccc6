// Package batch glues the range table, resolver and chunk pipeline into the
// geoquery batch run.
package batch

import (
	"context"

	"rangemap/internal/geoip"
	"rangemap/internal/pipeline"
)

// Row is the resolution outcome for one input query. Matched false means the
// query was well-formed but no loaded range contains it; the geo fields stay
// empty and the row still belongs to the success stream.
type Row struct {
	Position  int
	Query     string
	Country   string
	Continent string
	CIDR      string
	Matched   bool
}

// ResolveAll resolves every query against the shared read-only table through
// the chunk pipeline. Rows come back in original input order; malformed
// queries are absent from the rows and appear once in the error collection.
func ResolveAll(ctx context.Context, table *geoip.RangeTable, queries []string, opts pipeline.Options) ([]Row, []pipeline.ItemError) {
	return pipeline.Run(ctx, pipeline.Items(queries), func(it pipeline.Item[string]) (Row, error) {
		m, err := table.Resolve(it.Value)
		if err != nil {
			return Row{}, err
		}

		row := Row{Position: it.Position, Query: it.Value, Matched: m.Found}
		if m.Found {
			row.Country = m.Country
			row.Continent = m.Continent
			row.CIDR = m.CIDR()
		}
		return row, nil
	}, opts)
}
