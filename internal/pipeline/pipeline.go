// Package pipeline runs an ordered list of items through fixed-size chunks of
// parallel work and reassembles the results in original input order.
package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Item carries one input value together with its zero-based position in the
// original sequence. The position is the ownership key used to restore order
// after chunks complete out of order.
type Item[T any] struct {
	Position int
	Value    T
}

// ItemError records one item that failed processing. Failed items never
// appear in the row stream; every failure appears exactly once here.
type ItemError struct {
	Position int
	Err      error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Position, e.Err)
}

// Options tunes a run. The zero value processes the whole input as a single
// chunk with one worker per CPU.
type Options struct {
	// ChunkSize is the number of items per chunk; <= 0 spans the whole input.
	ChunkSize int
	// Workers bounds concurrently running chunk workers; <= 0 uses NumCPU.
	Workers int
	// Progress, when non-nil, receives increment-only completion counts.
	Progress *Progress
}

// Func resolves a single item. A non-nil error diverts the item into the
// error collection instead of the row stream.
type Func[T, R any] func(item Item[T]) (R, error)

// ChunkFunc resolves one contiguous chunk at a time, for work that is
// naturally batched (bulk lookups). Implementations process items in slice
// order, return one row per successful item in that order, and call report
// with completion counts as they go.
type ChunkFunc[T, R any] func(chunk []Item[T], report func(int)) ([]R, []ItemError)

// Run partitions items into fixed-size contiguous chunks, resolves every
// chunk independently under the worker limit, and returns the rows merged
// back into original position order plus all accumulated item errors. A chunk
// that errors on every item neither stalls nor fails its siblings. Chunks
// already dispatched always run to completion; ctx only gates dispatch, and
// items of undispatched chunks surface as item errors.
func Run[T, R any](ctx context.Context, items []Item[T], fn Func[T, R], opts Options) ([]R, []ItemError) {
	return RunChunks(ctx, items, func(chunk []Item[T], report func(int)) ([]R, []ItemError) {
		rows := make([]R, 0, len(chunk))
		var errs []ItemError
		for _, it := range chunk {
			row, err := fn(it)
			if err != nil {
				errs = append(errs, ItemError{Position: it.Position, Err: err})
			} else {
				rows = append(rows, row)
			}
			report(1)
		}
		return rows, errs
	}, opts)
}

// RunChunks is Run for chunk-at-a-time work. Rows come back ordered by
// original position regardless of chunk completion order; the final merge
// runs single-threaded after all workers have reported.
func RunChunks[T, R any](ctx context.Context, items []Item[T], fn ChunkFunc[T, R], opts Options) ([]R, []ItemError) {
	if len(items) == 0 {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	chunkSize := opts.ChunkSize
	if chunkSize <= 0 || chunkSize > len(items) {
		chunkSize = len(items)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	type chunkResult struct {
		offset int
		rows   []R
		errs   []ItemError
	}

	var (
		mu      sync.Mutex
		results []chunkResult
	)

	g := new(errgroup.Group)
	g.SetLimit(workers)

	for start := 0; start < len(items); start += chunkSize {
		end := min(start+chunkSize, len(items))
		chunk := items[start:end]
		offset := start

		g.Go(func() error {
			cr := chunkResult{offset: offset}
			if err := ctx.Err(); err != nil {
				for _, it := range chunk {
					cr.errs = append(cr.errs, ItemError{Position: it.Position, Err: err})
				}
			} else {
				cr.rows, cr.errs = fn(chunk, opts.Progress.Add)
			}

			mu.Lock()
			results = append(results, cr)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].offset < results[j].offset })

	var rows []R
	var errs []ItemError
	for _, cr := range results {
		rows = append(rows, cr.rows...)
		errs = append(errs, cr.errs...)
	}
	return rows, errs
}

// Items wraps raw values with their positions.
func Items[T any](values []T) []Item[T] {
	items := make([]Item[T], len(values))
	for i, v := range values {
		items[i] = Item[T]{Position: i, Value: v}
	}
	return items
}
