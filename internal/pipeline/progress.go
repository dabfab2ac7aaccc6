package pipeline

import (
	"time"

	"github.com/charmbracelet/log"
)

// Progress aggregates increment-only completion counts. Workers send counts
// over a channel; a single consumer goroutine owns the running total and logs
// it at a fixed interval, so workers never share a mutable counter and never
// block beyond the channel buffer.
type Progress struct {
	label    string
	total    int
	interval time.Duration
	ch       chan int
	done     chan struct{}
}

// NewProgress starts the consumer goroutine. total is informational; Close
// flushes the final count.
func NewProgress(label string, total int) *Progress {
	p := &Progress{
		label:    label,
		total:    total,
		interval: 2 * time.Second,
		ch:       make(chan int, 256),
		done:     make(chan struct{}),
	}
	go p.consume()
	return p
}

// Add reports n more completed items. Safe for concurrent use; a nil receiver
// is a no-op so pipelines can run unobserved.
func (p *Progress) Add(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.ch <- n
}

// Close stops the consumer after draining outstanding counts and logs the
// final total. Call only after all workers have finished reporting.
func (p *Progress) Close() {
	if p == nil {
		return
	}
	close(p.ch)
	<-p.done
}

func (p *Progress) consume() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	count := 0
	for {
		select {
		case n, ok := <-p.ch:
			if !ok {
				log.Info(p.label+" finished", "done", count, "total", p.total)
				return
			}
			count += n
		case <-ticker.C:
			log.Info(p.label, "done", count, "total", p.total)
		}
	}
}
