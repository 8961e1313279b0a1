package reembed

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker prints a running count of the topics and slides a run has
// re-embedded, overwriting one terminal line.
type ProgressTracker struct {
	mu sync.Mutex

	out   io.Writer
	every int // print after this many items since the last line
	total int

	topics    int
	slides    int
	printedAt int
	began     time.Time
	running   bool
}

// NewProgressTracker returns a tracker for a run over total items that prints
// every interval items. A nil out discards the output.
func NewProgressTracker(out io.Writer, total, every int) *ProgressTracker {
	if out == nil {
		out = io.Discard
	}
	return &ProgressTracker{
		out:   out,
		every: max(every, 1),
		total: total,
	}
}

// Start resets the counts and the clock.
func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.topics, p.slides, p.printedAt = 0, 0, 0
	p.began = time.Now()
	p.running = true
}

// Done counts a written batch.
func (p *ProgressTracker) Done(items []Item) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	for _, item := range items {
		if p.embedded() == p.total {
			break
		}
		if item.Kind == KindTopic {
			p.topics++
		} else {
			p.slides++
		}
	}
	if p.embedded()-p.printedAt >= p.every {
		p.print()
		p.printedAt = p.embedded()
	}
}

// Finish prints the final line and ends it.
func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.print()
	fmt.Fprintln(p.out)
	p.running = false
}

// Elapsed is the time since Start, or zero before it.
func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.began.IsZero() {
		return 0
	}
	return time.Since(p.began)
}

func (p *ProgressTracker) embedded() int {
	return p.topics + p.slides
}

// print writes the status line. Callers hold mu.
func (p *ProgressTracker) print() {
	n := p.embedded()
	fmt.Fprintf(p.out, "\rEmbedded %d/%d (%.1f%%): %d topics, %d slides, %.1f items/s",
		n, p.total, percent(n, p.total), p.topics, p.slides, rate(n, time.Since(p.began)))
}

func percent(current, total int) float64 {
	if total == 0 {
		return 100.0
	}
	return float64(current) / float64(total) * 100.0
}

func rate(n int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(n) / elapsed.Seconds()
}
