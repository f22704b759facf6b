package mirror

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// progressEvery is the number of combined copy+skip events between
// progress lines.
const progressEvery = 1000

// Counts is a consistent snapshot of the run counters.
type Counts struct {
	Listed  int64
	Copied  int64
	Skipped int64
}

// Tracker holds the shared run counters. All three counters live under one
// mutex; listed is written only by the lister but is published through the
// same lock so snapshots taken from other goroutines are consistent.
type Tracker struct {
	mu      sync.Mutex
	listed  int64
	copied  int64
	skipped int64

	start time.Time
	out   io.Writer
}

// NewTracker creates a tracker writing progress lines to out.
func NewTracker(out io.Writer) *Tracker {
	return &Tracker{
		start: time.Now(),
		out:   out,
	}
}

// AddListed records n newly listed keys.
func (t *Tracker) AddListed(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listed += int64(n)
}

// AddCopied records one completed copy, emitting a progress line on every
// progressEvery-th combined copy+skip event.
func (t *Tracker) AddCopied() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.copied++
	t.maybePrint()
}

// AddSkipped records one skipped key, emitting a progress line on every
// progressEvery-th combined copy+skip event.
func (t *Tracker) AddSkipped() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.skipped++
	t.maybePrint()
}

// Snapshot returns a consistent view of all three counters.
func (t *Tracker) Snapshot() Counts {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Counts{Listed: t.listed, Copied: t.copied, Skipped: t.skipped}
}

// PrintLine writes a progress line unconditionally. Used for the final
// summary after all goroutines have joined.
func (t *Tracker) PrintLine() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.print()
}

// maybePrint emits a progress line when the combined copy+skip total hits a
// multiple of progressEvery. Caller must hold t.mu; printing under the lock
// keeps lines from interleaving across workers.
func (t *Tracker) maybePrint() {
	if (t.copied+t.skipped)%progressEvery == 0 {
		t.print()
	}
}

func (t *Tracker) print() {
	elapsed := time.Since(t.start).Round(time.Second)
	fmt.Fprintf(t.out, "%s: Total copied: %d, Total skipped: %d, Total listed: %d\n",
		elapsed, t.copied, t.skipped, t.listed)
}
