// Package mirror implements the concurrent bucket replication pipeline.
//
// A single lister paginates the source bucket into a bounded queue; a fixed
// pool of workers drains the queue, copying or skipping each key according
// to the clobber policy. Shared state is limited to the queue and the
// counter tracker. The run ends when the lister closes the queue and every
// worker has drained; failures are collected per goroutine rather than
// aborting the drain.
package mirror

import (
	"context"
	goerrors "errors"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/fredngo/s3copy/internal/s3api"
)

// ClientFactory mints an independent S3 client. It is invoked once for the
// lister and once per worker so that no client is shared across goroutines.
type ClientFactory func() s3api.S3API

// Outcome is the terminal state of one pipeline goroutine.
type Outcome struct {
	// Name identifies the goroutine ("lister", "worker-0", ...).
	Name string

	// Err is nil when the goroutine finished cleanly.
	Err error
}

// Result summarizes a completed run. The counters satisfy
// Listed == Copied + Skipped whenever every Outcome is clean.
type Result struct {
	Listed  int64
	Copied  int64
	Skipped int64

	// Outcomes holds one entry per goroutine, lister first.
	Outcomes []Outcome
}

// Failed returns the outcomes that ended with an error.
func (r *Result) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

// Mirror replicates one bucket into another.
type Mirror struct {
	cfg       Config
	newClient ClientFactory
	log       *zap.Logger
	out       io.Writer
}

// Option configures a Mirror.
type Option func(*Mirror)

// WithOutput redirects banner and progress output. Defaults to stdout.
func WithOutput(out io.Writer) Option {
	return func(m *Mirror) {
		m.out = out
	}
}

// New validates the configuration and creates a Mirror.
func New(cfg Config, newClient ClientFactory, log *zap.Logger, opts ...Option) (*Mirror, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Mirror{
		cfg:       cfg,
		newClient: newClient,
		log:       log,
		out:       os.Stdout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Run executes the replication pipeline and blocks until every goroutine
// has been joined. Per-goroutine failures do not stop the drain; they are
// collected into the Result and folded into the returned error.
func (m *Mirror) Run(ctx context.Context) (*Result, error) {
	fmt.Fprintf(m.out, "START: Copying from %s to %s (clobber=%t)\n",
		m.cfg.Source, m.cfg.Dest, m.cfg.Clobber)

	queue := NewQueue(m.cfg.maxQueue())
	tracker := NewTracker(m.out)

	// One outcome slot per goroutine, lister at index 0. Each goroutine
	// writes only its own slot, so no lock is needed.
	outcomes := make([]Outcome, m.cfg.Threads+1)

	var wg sync.WaitGroup
	var workers sync.WaitGroup

	// The lister gets its own cancellable context. If every worker exits
	// early the lister would otherwise block forever on a full queue, so
	// it is cancelled once the pool is gone.
	listCtx, stopLister := context.WithCancel(ctx)
	defer stopLister()

	l := &lister{
		client:  m.newClient(),
		bucket:  m.cfg.Source,
		prefix:  m.cfg.Prefix,
		queue:   queue,
		tracker: tracker,
		log:     m.log,
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		outcomes[0] = Outcome{Name: "lister", Err: guard(func() error { return l.run(listCtx) })}
	}()

	for i := 0; i < m.cfg.Threads; i++ {
		w := &worker{
			id:      i,
			client:  m.newClient(),
			cfg:     m.cfg,
			queue:   queue,
			tracker: tracker,
			log:     m.log,
		}
		wg.Add(1)
		workers.Add(1)
		go func(i int, w *worker) {
			defer wg.Done()
			defer workers.Done()
			outcomes[i+1] = Outcome{
				Name: fmt.Sprintf("worker-%d", i),
				Err:  guard(func() error { return w.run(ctx) }),
			}
		}(i, w)
	}

	go func() {
		workers.Wait()
		stopLister()
	}()

	wg.Wait()

	tracker.PrintLine()
	fmt.Fprintf(m.out, "END: Copied from %s to %s!\n", m.cfg.Source, m.cfg.Dest)

	counts := tracker.Snapshot()
	result := &Result{
		Listed:   counts.Listed,
		Copied:   counts.Copied,
		Skipped:  counts.Skipped,
		Outcomes: outcomes,
	}

	var errs []error
	for _, o := range result.Failed() {
		m.log.Error("pipeline goroutine failed",
			zap.String("name", o.Name),
			zap.Error(o.Err),
		)
		errs = append(errs, fmt.Errorf("%s: %w", o.Name, o.Err))
	}

	return result, goerrors.Join(errs...)
}

// guard converts a panic inside a pipeline goroutine into an error outcome
// so one faulting goroutine cannot take down the whole run.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
