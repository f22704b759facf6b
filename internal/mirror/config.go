package mirror

import (
	"fmt"

	"github.com/fredngo/s3copy/errors"
)

const (
	// pageSize is the number of keys requested per listing page.
	pageSize = 1000

	// queueDepthPerThread scales the queue bound with the worker count, so
	// the lister stays at most ~one page per worker ahead of the pool.
	queueDepthPerThread = 1000
)

// Config is the immutable description of one replication run. A single
// value is shared (read-only) by the lister and every worker.
type Config struct {
	// Source is the bucket to replicate from.
	Source string

	// Dest is the bucket to replicate into.
	Dest string

	// Prefix restricts the run to keys under the given prefix.
	// Empty replicates the whole bucket.
	Prefix string

	// Threads is the number of copy workers.
	Threads int

	// Clobber overwrites destination objects unconditionally. When false,
	// keys already present at the destination are skipped.
	Clobber bool

	// StrictExists controls the existence-check failure policy. When true,
	// a HEAD failure other than not-found fails the key. When false, any
	// HEAD failure is treated as "absent" and the key is copied.
	StrictExists bool
}

// Validate reports configuration errors before any goroutine is spawned.
func (c *Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("%w: source bucket is required", errors.ErrInvalidConfig)
	}
	if c.Dest == "" {
		return fmt.Errorf("%w: destination bucket is required", errors.ErrInvalidConfig)
	}
	if c.Source == c.Dest {
		return fmt.Errorf("%w: source and destination buckets must differ", errors.ErrInvalidConfig)
	}
	if c.Threads < 1 {
		return fmt.Errorf("%w: threads must be at least 1, got %d", errors.ErrInvalidConfig, c.Threads)
	}
	return nil
}

// maxQueue is the hard bound on queued keys for this configuration.
func (c *Config) maxQueue() int {
	return c.Threads * queueDepthPerThread
}
