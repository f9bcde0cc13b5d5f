package jobsystem

import (
	"runtime"

	"github.com/rs/zerolog"
)

// defaultPoolCapacity bounds how many live Job blocks the scheduler's
// pool will ever construct before raising ErrPoolExhausted. Callers with
// larger peak fan-out should raise it with WithPoolCapacity.
const defaultPoolCapacity = 1 << 16

// defaultFreeListLimit is the "≥ 100 entries" threshold from §4.1 past
// which a worker's reclaimed Jobs overflow from its free list to its
// delete list instead.
const defaultFreeListLimit = 100

// config is the resolved set of Options a Scheduler is built from.
type config struct {
	workers       int
	poolCapacity  uint64
	freeListLimit int
	logger        zerolog.Logger
}

// Option configures a Scheduler at construction time.
type Option func(*config)

// WithWorkers overrides the worker count, which otherwise defaults to
// runtime.NumCPU() -- the Go analogue of the reference's hardware
// concurrency query (§6).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithPoolCapacity overrides the maximum number of live Job blocks the
// scheduler's pool allocator will construct. Size this for peak fan-out;
// exceeding it is a fatal ErrPoolExhausted, by design.
func WithPoolCapacity(n uint64) Option {
	return func(c *config) {
		if n > 0 {
			c.poolCapacity = n
		}
	}
}

// WithFreeListLimit overrides the per-worker free-list size past which
// reclaimed Jobs divert to the delete list (§4.1).
func WithFreeListLimit(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.freeListLimit = n
		}
	}
}

// WithLogger wires a structured logger for scheduler events: start and
// stop (Info), each submission through submitJob (Debug), and job
// functor panics (Error). Spinlock contention and pool exhaustion are
// not logged. The default is zerolog's disabled logger, so the library
// stays silent unless a caller opts in.
func WithLogger(l zerolog.Logger) Option {
	return func(c *config) { c.logger = l }
}

func defaultConfig() config {
	return config{
		workers:       runtime.NumCPU(),
		poolCapacity:  defaultPoolCapacity,
		freeListLimit: defaultFreeListLimit,
		logger:        zerolog.Nop(),
	}
}
