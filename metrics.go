package jobsystem

import "sync/atomic"

// counters holds the scheduler's atomic counters. Each is independently
// updated by any worker, so they're plain atomics rather than anything
// guarded by a lock.
type counters struct {
	scheduled   atomic.Uint64
	executed    atomic.Uint64
	stolen      atomic.Uint64
	continued   atomic.Uint64
	poolReused  atomic.Uint64
	deleteDrain atomic.Uint64
}

// Metrics is a point-in-time snapshot of scheduler activity, exposed for
// callers that want visibility into fan-out/steal/reuse behavior without
// needing to instrument their own job functors.
type Metrics struct {
	Scheduled     uint64
	Executed      uint64
	Stolen        uint64
	Continuations uint64
	PoolReused    uint64
	DeleteDrains  uint64
	PoolAllocated uint64
	PoolExhausted uint64
}

// Metrics returns a snapshot of the scheduler's counters.
func (s *Scheduler) Metrics() Metrics {
	return Metrics{
		Scheduled:     s.counters.scheduled.Load(),
		Executed:      s.counters.executed.Load(),
		Stolen:        s.counters.stolen.Load(),
		Continuations: s.counters.continued.Load(),
		PoolReused:    s.counters.poolReused.Load(),
		DeleteDrains:  s.counters.deleteDrain.Load(),
		PoolAllocated: s.pool.Allocated(),
		PoolExhausted: s.pool.Exhausted(),
	}
}
