package jobsystem

import (
	"sync"
	"sync/atomic"
)

// Pool is the fixed-block allocator backing Job storage; every Scheduler
// builds and owns its own (see New), there is no process-wide one. Its
// shared free list is the lock-free stack in lfstack.go -- any worker can
// push a reclaimed Job onto it or pop one off without the mutex. mu is
// reserved for the two genuinely cold paths named in §4.1: constructing a
// block past what's already been recycled, and draining a worker's
// delete-list overflow back into the shared free list in one batch.
type Pool struct {
	free      lfstack
	mu        sync.Mutex
	capacity  uint64
	allocated atomic.Uint64
	exhausted atomic.Uint64
}

// NewPool returns a pool that will construct at most capacity live Job
// blocks before alloc starts raising ErrPoolExhausted. Reused (freed)
// blocks don't count against this ceiling a second time.
func NewPool(capacity uint64) *Pool {
	return &Pool{capacity: capacity}
}

// alloc returns a zeroed, ready-to-use Job, reusing a recycled block from
// the shared free stack when one is available.
func (p *Pool) alloc() *Job {
	if j := p.free.pop(); j != nil {
		return j
	}
	p.mu.Lock()
	if p.allocated.Load() >= p.capacity {
		p.mu.Unlock()
		p.exhausted.Add(1)
		fail(ErrPoolExhausted, -1, "fresh allocation requested with pool at capacity")
	}
	p.allocated.Add(1)
	p.mu.Unlock()
	return &Job{}
}

// release returns a single reset Job directly to the shared free stack,
// lock-free. The scheduler itself does not call it: reclaimed Jobs go to
// the worker's own free list, and its delete-list overflow comes back
// through drainBatch.
func (p *Pool) release(j *Job) {
	p.free.push(j)
}

// drainBatch returns every Job in the linked list headed by head to the
// shared free stack under the pool mutex, in one batch. The batch is not
// size-bounded: it is the worker's whole delete list as takeDeleteBatch
// detached it.
func (p *Pool) drainBatch(head *Job) {
	p.mu.Lock()
	for j := head; j != nil; {
		n := j.next.Load()
		p.free.push(j)
		j = n
	}
	p.mu.Unlock()
}

// Allocated reports the number of Job blocks this pool has ever
// constructed (not currently-live count; freed blocks remain counted).
func (p *Pool) Allocated() uint64 { return p.allocated.Load() }

// Exhausted reports the number of times a fresh allocation was
// requested with the pool already at capacity.
func (p *Pool) Exhausted() uint64 { return p.exhausted.Load() }
