package jobsystem

import (
	"sync/atomic"
	"unsafe"

	"github.com/gammazero/deque"
)

// Queue is a FIFO of *Job guarded by a single spinlock, exactly the
// "ordered sequence of Job pointers... single spinlock (test-and-set
// flag)" the reference specifies. The backing store is a ring-buffer
// deque rather than a bare slice, so sustained push/pop churn doesn't
// repeatedly shift or reallocate the underlying array.
//
// Every worker owns two of these: a local queue that only the owning
// worker and explicit ScheduleForThread producers push to, and a global
// queue any worker may steal from.
type Queue struct {
	locked atomic.Bool
	_      [cacheLinePadSize - unsafe.Sizeof(atomic.Bool{})]byte
	items  deque.Deque[*Job]

	// owner and kind are purely descriptive, set once by the workerState
	// that constructs a queue, so submission logging (scheduler.go) can
	// report which worker and which of its two queues a job landed in.
	owner int
	kind  string
}

// NewQueue returns an empty queue.
func NewQueue() *Queue { return &Queue{} }

// describeAs records which worker owns this queue and whether it's the
// worker's local or global queue, for logging only.
func (q *Queue) describeAs(owner int, kind string) {
	q.owner, q.kind = owner, kind
}

func (q *Queue) lock() {
	for !q.locked.CompareAndSwap(false, true) {
		// spin; contention is expected to be brief (see §4.2/§5).
	}
}

func (q *Queue) unlock() { q.locked.Store(false) }

// Push appends j to the tail of the queue.
func (q *Queue) Push(j *Job) {
	q.lock()
	q.items.PushBack(j)
	q.unlock()
}

// Pop removes and returns the head of the queue, or nil if it was empty.
func (q *Queue) Pop() *Job {
	q.lock()
	var j *Job
	if q.items.Len() > 0 {
		j = q.items.PopFront()
	}
	q.unlock()
	return j
}

// Len returns the current number of queued jobs. Intended for tests and
// metrics, not for making scheduling decisions (it's stale the instant
// it's read under concurrent access).
func (q *Queue) Len() int {
	q.lock()
	n := q.items.Len()
	q.unlock()
	return n
}
