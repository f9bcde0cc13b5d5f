package jobsystem

import "time"

// wakeTimeout is the bounded condvar-equivalent wait the worker loop and
// RunJob's cooperative wait use between Work attempts (§4.4, §4.6): never
// block indefinitely, never busy-spin either.
const wakeTimeout = time.Millisecond

// workerState is the goroutine-local state for one worker: its local and
// global queues, and its free/delete lists. Only the owning goroutine
// ever touches freeList/deleteList/freeCount/deleteCount/running, so
// those fields carry no synchronization -- exactly the "thread-local; no
// synchronization" policy in §5.
type workerState struct {
	index int

	local  *Queue
	global *Queue

	freeList    *Job
	freeCount   int
	deleteList  *Job
	deleteCount int

	// running is the ambient running job for this worker: the implicit
	// parent for newly submitted non-detached jobs, and the single
	// source of truth JobContext reads from (Worker/Job/Schedule/
	// Continuation all go through c.ws.running rather than a second
	// copy of the pointer). Cleared before the completion protocol runs
	// so a continuation isn't mistakenly parented to the job that just
	// finished (§9 Design Notes).
	running *Job

	// joined guards against the same worker slot being entered twice
	// concurrently (RunJob/JoinAsWorker called re-entrantly).
	joined bool

	wake chan struct{}
}

func newWorkerState(index int) *workerState {
	ws := &workerState{
		index:  index,
		local:  NewQueue(),
		global: NewQueue(),
		wake:   make(chan struct{}, 1),
	}
	ws.local.describeAs(index, "local")
	ws.global.describeAs(index, "global")
	return ws
}

// notify wakes this worker if it is sleeping in its bounded wait. It
// never blocks: a worker that's already awake (or about to wake) just
// drops the signal.
func (ws *workerState) notify() {
	select {
	case ws.wake <- struct{}{}:
	default:
	}
}

// pushFree adds a reclaimed Job to this worker's free list, diverting to
// the delete list once the free list reaches limit entries (§4.1).
func (ws *workerState) pushFree(j *Job, limit int) {
	if ws.freeCount >= limit {
		j.next.Store(ws.deleteList)
		ws.deleteList = j
		ws.deleteCount++
		return
	}
	j.next.Store(ws.freeList)
	ws.freeList = j
	ws.freeCount++
}

// popFree removes and returns the head of this worker's free list, or
// nil if it's empty.
func (ws *workerState) popFree() *Job {
	j := ws.freeList
	if j == nil {
		return nil
	}
	ws.freeList = j.next.Load()
	ws.freeCount--
	j.next.Store(nil)
	return j
}

// takeDeleteBatch detaches this worker's entire delete list so it can be
// handed to the pool's drainBatch outside of any per-worker bookkeeping.
func (ws *workerState) takeDeleteBatch() (*Job, int) {
	head, n := ws.deleteList, ws.deleteCount
	ws.deleteList, ws.deleteCount = nil, 0
	return head, n
}
