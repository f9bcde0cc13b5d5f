package jobsystem

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler is a fork-join job scheduler: a fixed pool of worker
// goroutines, each owning a local and a global queue, cooperating through
// implicit parent-tracking and continuations (§1-§5). A single process
// should own one Scheduler; unlike the reference's process-wide static
// queues, every piece of scheduler state here hangs off this struct, so
// nothing stops an embedder from running more than one (§9 Design Notes,
// "Global state").
type Scheduler struct {
	cfg      config
	pool     *Pool
	workers  []*workerState
	counters counters

	rrCounter atomic.Uint64

	stopCh  chan struct{}
	stopped atomic.Bool
	wg      sync.WaitGroup
}

// New constructs a Scheduler with cfg.workers worker slots (worker 0 is
// reserved for whichever goroutine calls JoinAsWorker or RunJob).
// It does not start any goroutines; call Init for that.
func New(opts ...Option) *Scheduler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers < 1 {
		cfg.workers = 1
	}
	s := &Scheduler{
		cfg:    cfg,
		pool:   NewPool(cfg.poolCapacity),
		stopCh: make(chan struct{}),
	}
	s.workers = make([]*workerState, cfg.workers)
	for i := range s.workers {
		s.workers[i] = newWorkerState(i)
	}
	return s
}

// Init starts N-1 detached background worker goroutines. Worker 0 is
// left unstarted; the embedding process joins it explicitly via
// JoinAsWorker or drives it implicitly through RunJob.
func (s *Scheduler) Init() {
	for i := 1; i < len(s.workers); i++ {
		ws := s.workers[i]
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.workerLoop(ws)
		}()
	}
	s.cfg.logger.Info().Int("workers", len(s.workers)).Msg("jobsystem: started")
}

// JoinAsWorker runs the calling goroutine as worker 0's loop until Stop
// is called. It blocks. Calling it while worker 0 already has a caller
// joined (including via a concurrent RunJob) is a fatal
// ErrAmbientJobViolation.
func (s *Scheduler) JoinAsWorker() {
	ws := s.workers[0]
	if ws.joined {
		fail(ErrAmbientJobViolation, 0, "JoinAsWorker called while worker 0 is already joined")
	}
	ws.joined = true
	defer func() { ws.joined = false }()
	s.workerLoop(ws)
}

// Stop signals every worker to exit after draining its current job and
// blocks until they have. Queued-but-not-yet-popped jobs may be lost
// (§5, §7 "Worker stop race" -- graceful, not guaranteed-drained).
func (s *Scheduler) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopCh)
	}
	s.wg.Wait()
	s.cfg.logger.Info().Msg("jobsystem: stopped")
}

// workerLoop is the per-worker main loop (§4.4): pick local, else steal
// round-robin starting from the worker's own global queue, else drain a
// batch of the delete list; sleep a bounded interval only when none of
// those found anything to do.
func (s *Scheduler) workerLoop(ws *workerState) {
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}
		if !s.work(ws) {
			select {
			case <-ws.wake:
			case <-time.After(wakeTimeout):
			case <-s.stopCh:
				return
			}
		}
	}
}

// work performs one scheduling attempt for ws and reports whether it did
// anything (executed a job, or drained a batch of the delete list).
func (s *Scheduler) work(ws *workerState) bool {
	j := ws.local.Pop()
	if j == nil {
		n := len(s.workers)
		for i := 0; i < n; i++ {
			victim := s.workers[(ws.index+i)%n]
			if cand := victim.global.Pop(); cand != nil {
				j = cand
				if i != 0 {
					s.counters.stolen.Add(1)
				}
				break
			}
		}
	}
	if j != nil {
		s.runJobOn(ws, j)
		return true
	}
	if head, n := ws.takeDeleteBatch(); head != nil {
		s.pool.drainBatch(head)
		s.counters.deleteDrain.Add(uint64(n))
		return true
	}
	return false
}

// runJobOn sets j as ws's ambient running job, invokes its functor, then
// runs the completion protocol as an ordinary (non-inline) job: any
// continuation it sets is pushed to ws's global queue for whichever
// worker gets to it next, same as every other popped job.
func (s *Scheduler) runJobOn(ws *workerState, j *Job) {
	ws.running = j
	ctx := &JobContext{sched: s, ws: ws}
	s.invoke(ctx, j)
	ws.running = nil
	s.counters.executed.Add(1)
	s.complete(ws, j, false)
}

// invoke runs j's functor, logging and re-panicking if it panics. The
// scheduler never recovers a functor's panic for good: a broken job
// functor should crash the process rather than silently vanish.
func (s *Scheduler) invoke(ctx *JobContext, j *Job) {
	defer func() {
		if r := recover(); r != nil {
			s.cfg.logger.Error().
				Int("worker", ctx.ws.index).
				Interface("panic", r).
				Msg("jobsystem: job functor panicked")
			panic(r)
		}
	}()
	j.fn(ctx)
}

// complete runs the completion protocol for j and, by bubble-up, for any
// ancestor that becomes fully done as a result (§4.5). When inline is
// true and j itself has no parent, a continuation j sets is not pushed
// to a queue; it is returned directly so the caller (RunJob, which owns
// its root/continuation chain end to end) can execute it itself without
// ever exposing it to a second reader. Ordinary worker-popped jobs
// always pass inline=false, so their continuations are scheduled exactly
// as §4.5 describes.
func (s *Scheduler) complete(ws *workerState, j *Job, inline bool) *Job {
	for j != nil {
		prev := j.jobsLeft.Add(-1) + 1
		if prev != 1 {
			return nil
		}
		var cont *Job
		if j.continuation != nil {
			cont = j.continuation
			j.continuation = nil
			if j.parent != nil {
				j.parent.jobsLeft.Add(1)
				cont.parent = j.parent
			}
			s.counters.continued.Add(1)
		}
		parent := j.parent
		s.recycle(ws, j)
		if cont != nil {
			if inline && parent == nil {
				return cont
			}
			ws.global.Push(cont)
			s.wakeAll()
		}
		j = parent
	}
	return nil
}

// recycle resets j and returns it to ws's goroutine-local free list,
// overflowing to the delete list once the free list is full (§4.1).
func (s *Scheduler) recycle(ws *workerState, j *Job) {
	resetJob(j)
	ws.pushFree(j, s.cfg.freeListLimit)
}

// allocJob returns a ready-to-use Job, preferring ws's own free list
// before falling back to the shared pool.
func (s *Scheduler) allocJob(ws *workerState) *Job {
	if ws != nil {
		if j := ws.popFree(); j != nil {
			s.counters.poolReused.Add(1)
			return j
		}
	}
	return s.pool.alloc()
}

// newJob allocates a Job and installs fn as its functor.
func (s *Scheduler) newJob(ws *workerState, fn Func) *Job {
	j := s.allocJob(ws)
	resetJob(j)
	j.setFunc(fn)
	return j
}

// submitJob finishes submission of an already-built Job: applies the
// implicit-parent rule (§4.3) unless detached, pushes it to target, bumps
// the scheduled counter, and wakes sleeping workers.
func (s *Scheduler) submitJob(ambient *Job, j *Job, target *Queue, detached bool) *Job {
	if ambient != nil && !detached {
		j.parent = ambient
		ambient.jobsLeft.Add(1)
	}
	target.Push(j)
	s.counters.scheduled.Add(1)
	s.cfg.logger.Debug().
		Str("job", fmt.Sprintf("%p", j)).
		Int("worker", target.owner).
		Str("queue", target.kind).
		Msg("jobsystem: scheduled")
	s.wakeAll()
	return j
}

// submit builds a Job from fn and submits it; see submitJob.
func (s *Scheduler) submit(ws *workerState, ambient *Job, fn Func, target *Queue, detached bool) *Job {
	j := s.newJob(ws, fn)
	return s.submitJob(ambient, j, target, detached)
}

// wakeAll wakes every sleeping worker. Any global queue can be serviced
// by any worker, so a push anywhere must be visible to everyone -- the
// Go analogue of "notifies the condvar so sleeping workers wake" (§4.3).
func (s *Scheduler) wakeAll() {
	for _, ws := range s.workers {
		ws.notify()
	}
}

// Schedule submits fn to worker 0's global queue with no implicit
// parent. It is the top-level (outside-any-job) counterpart of
// JobContext.Schedule; call it before Init, or from a goroutine that
// never joined the pool as a worker.
func (s *Scheduler) Schedule(fn Func) *Job {
	return s.submit(nil, nil, fn, s.workers[0].global, false)
}

// ScheduleDetached submits fn with no implicit parent, round-robining
// across every worker's global queue so fire-and-forget submissions
// don't all pile onto worker 0.
func (s *Scheduler) ScheduleDetached(fn Func) *Job {
	idx := int(s.rrCounter.Add(1)-1) % len(s.workers)
	return s.submit(nil, nil, fn, s.workers[idx].global, true)
}

// ScheduleForThread submits fn to worker idx's local queue, so only that
// worker will ever run it.
func (s *Scheduler) ScheduleForThread(idx int, fn Func) *Job {
	if idx < 0 || idx >= len(s.workers) {
		fail(ErrNotAWorker, -1, "ScheduleForThread: worker index out of range")
	}
	return s.submit(nil, nil, fn, s.workers[idx].local, false)
}

// NumWorkers returns the number of worker slots (0..N-1) the scheduler
// was constructed with.
func (s *Scheduler) NumWorkers() int { return len(s.workers) }

// RunJob is the top-level fork-join entry point: it allocates fn as a
// root Job, runs it and its descendants to completion on the calling
// goroutine (which participates as worker 0 for the duration), then runs
// any continuation chain fn sets, returning only once the whole chain is
// done (§4.3). Calling it while worker 0 is already joined -- including
// a concurrent RunJob or JoinAsWorker -- is a fatal ErrAmbientJobViolation.
func (s *Scheduler) RunJob(fn Func) {
	ws := s.workers[0]
	if ws.joined {
		fail(ErrAmbientJobViolation, 0, "RunJob called while worker 0 is already joined")
	}
	ws.joined = true
	defer func() { ws.joined = false }()

	job := s.newJob(ws, fn)
	for job != nil {
		ws.running = job
		ctx := &JobContext{sched: s, ws: ws}
		s.invoke(ctx, job)
		ws.running = nil
		s.counters.executed.Add(1)

		for job.jobsLeft.Load() > 1 {
			s.work(ws)
			if job.jobsLeft.Load() <= 1 {
				break
			}
			select {
			case <-ws.wake:
			case <-time.After(wakeTimeout):
			}
		}

		job = s.complete(ws, job, true)
	}
}
