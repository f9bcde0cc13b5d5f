package jobsystem

// JobContext is the ambient scheduling surface available while a
// functor runs: Go has no safe public thread-local storage, so rather
// than reach for an unsafe goroutine-identity hack (as the reference's
// runtime-internal GetG/mcall tricks do) the "currently running job"
// described in §9 Design Notes is threaded explicitly as this parameter
// instead. A *JobContext is only ever valid for the duration of the
// functor call it was built for; functors must not retain it.
type JobContext struct {
	sched *Scheduler
	ws    *workerState
}

// Worker returns the index, in [0, N), of the worker running this
// functor.
func (c *JobContext) Worker() int { return c.ws.index }

// Job returns the Job currently executing -- the ambient running job
// that newly-submitted non-detached children are implicitly parented to.
// It's read off the worker's own running field (worker.go), the single
// source of truth for "what's the ambient job on this worker right now."
func (c *JobContext) Job() *Job { return c.ws.running }

// Schedule submits fn to this worker's global queue, parenting it to the
// ambient running job so that job's completion waits for fn too (§4.3).
func (c *JobContext) Schedule(fn Func) *Job {
	return c.sched.submit(c.ws, c.ws.running, fn, c.ws.global, false)
}

// ScheduleDetached submits fn to this worker's global queue without
// parenting it to the ambient job: no enclosing job will wait for it.
func (c *JobContext) ScheduleDetached(fn Func) *Job {
	return c.sched.submit(c.ws, nil, fn, c.ws.global, true)
}

// ScheduleForThread submits fn to worker idx's local queue, parented to
// the ambient running job exactly as Schedule is. Only worker idx will
// ever run it.
func (c *JobContext) ScheduleForThread(idx int, fn Func) *Job {
	if idx < 0 || idx >= len(c.sched.workers) {
		fail(ErrNotAWorker, c.ws.index, "ScheduleForThread: worker index out of range")
	}
	target := c.sched.workers[idx]
	return c.sched.submit(c.ws, c.ws.running, fn, target.local, false)
}

// Continuation records fn as the ambient job's continuation: it will be
// scheduled, not invoked inline, once the ambient job's counter reaches
// zero, inheriting the ambient job's parent (§4.3, §4.5, Invariant C).
// At most one continuation per job; a second call is the caller error
// §9 Design Notes calls out rather than a silent overwrite.
func (c *JobContext) Continuation(fn Func) {
	if c.ws.running.continuation != nil {
		fail(ErrContinuationOverwrite, c.ws.index, "Continuation already set for this job")
	}
	c.ws.running.continuation = c.sched.newJob(c.ws, fn)
}

// ScheduleValue is the typed-capture sibling of JobContext.Schedule:
// value is bound directly to the new Job's capture field instead of
// being closed over by fn itself, so fn can be a plain, non-capturing
// function value shared across every call site. It panics with
// ErrFunctorOversize if value is larger than the fixed maxCaptureSize
// bound.
func ScheduleValue[T any](c *JobContext, value T, fn func(T, *JobContext)) *Job {
	j := c.sched.allocJob(c.ws)
	resetJob(j)
	setValue(j, value, fn)
	return c.sched.submitJob(c.ws.running, j, c.ws.global, false)
}

// ScheduleDetachedValue is ScheduleValue without implicit parenting.
func ScheduleDetachedValue[T any](c *JobContext, value T, fn func(T, *JobContext)) *Job {
	j := c.sched.allocJob(c.ws)
	resetJob(j)
	setValue(j, value, fn)
	return c.sched.submitJob(nil, j, c.ws.global, true)
}

// ContinuationValue is the typed-capture sibling of
// JobContext.Continuation.
func ContinuationValue[T any](c *JobContext, value T, fn func(T, *JobContext)) {
	if c.ws.running.continuation != nil {
		fail(ErrContinuationOverwrite, c.ws.index, "Continuation already set for this job")
	}
	j := c.sched.allocJob(c.ws)
	resetJob(j)
	setValue(j, value, fn)
	c.ws.running.continuation = j
}
