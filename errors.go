package jobsystem

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for the scheduler's fatal assertion paths. These mirror
// the reference implementation's assert()-driven aborts: none of them are
// meant to be recovered by ordinary callers, they exist so tests and
// embedding applications can identify the failure kind via errors.Is.
var (
	// ErrPoolExhausted is raised when a fresh Job allocation is requested
	// and the pool's fixed capacity has already been reached. Callers
	// must size the pool (WithPoolCapacity) for their peak fan-out.
	ErrPoolExhausted = errors.New("jobsystem: pool exhausted")

	// ErrAmbientJobViolation is raised when RunJob or JoinAsWorker is
	// entered while worker 0 is already joined, e.g. RunJob called from
	// inside a RunJob functor. Only worker 0's slot is checked: a RunJob
	// call made from a job running on another worker is not detected.
	ErrAmbientJobViolation = errors.New("jobsystem: ambient job violation")

	// ErrFunctorOversize is raised at submission time when a functor's
	// captured value does not fit the Job's inline storage capacity.
	ErrFunctorOversize = errors.New("jobsystem: functor exceeds inline capacity")

	// ErrContinuationOverwrite is raised when Continuation is called more
	// than once for the same ambient job. The reference implementation
	// silently overwrites and leaks the prior continuation; this port
	// treats the double-call as the caller error it is.
	ErrContinuationOverwrite = errors.New("jobsystem: continuation already set")

	// ErrNotAWorker is raised when a scheduling call is given a worker
	// index outside [0, N), e.g. ScheduleForThread or
	// (*Scheduler).ScheduleForThread with an out-of-range idx.
	ErrNotAWorker = errors.New("jobsystem: worker index out of range")
)

// SchedulerError wraps one of the sentinel errors above with the dynamic
// context that made it fire. It implements Unwrap so errors.Is(err,
// ErrPoolExhausted) and friends work against a recovered panic value.
type SchedulerError struct {
	cause   error
	Worker  int
	Context string
}

func (e *SchedulerError) Error() string {
	if e.Worker >= 0 {
		return fmt.Sprintf("%s (worker %d): %s", e.cause, e.Worker, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.cause, e.Context)
}

func (e *SchedulerError) Unwrap() error { return e.cause }

func newSchedulerError(cause error, worker int, context string) *SchedulerError {
	return &SchedulerError{cause: errors.WithStack(cause), Worker: worker, Context: context}
}

// fail panics with a *SchedulerError. Every fatal assertion in this
// package goes through here so the panic value is always typed and always
// carries a stack via pkg/errors.
func fail(cause error, worker int, context string) {
	panic(newSchedulerError(cause, worker, context))
}
