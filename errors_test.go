package jobsystem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func requirePanicsWithSentinel(t *testing.T, sentinel error, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		serr, ok := r.(*SchedulerError)
		require.True(t, ok, "panic value must be a *SchedulerError, got %T", r)
		require.ErrorIs(t, serr, sentinel)
	}()
	fn()
}

func TestRunJobReentryIsAmbientJobViolation(t *testing.T) {
	s := newTestScheduler(t, 2)

	requirePanicsWithSentinel(t, ErrAmbientJobViolation, func() {
		s.RunJob(func(ctx *JobContext) {
			s.RunJob(func(ctx *JobContext) {})
		})
	})
}

func TestJoinAsWorkerTwiceIsAmbientJobViolation(t *testing.T) {
	s := New(WithWorkers(2))
	defer s.Stop()

	ws := s.workers[0]
	ws.joined = true
	defer func() { ws.joined = false }()

	requirePanicsWithSentinel(t, ErrAmbientJobViolation, func() {
		s.JoinAsWorker()
	})
}

func TestScheduleValueOversizeIsFunctorOversize(t *testing.T) {
	s := newTestScheduler(t, 2)

	type oversized struct {
		data [maxCaptureSize + 64]byte
	}

	requirePanicsWithSentinel(t, ErrFunctorOversize, func() {
		s.RunJob(func(ctx *JobContext) {
			ScheduleValue(ctx, oversized{}, func(oversized, *JobContext) {})
		})
	})
}

func TestContinuationCalledTwiceIsOverwriteError(t *testing.T) {
	s := newTestScheduler(t, 2)

	requirePanicsWithSentinel(t, ErrContinuationOverwrite, func() {
		s.RunJob(func(ctx *JobContext) {
			ctx.Continuation(func(ctx *JobContext) {})
			ctx.Continuation(func(ctx *JobContext) {})
		})
	})
}

func TestScheduleForThreadOutOfRangeIsNotAWorker(t *testing.T) {
	s := newTestScheduler(t, 2)

	requirePanicsWithSentinel(t, ErrNotAWorker, func() {
		s.RunJob(func(ctx *JobContext) {
			ctx.ScheduleForThread(99, func(ctx *JobContext) {})
		})
	})
}
