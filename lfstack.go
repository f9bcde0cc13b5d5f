package jobsystem

import (
	"sync/atomic"
	"unsafe"
)

// lfstack is a lock-free freelist-backed stack, the same shape as the
// teacher's node/atomic.Pointer stack used to park and resume idle
// goroutines. Here it backs the pool allocator's shared free-block list:
// any worker may push a reclaimed Job onto it or pop one off without
// taking the pool mutex, leaving the mutex for the genuinely cold path
// (constructing a fresh block past what's already been recycled).
type lfstack struct {
	top atomic.Pointer[Job]
	_   [cacheLinePadSize - unsafe.Sizeof(atomic.Pointer[Job]{})]byte
}

// push places j on top of the stack. j.next is overwritten via Store;
// callers must not hold any other reference into j's next link
// concurrently.
func (s *lfstack) push(j *Job) {
	for {
		top := s.top.Load()
		j.next.Store(top)
		if s.top.CompareAndSwap(top, j) {
			return
		}
	}
}

// pop removes and returns the top of the stack, or nil if empty.
func (s *lfstack) pop() *Job {
	for {
		top := s.top.Load()
		if top == nil {
			return nil
		}
		next := top.next.Load()
		if s.top.CompareAndSwap(top, next) {
			top.next.Store(nil)
			return top
		}
	}
}
