package jobsystem

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPoolAllocCountsFreshBlocks(t *testing.T) {
	p := NewPool(4)
	j1 := p.alloc()
	j2 := p.alloc()
	require.NotSame(t, j1, j2)
	require.EqualValues(t, 2, p.Allocated())
}

func TestPoolReleaseIsReusedBeforeFresh(t *testing.T) {
	p := NewPool(4)
	j1 := p.alloc()
	p.release(j1)

	j2 := p.alloc()
	require.Same(t, j1, j2, "a released block should be handed back out before a fresh one is built")
	require.EqualValues(t, 1, p.Allocated(), "reuse must not count as a fresh allocation")
}

func TestPoolExhaustionIsFatal(t *testing.T) {
	p := NewPool(2)
	p.alloc()
	p.alloc()

	require.Panics(t, func() {
		p.alloc()
	}, "a third fresh allocation past capacity must panic with ErrPoolExhausted")

	func() {
		defer func() {
			r := recover()
			require.NotNil(t, r)
			serr, ok := r.(*SchedulerError)
			require.True(t, ok, "panic value must be a *SchedulerError")
			require.ErrorIs(t, serr, ErrPoolExhausted)
		}()
		p.alloc()
	}()
}

func TestPoolDrainBatchReturnsLinkedListToFreeStack(t *testing.T) {
	p := NewPool(8)
	a := p.alloc()
	b := p.alloc()
	c := p.alloc()
	a.next.Store(b)
	b.next.Store(c)
	c.next.Store(nil)

	p.drainBatch(a)

	seen := map[*Job]bool{}
	for i := 0; i < 3; i++ {
		j := p.free.pop()
		require.NotNil(t, j, "expected all three drained blocks back on the free stack")
		seen[j] = true
	}
	require.Len(t, seen, 3)
	require.Nil(t, p.free.pop())
}
