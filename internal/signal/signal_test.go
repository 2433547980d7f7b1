package signal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignal_SendInRegistrationOrder(t *testing.T) {
	s := New[int]()
	var got []string
	s.Observe(func(v int) { got = append(got, "a") })
	s.Observe(func(v int) { got = append(got, "b") })
	s.Observe(func(v int) { got = append(got, "c") })

	s.Send(1)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestSignal_SendWithoutObserversIsNoop(t *testing.T) {
	s := New[string]()
	assert.NotPanics(t, func() { s.Send("x") })
	assert.Equal(t, 0, s.Len())
}

func TestSignal_ZeroValueUsable(t *testing.T) {
	var s Signal[int]
	var got int
	s.Observe(func(v int) { got = v })
	s.Send(7)
	assert.Equal(t, 7, got)
}

func TestSignal_ObserveWithHandleReplacesInPlace(t *testing.T) {
	s := New[int]()
	h := NewHandle()
	var got []string
	s.Observe(func(int) { got = append(got, "first") })
	s.ObserveWithHandle(func(int) { got = append(got, "old") }, h)
	s.Observe(func(int) { got = append(got, "last") })
	s.ObserveWithHandle(func(int) { got = append(got, "new") }, h)

	require.Equal(t, 3, s.Len())
	s.Send(0)
	assert.Equal(t, []string{"first", "new", "last"}, got)
}

func TestSignal_RemoveUnknownHandleIsNoop(t *testing.T) {
	s := New[int]()
	s.Observe(func(int) {})
	assert.False(t, s.Remove(NewHandle()))
	assert.Equal(t, 1, s.Len())
}

func TestSignal_Remove(t *testing.T) {
	s := New[int]()
	calls := 0
	h := s.Observe(func(int) { calls++ })
	s.Send(1)
	assert.True(t, s.Remove(h))
	s.Send(2)
	assert.Equal(t, 1, calls)
	assert.False(t, s.Has(h))
}

func TestSignal_Clear(t *testing.T) {
	s := New[int]()
	s.Observe(func(int) {})
	s.Observe(func(int) {})
	s.Clear()
	assert.Equal(t, 0, s.Len())
}

func TestSignal_ObserveDuringSendAffectsNextSend(t *testing.T) {
	s := New[int]()
	var late []int
	added := false
	s.Observe(func(v int) {
		if !added {
			added = true
			s.Observe(func(v int) { late = append(late, v) })
		}
	})

	s.Send(1)
	assert.Empty(t, late, "observer registered during send must not see that send")
	s.Send(2)
	assert.Equal(t, []int{2}, late)
}

func TestSignal_RemoveSelfDuringSend(t *testing.T) {
	s := New[int]()
	var calls int
	var h HandleID
	h = s.Observe(func(int) {
		calls++
		s.Remove(h)
	})
	s.Send(1)
	s.Send(2)
	assert.Equal(t, 1, calls)
}

func TestSignal_ReentrantSend(t *testing.T) {
	s := New[int]()
	var got []int
	s.Observe(func(v int) {
		got = append(got, v)
		if v > 0 {
			s.Send(v - 1)
		}
	})
	s.Send(3)
	assert.Equal(t, []int{3, 2, 1, 0}, got)
}

func TestSignal_MaxDepthDropsAndReports(t *testing.T) {
	var overflow []*DepthExceededError
	s := New[int](WithMaxDepth(3), WithOverflowHandler(func(err *DepthExceededError) {
		overflow = append(overflow, err)
	}))
	var got []int
	s.Observe(func(v int) {
		got = append(got, v)
		s.Send(v + 1) // unbounded feedback
	})

	s.Send(0)
	assert.Equal(t, []int{0, 1, 2}, got)
	require.Len(t, overflow, 1)
	assert.Equal(t, 4, overflow[0].Depth)
	assert.Equal(t, 3, overflow[0].Limit)
	assert.True(t, IsDepthExceeded(overflow[0]))

	// the counter unwinds, so the next top-level send works again
	got = nil
	s.Send(10)
	assert.Equal(t, []int{10, 11, 12}, got)
}

func TestSignal_ApplyAfterConstruction(t *testing.T) {
	var s Signal[int]
	s.Apply(WithMaxDepth(1))
	var got []int
	s.Observe(func(v int) {
		got = append(got, v)
		s.Send(v + 1)
	})
	s.Send(0)
	assert.Equal(t, []int{0}, got)
}

func TestSignal_ConcurrentObserveAndSend(t *testing.T) {
	s := New[int]()
	var mu sync.Mutex
	total := 0
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := s.Observe(func(v int) {
				mu.Lock()
				total += v
				mu.Unlock()
			})
			s.Send(1)
			s.Remove(h)
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, s.Len())
	assert.Positive(t, total)
}

func TestHandleFor_Deterministic(t *testing.T) {
	scope := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	a := HandleFor(scope, "arithmetic::add", "lhs")
	b := HandleFor(scope, "arithmetic::add", "lhs")
	c := HandleFor(scope, "arithmetic::add", "rhs")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.False(t, a.IsNil())
}

func TestSignal_Recv(t *testing.T) {
	s := New[string]()
	go func() {
		for s.Len() == 0 {
			time.Sleep(time.Millisecond)
		}
		s.Send("hello")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v, err := s.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
	assert.Equal(t, 0, s.Len())
}

func TestSignal_RecvCancelled(t *testing.T) {
	s := New[string]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Recv(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.Len())
}
