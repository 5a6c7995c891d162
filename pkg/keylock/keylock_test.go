package keylock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_SortsAndDeduplicates(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, Order("B", "A"))
	assert.Equal(t, []string{"A", "B"}, Order("A", "B"))
	assert.Equal(t, []string{"A"}, Order("A", "A"))
	assert.Empty(t, Order())
}

func TestOrder_DoesNotMutateInput(t *testing.T) {
	keys := []string{"z", "a"}
	_ = Order(keys...)
	assert.Equal(t, []string{"z", "a"}, keys)
}

func TestLock_SameKeyTwiceDoesNotDeadlock(t *testing.T) {
	l := New()
	done := make(chan struct{})
	go func() {
		unlock := l.Lock("A", "A")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("locking the same key twice deadlocked")
	}
}

func TestLock_UnlockIsIdempotentAndCleansTable(t *testing.T) {
	l := New()
	unlock := l.Lock("A", "B")
	assert.Equal(t, 2, l.Len())

	unlock()
	unlock()
	assert.Equal(t, 0, l.Len())

	// 再次取得不應阻塞
	unlock = l.Lock("B", "A")
	unlock()
}

func TestLock_MutualExclusionOnSharedKey(t *testing.T) {
	l := New()
	var inside int32
	var maxInside int32
	var wg sync.WaitGroup

	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			other := "X"
			if i%2 == 0 {
				other = "Y"
			}
			unlock := l.Lock("shared", other)
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Equal(t, 0, l.Len())
}

func TestLock_OppositeOrdersDoNotDeadlock(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	done := make(chan struct{})

	for i := range 200 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var unlock func()
			if i%2 == 0 {
				unlock = l.Lock("A", "B")
			} else {
				unlock = l.Lock("B", "A")
			}
			unlock()
		}(i)
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("opposite-order locking deadlocked")
	}
}

func TestLock_DisjointKeysDoNotBlock(t *testing.T) {
	l := New()
	unlockAB := l.Lock("A", "B")
	defer unlockAB()

	acquired := make(chan struct{})
	go func() {
		unlock := l.Lock("C", "D")
		unlock()
		close(acquired)
	}()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("disjoint keys were blocked")
	}
}

func TestWithLock_ReleasesOnPanic(t *testing.T) {
	l := New()
	require.Panics(t, func() {
		_ = l.WithLock([]string{"A", "B"}, func() error {
			panic("boom")
		})
	})
	assert.Equal(t, 0, l.Len())

	err := l.WithLock([]string{"A"}, func() error { return nil })
	assert.NoError(t, err)
}
