package lock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyed_LockUnlock(t *testing.T) {
	k := NewKeyed[uint]()

	k.Lock(1)
	k.Unlock(1)

	k.Lock(1)
	k.Unlock(1)
	assert.Equal(t, 0, k.Len(), "idle keys are released")
}

func TestKeyed_DifferentKeys(t *testing.T) {
	k := NewKeyed[uint]()
	done := make(chan struct{})

	k.Lock(1)
	go func() {
		k.Lock(2)
		k.Unlock(2)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("key 2 was blocked by key 1")
	}
	k.Unlock(1)
}

func TestKeyed_SameKeyExcludes(t *testing.T) {
	k := NewKeyed[string]()
	var inside, maxInside int64
	var counter int64

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := k.Do("crop", func() error {
				n := atomic.AddInt64(&inside, 1)
				for {
					m := atomic.LoadInt64(&maxInside)
					if n <= m || atomic.CompareAndSwapInt64(&maxInside, m, n) {
						break
					}
				}
				counter++
				atomic.AddInt64(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), counter)
	assert.Equal(t, int64(1), maxInside)
	assert.Equal(t, 0, k.Len())
}

func TestKeyed_UnlockWithoutLockPanics(t *testing.T) {
	k := NewKeyed[uint]()
	require.Panics(t, func() { k.Unlock(7) })
}
