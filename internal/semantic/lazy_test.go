package semantic

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLazy_ComputesOnFirstUse(t *testing.T) {
	var calls int32
	cell := newLazy(func() int {
		atomic.AddInt32(&calls, 1)
		return 42
	})

	assert.False(t, cell.Computed())
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))

	assert.Equal(t, 42, cell.Get())
	assert.Equal(t, 42, cell.Get())
	assert.True(t, cell.Computed())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestLazy_ConcurrentReadersAgree(t *testing.T) {
	var calls int32
	cell := newLazy(func() *int {
		n := int(atomic.AddInt32(&calls, 1))
		return &n
	})

	const readers = 32
	results := make([]*int, readers)
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cell.Get()
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Same(t, results[0], r, "every reader should observe the stored value")
	}
	assert.Same(t, results[0], cell.Get())
}
