// Package parallel runs independent parse and bind jobs on a bounded pool of
// goroutines.
//
// Work is fanned out over a channel to a fixed number of workers and fanned
// back in by index, so results keep the order of their inputs.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool bounds the number of goroutines used by Process.
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a pool of numWorkers goroutines. A non-positive count
// selects runtime.NumCPU().
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{numWorkers: numWorkers}
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int { return wp.numWorkers }

// Process applies worker to every item and returns the results in input
// order. Items not yet started when ctx is cancelled are skipped, leaving
// their result at the zero value, and ctx.Err() is returned.
func Process[T, R any](
	ctx context.Context,
	wp *WorkerPool,
	items []T,
	worker func(ctx context.Context, index int, item T) R,
) ([]R, error) {
	if len(items) == 0 {
		return nil, ctx.Err()
	}

	numWorkers := wp.numWorkers
	if numWorkers > len(items) {
		numWorkers = len(items)
	}

	itemCh := make(chan indexedItem[T])
	resultCh := make(chan indexedResult[R], len(items))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				resultCh <- indexedResult[R]{
					index:  item.index,
					result: worker(ctx, item.index, item.value),
				}
			}
		}()
	}

	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]R, len(items))
	for result := range resultCh {
		results[result.index] = result.result
	}
	return results, ctx.Err()
}

type indexedItem[T any] struct {
	index int
	value T
}

type indexedResult[R any] struct {
	index  int
	result R
}
