// Package testutil carries shared test helpers.
package testutil

import (
	"errors"
	"sync"

	"tutela/internal/sentinel"
)

// ConcurrentResult buckets the outcomes of racing operations by sentinel.
type ConcurrentResult struct {
	Successes int
	Conflicts int
	NotFounds int
	Errors    int
}

// Total returns the number of operations executed.
func (r *ConcurrentResult) Total() int {
	return r.Successes + r.Conflicts + r.NotFounds + r.Errors
}

// RunConcurrent starts fn once per goroutine, all at once, and tallies how
// each call ended. Store race tests read the tallies instead of wiring up
// WaitGroups and counters themselves.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		res ConcurrentResult
	)
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(idx int) {
			defer wg.Done()
			err := fn(idx)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				res.Successes++
			case errors.Is(err, sentinel.ErrConflict):
				res.Conflicts++
			case errors.Is(err, sentinel.ErrNotFound):
				res.NotFounds++
			default:
				res.Errors++
			}
		}(i)
	}
	wg.Wait()
	return &res
}
