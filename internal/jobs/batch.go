// Package jobs runs QR bill work for many orders on a bounded worker pool.
package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/gammazero/workerpool"
)

// Task processes a single order.
type Task func(ctx context.Context, orderID int64) error

// Result is the outcome of a task for one order.
type Result struct {
	OrderID  int64
	Err      error
	Duration time.Duration
}

// Stats summarizes a batch run.
type Stats struct {
	Submitted int
	Succeeded int
	Failed    int
	Duration  time.Duration
}

// Batch runs tasks with at most a fixed number of concurrent workers.
type Batch struct {
	workers int
}

// NewBatch creates a new batch runner.
func NewBatch(workers int) *Batch {
	if workers < 1 {
		workers = 1
	}
	return &Batch{workers: workers}
}

// Run executes task for every order id and waits for all of them. Results are
// returned in the order of orderIDs. Tasks not started before ctx is done fail
// with the context error.
func (b *Batch) Run(ctx context.Context, orderIDs []int64, task Task) ([]Result, Stats) {
	start := time.Now()
	results := make([]Result, len(orderIDs))
	if len(orderIDs) == 0 {
		return results, Stats{}
	}

	wp := workerpool.New(b.workers)
	var mu sync.Mutex
	stats := Stats{Submitted: len(orderIDs)}

	for i, orderID := range orderIDs {
		idx, id := i, orderID
		wp.Submit(func() {
			taskStart := time.Now()
			err := ctx.Err()
			if err == nil {
				err = task(ctx, id)
			}

			mu.Lock()
			defer mu.Unlock()
			results[idx] = Result{OrderID: id, Err: err, Duration: time.Since(taskStart)}
			if err != nil {
				stats.Failed++
			} else {
				stats.Succeeded++
			}
		})
	}

	wp.StopWait()
	stats.Duration = time.Since(start)
	return results, stats
}
