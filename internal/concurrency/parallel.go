package concurrency

import (
	"context"
	"sync"
)

// ParallelOptions bounds how many items run at once.
type ParallelOptions struct {
	MaxWorkers int
}

func DefaultOptions() ParallelOptions {
	return ParallelOptions{MaxWorkers: 4}
}

// ForEach calls itemFunc for every item on up to MaxWorkers goroutines.
// The returned slice is index-aligned with items; nil means that item succeeded.
// Items not started before ctx is done get ctx.Err().
func ForEach[T any](
	ctx context.Context,
	items []T,
	opts ParallelOptions,
	itemFunc func(ctx context.Context, index int, item T) error,
) []error {
	errs := make([]error, len(items))
	if len(items) == 0 {
		return errs
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = DefaultOptions().MaxWorkers
	}
	workers = min(workers, len(items))

	jobs := make(chan int, len(items))
	for i := range items {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					errs[i] = err
					continue
				}
				errs[i] = itemFunc(ctx, i, items[i])
			}
		}()
	}
	wg.Wait()

	return errs
}
