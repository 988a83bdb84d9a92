package concurrency

import (
	"context"
	"sync"
)

// ForEach runs fn once per index in [0, tasks) across at most workers
// goroutines and waits for all of them. Used to fan out per-member side
// effects of a group registration; each task must be independent.
func ForEach(ctx context.Context, workers, tasks int, fn func(ctx context.Context, index int)) {
	if tasks <= 0 {
		return
	}
	if workers > tasks {
		workers = tasks
	}
	if workers < 1 {
		workers = 1
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				fn(ctx, idx)
			}
		}()
	}

	for i := 0; i < tasks; i++ {
		select {
		case indexes <- i:
		case <-ctx.Done():
			close(indexes)
			wg.Wait()
			return
		}
	}
	close(indexes)
	wg.Wait()
}
