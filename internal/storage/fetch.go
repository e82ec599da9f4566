package storage

import (
	"context"
	"sync"
)

// FetchAll downloads every key with at most parallel in-flight requests.
// Results keep the order of keys. The first download error wins; the
// remaining workers drain before it is returned.
func FetchAll(ctx context.Context, store ObjectStore, keys []string, parallel int) ([][]byte, error) {
	if parallel < 1 {
		parallel = 1
	}

	bodies := make([][]byte, len(keys))
	semaphore := make(chan struct{}, parallel)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i, key := range keys {
		wg.Add(1)
		go func(i int, key string) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			mu.Lock()
			failed := firstErr != nil
			mu.Unlock()
			if failed {
				return
			}

			body, err := store.Download(ctx, key)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			bodies[i] = body
		}(i, key)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return bodies, nil
}
