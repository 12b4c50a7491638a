// Package parallel provides small helpers for data-parallel kernels.
package parallel

import (
	"runtime"
	"sync"
)

// For splits [0, n) into one chunk per available CPU and runs fn on each
// chunk concurrently, blocking until all chunks finish.
func For(n int, fn func(start, end int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		fn(0, n)
		return
	}

	chunk := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
