package compute

import (
	"runtime"
	"sync"
)

// minParallelRows is the lattice side below which goroutine overhead
// outweighs the split.
const minParallelRows = 16

// CPUBackend splits rows into one contiguous chunk per worker.
type CPUBackend struct {
	workers int
}

func NewCPUBackend() *CPUBackend {
	return &CPUBackend{
		workers: runtime.NumCPU(),
	}
}

// NewCPUBackendWorkers fixes the worker count; values below one mean one.
func NewCPUBackendWorkers(workers int) *CPUBackend {
	return &CPUBackend{workers: max(workers, 1)}
}

func (c *CPUBackend) Name() string { return "cpu" }
func (c *CPUBackend) Workers() int { return c.workers }

func (c *CPUBackend) Rows(n int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if n < minParallelRows || c.workers < 2 {
		fn(0, n)
		return
	}

	workers := min(c.workers, n)
	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		if start >= n {
			break
		}
		end := min(start+chunkSize, n)

		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			fn(lo, hi)
		}(start, end)
	}
	wg.Wait()
}
