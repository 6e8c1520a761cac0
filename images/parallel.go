package images

import (
	"runtime"
	"sync"
)

// Parallel splits the index range [0, dataSize) into contiguous partitions and runs fn on
// each partition in its own goroutine, returning once all partitions are done.
//
// Each call to fn owns its [partStart, partEnd) range exclusively, so fn may write to
// per-index outputs without synchronisation.
//
// Arguments:
//   - dataSize: The number of items to process.
//   - workers: The number of goroutines. Values <= 0 use runtime.NumCPU().
//   - fn: Function to execute for each partition.
//
// @example
//
//	Parallel(len(out), 0, func(start, end int) {
//	    for i := start; i < end; i++ {
//	        out[i] = in[i] * 2
//	    }
//	})
func Parallel(dataSize, workers int, fn func(partStart, partEnd int)) {
	if dataSize <= 0 {
		return
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	// Small inputs are not worth the goroutine overhead.
	if workers == 1 || dataSize < workers*2 {
		fn(0, dataSize)
		return
	}

	partSize := dataSize / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize
		// Last partition gets any remaining data.
		if i == workers-1 {
			partEnd = dataSize
		}

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}
	wg.Wait()
}
