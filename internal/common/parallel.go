package common

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ParallelFor splits [0, n) into contiguous chunks and runs fn on each chunk,
// returning only when every chunk has finished. It is the barrier between the
// phases of a tick. workers <= 0 means GOMAXPROCS; a single worker runs inline.
// A panic inside fn is returned as an error naming the failed chunk.
func ParallelFor(n, workers int, fn func(lo, hi int)) error {
	if n <= 0 {
		return nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}
	if workers == 1 {
		return runChunk(fn, 0, n)
	}

	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			return runChunk(fn, lo, hi)
		})
	}
	return g.Wait()
}

func runChunk(fn func(lo, hi int), lo, hi int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("chunk [%d, %d): %v", lo, hi, r)
		}
	}()
	fn(lo, hi)
	return nil
}
