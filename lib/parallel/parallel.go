// Package parallel provides a bounded parallel-for over independent slice
// elements. Workers may mutate only their own element plus shared read-only
// data; under that contract results are identical to sequential execution,
// so the sequential fallback exists purely for determinism verification and
// debugging.
package parallel

import (
	"runtime"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"
)

var sequential atomic.Bool

// SetSequential forces all subsequent ForEach calls onto a single goroutine.
func SetSequential(on bool) { sequential.Store(on) }

// Sequential reports whether the sequential fallback is active.
func Sequential() bool { return sequential.Load() }

// ForEach invokes fn once per element of items. Elements are processed
// concurrently with at most GOMAXPROCS workers unless the sequential
// fallback is active. ForEach returns once every invocation completes.
func ForEach[T any](items []T, fn func(*T)) {
	if len(items) == 0 || fn == nil {
		return
	}
	if sequential.Load() || len(items) == 1 {
		for i := range items {
			fn(&items[i])
		}
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(items) {
		workers = len(items)
	}
	p := pool.New().WithMaxGoroutines(workers)
	for i := range items {
		item := &items[i]
		p.Go(func() {
			fn(item)
		})
	}
	p.Wait()
}
