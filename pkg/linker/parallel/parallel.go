// Package parallel holds the data-parallel primitives the pipeline
// passes are built on: a fork-join ForEach/For pair, an associative
// prefix scan, and a work-feeder queue for dynamically discovered
// work (archive pulls during liveness propagation).
//
// None of the retrieved example repos demonstrate a parallel task
// pool; ForEach/For are built on golang.org/x/sync/errgroup, the
// ecosystem's standard fork-join primitive, and Scan/Feeder are
// hand-rolled on the standard library (Feeder's queue is guarded by a
// sync.Mutex; AtomicSwapBool wraps sync/atomic), matching the pack's preference
// for small stdlib-adjacent primitives over bespoke scheduler code.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ForEach runs fn(items[i]) for every i, fanning out across GOMAXPROCS
// goroutines, and returns the first non-nil error (if any) once every
// call has finished. An error does not stop the calls that remain.
func ForEach[T any](items []T, fn func(item T) error) error {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, item := range items {
		item := item
		g.Go(func() error {
			return fn(item)
		})
	}
	return g.Wait()
}

// For runs fn(i) for i in [0, n), fanning out the same way as ForEach.
func For(n int, fn func(i int) error) error {
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			return fn(i)
		})
	}
	return g.Wait()
}

// Shard splits items into at most nshards contiguous slices, used by
// passes (BinSections) that need a fixed, order-preserving partition
// whose pieces are later composed back together in shard order rather
// than completion order, so the result is independent of scheduling.
func Shard[T any](items []T, nshards int) [][]T {
	if nshards <= 0 {
		nshards = 1
	}
	if nshards > len(items) && len(items) > 0 {
		nshards = len(items)
	}
	if len(items) == 0 {
		return nil
	}

	shards := make([][]T, nshards)
	base := len(items) / nshards
	rem := len(items) % nshards
	idx := 0
	for i := 0; i < nshards; i++ {
		n := base
		if i < rem {
			n++
		}
		shards[i] = items[idx : idx+n]
		idx += n
	}
	return shards
}

// ScanPair is the (offset, alignment) state threaded through the
// prefix scan that lays out an output section's members.
type ScanPair struct {
	Offset uint64
	Align  uint64
}

// Combine is the associative operator ComputeSectionSizes's prefix
// scan is built on: align the right offset up to the right alignment
// relative to the left side's running offset, and keep the widest
// alignment seen so far.
func Combine(alignTo func(uint64, uint64) uint64, l, r ScanPair) ScanPair {
	align := l.Align
	if r.Align > align {
		align = r.Align
	}
	return ScanPair{Offset: alignTo(l.Offset, r.Align) + r.Offset, Align: align}
}

// Scan computes, for each element, the combination of the seed with
// every element strictly before it (an exclusive prefix scan), using
// Combine. It always runs as one sequential pass over pairs.
func Scan(alignTo func(uint64, uint64) uint64, seed ScanPair, pairs []ScanPair) []ScanPair {
	out := make([]ScanPair, len(pairs))
	running := seed
	for i, p := range pairs {
		out[i] = running
		running = Combine(alignTo, running, p)
	}
	return out
}

// Feeder is a dynamically growing work queue used by liveness
// propagation: marking an object alive may discover more objects that
// must themselves be walked. Feeder itself does not deduplicate: the
// at-most-once enqueue guarantee comes from callers, which Push an
// item only after an atomic swap of its "alive" flag (SwapAlive, or
// AtomicSwapBool) reports that it was not already set.
type Feeder[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewFeeder seeds the queue with the initial work items (the roots).
func NewFeeder[T any](roots []T) *Feeder[T] {
	f := &Feeder[T]{}
	f.items = append(f.items, roots...)
	return f
}

// Push enqueues additional work discovered while draining the queue.
func (f *Feeder[T]) Push(item T) {
	f.mu.Lock()
	f.items = append(f.items, item)
	f.mu.Unlock()
}

// Drain repeatedly pops an item and runs fn on it, stopping only once
// the queue is empty and no in-flight call pushed more work. fn may
// call Push to inject further work; Drain is single-threaded by
// design, so dynamic-table-style insertions from a feeder run
// serially, with parallelism instead coming from ForEach/For inside
// fn for the per-item work itself.
func (f *Feeder[T]) Drain(fn func(item T)) {
	for {
		f.mu.Lock()
		if len(f.items) == 0 {
			f.mu.Unlock()
			return
		}
		item := f.items[0]
		f.items = f.items[1:]
		f.mu.Unlock()

		fn(item)
	}
}

// AtomicSwapBool gives the at-most-once enqueue guard used to seed a
// Feeder without double-pulling a file: callers hold one
// *atomic.Bool per input file and only enqueue when Swap reports the
// old value was false.
func AtomicSwapBool(flag *atomic.Bool) bool {
	return flag.Swap(true)
}
