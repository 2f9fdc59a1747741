// Package pool provides a bounded worker pool for independent per-party
// work such as checking n-1 zero-knowledge proofs or decrypting n-1
// ciphertexts. The protocol rounds in this module do that work
// sequentially and do not call Parallelize.
package pool

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool runs bounded-concurrency work across a fixed number of workers.
type Pool struct {
	workers int
}

// NewPool returns a Pool using n workers, or runtime.GOMAXPROCS(0) workers
// if n <= 0.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return &Pool{workers: n}
}

// Parallelize calls f(i) for every i in [0, n), across the pool's workers,
// and returns the results in order. If any call panics with an error value,
// that recovers into results[i] as an error rather than crashing the
// process, since a single malformed proof must not take down the party.
func (p *Pool) Parallelize(n int, f func(i int) interface{}) []interface{} {
	results := make([]interface{}, n)
	if n == 0 {
		return results
	}
	workers := p.workers
	if workers > n {
		workers = n
	}

	var g errgroup.Group
	indices := make(chan int)
	g.Go(func() error {
		defer close(indices)
		for i := 0; i < n; i++ {
			indices <- i
		}
		return nil
	})
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range indices {
				func() {
					defer func() {
						if r := recover(); r != nil {
							err, ok := r.(error)
							if !ok {
								panic(r)
							}
							results[i] = err
						}
					}()
					results[i] = f(i)
				}()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// NoPool runs every call one at a time, in index order, on a single worker
// goroutine, useful for tests where deterministic ordering matters more
// than speed.
func NoPool() *Pool {
	return &Pool{workers: 1}
}
