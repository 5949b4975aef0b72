// Package parallel splits index ranges across goroutines for host-side
// tensor repacking.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls how work is split.
type Config struct {
	Enabled  bool // Whether to use more than one goroutine.
	Workers  int  // Upper bound on goroutines.
	MinChunk int  // Minimum indices handed to one goroutine.
}

// DefaultConfig uses one worker per CPU.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:  n > 1,
		Workers:  n,
		MinChunk: 32,
	}
}

// Sequential returns a config that never spawns goroutines.
func Sequential() Config {
	return Config{}
}

// For calls f(i) for every i in [0, n). Calls for distinct i may run
// concurrently, so f must only touch state owned by i.
func For(n int, cfg Config, f func(i int)) {
	if !cfg.Enabled || cfg.Workers <= 1 || n < 2*cfg.MinChunk {
		for i := range n {
			f(i)
		}
		return
	}

	chunk := max((n+cfg.Workers-1)/cfg.Workers, cfg.MinChunk)

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := start; i < end; i++ {
				f(i)
			}
		}()
	}
	wg.Wait()
}

// ForGrid calls f(o, i) for every cell of an outer x inner grid.
func ForGrid(outer, inner int, cfg Config, f func(o, i int)) {
	if inner == 0 {
		return
	}
	For(outer*inner, cfg, func(k int) {
		f(k/inner, k%inner)
	})
}
