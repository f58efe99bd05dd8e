package device

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultBlockSize is the edge length of the square thread blocks a grid is
// cut into when no explicit size is configured.
const DefaultBlockSize = 16

// Grid describes a kernel launch: a 2D extent of logical workers grouped into
// fixed-size blocks. The blocks cover the extent completely, so workers at the
// right and bottom edges may fall outside Rows x Cols and must bounds-check.
type Grid struct {
	Rows      int
	Cols      int
	BlockRows int
	BlockCols int
}

// NewGrid returns the launch configuration covering a rows x cols output with
// square blocks of the given size.
func NewGrid(rows, cols, block int) Grid {
	if block <= 0 {
		block = DefaultBlockSize
	}
	return Grid{Rows: rows, Cols: cols, BlockRows: block, BlockCols: block}
}

// Blocks returns the number of blocks along the Y and X axes.
func (g Grid) Blocks() (by, bx int) {
	if g.Rows <= 0 || g.Cols <= 0 {
		return 0, 0
	}
	by = (g.Rows + g.BlockRows - 1) / g.BlockRows
	bx = (g.Cols + g.BlockCols - 1) / g.BlockCols
	return by, bx
}

// runBlock invokes fn for every worker of block (by, bx), including the ones
// past the grid extent.
func (g Grid) runBlock(by, bx int, fn func(x, y int)) {
	y0 := by * g.BlockRows
	x0 := bx * g.BlockCols
	for ty := 0; ty < g.BlockRows; ty++ {
		for tx := 0; tx < g.BlockCols; tx++ {
			fn(x0+tx, y0+ty)
		}
	}
}

// Executor runs a per-pixel kernel body over a launch grid. Launch returns
// only after every worker has finished.
type Executor interface {
	Launch(g Grid, fn func(x, y int))
}

// Sequential executes blocks one after another on the calling goroutine.
// Useful for deterministic tests of scatter kernels.
type Sequential struct{}

// Launch implements Executor.
func (Sequential) Launch(g Grid, fn func(x, y int)) {
	by, bx := g.Blocks()
	for j := 0; j < by; j++ {
		for i := 0; i < bx; i++ {
			g.runBlock(j, i, fn)
		}
	}
}

// Parallel dispatches every block to its own goroutine, with at most Workers
// blocks in flight.
type Parallel struct {
	Workers int
}

// NewParallel creates a parallel executor. If workers <= 0, GOMAXPROCS is used.
func NewParallel(workers int) *Parallel {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Parallel{Workers: workers}
}

// Launch implements Executor.
func (p *Parallel) Launch(g Grid, fn func(x, y int)) {
	by, bx := g.Blocks()
	total := by * bx
	if total == 0 {
		return
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// A single block gains nothing from a goroutine hop
	if workers == 1 || total == 1 {
		Sequential{}.Launch(g, fn)
		return
	}

	var eg errgroup.Group
	eg.SetLimit(workers)
	for b := 0; b < total; b++ {
		eg.Go(func() error {
			g.runBlock(b/bx, b%bx, fn)
			return nil
		})
	}
	_ = eg.Wait()
}
