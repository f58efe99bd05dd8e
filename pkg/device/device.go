// Package device simulates accelerator memory and kernel dispatch.
//
// Device-resident data lives in Buffers that only kernels touch. Host data is
// kept in gonum matrices, and moving between the two is an explicit, blocking
// copy through Upload and Download. Kernels are plain Go functions run by a
// pluggable Executor, so the same kernel can be driven sequentially in tests
// and in parallel in production.
package device

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"unsafe"

	"gonum.org/v1/gonum/mat"

	"latticeanalyzer/internal/logging"
)

// ErrResidencyViolation is the panic value raised when a kernel touches
// storage that is not live on the device. Image state transitions always
// migrate before dispatch, so reaching it is a programming error.
var ErrResidencyViolation = errors.New("residency violation")

const bytesPerSample = 8

// Device owns the simulated accelerator memory and the executor kernels run on.
type Device struct {
	exec      Executor
	blockSize int
	allocated atomic.Int64
}

// New creates a device. A nil executor selects Sequential and a non-positive
// block size selects DefaultBlockSize.
func New(exec Executor, blockSize int) *Device {
	if exec == nil {
		exec = Sequential{}
	}
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Device{exec: exec, blockSize: blockSize}
}

// Executor returns the execution strategy used by Launch.
func (d *Device) Executor() Executor {
	return d.exec
}

// Allocated returns the number of bytes currently held in device buffers and masks.
func (d *Device) Allocated() int64 {
	return d.allocated.Load()
}

// Launch runs fn over a rows x cols grid and waits for it to complete.
func (d *Device) Launch(rows, cols int, fn func(x, y int)) {
	g := NewGrid(rows, cols, d.blockSize)
	by, bx := g.Blocks()
	logging.Logger().Debug("device: launch", "rows", rows, "cols", cols, "blocks", by*bx)
	d.exec.Launch(g, fn)
}

// Alloc returns a zero-filled device buffer.
func (d *Device) Alloc(rows, cols int) *Buffer {
	d.allocated.Add(int64(rows * cols * bytesPerSample))
	return &Buffer{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// AllocMask returns a cleared fill mask.
func (d *Device) AllocMask(rows, cols int) *Mask {
	d.allocated.Add(int64(rows * cols * 4))
	return &Mask{rows: rows, cols: cols, bits: make([]int32, rows*cols)}
}

// Upload copies a host matrix into a new device buffer.
func (d *Device) Upload(m *mat.Dense) *Buffer {
	rows, cols := m.Dims()
	b := d.Alloc(rows, cols)
	raw := m.RawMatrix()
	for y := 0; y < rows; y++ {
		copy(b.data[y*cols:(y+1)*cols], raw.Data[y*raw.Stride:y*raw.Stride+cols])
	}
	return b
}

// Download copies a device buffer into a new host matrix. The buffer stays allocated.
func (d *Device) Download(b *Buffer) *mat.Dense {
	data := make([]float64, len(b.Data()))
	copy(data, b.data)
	return mat.NewDense(b.rows, b.cols, data)
}

// Free releases a buffer. Freeing twice or freeing nil is a no-op.
func (d *Device) Free(b *Buffer) {
	if b == nil || b.data == nil {
		return
	}
	d.allocated.Add(-int64(len(b.data) * bytesPerSample))
	b.data = nil
}

// FreeMask releases a fill mask.
func (d *Device) FreeMask(m *Mask) {
	if m == nil || m.bits == nil {
		return
	}
	d.allocated.Add(-int64(len(m.bits) * 4))
	m.bits = nil
}

// Buffer is a row-major float plane in device memory.
type Buffer struct {
	rows int
	cols int
	data []float64
}

// Rows returns the plane height.
func (b *Buffer) Rows() int { return b.rows }

// Cols returns the plane width.
func (b *Buffer) Cols() int { return b.cols }

// Live reports whether the buffer still holds device memory.
func (b *Buffer) Live() bool { return b != nil && b.data != nil }

// Data exposes the raw samples. It panics with ErrResidencyViolation if the
// buffer has been freed.
func (b *Buffer) Data() []float64 {
	if !b.Live() {
		panic(fmt.Errorf("%w: buffer is not allocated on the device", ErrResidencyViolation))
	}
	return b.data
}

// At returns the sample at column x, row y.
func (b *Buffer) At(x, y int) float64 {
	return b.Data()[y*b.cols+x]
}

// Set writes the sample at column x, row y.
func (b *Buffer) Set(x, y int, v float64) {
	b.Data()[y*b.cols+x] = v
}

// StoreAtomic writes sample i with an atomic store. Scatter kernels use it
// for destination cells that several workers may target; which of the
// competing writes survives is unspecified.
func (b *Buffer) StoreAtomic(i int, v float64) {
	atomic.StoreUint64((*uint64)(unsafe.Pointer(&b.data[i])), math.Float64bits(v))
}

// Mask marks destination cells written by a scatter kernel.
type Mask struct {
	rows int
	cols int
	bits []int32
}

// Rows returns the mask height.
func (m *Mask) Rows() int { return m.rows }

// Cols returns the mask width.
func (m *Mask) Cols() int { return m.cols }

// Set marks cell i as filled. Safe for concurrent use.
func (m *Mask) Set(i int) {
	atomic.StoreInt32(&m.bits[i], 1)
}

// IsSet reports whether cell i was filled.
func (m *Mask) IsSet(i int) bool {
	return atomic.LoadInt32(&m.bits[i]) != 0
}

// Count returns the number of filled cells.
func (m *Mask) Count() int {
	n := 0
	for i := range m.bits {
		if m.IsSet(i) {
			n++
		}
	}
	return n
}
