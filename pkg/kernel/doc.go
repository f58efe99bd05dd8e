// Package kernel holds the per-pixel kernels that operate on device buffers.
//
// Every kernel is launched as a 2D grid with one logical worker per output
// pixel. Workers bounds-check themselves and never synchronise with each
// other. Conversion, arithmetic and crop kernels write disjoint cells and are
// deterministic; the scatter kernels (Rotate, Magnify, Paste) compute their
// destination and may collide, in which case one unspecified write survives.
//
// Kernels never change the representation or residency bookkeeping of an
// image; callers migrate storage before dispatch.
package kernel

import "latticeanalyzer/pkg/device"

// live panics with device.ErrResidencyViolation unless every buffer is
// allocated on the device.
func live(bufs ...*device.Buffer) {
	for _, b := range bufs {
		b.Data()
	}
}
