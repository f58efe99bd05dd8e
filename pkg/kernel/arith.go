package kernel

import "latticeanalyzer/pkg/device"

// Conjugate copies the amplitude and negates the phase.
func Conjugate(d *device.Device, am, ph, amOut, phOut *device.Buffer) {
	amIn, phIn := am.Data(), ph.Data()
	amRes, phRes := amOut.Data(), phOut.Data()
	rows, cols := am.Rows(), am.Cols()

	d.Launch(rows, cols, func(x, y int) {
		if x >= cols || y >= rows {
			return
		}
		i := y*cols + x
		amRes[i] = amIn[i]
		phRes[i] = -phIn[i]
	})
}

// Multiply multiplies two polar fields elementwise: amplitudes multiply and
// phases add. All six buffers must share one shape.
func Multiply(d *device.Device, am1, ph1, am2, ph2, amOut, phOut *device.Buffer) {
	a1, p1 := am1.Data(), ph1.Data()
	a2, p2 := am2.Data(), ph2.Data()
	amRes, phRes := amOut.Data(), phOut.Data()
	rows, cols := am1.Rows(), am1.Cols()

	d.Launch(rows, cols, func(x, y int) {
		if x >= cols || y >= rows {
			return
		}
		i := y*cols + x
		amRes[i] = a1[i] * a2[i]
		phRes[i] = p1[i] + p2[i]
	})
}
