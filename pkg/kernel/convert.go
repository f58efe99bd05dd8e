package kernel

import (
	"math"

	"latticeanalyzer/pkg/device"
)

// CartesianToPolar computes amplitude (magnitude) and phase (angle) from real
// and imaginary planes.
func CartesianToPolar(d *device.Device, re, im, am, ph *device.Buffer) {
	reData, imData := re.Data(), im.Data()
	amData, phData := am.Data(), ph.Data()
	rows, cols := re.Rows(), re.Cols()

	d.Launch(rows, cols, func(x, y int) {
		if x >= cols || y >= rows {
			return
		}
		i := y*cols + x
		amData[i] = math.Hypot(reData[i], imData[i])
		phData[i] = math.Atan2(imData[i], reData[i])
	})
}

// PolarToCartesian computes real = am*cos(ph) and imaginary = am*sin(ph).
func PolarToCartesian(d *device.Device, am, ph, re, im *device.Buffer) {
	amData, phData := am.Data(), ph.Data()
	reData, imData := re.Data(), im.Data()
	rows, cols := am.Rows(), am.Cols()

	d.Launch(rows, cols, func(x, y int) {
		if x >= cols || y >= rows {
			return
		}
		i := y*cols + x
		sin, cos := math.Sincos(phData[i])
		reData[i] = amData[i] * cos
		imData[i] = amData[i] * sin
	})
}
