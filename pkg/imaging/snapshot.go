package imaging

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"latticeanalyzer/pkg/device"
	"latticeanalyzer/pkg/field"
)

// HasSnapshot reports whether the snapshot buffer is enabled.
func (img *Image) HasSnapshot() bool {
	return img.snapshot != nil
}

// EnableSnapshot allocates a zeroed snapshot buffer on the image's current
// medium. No-op if it already exists.
func (img *Image) EnableSnapshot() {
	if img.snapshot != nil {
		return
	}
	img.snapshot = field.NewPlane(img.dev, img.height, img.width, img.residency)
}

// RefreshSnapshot saves the current amplitude plane into the snapshot,
// enabling it first if needed. The amplitude is copied as stored; call
// ToPolar beforehand if it may be stale.
func (img *Image) RefreshSnapshot() {
	img.EnableSnapshot()
	if err := img.snapshot.Load(img.polar.A.Copy()); err != nil {
		// Both planes are allocated with the image's shape
		panic(err)
	}
}

// RestoreFromSnapshot overwrites the amplitude plane with the snapshot.
func (img *Image) RestoreFromSnapshot() error {
	if img.snapshot == nil {
		return fmt.Errorf("image %d has no snapshot", img.seriesIndex)
	}
	return img.polar.A.Load(img.snapshot.Copy())
}

// Snapshot returns the live host snapshot matrix, or nil when the snapshot is
// disabled. It panics with device.ErrResidencyViolation for device-resident
// images.
func (img *Image) Snapshot() *mat.Dense {
	if img.snapshot == nil {
		return nil
	}
	if img.snapshot.Residency() != img.residency {
		panic(fmt.Errorf("%w: snapshot out of sync with image", device.ErrResidencyViolation))
	}
	return img.snapshot.Host()
}

// LoadAmplitude replaces the amplitude plane with data and saves it into the
// snapshot as well.
func (img *Image) LoadAmplitude(data *mat.Dense) error {
	if err := img.polar.A.Load(data); err != nil {
		return err
	}
	img.RefreshSnapshot()
	return nil
}
