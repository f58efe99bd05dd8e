package transform

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"latticeanalyzer/internal/models"
	"latticeanalyzer/pkg/device"
	"latticeanalyzer/pkg/imaging"
)

// newRamp returns a host polar image whose amplitude is 0..h*w-1 row-major.
func newRamp(t *testing.T, d *device.Device, h, w int) *imaging.Image {
	t.Helper()
	img, err := imaging.New(d, imaging.Params{Height: h, Width: w, Defocus: 0.5, SeriesIndex: 3})
	if err != nil {
		t.Fatalf("Failed to create image: %v", err)
	}
	am := img.Amplitude()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			am.Set(y, x, float64(y*w+x))
		}
	}
	return img
}

func amplitude(img *imaging.Image) *mat.Dense {
	rep := img.Representation()
	img.ToPolar()
	am := img.PlaneCopy(models.Amplitude)
	img.ToRepresentation(rep)
	return am
}

func TestCropCoordsScenario(t *testing.T) {
	d := device.New(device.NewParallel(2), 2)
	img := newRamp(t, d, 4, 4)

	roi, err := CropCoords(img, models.Coords{X0: 1, Y0: 1, X1: 3, Y1: 3})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	want := mat.NewDense(2, 2, []float64{5, 6, 9, 10})
	if !mat.EqualApprox(amplitude(roi), want, 1e-12) {
		t.Errorf("Expected [[5 6] [9 10]], got %v", mat.Formatted(amplitude(roi)))
	}
	if roi.Defocus != 0.5 || roi.SeriesIndex() != 3 {
		t.Errorf("Metadata not propagated: %g/%d", roi.Defocus, roi.SeriesIndex())
	}
	if img.Representation() != models.Polar || img.Residency() != models.Host {
		t.Errorf("Source state changed to %s/%s", img.Representation(), img.Residency())
	}
	if roi.Representation() != models.Polar || roi.Residency() != models.Host {
		t.Errorf("Region should match the source state, got %s/%s", roi.Representation(), roi.Residency())
	}

	pasted := Paste(img, roi, models.Point{X: 1, Y: 1}, false)
	if !mat.EqualApprox(amplitude(pasted), amplitude(img), 1e-12) {
		t.Errorf("Paste back should reproduce the source, got %v", mat.Formatted(amplitude(pasted)))
	}
}

func TestCropPasteInverseOnDevice(t *testing.T) {
	d := device.New(nil, 4)
	img := newRamp(t, d, 6, 9)
	img.ToCartesian()
	img.ToDevice()

	c := models.Coords{X0: 2, Y0: 1, X1: 7, Y1: 5}
	roi, err := CropCoords(img, c)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if roi.Residency() != models.Device || roi.Representation() != models.Cartesian {
		t.Errorf("Region should be cartesian on device, got %s/%s", roi.Representation(), roi.Residency())
	}

	dst, err := imaging.New(d, imaging.Params{Height: 6, Width: 9})
	if err != nil {
		t.Fatal(err)
	}
	out := Paste(dst, roi, c.TopLeft(), false)
	back, err := CropCoords(out, c)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(amplitude(back), amplitude(roi), 1e-12) {
		t.Error("Crop after paste differs from the pasted region")
	}
	if lo, hi := out.MinMax(models.Amplitude); lo != 0 || hi == 0 {
		t.Errorf("Unexpected pasted canvas range [%g, %g]", lo, hi)
	}
}

func TestCropWraparoundPeriodicity(t *testing.T) {
	d := device.New(nil, 0)
	img := newRamp(t, d, 3, 5)
	for _, origin := range []models.Point{{X: 0, Y: 0}, {X: 5, Y: 0}, {X: -5, Y: 3}} {
		roi, err := Crop(img, origin, 1, 1, true)
		if err != nil {
			t.Fatal(err)
		}
		if v := amplitude(roi).At(0, 0); v != 0 {
			t.Errorf("Origin %+v: expected 0, got %g", origin, v)
		}
	}
}

func TestCropEmptyRegion(t *testing.T) {
	img := newRamp(t, device.New(nil, 0), 3, 3)
	if _, err := CropCoords(img, models.Coords{X0: 2, Y0: 0, X1: 2, Y1: 3}); !errors.Is(err, ErrEmptyRegion) {
		t.Errorf("Expected ErrEmptyRegion, got %v", err)
	}
}

func TestCropCentered(t *testing.T) {
	img := newRamp(t, device.New(nil, 0), 5, 5)
	roi, err := Crop(img, models.Point{X: 2, Y: 2}, 3, 3, false)
	if err != nil {
		t.Fatal(err)
	}
	if v := amplitude(roi).At(0, 0); v != 6 {
		t.Errorf("Expected 6 at the top-left of the centred crop, got %g", v)
	}
}

func TestSpotPasteContainment(t *testing.T) {
	d := device.New(nil, 0)
	dst, err := imaging.New(d, imaging.Params{Height: 12, Width: 12})
	if err != nil {
		t.Fatal(err)
	}
	imaging.Fill(dst, 1)
	roi, err := imaging.New(d, imaging.Params{Height: 8, Width: 8})
	if err != nil {
		t.Fatal(err)
	}
	imaging.Fill(roi, 5)

	topLeft := models.Point{X: 2, Y: 2}
	out := Paste(dst, roi, topLeft, true)
	am := amplitude(out)
	for ry := 0; ry < 8; ry++ {
		for rx := 0; rx < 8; rx++ {
			v := am.At(topLeft.Y+ry, topLeft.X+rx)
			if math.Hypot(float64(4-rx), float64(4-ry)) > 4 {
				if math.Abs(v-1) > 1e-12 {
					t.Errorf("Offset (%d,%d) outside the disk changed to %g", rx, ry, v)
				}
			} else if math.Abs(v-5) > 1e-12 {
				t.Errorf("Offset (%d,%d) inside the disk not written, got %g", rx, ry, v)
			}
		}
	}
	if amplitude(dst).At(6, 6) != 1 {
		t.Error("Paste modified its destination")
	}
}

func TestCropFragment(t *testing.T) {
	img := newRamp(t, device.New(nil, 0), 4, 4)
	frag, err := CropFragment(img, models.Coords{X0: 0, Y0: 2, X1: 3, Y1: 4})
	if err != nil {
		t.Fatal(err)
	}
	want := mat.NewDense(2, 3, []float64{8, 9, 10, 12, 13, 14})
	if !mat.Equal(frag.Amplitude(), want) || !mat.Equal(frag.Snapshot(), want) {
		t.Errorf("Unexpected fragment %v", mat.Formatted(frag.Amplitude()))
	}

	if _, err := CropFragment(img, models.Coords{X0: 2, Y0: 2, X1: 5, Y1: 4}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds, got %v", err)
	}
}

func TestRotatedWidth(t *testing.T) {
	tests := []struct {
		degrees float64
		want    int
	}{
		{0, 100},
		{90, 100},
		{-90, 100},
		{45, 142},
		{30, 137},
		{180, 100},
	}
	for _, tt := range tests {
		if got := RotatedWidth(100, 100, tt.degrees); got != tt.want {
			t.Errorf("RotatedWidth(%g): expected %d, got %d", tt.degrees, tt.want, got)
		}
	}
}

func TestRotateZero(t *testing.T) {
	d := device.New(device.NewParallel(4), 4)
	img := newRamp(t, d, 8, 8)
	img.ToDevice()

	rot, err := Rotate(img, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rot.Height() != 8 || rot.Width() != 8 {
		t.Fatalf("Expected 8x8 canvas, got %dx%d", rot.Height(), rot.Width())
	}
	if rot.Residency() != models.Device || !rot.HasSnapshot() {
		t.Errorf("Expected device image with snapshot, got %s/%v", rot.Residency(), rot.HasSnapshot())
	}
	if !mat.EqualApprox(amplitude(rot), amplitude(img), 1e-12) {
		t.Errorf("Rotation by 0 changed the amplitude: %v", mat.Formatted(amplitude(rot)))
	}
	if rot.Defocus != 0.5 || rot.SeriesIndex() != 3 {
		t.Error("Rotation dropped the metadata")
	}
}

func TestRotateQuarterTurnKeepsValues(t *testing.T) {
	d := device.New(nil, 0)
	img, err := imaging.New(d, imaging.Params{Height: 16, Width: 16})
	if err != nil {
		t.Fatal(err)
	}
	imaging.Fill(img, 2)

	rot, err := Rotate(img, 90)
	if err != nil {
		t.Fatal(err)
	}
	lo, hi := rot.MinMax(models.Amplitude)
	if hi != 2 {
		t.Errorf("Expected maximum 2, got %g", hi)
	}
	if lo < 0 {
		t.Errorf("Hole repair produced a negative amplitude %g", lo)
	}
	if !mat.Equal(rot.Snapshot(), rot.Amplitude()) {
		t.Error("Snapshot should hold the repaired amplitude")
	}
}

func TestRotateRampExactly(t *testing.T) {
	tests := []struct {
		degrees float64
		// source (row, col) of destination (row, col) on a 4x4 plane
		from func(y, x int) (int, int)
	}{
		{90, func(y, x int) (int, int) { return x, 3 - y }},
		{180, func(y, x int) (int, int) { return 3 - y, 3 - x }},
		{-90, func(y, x int) (int, int) { return 3 - x, y }},
	}
	for _, tt := range tests {
		d := device.New(device.NewParallel(2), 2)
		img := newRamp(t, d, 4, 4)
		src := amplitude(img)

		rot, err := Rotate(img, tt.degrees)
		if err != nil {
			t.Fatal(err)
		}
		if rot.Height() != 4 || rot.Width() != 4 {
			t.Fatalf("Rotate(%g): expected 4x4 canvas, got %dx%d", tt.degrees, rot.Height(), rot.Width())
		}
		am := amplitude(rot)
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				sy, sx := tt.from(y, x)
				if am.At(y, x) != src.At(sy, sx) {
					t.Errorf("Rotate(%g) at (%d,%d): expected %g, got %g",
						tt.degrees, y, x, src.At(sy, sx), am.At(y, x))
				}
			}
		}
	}
}

func TestRotateAndCrop(t *testing.T) {
	d := device.New(device.NewParallel(2), 8)
	img, err := imaging.New(d, imaging.Params{Height: 32, Width: 32})
	if err != nil {
		t.Fatal(err)
	}
	imaging.Fill(img, 3)

	out, err := RotateAndCrop(img, 30)
	if err != nil {
		t.Fatal(err)
	}
	c := CropCoordsAfterRotation(32, RotatedWidth(32, 32, 30), 30)
	if out.Width() != c.Width() || out.Height() != c.Height() {
		t.Errorf("Expected %dx%d, got %dx%d", c.Height(), c.Width(), out.Height(), out.Width())
	}
	if _, hi := out.MinMax(models.Amplitude); math.Abs(hi-3) > 1e-9 {
		t.Errorf("Expected maximum 3 after crop, got %g", hi)
	}
	if v := amplitude(out).At(c.Height()/2, c.Width()/2); math.Abs(v-3) > 1e-9 {
		t.Errorf("Expected 3 at the centre, got %g", v)
	}
	if !out.HasSnapshot() {
		t.Error("Cropped rotation should carry a snapshot")
	}
}

func TestCropCoordsAfterRotation(t *testing.T) {
	c := CropCoordsAfterRotation(100, 100, 0)
	if c != (models.Coords{X0: 0, Y0: 0, X1: 100, Y1: 100}) {
		t.Errorf("Expected the full canvas for 0 degrees, got %+v", c)
	}
	c = CropCoordsAfterRotation(100, 142, 45)
	if c.Width() != 70 || c.X0 != 36 {
		t.Errorf("Expected a 70 wide box at 36 for 45 degrees, got %+v", c)
	}
}

func TestMagnify(t *testing.T) {
	d := device.New(nil, 0)
	img := newRamp(t, d, 4, 6)

	same, err := Magnify(img, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(amplitude(same), amplitude(img)) {
		t.Error("Magnify by 1 changed the amplitude")
	}
	if same.HasSnapshot() {
		t.Error("Magnified image should have no snapshot")
	}

	big, err := Magnify(img, 2)
	if err != nil {
		t.Fatal(err)
	}
	if big.Height() != 8 || big.Width() != 12 {
		t.Fatalf("Expected 8x12, got %dx%d", big.Height(), big.Width())
	}
	am := amplitude(big)
	if am.At(2, 4) != amplitude(img).At(1, 2) {
		t.Errorf("Expected source (2,1) at (4,2), got %g", am.At(2, 4))
	}
	// (1,0) is a hole between the scattered source pixels 0 and 1
	if v := am.At(0, 1); math.Abs(v-0.5) > 1e-12 {
		t.Errorf("Unexpected repaired hole %g", v)
	}

	if _, err := Magnify(img, 0); !errors.Is(err, ErrInvalidFactor) {
		t.Errorf("Expected ErrInvalidFactor, got %v", err)
	}
	if _, err := Magnify(img, 0.01); !errors.Is(err, ErrInvalidFactor) {
		t.Errorf("Expected ErrInvalidFactor for a vanishing canvas, got %v", err)
	}
}

func TestScatterReleasesMask(t *testing.T) {
	d := device.New(nil, 0)
	img := newRamp(t, d, 8, 8)
	rot, err := Rotate(img, 17)
	if err != nil {
		t.Fatal(err)
	}
	rot.Release()
	img.Release()
	if d.Allocated() != 0 {
		t.Errorf("Expected no device memory after release, got %d bytes", d.Allocated())
	}
}
