package geometry

import (
	"math"
	"testing"
)

// rotatedCorners returns the aspect-space corners of the region rotated by
// angleDeg about its own center.
func rotatedCorners(r Region, angleDeg, aspect float64) [4][2]float64 {
	theta := angleDeg * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	cx, cy := r.Center()
	cx *= aspect
	hw := r.Width() * aspect / 2
	hh := r.Height() / 2

	var corners [4][2]float64
	i := 0
	for _, sx := range []float64{-1, 1} {
		for _, sy := range []float64{-1, 1} {
			dx, dy := sx*hw, sy*hh
			corners[i] = [2]float64{cx + dx*cos - dy*sin, cy + dx*sin + dy*cos}
			i++
		}
	}
	return corners
}

func cornersInside(r Region, angleDeg, aspect float64) bool {
	for _, c := range rotatedCorners(r, angleDeg, aspect) {
		if c[0] < -1e-9 || c[0] > aspect+1e-9 || c[1] < -1e-9 || c[1] > 1+1e-9 {
			return false
		}
	}
	return true
}

func TestForwardProjectIdentityAtZero(t *testing.T) {
	w, h := ForwardProjectDims(0.4, 0.7, 0)
	if w != 0.4 || h != 0.7 {
		t.Errorf("ForwardProjectDims at angle 0 = (%f, %f), want inputs unchanged", w, h)
	}
	w, h = InverseProjectDims(0.4, 0.7, 0)
	if w != 0.4 || h != 0.7 {
		t.Errorf("InverseProjectDims at angle 0 = (%f, %f), want inputs unchanged", w, h)
	}
}

func TestProjectDimsRoundTrip(t *testing.T) {
	dims := [][2]float64{{0.3, 0.3}, {0.5, 0.8}, {1.0, 0.4}, {0.9, 0.9}, {0.3, 1.0}}
	angles := []float64{-15, -5, 0, 10, 25, 45}

	for _, d := range dims {
		for _, angle := range angles {
			w, h := ForwardProjectDims(d[0], d[1], angle)
			gw, gh := InverseProjectDims(w, h, angle)
			if math.Abs(gw-d[0]) > 1e-6 || math.Abs(gh-d[1]) > 1e-6 {
				t.Errorf("round trip (%f, %f) at %f deg = (%f, %f)", d[0], d[1], angle, gw, gh)
			}
		}
	}
}

func TestProjectDimsDistinguishesTransposedShapes(t *testing.T) {
	// A wide flat box and its transpose must not project to the same pair,
	// or the inverse recovers the wrong box.
	w1, h1 := ForwardProjectDims(1.0, 0.4, 45)
	w2, h2 := ForwardProjectDims(0.4, 1.0, 45)
	if math.Abs(w1-w2) < 1e-9 && math.Abs(h1-h2) < 1e-9 {
		t.Errorf("transposed boxes both projected to (%f, %f) at 45 deg", w1, h1)
	}
}

func TestFittingRotatedFullFrameNoOp(t *testing.T) {
	got := FittingRotated(FullFrame, 0, 1.5)
	if got != FullFrame {
		t.Errorf("FittingRotated(full frame, 0) = %+v, want unchanged", got)
	}
}

func TestFittingRotatedCenteredSquareAt30NoShrink(t *testing.T) {
	// A centered half-size square rotated 30 degrees already fits inside the
	// unit square, so the region must come back unchanged.
	in := Region{Top: 0.25, Left: 0.25, Bottom: 0.75, Right: 0.75}
	got := FittingRotated(in, 30, 1.0)
	if got != in {
		t.Errorf("FittingRotated at 30 deg shrank a fitting region: %+v", got)
	}
}

func TestFittingRotatedLargeSquareAt45MustShrink(t *testing.T) {
	in := Region{Top: 0.05, Left: 0.05, Bottom: 0.95, Right: 0.95}
	got := FittingRotated(in, 45, 1.0)
	if got.Width() >= in.Width() {
		t.Errorf("FittingRotated at 45 deg did not shrink a 0.9-extent region: %+v", got)
	}
	if !cornersInside(got, 45, 1.0) {
		t.Errorf("corners of fitted region %+v escape the unit square", got)
	}

	// Center preserved.
	cx, cy := got.Center()
	if math.Abs(cx-0.5) > 1e-9 || math.Abs(cy-0.5) > 1e-9 {
		t.Errorf("fitting moved the center to (%f, %f)", cx, cy)
	}
}

func TestFittingRotatedCornersAlwaysInside(t *testing.T) {
	regions := []Region{
		{Top: 0.1, Left: 0.1, Bottom: 0.9, Right: 0.9},
		{Top: 0, Left: 0, Bottom: 0.6, Right: 0.4},
		{Top: 0.4, Left: 0.6, Bottom: 1, Right: 1},
		{Top: 0.3, Left: 0.05, Bottom: 0.7, Right: 0.95},
	}
	angles := []float64{-45, -20, -5, 0, 10, 30, 45}
	aspects := []float64{0.75, 1.0, 1.5, 3.0 / 2.0}

	for _, in := range regions {
		for _, angle := range angles {
			for _, aspect := range aspects {
				got := FittingRotated(in, angle, aspect)
				if !cornersInside(got, angle, aspect) {
					t.Errorf("FittingRotated(%+v, %f, %f) = %+v escapes bounds", in, angle, aspect, got)
				}
			}
		}
	}
}

func TestCenterClampedForRotationKeepsSize(t *testing.T) {
	in := Region{Top: 0, Left: 0, Bottom: 0.4, Right: 0.4} // hugging the top-left corner
	got := CenterClampedForRotation(in, 30, 1.0)

	if math.Abs(got.Width()-in.Width()) > 1e-9 || math.Abs(got.Height()-in.Height()) > 1e-9 {
		t.Errorf("center clamp changed the region size: %+v", got)
	}
	if !cornersInside(got, 30, 1.0) {
		t.Errorf("center-clamped region %+v escapes bounds", got)
	}
}

func TestCenterClampedForRotationKeepsRegionInBounds(t *testing.T) {
	// Wide flat region at a small angle: the rotated corners span less than
	// the AABB width, so clamping by corner extent alone would land the left
	// edge slightly below zero.
	in := Region{Top: 0.1, Left: -0.05, Bottom: 0.15, Right: 0.75}
	got := CenterClampedForRotation(in, 10, 1.0)

	if got.Left < 0 || got.Right > 1 || got.Top < 0 || got.Bottom > 1 {
		t.Errorf("center-clamped region %+v has edges outside the unit square", got)
	}
	if math.Abs(got.Width()-in.Width()) > 1e-9 || math.Abs(got.Height()-in.Height()) > 1e-9 {
		t.Errorf("center clamp changed the region size: %+v", got)
	}
	if !cornersInside(got, 10, 1.0) {
		t.Errorf("center-clamped region %+v escapes bounds", got)
	}
}

func TestCenterClampedForRotationNoOpWhenInside(t *testing.T) {
	in := Region{Top: 0.35, Left: 0.35, Bottom: 0.65, Right: 0.65}
	got := CenterClampedForRotation(in, 20, 1.0)
	if math.Abs(got.Left-in.Left) > 1e-9 || math.Abs(got.Top-in.Top) > 1e-9 {
		t.Errorf("center clamp moved an interior region: %+v", got)
	}
}

func TestWithAngleRoundTripPreservesRegion(t *testing.T) {
	in := Region{Top: 0.35, Left: 0.3, Bottom: 0.65, Right: 0.7}
	aspect := 1.5

	rotated := WithAngle(in, 0, 20, aspect)
	back := WithAngle(rotated, 20, 0, aspect)

	if math.Abs(back.Left-in.Left) > 1e-9 || math.Abs(back.Right-in.Right) > 1e-9 ||
		math.Abs(back.Top-in.Top) > 1e-9 || math.Abs(back.Bottom-in.Bottom) > 1e-9 {
		t.Errorf("WithAngle round trip = %+v, want %+v", back, in)
	}
}

func TestWithAngleSameAngleIsFittingOnly(t *testing.T) {
	in := Region{Top: 0.25, Left: 0.25, Bottom: 0.75, Right: 0.75}
	got := WithAngle(in, 10, 10, 1.0)
	if got != in {
		t.Errorf("WithAngle with equal angles changed a fitting region: %+v", got)
	}
}

func TestWithAngleResultFits(t *testing.T) {
	in := Region{Top: 0.05, Left: 0.05, Bottom: 0.95, Right: 0.95}
	got := WithAngle(in, 0, 45, 1.0)
	if !cornersInside(got, 45, 1.0) {
		t.Errorf("WithAngle result %+v escapes bounds at the new angle", got)
	}
}

func TestClampAngle(t *testing.T) {
	if got := ClampAngle(60); got != MaxAngle {
		t.Errorf("ClampAngle(60) = %f", got)
	}
	if got := ClampAngle(-90); got != -MaxAngle {
		t.Errorf("ClampAngle(-90) = %f", got)
	}
	if got := ClampAngle(12.5); got != 12.5 {
		t.Errorf("ClampAngle(12.5) = %f", got)
	}
}
