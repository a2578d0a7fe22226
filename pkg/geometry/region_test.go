package geometry

import (
	"image"
	"math"
	"testing"
)

func TestClampValidatesEdges(t *testing.T) {
	regions := []Region{
		{Top: 0.2, Left: 0.1, Bottom: 0.8, Right: 0.9},
		{Top: 0.8, Left: 0.9, Bottom: 0.2, Right: 0.1}, // reversed edges
		{Top: -0.5, Left: -0.5, Bottom: 1.5, Right: 1.5},
		{Top: 0.5, Left: 0.5, Bottom: 0.5, Right: 0.5}, // collapsed
		{Top: 0, Left: 0.999, Bottom: 1, Right: 1},     // collapsed at the edge
	}

	for _, in := range regions {
		r := Clamp(in)
		if r.Left < 0 || r.Left >= r.Right || r.Right > 1 {
			t.Errorf("Clamp(%+v): invalid horizontal edges %f..%f", in, r.Left, r.Right)
		}
		if r.Top < 0 || r.Top >= r.Bottom || r.Bottom > 1 {
			t.Errorf("Clamp(%+v): invalid vertical edges %f..%f", in, r.Top, r.Bottom)
		}
		if r.Width() < MinExtent-1e-9 {
			t.Errorf("Clamp(%+v): width %f below minimum extent", in, r.Width())
		}
		if r.Height() < MinExtent-1e-9 {
			t.Errorf("Clamp(%+v): height %f below minimum extent", in, r.Height())
		}
	}
}

func TestClampKeepsValidRegion(t *testing.T) {
	in := Region{Top: 0.25, Left: 0.25, Bottom: 0.75, Right: 0.75}
	if got := Clamp(in); got != in {
		t.Errorf("Clamp changed a valid region: %+v", got)
	}
}

func TestPixelRect(t *testing.T) {
	r := Region{Top: 0.25, Left: 0.25, Bottom: 0.75, Right: 0.75}
	got := r.PixelRect(400, 200)
	want := image.Rect(100, 50, 300, 150)
	if got != want {
		t.Errorf("PixelRect = %v, want %v", got, want)
	}

	full := FullFrame.PixelRect(400, 200)
	if full != image.Rect(0, 0, 400, 200) {
		t.Errorf("full-frame PixelRect = %v", full)
	}
}

func TestPixelRectNeverEmpty(t *testing.T) {
	r := Region{Top: 0.5, Left: 0.5, Bottom: 0.5005, Right: 0.5005}
	if got := r.PixelRect(100, 100); got.Empty() {
		t.Errorf("PixelRect returned empty rectangle %v", got)
	}
}

func TestIsFullFrame(t *testing.T) {
	if !(RotatedCrop{Region: FullFrame}).IsFullFrame() {
		t.Error("full frame with zero angle should report IsFullFrame")
	}
	if (RotatedCrop{Region: FullFrame, Angle: 2}).IsFullFrame() {
		t.Error("rotated full frame is still a crop")
	}
	if (RotatedCrop{Region: Region{Top: 0, Left: 0, Bottom: 1, Right: 0.9}}).IsFullFrame() {
		t.Error("partial region should not report IsFullFrame")
	}
}

func TestRegionAccessors(t *testing.T) {
	r := Region{Top: 0.1, Left: 0.2, Bottom: 0.5, Right: 0.8}
	if math.Abs(r.Width()-0.6) > 1e-12 {
		t.Errorf("Width = %f", r.Width())
	}
	if math.Abs(r.Height()-0.4) > 1e-12 {
		t.Errorf("Height = %f", r.Height())
	}
	cx, cy := r.Center()
	if math.Abs(cx-0.5) > 1e-12 || math.Abs(cy-0.3) > 1e-12 {
		t.Errorf("Center = (%f, %f)", cx, cy)
	}
}
