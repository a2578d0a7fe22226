package source

import (
	"testing"

	"github.com/aagedal/photo-pipeline/pkg/geometry"
)

func TestIsRAW(t *testing.T) {
	raw := []string{"/photos/IMG_0001.CR2", "shot.nef", "a/b/c.ARW", "x.dng", "y.raf"}
	for _, p := range raw {
		if !IsRAW(p) {
			t.Errorf("IsRAW(%q) = false, want true", p)
		}
	}

	notRaw := []string{"photo.jpg", "photo.jpeg", "scan.tiff", "pic.webp", "noext", "dir.cr2/photo.png"}
	for _, p := range notRaw {
		if IsRAW(p) {
			t.Errorf("IsRAW(%q) = true, want false", p)
		}
	}
}

func TestDisplaySizeSwapsForRotatedOrientations(t *testing.T) {
	img := Image{Path: "a.jpg", Orientation: geometry.OrientationRotate90, NativeWidth: 6000, NativeHeight: 4000}
	w, h := img.DisplaySize()
	if w != 4000 || h != 6000 {
		t.Errorf("DisplaySize = %dx%d, want 4000x6000", w, h)
	}

	img.Orientation = geometry.OrientationNormal
	w, h = img.DisplaySize()
	if w != 6000 || h != 4000 {
		t.Errorf("DisplaySize = %dx%d, want 6000x4000", w, h)
	}
}

func TestAspectRatio(t *testing.T) {
	img := Image{Path: "a.jpg", Orientation: geometry.OrientationNormal, NativeWidth: 3000, NativeHeight: 2000}
	if got := img.AspectRatio(); got != 1.5 {
		t.Errorf("AspectRatio = %f, want 1.5", got)
	}

	img.Orientation = geometry.OrientationRotate270
	if got := img.AspectRatio(); got != 2.0/3.0 {
		t.Errorf("rotated AspectRatio = %f, want %f", got, 2.0/3.0)
	}

	unknown := Image{Path: "b.jpg"}
	if got := unknown.AspectRatio(); got != 1 {
		t.Errorf("AspectRatio with unknown dimensions = %f, want 1", got)
	}
}

func TestLongestEdge(t *testing.T) {
	img := Image{NativeWidth: 4000, NativeHeight: 6000}
	if got := img.LongestEdge(); got != 6000 {
		t.Errorf("LongestEdge = %d, want 6000", got)
	}
}
