// Package source describes the images the pipeline operates on: an opaque
// file identity plus the metadata needed before any pixels are decoded.
package source

import (
	"path/filepath"
	"strings"

	"github.com/aagedal/photo-pipeline/pkg/geometry"
)

// rawExtensions lists the camera-RAW container formats recognized by
// extension. Classification is by extension only; the decoder deals with
// whatever the container actually holds.
var rawExtensions = map[string]bool{
	"arw": true,
	"cr2": true,
	"cr3": true,
	"dng": true,
	"nef": true,
	"nrw": true,
	"orf": true,
	"pef": true,
	"raf": true,
	"rw2": true,
	"srw": true,
}

// Image identifies a selectable image and carries the metadata the loader
// needs to plan its decode phases. Values are created once per selection
// and never mutated.
type Image struct {
	// Path is the file reference and doubles as the cache identity.
	Path string

	// Orientation is the EXIF orientation code, OrientationNormal when the
	// file carries none.
	Orientation geometry.Orientation

	// NativeWidth and NativeHeight are the sensor pixel dimensions as
	// stored, before any orientation correction.
	NativeWidth  int
	NativeHeight int
}

// Identity returns the opaque key under which the image is cached.
func (img Image) Identity() string {
	return img.Path
}

// IsRAW reports whether the image is a camera-RAW source, which gets the
// embedded-preview fast path instead of a screen-resolution first decode.
func (img Image) IsRAW() bool {
	return IsRAW(img.Path)
}

// DisplaySize returns the pixel dimensions after orientation correction.
func (img Image) DisplaySize() (w, h int) {
	if img.Orientation.SwapsDimensions() {
		return img.NativeHeight, img.NativeWidth
	}
	return img.NativeWidth, img.NativeHeight
}

// AspectRatio returns the display-space width/height ratio, the value the
// geometry engine's fitting functions expect. Returns 1 when dimensions are
// unknown.
func (img Image) AspectRatio() float64 {
	w, h := img.DisplaySize()
	if w <= 0 || h <= 0 {
		return 1
	}
	return float64(w) / float64(h)
}

// LongestEdge returns the larger native dimension.
func (img Image) LongestEdge() int {
	if img.NativeWidth > img.NativeHeight {
		return img.NativeWidth
	}
	return img.NativeHeight
}

// IsRAW reports whether the path names a camera-RAW container.
func IsRAW(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	return rawExtensions[ext]
}
