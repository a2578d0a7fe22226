// Package geometry provides the pure coordinate-transform math behind crop
// editing: normalized crop regions, rotation-aware fitting, and the EXIF
// orientation mapping between sensor space and display space.
//
// All regions use normalized image coordinates in [0,1] with the origin at
// the top-left corner. Functions are side-effect free and safe for
// concurrent use.
package geometry

import (
	"image"
	"math"
)

// MinExtent is the smallest width or height a crop region may have on the
// normalized axis. Regions that collapse below it are expanded back out.
const MinExtent = 0.01

// Region is an axis-aligned bounding box in normalized image coordinates.
// A valid region satisfies 0 <= Left < Right <= 1 and 0 <= Top < Bottom <= 1.
type Region struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Bottom float64 `json:"bottom"`
	Right  float64 `json:"right"`
}

// FullFrame is the region covering the entire image.
var FullFrame = Region{Top: 0, Left: 0, Bottom: 1, Right: 1}

// Width returns the normalized width of the region.
func (r Region) Width() float64 {
	return r.Right - r.Left
}

// Height returns the normalized height of the region.
func (r Region) Height() float64 {
	return r.Bottom - r.Top
}

// Center returns the region's center point.
func (r Region) Center() (cx, cy float64) {
	return (r.Left + r.Right) / 2, (r.Top + r.Bottom) / 2
}

// PixelRect converts the region to pixel coordinates for an image of the
// given dimensions, rounding edges to the nearest pixel and intersecting
// with the image bounds.
func (r Region) PixelRect(width, height int) image.Rectangle {
	fw, fh := float64(width), float64(height)
	x0 := int(clamp01(r.Left)*fw + 0.5)
	y0 := int(clamp01(r.Top)*fh + 0.5)
	x1 := int(clamp01(r.Right)*fw + 0.5)
	y1 := int(clamp01(r.Bottom)*fh + 0.5)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return image.Rect(x0, y0, x1, y1).Intersect(image.Rect(0, 0, width, height))
}

// Clamp sorts and clips the region's edges into [0,1] and guarantees the
// minimum extent on both axes. The result is always a valid region.
func Clamp(r Region) Region {
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	r.Left = clamp01(r.Left)
	r.Right = clamp01(r.Right)
	r.Top = clamp01(r.Top)
	r.Bottom = clamp01(r.Bottom)

	r.Left, r.Right = ensureExtent(r.Left, r.Right)
	r.Top, r.Bottom = ensureExtent(r.Top, r.Bottom)
	return r
}

// regionAround builds a region of the given size centered at (cx, cy).
// The caller is expected to Clamp the result.
func regionAround(cx, cy, width, height float64) Region {
	return Region{
		Top:    cy - height/2,
		Left:   cx - width/2,
		Bottom: cy + height/2,
		Right:  cx + width/2,
	}
}

// ensureExtent widens the interval [lo, hi] to MinExtent around its center,
// sliding it back inside [0,1] if the expansion pushed it out.
func ensureExtent(lo, hi float64) (float64, float64) {
	if hi-lo >= MinExtent {
		return lo, hi
	}
	c := (lo + hi) / 2
	lo = c - MinExtent/2
	hi = c + MinExtent/2
	if lo < 0 {
		hi -= lo
		lo = 0
	}
	if hi > 1 {
		lo -= hi - 1
		hi = 1
	}
	return lo, hi
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// RotatedCrop is a crop region plus a straighten angle in degrees. The
// visible crop is the region rotated by Angle about its own center; the
// axis-aligned region is the bookkeeping box from which the rotated
// rectangle's dimensions are derived (ForwardProjectDims).
type RotatedCrop struct {
	Region Region  `json:"region"`
	Angle  float64 `json:"angle"`
}

// IsFullFrame reports whether the crop covers the whole image with no
// rotation, which callers treat as "no crop".
func (c RotatedCrop) IsFullFrame() bool {
	const eps = 1e-9
	return c.Angle == 0 &&
		math.Abs(c.Region.Top) < eps && math.Abs(c.Region.Left) < eps &&
		math.Abs(c.Region.Bottom-1) < eps && math.Abs(c.Region.Right-1) < eps
}
