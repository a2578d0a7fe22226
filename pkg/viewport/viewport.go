// Package viewport holds the zoom and pan state of the full-screen viewer:
// cursor-anchored scaling, pan clamping, and the zoom-to-100% toggle. All
// math runs on the image's native dimensions so the state stays correct
// while only a downsampled rendition is on screen.
package viewport

import "math"

// Point is a position in logical view coordinates.
type Point struct {
	X float64
	Y float64
}

// DefaultMaxScale is the zoom ceiling relative to the fitted size.
const DefaultMaxScale = 16.0

// scrollZoomRate converts scroll-wheel delta units into an exponential
// scale factor.
const scrollZoomRate = 0.01

// Viewport is the zoom/pan state for one displayed image. Scale 1 shows the
// image fitted to the view; Offset is the displacement of the image center
// from the view center in logical points.
type Viewport struct {
	viewW, viewH float64
	backingScale float64

	// native display-space pixel dimensions, independent of whichever
	// rendition is currently decoded
	nativeW, nativeH int

	scale    float64
	offset   Point
	maxScale float64
}

// New creates a viewport for a view of the given logical size on a display
// with the given backing scale.
func New(viewW, viewH, backingScale float64) *Viewport {
	if backingScale < 1 {
		backingScale = 1
	}
	return &Viewport{
		viewW:        viewW,
		viewH:        viewH,
		backingScale: backingScale,
		scale:        1,
		maxScale:     DefaultMaxScale,
	}
}

// SetMaxScale overrides the zoom ceiling.
func (v *Viewport) SetMaxScale(max float64) {
	if max > 1 {
		v.maxScale = max
	}
}

// SetImage installs a new image's native display-space dimensions and resets
// zoom and pan to the fitted state.
func (v *Viewport) SetImage(nativeW, nativeH int) {
	v.nativeW, v.nativeH = nativeW, nativeH
	v.scale = 1
	v.offset = Point{}
}

// SetViewSize updates the view dimensions, re-clamping the pan.
func (v *Viewport) SetViewSize(viewW, viewH float64) {
	v.viewW, v.viewH = viewW, viewH
	v.ClampPan()
}

// Scale returns the current zoom scale relative to the fitted size.
func (v *Viewport) Scale() float64 {
	return v.scale
}

// Offset returns the current pan offset.
func (v *Viewport) Offset() Point {
	return v.offset
}

// fittedSize returns the image dimensions in logical points when fitted to
// the view with the aspect ratio preserved.
func (v *Viewport) fittedSize() (w, h float64) {
	if v.nativeW <= 0 || v.nativeH <= 0 || v.viewW <= 0 || v.viewH <= 0 {
		return 0, 0
	}
	s := math.Min(v.viewW/float64(v.nativeW), v.viewH/float64(v.nativeH))
	return float64(v.nativeW) * s, float64(v.nativeH) * s
}

// ActualSizeScale returns the scale at which one source pixel maps to one
// physical display pixel, computed from the native dimensions and the
// backing scale factor rather than the currently decoded rendition.
func (v *Viewport) ActualSizeScale() float64 {
	fw, _ := v.fittedSize()
	if fw <= 0 {
		return 1
	}
	return float64(v.nativeW) / (fw * v.backingScale)
}

// MinScale returns the zoom floor: fitted size, or 1:1 for images smaller
// than the viewport.
func (v *Viewport) MinScale() float64 {
	return math.Min(1, v.ActualSizeScale())
}

// MaxScale returns the zoom ceiling.
func (v *Viewport) MaxScale() float64 {
	return v.maxScale
}

// SetScale changes the zoom to s, keeping the content point under cursor
// (given relative to the view center) stationary on screen.
func (v *Viewport) SetScale(s float64, cursor Point) {
	s = math.Max(v.MinScale(), math.Min(v.maxScale, s))
	if s == v.scale {
		return
	}
	// o1 = o0*(s1/s0) + c*(1 - s1/s0) keeps the point under the cursor put.
	r := s / v.scale
	v.offset.X = v.offset.X*r + cursor.X*(1-r)
	v.offset.Y = v.offset.Y*r + cursor.Y*(1-r)
	v.scale = s
}

// HandleScrollZoom applies a scroll-wheel delta as an exponential zoom step
// anchored at the cursor.
func (v *Viewport) HandleScrollZoom(delta float64, cursor Point) {
	v.SetScale(v.scale*math.Exp(delta*scrollZoomRate), cursor)
}

// ClampPan pulls the offset back so the scaled image never leaves the
// viewport; axes on which the image is smaller than the view are centered.
// Called when a zoom or drag gesture ends.
func (v *Viewport) ClampPan() {
	fw, fh := v.fittedSize()
	v.offset.X = clampAxis(v.offset.X, fw*v.scale, v.viewW)
	v.offset.Y = clampAxis(v.offset.Y, fh*v.scale, v.viewH)
}

func clampAxis(offset, scaled, view float64) float64 {
	if scaled <= view {
		return 0
	}
	limit := (scaled - view) / 2
	return math.Max(-limit, math.Min(limit, offset))
}

// Pan displaces the offset by the given delta without clamping; callers
// clamp when the gesture ends.
func (v *Viewport) Pan(dx, dy float64) {
	v.offset.X += dx
	v.offset.Y += dy
}

// IsZoomedTo100 reports whether the current scale shows source pixels 1:1.
func (v *Viewport) IsZoomedTo100() bool {
	return math.Abs(v.scale-v.ActualSizeScale()) < 1e-9
}

// ToggleZoomTo100 switches between the fitted view and a 1:1 pixel view
// anchored at the cursor.
func (v *Viewport) ToggleZoomTo100(cursor Point) {
	if v.IsZoomedTo100() {
		v.scale = 1
		v.offset = Point{}
		return
	}
	v.SetScale(v.ActualSizeScale(), cursor)
	v.ClampPan()
}

// ImageFrame returns the on-screen rectangle of the image in logical view
// coordinates as origin and size.
func (v *Viewport) ImageFrame() (x, y, w, h float64) {
	fw, fh := v.fittedSize()
	w = fw * v.scale
	h = fh * v.scale
	x = v.viewW/2 + v.offset.X - w/2
	y = v.viewH/2 + v.offset.Y - h/2
	return x, y, w, h
}

// ContentPointAt maps a view position (relative to the view center) to
// normalized image coordinates at the current zoom and pan.
func (v *Viewport) ContentPointAt(view Point) (float64, float64) {
	fw, fh := v.fittedSize()
	if fw <= 0 || fh <= 0 {
		return 0.5, 0.5
	}
	nx := (view.X-v.offset.X)/(fw*v.scale) + 0.5
	ny := (view.Y-v.offset.Y)/(fh*v.scale) + 0.5
	return nx, ny
}

// NeedsFullResolution reports whether the current zoom shows the image at
// more physical pixels than the decoded rendition holds, the trigger for
// the loader's lazy full-resolution phase.
func (v *Viewport) NeedsFullResolution(decodedLongestEdge int) bool {
	if decodedLongestEdge <= 0 {
		return false
	}
	nativeLongest := v.nativeW
	if v.nativeH > nativeLongest {
		nativeLongest = v.nativeH
	}
	if decodedLongestEdge >= nativeLongest {
		return false // already at native resolution
	}
	fw, fh := v.fittedSize()
	fittedLongest := math.Max(fw, fh)
	shownPixels := fittedLongest * v.scale * v.backingScale
	return shownPixels > float64(decodedLongestEdge)
}
