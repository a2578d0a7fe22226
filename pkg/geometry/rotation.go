package geometry

import "math"

// MaxAngle bounds the straighten angle in degrees. Angles outside
// [-MaxAngle, MaxAngle] are clamped, never rejected.
const MaxAngle = 45.0

// ClampAngle limits an angle in degrees to the supported straighten range.
func ClampAngle(deg float64) float64 {
	return clamp(deg, -MaxAngle, MaxAngle)
}

// ForwardProjectDims converts the bookkeeping box dimensions to the actual
// rotated crop rectangle's dimensions by rotating the dimension vector.
// Components stay signed: a wide flat box at a large angle can project to a
// negative height, and flattening the sign would make the map non-injective
// and break the inverse. Callers take magnitudes when sizing a region. At
// angle 0 the inputs are returned unchanged to avoid trig noise near zero.
func ForwardProjectDims(aabbW, aabbH, angleDeg float64) (w, h float64) {
	if angleDeg == 0 {
		return aabbW, aabbH
	}
	theta := angleDeg * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	w = aabbW*cos + aabbH*sin
	h = -aabbW*sin + aabbH*cos
	return w, h
}

// InverseProjectDims is the exact inverse of ForwardProjectDims: it recovers
// the bookkeeping box dimensions from the actual rotated rectangle's
// dimensions. The rotation matrix is orthonormal, so the inverse is the
// negated-angle form.
func InverseProjectDims(actualW, actualH, angleDeg float64) (aabbW, aabbH float64) {
	if angleDeg == 0 {
		return actualW, actualH
	}
	theta := angleDeg * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	aabbW = actualW*cos - actualH*sin
	aabbH = actualW*sin + actualH*cos
	return aabbW, aabbH
}

// rotatedHalfExtents returns the half extents, along the image axes, of the
// region's four corners after rotating the region by angleDeg about its own
// center. Computed in aspect space (x scaled by the image's width/height
// ratio) so the rotation is physically square.
func rotatedHalfExtents(awAspect, ah, angleDeg float64) (halfX, halfY float64) {
	if angleDeg == 0 {
		return awAspect / 2, ah / 2
	}
	theta := angleDeg * math.Pi / 180
	sin, cos := math.Abs(math.Sin(theta)), math.Abs(math.Cos(theta))
	halfX = (awAspect*cos + ah*sin) / 2
	halfY = (awAspect*sin + ah*cos) / 2
	return halfX, halfY
}

// FittingRotated shrinks the region about its center until all four corners
// of its rotated rectangle fall within the image bounds. aspectRatio is the
// image's pixel width divided by its height. A region that already fits is
// returned unchanged (after clamping).
func FittingRotated(region Region, angleDeg, aspectRatio float64) Region {
	angleDeg = ClampAngle(angleDeg)
	r := Clamp(region)
	if aspectRatio <= 0 {
		aspectRatio = 1
	}

	a := aspectRatio
	aw := r.Width() * a
	ah := r.Height()
	cx, cy := r.Center()
	cxA := cx * a

	halfX, halfY := rotatedHalfExtents(aw, ah, angleDeg)
	allowedX := math.Min(cxA, a-cxA)
	allowedY := math.Min(cy, 1-cy)

	scale := 1.0
	if halfX > allowedX && halfX > 0 {
		scale = math.Min(scale, allowedX/halfX)
	}
	if halfY > allowedY && halfY > 0 {
		scale = math.Min(scale, allowedY/halfY)
	}
	if scale >= 1 {
		return r
	}
	return Clamp(regionAround(cx, cy, r.Width()*scale, r.Height()*scale))
}

// CenterClampedForRotation clamps the region's center so the rotated
// rectangle stays fully inside the image without changing its size. Used
// while the crop is dragged; if the rotated rectangle cannot fit on an axis
// at all, the center snaps to the middle of that axis.
func CenterClampedForRotation(region Region, angleDeg, aspectRatio float64) Region {
	angleDeg = ClampAngle(angleDeg)
	if aspectRatio <= 0 {
		aspectRatio = 1
	}

	a := aspectRatio
	width := region.Width()
	height := region.Height()
	cx, cy := region.Center()
	cxA := cx * a

	halfX, halfY := rotatedHalfExtents(width*a, height, angleDeg)
	// For flat regions at small angles the AABB overhangs the rotated
	// corners; the clamp must keep both inside the image.
	halfX = math.Max(halfX, width*a/2)
	halfY = math.Max(halfY, height/2)
	if 2*halfX > a {
		cxA = a / 2
	} else {
		cxA = clamp(cxA, halfX, a-halfX)
	}
	if 2*halfY > 1 {
		cy = 0.5
	} else {
		cy = clamp(cy, halfY, 1-halfY)
	}
	return regionAround(cxA/a, cy, width, height)
}

// WithAngle re-derives the bookkeeping box when the straighten angle changes
// from fromAngle to toAngle, preserving the actual rotated rectangle's size
// and center: the actual dimensions are recovered at the old angle and
// re-projected at the new one, then the result is fitted so it stays inside
// the image at the new angle.
func WithAngle(region Region, fromAngle, toAngle, aspectRatio float64) Region {
	fromAngle = ClampAngle(fromAngle)
	toAngle = ClampAngle(toAngle)
	r := Clamp(region)
	if fromAngle == toAngle {
		return FittingRotated(r, toAngle, aspectRatio)
	}
	if aspectRatio <= 0 {
		aspectRatio = 1
	}

	a := aspectRatio
	actualW, actualH := InverseProjectDims(r.Width()*a, r.Height(), fromAngle)
	newW, newH := ForwardProjectDims(actualW, actualH, toAngle)
	newW, newH = math.Abs(newW), math.Abs(newH)
	cx, cy := r.Center()
	next := Clamp(regionAround(cx, cy, newW/a, newH))
	return FittingRotated(next, toAngle, aspectRatio)
}
