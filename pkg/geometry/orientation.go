package geometry

// Orientation is an EXIF orientation code (1-8) describing the rotation and
// mirroring needed to present a stored image upright. Orientations 5-8 swap
// the image's width and height.
type Orientation int

// The eight EXIF orientation values.
const (
	OrientationNormal     Orientation = 1 // upright
	OrientationMirrorH    Orientation = 2 // mirrored horizontally
	OrientationRotate180  Orientation = 3 // rotated 180
	OrientationMirrorV    Orientation = 4 // mirrored vertically
	OrientationTranspose  Orientation = 5 // mirrored across top-left diagonal
	OrientationRotate90   Orientation = 6 // rotated 90 clockwise
	OrientationTransverse Orientation = 7 // mirrored across top-right diagonal
	OrientationRotate270  Orientation = 8 // rotated 270 clockwise
)

// Valid reports whether o is one of the eight defined EXIF codes.
func (o Orientation) Valid() bool {
	return o >= OrientationNormal && o <= OrientationRotate270
}

// SwapsDimensions reports whether the orientation exchanges width and
// height (the 90/270 family, codes 5-8).
func (o Orientation) SwapsDimensions() bool {
	return o >= OrientationTranspose
}

// mirrored reports whether the orientation includes a reflection, which
// flips the sign of a straighten angle.
func (o Orientation) mirrored() bool {
	switch o {
	case OrientationMirrorH, OrientationMirrorV, OrientationTranspose, OrientationTransverse:
		return true
	}
	return false
}

// mapPoint applies the sensor-to-display coordinate permutation for the
// orientation to a normalized point.
func (o Orientation) mapPoint(x, y float64) (float64, float64) {
	switch o {
	case OrientationMirrorH:
		return 1 - x, y
	case OrientationRotate180:
		return 1 - x, 1 - y
	case OrientationMirrorV:
		return x, 1 - y
	case OrientationTranspose:
		return y, x
	case OrientationRotate90:
		return 1 - y, x
	case OrientationTransverse:
		return 1 - y, 1 - x
	case OrientationRotate270:
		return y, 1 - x
	}
	return x, y
}

// transformCrop maps a crop through the orientation's point permutation,
// re-sorting the region edges and adjusting the angle sign for mirrored
// orientations.
func transformCrop(c RotatedCrop, o Orientation) RotatedCrop {
	x0, y0 := o.mapPoint(c.Region.Left, c.Region.Top)
	x1, y1 := o.mapPoint(c.Region.Right, c.Region.Bottom)
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	angle := c.Angle
	if o.mirrored() {
		angle = -angle
	}
	return RotatedCrop{
		Region: Region{Top: y0, Left: x0, Bottom: y1, Right: x1},
		Angle:  angle,
	}
}

// TransformedForDisplay converts a sensor-space crop into the EXIF-oriented
// display frame. For orientations 5-8 the display frame has swapped width
// and height, so callers must also swap the aspect ratio they pass to the
// fitting functions.
func TransformedForDisplay(sensor RotatedCrop, o Orientation) RotatedCrop {
	if !o.Valid() || o == OrientationNormal {
		return sensor
	}
	return transformCrop(sensor, o)
}

// TransformedForSensor converts a display-space crop back into the physical
// sensor frame. It is the exact inverse of TransformedForDisplay for every
// orientation: the 90 and 270 rotations invert each other and the remaining
// codes are self-inverse.
func TransformedForSensor(display RotatedCrop, o Orientation) RotatedCrop {
	if !o.Valid() || o == OrientationNormal {
		return display
	}
	inv := o
	switch o {
	case OrientationRotate90:
		inv = OrientationRotate270
	case OrientationRotate270:
		inv = OrientationRotate90
	}
	return transformCrop(display, inv)
}
