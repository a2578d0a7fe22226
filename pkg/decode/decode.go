// Package decode wraps the platform image-decode primitives behind a small
// cancellable interface: a metadata-only probe, a downsample-aware decode,
// and embedded-preview extraction for camera-RAW containers.
package decode

import (
	"context"
	"errors"
	"image"

	"github.com/aagedal/photo-pipeline/pkg/geometry"
)

// Errors surfaced by decoders. Cancellation is reported as the context's own
// error and is never wrapped into a decode failure.
var (
	// ErrMissingSource means the file vanished; the only decode error the UI
	// layer shows to the user.
	ErrMissingSource = errors.New("decode: source file missing")

	// ErrNoPreview means a RAW container holds no usable embedded rendition;
	// callers fall back to the generic downsample path.
	ErrNoPreview = errors.New("decode: no embedded preview")
)

// Metadata is the result of a cheap probe: pixel dimensions and EXIF
// orientation, obtained without a full decode.
type Metadata struct {
	Width       int
	Height      int
	Orientation geometry.Orientation
}

// Bitmap is a decoded rendition tagged with the identity it came from, so
// consumers can reject results that no longer match the active selection.
type Bitmap struct {
	Image    image.Image
	Width    int
	Height   int
	Identity string
}

// NewBitmap wraps a decoded image with its pixel size and source identity.
func NewBitmap(img image.Image, identity string) *Bitmap {
	b := img.Bounds()
	return &Bitmap{Image: img, Width: b.Dx(), Height: b.Dy(), Identity: identity}
}

// LongestEdge returns the larger of the bitmap's dimensions.
func (b *Bitmap) LongestEdge() int {
	if b.Width > b.Height {
		return b.Width
	}
	return b.Height
}

// Decoder produces renditions of an image file at a requested pixel budget.
// Implementations must honor context cancellation at phase boundaries and
// must be cheap to abandon.
type Decoder interface {
	// Probe returns native dimensions and EXIF orientation without decoding
	// pixels.
	Probe(ctx context.Context, path string) (Metadata, error)

	// Decode returns a rendition whose longest edge is at most
	// targetMaxDim pixels. A targetMaxDim of 0 requests the full native
	// resolution. Sources already within 1.5x of the target are decoded
	// directly without resampling.
	Decode(ctx context.Context, path string, targetMaxDim int) (*Bitmap, error)

	// EmbeddedPreview extracts the largest embedded JPEG rendition from a
	// RAW container, or ErrNoPreview when the container holds none.
	EmbeddedPreview(ctx context.Context, path string) (*Bitmap, error)
}
