package decode

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bep/imagemeta"
	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"github.com/aagedal/photo-pipeline/pkg/geometry"
	"github.com/aagedal/photo-pipeline/pkg/source"
)

// directDecodeFactor decides when a downsampled decode is worth it: if the
// native longest edge is at most this multiple of the target, a direct full
// decode is cheaper than decode-plus-resample.
const directDecodeFactor = 1.5

// FileDecoder decodes images straight from the file system. It is stateless
// and safe for concurrent use.
type FileDecoder struct{}

// NewFileDecoder creates a file-system backed decoder.
func NewFileDecoder() *FileDecoder {
	return &FileDecoder{}
}

// Probe reads native pixel dimensions and EXIF orientation without a full
// decode. For RAW containers whose dimensions cannot be read directly, the
// embedded preview's dimensions stand in for the native size.
func (d *FileDecoder) Probe(ctx context.Context, path string) (Metadata, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, fmt.Errorf("probe %s: %w", path, ErrMissingSource)
		}
		return Metadata{}, fmt.Errorf("probe %s: %w", path, err)
	}
	defer f.Close()

	meta := Metadata{Orientation: geometry.OrientationNormal}
	if o, err := readOrientation(f, path); err == nil {
		meta.Orientation = o
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Metadata{}, fmt.Errorf("probe %s: %w", path, err)
	}
	if cfg, _, err := image.DecodeConfig(f); err == nil {
		meta.Width, meta.Height = cfg.Width, cfg.Height
		return meta, nil
	}

	// RAW containers are opaque to the registered decoders; use the embedded
	// preview's dimensions as the native size stand-in.
	if source.IsRAW(path) {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return Metadata{}, fmt.Errorf("probe %s: %w", path, err)
		}
		data, err := io.ReadAll(f)
		if err != nil {
			return Metadata{}, fmt.Errorf("probe %s: %w", path, err)
		}
		if err := ctx.Err(); err != nil {
			return Metadata{}, err
		}
		if cfg, err := largestPreviewConfig(data); err == nil {
			meta.Width, meta.Height = cfg.Width, cfg.Height
			return meta, nil
		}
	}
	return Metadata{}, fmt.Errorf("probe %s: unreadable image dimensions", path)
}

// Decode produces a rendition capped at targetMaxDim on its longest edge.
// A target of 0 means full native resolution.
func (d *FileDecoder) Decode(ctx context.Context, path string, targetMaxDim int) (*Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := d.decodeFull(path)
	if err != nil {
		if errors.Is(err, ErrMissingSource) {
			return nil, err
		}
		// RAW containers fall back to the embedded rendition.
		if source.IsRAW(path) {
			return d.embeddedAt(ctx, path, targetMaxDim)
		}
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewBitmap(downsample(img, targetMaxDim), path), nil
}

// EmbeddedPreview extracts the largest embedded JPEG rendition from a RAW
// container at its stored resolution.
func (d *FileDecoder) EmbeddedPreview(ctx context.Context, path string) (*Bitmap, error) {
	return d.embeddedAt(ctx, path, 0)
}

func (d *FileDecoder) embeddedAt(ctx context.Context, path string, targetMaxDim int) (*Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("preview %s: %w", path, ErrMissingSource)
		}
		return nil, fmt.Errorf("preview %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := extractLargestPreview(data)
	if err != nil {
		return nil, fmt.Errorf("preview %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewBitmap(downsample(img, targetMaxDim), path), nil
}

// decodeFull decodes the file at native resolution, trying the registered
// decoders first and falling back to an explicit WebP decode.
func (d *FileDecoder) decodeFull(path string) (image.Image, error) {
	if img, err := imaging.Open(path); err == nil {
		return img, nil
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("decode %s: %w", path, ErrMissingSource)
		}
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	defer f.Close()

	if isWebP(path) {
		if img, err := webp.Decode(f); err == nil {
			return img, nil
		}
		if _, err := f.Seek(0, io.SeekStart); err == nil {
			if img, _, err := image.Decode(f); err == nil {
				return img, nil
			}
		}
	} else if _, err := f.Seek(0, io.SeekStart); err == nil {
		if img, _, err := image.Decode(f); err == nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("decode %s: unknown image format", path)
}

// isWebP reports whether path names a WebP file by its extension.
func isWebP(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".webp")
}

// downsample resizes img to fit within targetMaxDim on its longest edge,
// unless the image is already within directDecodeFactor of the target.
func downsample(img image.Image, targetMaxDim int) image.Image {
	if targetMaxDim <= 0 {
		return img
	}
	b := img.Bounds()
	longest := b.Dx()
	if b.Dy() > longest {
		longest = b.Dy()
	}
	if float64(longest) <= directDecodeFactor*float64(targetMaxDim) {
		return img
	}
	return imaging.Fit(img, targetMaxDim, targetMaxDim, imaging.Lanczos)
}

// readOrientation pulls the EXIF orientation tag out of the container
// without decoding pixels.
func readOrientation(f *os.File, path string) (geometry.Orientation, error) {
	format, ok := metaFormatFor(path)
	if !ok {
		return geometry.OrientationNormal, fmt.Errorf("no metadata format for %s", path)
	}

	orientation := geometry.OrientationNormal
	err := imagemeta.Decode(imagemeta.Options{
		R:           f,
		ImageFormat: format,
		Sources:     imagemeta.EXIF,
		HandleTag: func(ti imagemeta.TagInfo) error {
			if ti.Tag != "Orientation" {
				return nil
			}
			if o, ok := tagToOrientation(ti.Value); ok {
				orientation = o
			}
			return imagemeta.ErrStopWalking
		},
	})
	if err != nil && !errors.Is(err, imagemeta.ErrStopWalking) {
		return geometry.OrientationNormal, err
	}
	return orientation, nil
}

// metaFormatFor maps a file extension to the metadata container format.
// RAW formats in the TIFF family are probed as TIFF.
func metaFormatFor(path string) (imagemeta.ImageFormat, bool) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "jpg", "jpeg":
		return imagemeta.JPEG, true
	case "png":
		return imagemeta.PNG, true
	case "webp":
		return imagemeta.WebP, true
	case "tif", "tiff", "arw", "cr2", "dng", "nef", "nrw", "orf", "pef", "rw2", "srw":
		return imagemeta.TIFF, true
	}
	return 0, false
}

func tagToOrientation(v any) (geometry.Orientation, bool) {
	var n int
	switch t := v.(type) {
	case uint16:
		n = int(t)
	case uint32:
		n = int(t)
	case int:
		n = t
	case int64:
		n = int(t)
	default:
		return 0, false
	}
	o := geometry.Orientation(n)
	return o, o.Valid()
}
