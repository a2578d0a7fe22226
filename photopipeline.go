// Package photopipeline provides the progressive image delivery pipeline
// and rotation-aware crop geometry behind a photo browser's full-screen
// viewer and develop workspace.
//
// The pipeline delivers increasingly detailed renditions of the selected
// image (cache hit, instant placeholder, embedded or screen-resolution
// preview, canonical screen-resolution decode, and an on-demand
// full-resolution decode) while a direction-aware cache warms the
// neighboring images during sequential navigation. The geometry engine
// converts crop rectangles between sensor space (as persisted) and the
// EXIF-oriented display space (as edited), keeping the rotated crop inside
// the image at all times.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"log"
//
//		photopipeline "github.com/aagedal/photo-pipeline"
//		"github.com/aagedal/photo-pipeline/pkg/decode"
//	)
//
//	func main() {
//		viewer := photopipeline.New()
//		defer viewer.Close()
//
//		sources := photopipeline.ProbeSources(context.Background(),
//			decode.NewFileDecoder(), []string{"a.jpg", "b.nef", "c.jpg"})
//		viewer.SetSources(sources)
//
//		viewer.SelectIndex(0)
//		for update := range viewer.Updates() {
//			log.Printf("phase %s: %dx%d", update.Phase,
//				update.Bitmap.Width, update.Bitmap.Height)
//			if update.Final {
//				break
//			}
//		}
//	}
//
// The package consists of five components:
//
// 1. Geometry (pkg/geometry): pure crop/rotation math and EXIF orientation transforms
// 2. Decode (pkg/decode): cancellable probe, downsample-aware decode, RAW preview extraction
// 3. Loader (pkg/loader): the phased load/cancel session state machine
// 4. Prefetch (pkg/prefetch): bounded direction-aware cache with single-flight decodes
// 5. Viewport (pkg/viewport): cursor-anchored zoom/pan state
//
// Metadata persistence, the color-adjustment filter chain, and thumbnail
// generation are external collaborators consumed through the interfaces
// defined here.
package photopipeline

import (
	"context"
	"image"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/aagedal/photo-pipeline/pkg/decode"
	"github.com/aagedal/photo-pipeline/pkg/geometry"
	"github.com/aagedal/photo-pipeline/pkg/loader"
	"github.com/aagedal/photo-pipeline/pkg/prefetch"
	"github.com/aagedal/photo-pipeline/pkg/source"
	"github.com/aagedal/photo-pipeline/pkg/viewport"
)

// Version of the photo pipeline library
const Version = "1.0.0"

// RawSettings carries the non-destructive develop settings for one image.
// Only the crop is interpreted by this pipeline; the adjustments payload is
// passed through to the filter chain untouched.
type RawSettings struct {
	// Crop is the persisted crop in sensor space, nil when uncropped.
	Crop *geometry.RotatedCrop

	// Adjustments is the opaque color-adjustment payload.
	Adjustments map[string]float64
}

// FilterChain applies the color adjustments to a rendition. Implementations
// live outside this pipeline.
type FilterChain interface {
	Apply(img image.Image, settings RawSettings) image.Image
}

// MetadataStore persists per-image develop settings.
type MetadataStore interface {
	Settings(path string) (RawSettings, bool)
	SetSettings(path string, s RawSettings) error
}

// ThumbnailProvider re-exports the loader's placeholder source interface.
type ThumbnailProvider = loader.ThumbnailProvider

// Viewer ties the tiered loader, prefetch cache, viewport, and geometry
// engine together for one full-screen viewer instance.
type Viewer struct {
	dec    decode.Decoder
	cache  *prefetch.Cache
	loader *loader.Loader
	view   *viewport.Viewport

	mu       sync.Mutex
	sources  []source.Image
	index    int
	meta     MetadataStore
	filter   FilterChain
	sensor   *geometry.RotatedCrop // active crop for the selected image
	settings RawSettings
}

// New creates a viewer with default configuration and a file-system decoder.
func New() *Viewer {
	return NewWithConfig(decode.NewFileDecoder(), loader.DefaultConfig(), prefetch.DefaultConfig())
}

// NewWithConfig creates a viewer with custom decode, loader, and prefetch
// configuration. The prefetch pixel budget is aligned with the loader's
// backing-store target so both tiers share one canonical rendition.
func NewWithConfig(dec decode.Decoder, loaderCfg loader.Config, prefetchCfg prefetch.Config) *Viewer {
	if prefetchCfg.TargetMaxDim <= 0 {
		prefetchCfg.TargetMaxDim = loaderCfg.BackingTarget()
	}
	cache := prefetch.NewCache(dec, prefetchCfg)
	v := &Viewer{
		dec:    dec,
		cache:  cache,
		loader: loader.NewLoader(dec, cache, loaderCfg),
		view:   viewport.New(float64(loaderCfg.ScreenWidth), float64(loaderCfg.ScreenHeight), loaderCfg.BackingScale),
		index:  -1,
	}
	return v
}

// ProbeSources builds source descriptors for the given paths, probing each
// file's dimensions and orientation. Unreadable files are kept with zero
// dimensions so navigation order is preserved; their load sessions surface
// the failure instead.
func ProbeSources(ctx context.Context, dec decode.Decoder, paths []string) []source.Image {
	out := make([]source.Image, 0, len(paths))
	for _, p := range paths {
		img := source.Image{Path: p, Orientation: geometry.OrientationNormal}
		if meta, err := dec.Probe(ctx, p); err == nil {
			img.Orientation = meta.Orientation
			img.NativeWidth = meta.Width
			img.NativeHeight = meta.Height
		}
		out = append(out, img)
	}
	return out
}

// SetSources installs the ordered list of visible images.
func (v *Viewer) SetSources(sources []source.Image) {
	v.mu.Lock()
	v.sources = sources
	v.index = -1
	v.mu.Unlock()
	v.loader.SetSources(sources)
}

// SetMetadataStore installs the develop-settings collaborator.
func (v *Viewer) SetMetadataStore(m MetadataStore) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.meta = m
}

// SetFilterChain installs the color-adjustment collaborator.
func (v *Viewer) SetFilterChain(f FilterChain) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filter = f
}

// SetThumbnailProvider installs the instant-placeholder collaborator.
func (v *Viewer) SetThumbnailProvider(p ThumbnailProvider) {
	v.loader.SetThumbnailProvider(p)
}

// SelectIndex switches the viewer to the image at the given index: the
// previous load session is cancelled, the viewport resets to the fitted
// state, the persisted crop is loaded, and the phased load begins.
func (v *Viewer) SelectIndex(index int) {
	v.mu.Lock()
	if index < 0 || index >= len(v.sources) {
		v.mu.Unlock()
		return
	}
	src := v.sources[index]
	v.index = index

	v.sensor = nil
	v.settings = RawSettings{}
	if v.meta != nil {
		if s, ok := v.meta.Settings(src.Path); ok {
			v.settings = s
			v.sensor = s.Crop
		}
	}
	v.mu.Unlock()

	w, h := src.DisplaySize()
	v.view.SetImage(w, h)
	v.loader.Select(index)
}

// Updates returns the loader's result channel.
func (v *Viewer) Updates() <-chan loader.Update {
	return v.loader.Updates()
}

// Viewport returns the zoom/pan state for the viewer.
func (v *Viewer) Viewport() *viewport.Viewport {
	return v.view
}

// IsLoading reports whether the active selection still has phases running.
func (v *Viewer) IsLoading() bool {
	return v.loader.IsLoading()
}

// Selected returns the currently selected source, if any.
func (v *Viewer) Selected() (source.Image, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.index < 0 || v.index >= len(v.sources) {
		return source.Image{}, false
	}
	return v.sources[v.index], true
}

// DisplayCrop returns the active crop in display space for overlay
// rendering, or false when the image is uncropped.
func (v *Viewer) DisplayCrop() (geometry.RotatedCrop, bool) {
	v.mu.Lock()
	sensor := v.sensor
	v.mu.Unlock()
	src, ok := v.Selected()
	if !ok || sensor == nil {
		return geometry.RotatedCrop{}, false
	}
	return geometry.TransformedForDisplay(*sensor, src.Orientation), true
}

// CommitCropEdit stores an edited display-space crop: it is fitted so the
// rotated rectangle stays inside the image, converted to sensor space, and
// persisted through the metadata store. A full-frame crop clears the stored
// crop entirely.
func (v *Viewer) CommitCropEdit(display geometry.RotatedCrop) error {
	src, ok := v.Selected()
	if !ok {
		return nil
	}

	display.Angle = geometry.ClampAngle(display.Angle)
	display.Region = geometry.FittingRotated(display.Region, display.Angle, src.AspectRatio())
	sensor := geometry.TransformedForSensor(display, src.Orientation)

	v.mu.Lock()
	if sensor.IsFullFrame() {
		v.sensor = nil
		v.settings.Crop = nil
	} else {
		v.sensor = &sensor
		v.settings.Crop = &sensor
	}
	settings := v.settings
	meta := v.meta
	v.mu.Unlock()

	if meta != nil {
		return meta.SetSettings(src.Path, settings)
	}
	return nil
}

// Render produces the displayable image for the current state: the visible
// bitmap cropped to the display-space crop rectangle and run through the
// filter chain. Returns nil while nothing has been published yet.
func (v *Viewer) Render() image.Image {
	bmp := v.loader.Visible()
	if bmp == nil {
		return nil
	}
	img := bmp.Image

	if crop, ok := v.DisplayCrop(); ok {
		rect := crop.Region.PixelRect(bmp.Width, bmp.Height)
		if !rect.Empty() {
			img = imaging.Crop(img, rect)
		}
	}

	v.mu.Lock()
	filter := v.filter
	settings := v.settings
	v.mu.Unlock()
	if filter != nil {
		img = filter.Apply(img, settings)
	}
	return img
}

// MaybeRequestFullResolution asks the loader for the native-resolution
// rendition when the current zoom has outrun the decoded one. Call after
// zoom gestures.
func (v *Viewer) MaybeRequestFullResolution() {
	bmp := v.loader.Visible()
	if bmp == nil {
		return
	}
	if v.view.NeedsFullResolution(bmp.LongestEdge()) {
		v.loader.RequestFullResolution()
	}
}

// CacheStats returns the prefetch cache counters.
func (v *Viewer) CacheStats() prefetch.Stats {
	return v.cache.Stats()
}

// Close cancels the active load session and all prefetch tasks.
func (v *Viewer) Close() {
	v.loader.Close()
}

// GetVersion returns the library version.
func GetVersion() string {
	return Version
}
