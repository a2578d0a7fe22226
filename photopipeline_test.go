package photopipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aagedal/photo-pipeline/pkg/decode"
	"github.com/aagedal/photo-pipeline/pkg/geometry"
	"github.com/aagedal/photo-pipeline/pkg/loader"
	"github.com/aagedal/photo-pipeline/pkg/prefetch"
	"github.com/aagedal/photo-pipeline/pkg/viewport"
)

// createTestImage creates a gradient test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 255 / width), uint8(y * 255 / height), 96, 255})
		}
	}
	return img
}

func writeTestLibrary(t *testing.T, n int) []string {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, n)
	for i := range paths {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, createTestImage(640, 480), &jpeg.Options{Quality: 85}); err != nil {
			t.Fatalf("encoding test image: %v", err)
		}
		paths[i] = filepath.Join(dir, "img_"+string(rune('a'+i))+".jpg")
		if err := os.WriteFile(paths[i], buf.Bytes(), 0o644); err != nil {
			t.Fatalf("writing test image: %v", err)
		}
	}
	return paths
}

func newTestViewer(t *testing.T, paths []string) *Viewer {
	t.Helper()
	v := NewWithConfig(
		decode.NewFileDecoder(),
		loader.Config{ScreenWidth: 320, ScreenHeight: 200, BackingScale: 2.0},
		prefetch.Config{Capacity: 5, WarmCount: 2},
	)
	v.SetSources(ProbeSources(context.Background(), decode.NewFileDecoder(), paths))
	return v
}

func waitSettled(t *testing.T, v *Viewer) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if !v.IsLoading() && v.Render() != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("viewer did not settle")
}

// memStore is an in-memory metadata store.
type memStore struct {
	settings map[string]RawSettings
}

func newMemStore() *memStore {
	return &memStore{settings: make(map[string]RawSettings)}
}

func (m *memStore) Settings(path string) (RawSettings, bool) {
	s, ok := m.settings[path]
	return s, ok
}

func (m *memStore) SetSettings(path string, s RawSettings) error {
	m.settings[path] = s
	return nil
}

// countingFilter records how many times the adjustment chain ran.
type countingFilter struct {
	applied int
}

func (f *countingFilter) Apply(img image.Image, settings RawSettings) image.Image {
	f.applied++
	return img
}

func TestViewerDeliversSelection(t *testing.T) {
	paths := writeTestLibrary(t, 3)
	v := newTestViewer(t, paths)
	defer v.Close()

	v.SelectIndex(0)
	waitSettled(t, v)

	src, ok := v.Selected()
	if !ok || src.Path != paths[0] {
		t.Fatalf("Selected = %+v, want %s", src, paths[0])
	}
	if img := v.Render(); img == nil {
		t.Fatal("Render returned nil after the session settled")
	}
	if src.NativeWidth != 640 || src.NativeHeight != 480 {
		t.Errorf("probed dimensions = %dx%d, want 640x480", src.NativeWidth, src.NativeHeight)
	}
}

func TestViewerSequentialNavigationHitsCache(t *testing.T) {
	paths := writeTestLibrary(t, 4)
	v := newTestViewer(t, paths)
	defer v.Close()

	v.SelectIndex(0)
	waitSettled(t, v)
	v.SelectIndex(1)
	waitSettled(t, v)

	// Give the forward prefetch time to warm index 2, then navigate into it.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := v.cache.Get(paths[2]); ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	before := v.CacheStats()
	v.SelectIndex(2)
	waitSettled(t, v)
	after := v.CacheStats()

	if after.Hits <= before.Hits {
		t.Errorf("navigation into the warmed window missed the cache: %+v -> %+v", before, after)
	}
}

func TestCommitCropEditRoundTrip(t *testing.T) {
	paths := writeTestLibrary(t, 1)
	v := newTestViewer(t, paths)
	defer v.Close()

	store := newMemStore()
	v.SetMetadataStore(store)

	v.SelectIndex(0)
	waitSettled(t, v)

	edit := geometry.RotatedCrop{
		Region: geometry.Region{Top: 0.2, Left: 0.2, Bottom: 0.8, Right: 0.8},
		Angle:  5,
	}
	if err := v.CommitCropEdit(edit); err != nil {
		t.Fatalf("CommitCropEdit failed: %v", err)
	}

	persisted, ok := store.Settings(paths[0])
	if !ok || persisted.Crop == nil {
		t.Fatal("crop was not persisted")
	}

	display, ok := v.DisplayCrop()
	if !ok {
		t.Fatal("DisplayCrop unavailable after commit")
	}
	if display.Angle != edit.Angle {
		t.Errorf("display angle = %f, want %f", display.Angle, edit.Angle)
	}
}

func TestCommitFullFrameCropClears(t *testing.T) {
	paths := writeTestLibrary(t, 1)
	v := newTestViewer(t, paths)
	defer v.Close()

	store := newMemStore()
	v.SetMetadataStore(store)
	v.SelectIndex(0)
	waitSettled(t, v)

	if err := v.CommitCropEdit(geometry.RotatedCrop{Region: geometry.FullFrame}); err != nil {
		t.Fatalf("CommitCropEdit failed: %v", err)
	}
	if _, ok := v.DisplayCrop(); ok {
		t.Error("full-frame commit should clear the active crop")
	}
	if s, _ := store.Settings(paths[0]); s.Crop != nil {
		t.Error("full-frame commit should persist a nil crop")
	}
}

func TestRenderAppliesCropAndFilter(t *testing.T) {
	paths := writeTestLibrary(t, 1)
	v := newTestViewer(t, paths)
	defer v.Close()

	filter := &countingFilter{}
	v.SetFilterChain(filter)
	v.SetMetadataStore(newMemStore())

	v.SelectIndex(0)
	waitSettled(t, v)

	full := v.Render()
	fullW := full.Bounds().Dx()

	if err := v.CommitCropEdit(geometry.RotatedCrop{
		Region: geometry.Region{Top: 0.25, Left: 0.25, Bottom: 0.75, Right: 0.75},
	}); err != nil {
		t.Fatalf("CommitCropEdit failed: %v", err)
	}

	cropped := v.Render()
	if got := cropped.Bounds().Dx(); got >= fullW {
		t.Errorf("cropped render width %d not smaller than full render %d", got, fullW)
	}
	if filter.applied == 0 {
		t.Error("filter chain was never applied")
	}
}

func TestMaybeRequestFullResolution(t *testing.T) {
	paths := writeTestLibrary(t, 1)

	// A tiny screen forces the canonical rendition well below native size.
	v := NewWithConfig(
		decode.NewFileDecoder(),
		loader.Config{ScreenWidth: 100, ScreenHeight: 60, BackingScale: 2.0},
		prefetch.Config{Capacity: 3, WarmCount: 1},
	)
	defer v.Close()
	v.SetSources(ProbeSources(context.Background(), decode.NewFileDecoder(), paths))

	v.SelectIndex(0)
	waitSettled(t, v)

	if got := v.Render().Bounds().Dx(); got >= 640 {
		t.Fatalf("canonical rendition is %dpx wide, expected a downsample", got)
	}

	// At fit scale the screen rendition suffices.
	v.MaybeRequestFullResolution()
	time.Sleep(50 * time.Millisecond)
	if got := v.Render().Bounds().Dx(); got >= 640 {
		t.Fatal("full resolution decoded without zooming past the rendition")
	}

	// Zoom far past the decoded rendition and ask again.
	v.Viewport().SetScale(6, viewport.Point{})
	v.MaybeRequestFullResolution()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if v.Render().Bounds().Dx() == 640 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("zooming past the rendition never delivered the native decode")
}
