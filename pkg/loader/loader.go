// Package loader drives the phased delivery of the selected image: cache
// hit, instant placeholder, preview, screen-resolution decode, and an
// on-demand full-resolution decode. One session is active at a time;
// selecting a different image cancels the previous session and stale
// results are discarded no matter when they arrive.
package loader

import (
	"context"
	"errors"
	"image"
	"math"
	"sync"

	"golang.org/x/image/draw"

	"github.com/aagedal/photo-pipeline/pkg/decode"
	"github.com/aagedal/photo-pipeline/pkg/prefetch"
	"github.com/aagedal/photo-pipeline/pkg/source"
)

// Phase identifies one tier of the progressive load sequence.
type Phase int

// Load phases, in the order results are applied.
const (
	PhaseIdle Phase = iota
	PhaseCacheHit
	PhasePlaceholder
	PhasePreview // embedded preview (RAW) or logical-resolution first pass
	PhaseScreenResolution
	PhaseFullResolution
)

// String returns the phase name for logs.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCacheHit:
		return "cache-hit"
	case PhasePlaceholder:
		return "placeholder"
	case PhasePreview:
		return "preview"
	case PhaseScreenResolution:
		return "screen-resolution"
	case PhaseFullResolution:
		return "full-resolution"
	}
	return "unknown"
}

// Update is one published load result. A nil Bitmap with Final set means the
// phase failed and the previously published rendition should stay on screen.
// Err is set only for a vanished source file.
type Update struct {
	Source source.Image
	Phase  Phase
	Bitmap *decode.Bitmap
	Final  bool
	Err    error
}

// ThumbnailProvider supplies an already-available low-res thumbnail with no
// I/O, used as the instant placeholder on a cache miss. Implementations
// return nil when no thumbnail is at hand.
type ThumbnailProvider interface {
	Thumbnail(path string) image.Image
}

// Config holds the screen geometry the loader sizes its decodes for.
type Config struct {
	// ScreenWidth and ScreenHeight are the logical (non-Retina) viewport
	// dimensions in points.
	ScreenWidth  int
	ScreenHeight int

	// BackingScale is the display's backing-store scale factor.
	BackingScale float64
}

// DefaultConfig targets a 1920x1200 logical viewport on a 2x display.
func DefaultConfig() Config {
	return Config{ScreenWidth: 1920, ScreenHeight: 1200, BackingScale: 2.0}
}

// LogicalTarget returns the longest-edge budget for the fast first decode.
func (c Config) LogicalTarget() int {
	if c.ScreenWidth > c.ScreenHeight {
		return c.ScreenWidth
	}
	return c.ScreenHeight
}

// BackingTarget returns the longest-edge budget for the canonical decode.
func (c Config) BackingTarget() int {
	scale := c.BackingScale
	if scale < 1 {
		scale = 1
	}
	return int(float64(c.LogicalTarget()) * scale)
}

// Loader runs one load session per selected image. Results are applied under
// a single lock and mirrored to the Updates channel; completions carry the
// generation they were issued under and are rejected once it is stale.
type Loader struct {
	dec    decode.Decoder
	cache  *prefetch.Cache
	cfg    Config
	thumbs ThumbnailProvider

	updates chan Update

	mu            sync.Mutex
	gen           uint64
	sources       []source.Image
	index         int
	src           source.Image
	ctx           context.Context
	cancel        context.CancelFunc
	loading       bool
	fullRequested bool
	latest        Update
	visible       *decode.Bitmap
}

// NewLoader creates a loader decoding through dec and committing canonical
// results to cache.
func NewLoader(dec decode.Decoder, cache *prefetch.Cache, cfg Config) *Loader {
	if cfg.LogicalTarget() <= 0 {
		cfg = DefaultConfig()
	}
	return &Loader{
		dec:     dec,
		cache:   cache,
		cfg:     cfg,
		updates: make(chan Update, 64),
		index:   -1,
	}
}

// SetThumbnailProvider installs the zero-I/O placeholder source.
func (l *Loader) SetThumbnailProvider(p ThumbnailProvider) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.thumbs = p
}

// SetSources hands the loader the full ordered list of visible images,
// which it forwards to the prefetch cache on every selection.
func (l *Loader) SetSources(sources []source.Image) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sources = sources
}

// Updates returns the channel load results are mirrored to. The buffer is
// generous but consumers that stop draining may miss notifications; the
// authoritative state is always available from Current.
func (l *Loader) Updates() <-chan Update {
	return l.updates
}

// Current returns the most recent update accepted for the active selection.
func (l *Loader) Current() Update {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.latest
}

// Visible returns the bitmap currently on screen. It survives selection
// changes and failed phases so the view is never blanked.
func (l *Loader) Visible() *decode.Bitmap {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.visible
}

// IsLoading reports whether the active session still has phases in flight.
func (l *Loader) IsLoading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Select starts a load session for the source at index in the current
// source list. Any previous session is cancelled unconditionally.
func (l *Loader) Select(index int) {
	l.mu.Lock()
	if index < 0 || index >= len(l.sources) {
		l.mu.Unlock()
		return
	}
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	gen := l.gen
	prev := l.index
	l.index = index
	src := l.sources[index]
	l.src = src
	l.fullRequested = false
	l.loading = true
	l.latest = Update{Source: src, Phase: PhaseIdle}
	ctx, cancel := context.WithCancel(context.Background())
	l.ctx, l.cancel = ctx, cancel
	sources := l.sources
	thumbs := l.thumbs
	l.mu.Unlock()

	dir := prefetch.DetectDirection(prev, index)

	// Fast path: already decoded for this identity.
	if bmp, ok := l.cache.Get(src.Identity()); ok {
		l.apply(gen, Update{Source: src, Phase: PhaseCacheHit, Bitmap: bmp, Final: true})
		l.settle(gen)
		l.cache.WarmAhead(sources, index, dir)
		return
	}

	// Instant placeholder so the frame is never blank while phases run.
	if thumbs != nil {
		if th := thumbs.Thumbnail(src.Path); th != nil {
			l.apply(gen, Update{Source: src, Phase: PhasePlaceholder, Bitmap: l.placeholderBitmap(th, src)})
		}
	}

	go l.runPhases(ctx, gen, src, sources, index, dir)
}

// placeholderBitmap stretches the thumbnail to the image's fitted logical
// size, so the placeholder frame already has the final on-screen geometry.
// Dropped when the display size is unknown.
func (l *Loader) placeholderBitmap(th image.Image, src source.Image) *decode.Bitmap {
	b := th.Bounds()
	w, h := src.DisplaySize()
	if w <= 0 || h <= 0 {
		return decode.NewBitmap(th, src.Identity())
	}

	s := math.Min(float64(l.cfg.ScreenWidth)/float64(w), float64(l.cfg.ScreenHeight)/float64(h))
	fw, fh := int(float64(w)*s+0.5), int(float64(h)*s+0.5)
	if fw <= 0 || fh <= 0 || (fw == b.Dx() && fh == b.Dy()) {
		return decode.NewBitmap(th, src.Identity())
	}

	dst := image.NewRGBA(image.Rect(0, 0, fw, fh))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), th, b, draw.Src, nil)
	return decode.NewBitmap(dst, src.Identity())
}

// runPhases walks the progressive decode tiers for one session. Each phase
// checks for cancellation at its boundary and results are applied only while
// the session generation is still current.
func (l *Loader) runPhases(ctx context.Context, gen uint64, src source.Image, sources []source.Image, index int, dir prefetch.Direction) {
	if src.IsRAW() {
		// RAW: the embedded rendition is far cheaper than demosaicing.
		if bmp, err := l.dec.EmbeddedPreview(ctx, src.Path); err == nil {
			l.apply(gen, Update{Source: src, Phase: PhasePreview, Bitmap: bmp})
		} else if ctx.Err() != nil {
			return
		}
	} else {
		// Non-RAW: a logical-resolution decode is the fast first rendition.
		if bmp, err := l.dec.Decode(ctx, src.Path, l.cfg.LogicalTarget()); err == nil {
			l.apply(gen, Update{Source: src, Phase: PhasePreview, Bitmap: bmp})
		} else if ctx.Err() != nil {
			return
		}
	}
	if ctx.Err() != nil {
		return
	}

	// Canonical tier: backing-store resolution, shared with the prefetch
	// cache through its single-flight group.
	bmp, err := l.cache.GetOrDecode(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		u := Update{Source: src, Phase: PhaseScreenResolution, Final: true}
		if errors.Is(err, decode.ErrMissingSource) {
			u.Err = err
		}
		// Decode failure keeps the previously published rendition.
		l.apply(gen, u)
		l.settle(gen)
		return
	}

	l.apply(gen, Update{Source: src, Phase: PhaseScreenResolution, Bitmap: bmp, Final: true})
	l.settle(gen)
	l.cache.WarmAhead(sources, index, dir)
}

// RequestFullResolution lazily decodes the native resolution, once per
// session, for when the user zooms past the screen-resolution rendition's
// pixels. No-op while no session is active.
func (l *Loader) RequestFullResolution() {
	l.mu.Lock()
	if l.cancel == nil || l.fullRequested {
		l.mu.Unlock()
		return
	}
	l.fullRequested = true
	gen := l.gen
	src := l.src
	ctx := l.ctx
	l.loading = true
	l.mu.Unlock()

	go func() {
		bmp, err := l.dec.Decode(ctx, src.Path, 0)
		if err != nil {
			if ctx.Err() == nil {
				l.settle(gen)
			}
			return
		}
		l.apply(gen, Update{Source: src, Phase: PhaseFullResolution, Bitmap: bmp, Final: true})
		l.settle(gen)
	}()
}

// apply commits an update if its generation is still current and mirrors it
// to the updates channel. Stale completions are dropped: last selection wins,
// not last task to finish. The send happens under the same lock as the
// generation check, so once a newer selection lands no update from the old
// session can reach the channel.
func (l *Loader) apply(gen uint64, u Update) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen {
		return
	}
	if u.Bitmap != nil || u.Final || u.Err != nil {
		l.latest = u
	}
	if u.Bitmap != nil {
		l.visible = u.Bitmap
	}

	select {
	case l.updates <- u:
	default:
	}
}

// settle clears the loading flag for the given generation.
func (l *Loader) settle(gen uint64) {
	l.mu.Lock()
	if gen == l.gen {
		l.loading = false
	}
	l.mu.Unlock()
}

// Close cancels the active session and all outstanding prefetch tasks.
func (l *Loader) Close() {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()
	l.cache.Close()
}
