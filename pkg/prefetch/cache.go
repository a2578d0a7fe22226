// Package prefetch keeps a small window of fully decoded images around the
// current navigation position and warms the neighbors in the direction of
// travel, so sequential browsing almost always hits the cache.
package prefetch

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/aagedal/photo-pipeline/pkg/decode"
	"github.com/aagedal/photo-pipeline/pkg/source"
)

// Direction is the detected navigation direction, derived from consecutive
// selection indexes.
type Direction int

// Navigation directions.
const (
	DirectionNone Direction = iota
	DirectionForward
	DirectionBackward
)

// DetectDirection compares the previous and current selection index.
func DetectDirection(prev, current int) Direction {
	switch {
	case prev < 0 || prev == current:
		return DirectionNone
	case current > prev:
		return DirectionForward
	default:
		return DirectionBackward
	}
}

// Config controls the cache window and warm-ahead behavior.
type Config struct {
	// Capacity is the number of decoded images kept. Entries farthest from
	// the current navigation position are evicted first.
	Capacity int

	// WarmCount is how many upcoming sources are decoded ahead in the
	// direction of travel.
	WarmCount int

	// TargetMaxDim is the longest-edge pixel budget for prefetch decodes,
	// normally the backing-store screen resolution.
	TargetMaxDim int
}

// DefaultConfig covers "current plus or minus a few" images.
func DefaultConfig() Config {
	return Config{Capacity: 5, WarmCount: 2, TargetMaxDim: 2560}
}

// Stats counts cache activity since creation.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Joins     uint64 // requests that joined an in-flight decode
}

type entry struct {
	bitmap   *decode.Bitmap
	lastUsed uint64
}

// Cache is a bounded store of decoded images keyed by source identity. All
// mutations are serialized through one mutex; concurrent decodes for the
// same identity are collapsed into a single flight.
type Cache struct {
	dec decode.Decoder
	cfg Config

	flight singleflight.Group

	mu       sync.Mutex
	entries  map[string]*entry
	position map[string]int // identity -> index in the current ordered list
	current  int            // current navigation index
	order    uint64
	inflight map[string]context.CancelFunc // outstanding prefetch tasks
	closed   bool
	stats    Stats
}

// NewCache creates a cache decoding through dec with the given config.
func NewCache(dec decode.Decoder, cfg Config) *Cache {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultConfig().Capacity
	}
	if cfg.WarmCount <= 0 {
		cfg.WarmCount = DefaultConfig().WarmCount
	}
	return &Cache{
		dec:      dec,
		cfg:      cfg,
		entries:  make(map[string]*entry),
		position: make(map[string]int),
		current:  -1,
		inflight: make(map[string]context.CancelFunc),
	}
}

// Get returns the cached bitmap for the identity, if present.
func (c *Cache) Get(identity string) (*decode.Bitmap, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[identity]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.order++
	e.lastUsed = c.order
	c.stats.Hits++
	return e.bitmap, true
}

// Put stores a decoded bitmap, evicting the entry farthest from the current
// navigation position when over capacity.
func (c *Cache) Put(identity string, bmp *decode.Bitmap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(identity, bmp)
}

func (c *Cache) put(identity string, bmp *decode.Bitmap) {
	c.order++
	if e, ok := c.entries[identity]; ok {
		e.bitmap = bmp
		e.lastUsed = c.order
		return
	}
	for len(c.entries) >= c.cfg.Capacity {
		c.evictFarthest()
	}
	c.entries[identity] = &entry{bitmap: bmp, lastUsed: c.order}
}

// evictFarthest removes the entry whose source index is farthest from the
// current navigation position, falling back to least-recently-used order
// for entries with no known position. Distance-based eviction keeps
// "looking back" cheap after the window has scrolled.
func (c *Cache) evictFarthest() {
	victim := ""
	victimDist := -1
	var victimUsed uint64

	for id, e := range c.entries {
		dist := len(c.entries) + 1 // unknown position sorts behind everything known
		if pos, ok := c.position[id]; ok && c.current >= 0 {
			dist = pos - c.current
			if dist < 0 {
				dist = -dist
			}
		}
		if dist > victimDist || (dist == victimDist && e.lastUsed < victimUsed) {
			victim, victimDist, victimUsed = id, dist, e.lastUsed
		}
	}
	if victim != "" {
		delete(c.entries, victim)
		c.stats.Evictions++
	}
}

// GetOrDecode returns the cached bitmap or decodes it at the prefetch pixel
// budget. Concurrent requests for the same identity share one decode.
func (c *Cache) GetOrDecode(ctx context.Context, src source.Image) (*decode.Bitmap, error) {
	if bmp, ok := c.Get(src.Identity()); ok {
		return bmp, nil
	}

	v, err, shared := c.flight.Do(src.Identity(), func() (any, error) {
		// A waiter may have populated the cache while we queued.
		if bmp, ok := c.Get(src.Identity()); ok {
			return bmp, nil
		}
		bmp, err := c.dec.Decode(ctx, src.Path, c.cfg.TargetMaxDim)
		if err != nil {
			return nil, err
		}
		c.Put(src.Identity(), bmp)
		return bmp, nil
	})
	if shared {
		c.mu.Lock()
		c.stats.Joins++
		c.mu.Unlock()
	}
	if err != nil {
		return nil, err
	}
	return v.(*decode.Bitmap), nil
}

// WarmAhead records the current navigation position and schedules
// background decodes for the next sources in the direction of travel.
// Prefetch tasks for sources outside the predicted window are cancelled.
func (c *Cache) WarmAhead(sources []source.Image, index int, dir Direction) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.position = make(map[string]int, len(sources))
	for i, s := range sources {
		c.position[s.Identity()] = i
	}
	c.current = index

	targets := predictWindow(sources, index, dir, c.cfg.WarmCount)
	wanted := make(map[string]source.Image, len(targets))
	for _, s := range targets {
		wanted[s.Identity()] = s
	}

	// Cancel prefetches that left the predicted window.
	for id, cancel := range c.inflight {
		if _, ok := wanted[id]; !ok {
			cancel()
			delete(c.inflight, id)
		}
	}

	for id, s := range wanted {
		if _, cached := c.entries[id]; cached {
			continue
		}
		if _, running := c.inflight[id]; running {
			continue
		}
		ctx, cancel := context.WithCancel(context.Background())
		c.inflight[id] = cancel
		go c.warm(ctx, s)
	}
	c.mu.Unlock()
}

func (c *Cache) warm(ctx context.Context, src source.Image) {
	defer func() {
		c.mu.Lock()
		if cancel, ok := c.inflight[src.Identity()]; ok {
			cancel()
			delete(c.inflight, src.Identity())
		}
		c.mu.Unlock()
	}()

	// Failures are dropped: a prefetch miss just means the foreground
	// loader decodes on demand later.
	_, _ = c.GetOrDecode(ctx, src)
}

// predictWindow picks up to count sources adjacent to index in the given
// direction. With no direction, one neighbor on each side is predicted.
func predictWindow(sources []source.Image, index int, dir Direction, count int) []source.Image {
	var out []source.Image
	add := func(i int) {
		if i >= 0 && i < len(sources) {
			out = append(out, sources[i])
		}
	}
	switch dir {
	case DirectionForward:
		for i := 1; i <= count; i++ {
			add(index + i)
		}
	case DirectionBackward:
		for i := 1; i <= count; i++ {
			add(index - i)
		}
	default:
		add(index + 1)
		add(index - 1)
	}
	return out
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Close cancels all outstanding prefetch tasks. The cache ignores WarmAhead
// calls afterwards; Get and Put remain usable.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	for id, cancel := range c.inflight {
		cancel()
		delete(c.inflight, id)
	}
}
