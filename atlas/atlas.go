// Package atlas packs decoded sprites into one fixed-capacity grid texture.
//
// Cells are handed out by a ring cursor. When the cursor wraps onto an
// occupied cell the occupant is evicted, so eviction follows insertion order
// and ignores how recently a sprite was used.
package atlas

import (
	"errors"
	"fmt"
	"image"
	"log"
	"math"

	"github.com/dustin/go-humanize"

	"tilecore/gfx"
	"tilecore/spr"
)

// Decoder produces non-premultiplied RGBA sprite pixels. The returned slice
// may be reused by the next call.
type Decoder interface {
	Decode(id uint32) ([]byte, error)
}

// Config sizes the atlas.
type Config struct {
	// Capacity is the number of cells.
	Capacity int
	// SpriteSize is the edge of one sprite in pixels.
	SpriteSize int
	// Border is the transparent padding on each side of a cell.
	Border int
	// Logf receives decode failures. Nil means log.Printf.
	Logf func(format string, args ...any)
}

func DefaultConfig() Config {
	return Config{Capacity: 4096, SpriteSize: spr.Size, Border: 1}
}

var (
	ErrCapacity = errors.New("atlas: capacity must be positive")
	ErrTooLarge = errors.New("atlas: texture exceeds device limit")
)

// Stats are cumulative cache counters.
type Stats struct {
	Hits      int
	Misses    int
	Decodes   int
	Evictions int
	Failures  int
	Live      int
	Capacity  int
}

// key identifies a cell's content. Plain sprites leave mask and outfit zero.
// The zero key marks an empty cell.
type key struct {
	id     uint32
	mask   uint32
	outfit spr.Outfit
}

// Cache maps sprite ids to atlas cells. It is not safe for concurrent use.
type Cache struct {
	dev     gfx.Device
	src     Decoder
	logf    func(string, ...any)
	surface gfx.Surface

	capacity int
	side     int
	sprite   int
	border   int
	cellPx   int

	idToCell map[key]int
	cellKey  []key
	views    []gfx.Texture
	cursor   int

	staging []byte
	scratch []byte
	failed  map[key]struct{}

	stats Stats
}

// New allocates the atlas surface on dev.
func New(dev gfx.Device, src Decoder, cfg Config) (*Cache, error) {
	if cfg.Capacity <= 0 {
		return nil, ErrCapacity
	}
	if cfg.SpriteSize <= 0 {
		cfg.SpriteSize = spr.Size
	}
	if cfg.Border < 0 {
		cfg.Border = 0
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}
	side := int(math.Ceil(math.Sqrt(float64(cfg.Capacity))))
	cellPx := cfg.SpriteSize + 2*cfg.Border
	if edge := side * cellPx; edge > dev.MaxTextureSize() {
		return nil, fmt.Errorf("%w: %dx%d > %d", ErrTooLarge, edge, edge, dev.MaxTextureSize())
	}
	c := &Cache{
		dev:      dev,
		src:      src,
		logf:     cfg.Logf,
		capacity: cfg.Capacity,
		side:     side,
		sprite:   cfg.SpriteSize,
		border:   cfg.Border,
		cellPx:   cellPx,
		idToCell: make(map[key]int, cfg.Capacity),
		cellKey:  make([]key, cfg.Capacity),
		views:    make([]gfx.Texture, cfg.Capacity),
		staging:  make([]byte, cellPx*cellPx*4),
		scratch:  make([]byte, cfg.SpriteSize*cfg.SpriteSize*4),
		failed:   make(map[key]struct{}),
	}
	c.surface = dev.NewSurface(side*cellPx, side*cellPx)
	c.stats.Capacity = cfg.Capacity
	return c, nil
}

// Get returns the texture for sprite id, decoding it on a miss. It returns
// nil for id 0 and for sprites that cannot be decoded.
func (c *Cache) Get(id uint32) gfx.Texture {
	if id == 0 {
		return nil
	}
	k := key{id: id}
	if cell, ok := c.idToCell[k]; ok {
		c.stats.Hits++
		return c.views[cell]
	}
	c.stats.Misses++
	cell := c.reserveCell(k)
	c.stats.Decodes++
	pix, err := c.src.Decode(id)
	if err != nil {
		c.fail(k, cell, err)
		return nil
	}
	return c.store(cell, pix)
}

// GetOutfit returns base recolored through mask with outfit o. Composed
// sprites share cells and eviction with plain ones. A zero mask is the same
// as Get(base).
func (c *Cache) GetOutfit(base, mask uint32, o spr.Outfit) gfx.Texture {
	if mask == 0 {
		return c.Get(base)
	}
	if base == 0 {
		return nil
	}
	k := key{id: base, mask: mask, outfit: o}
	if cell, ok := c.idToCell[k]; ok {
		c.stats.Hits++
		return c.views[cell]
	}
	c.stats.Misses++
	cell := c.reserveCell(k)
	c.stats.Decodes++
	pix, err := c.src.Decode(base)
	if err != nil {
		c.fail(k, cell, err)
		return nil
	}
	copy(c.scratch, pix)
	c.stats.Decodes++
	maskPix, err := c.src.Decode(mask)
	if err != nil {
		c.fail(k, cell, err)
		return nil
	}
	spr.Colorize(c.scratch, maskPix, o)
	return c.store(cell, c.scratch)
}

// Has reports whether id is resident without touching any counter.
func (c *Cache) Has(id uint32) bool {
	_, ok := c.idToCell[key{id: id}]
	return ok
}

// reserveCell claims the cell under the cursor for k, evicting its previous
// occupant, and advances the cursor.
func (c *Cache) reserveCell(k key) int {
	cell := c.cursor
	if old := c.cellKey[cell]; old != (key{}) {
		if v := c.views[cell]; v != nil {
			v.Dispose()
			c.views[cell] = nil
		}
		delete(c.idToCell, old)
		c.stats.Evictions++
	}
	c.cellKey[cell] = k
	c.idToCell[k] = cell
	c.cursor = (c.cursor + 1) % c.capacity
	return cell
}

func (c *Cache) fail(k key, cell int, err error) {
	delete(c.idToCell, k)
	c.cellKey[cell] = key{}
	c.stats.Failures++
	if _, seen := c.failed[k]; seen {
		return
	}
	c.failed[k] = struct{}{}
	c.logf("atlas: sprite %d: %v", k.id, err)
}

// store blits pix into the staging cell, uploads it and records the view.
func (c *Cache) store(cell int, pix []byte) gfx.Texture {
	stride := c.cellPx * 4
	for y := 0; y < c.sprite; y++ {
		dst := c.staging[(y+c.border)*stride+c.border*4:]
		src := pix[y*c.sprite*4 : (y+1)*c.sprite*4]
		for i := 0; i < len(src); i += 4 {
			a := src[i+3]
			// Textures hold premultiplied alpha.
			dst[i] = uint8(int(src[i]) * int(a) / 255)
			dst[i+1] = uint8(int(src[i+1]) * int(a) / 255)
			dst[i+2] = uint8(int(src[i+2]) * int(a) / 255)
			dst[i+3] = a
		}
	}
	r := c.cellRect(cell)
	c.surface.WritePixels(c.staging, r)
	v := c.surface.View(r.Inset(c.border))
	c.views[cell] = v
	return v
}

func (c *Cache) cellRect(cell int) image.Rectangle {
	x := (cell % c.side) * c.cellPx
	y := (cell / c.side) * c.cellPx
	return image.Rect(x, y, x+c.cellPx, y+c.cellPx)
}

// Texture returns the atlas surface all views are cut from.
func (c *Cache) Texture() gfx.Texture { return c.surface }

func (c *Cache) Stats() Stats {
	s := c.stats
	s.Live = len(c.idToCell)
	return s
}

// FillRatio formats live cells over capacity, e.g. "12/4096 (0.3%)".
func (c *Cache) FillRatio() string {
	live := len(c.idToCell)
	return fmt.Sprintf("%d/%d (%.1f%%)", live, c.capacity, 100*float64(live)/float64(c.capacity))
}

// Summary is a one-line report for logs and overlays.
func (c *Cache) Summary() string {
	s := c.Stats()
	edge := c.side * c.cellPx
	return fmt.Sprintf("atlas %dx%d (%s): %s live, %s hits, %s misses, %s evictions, %s failures",
		edge, edge, humanize.Bytes(uint64(edge*edge*4)),
		c.FillRatio(), humanize.Comma(int64(s.Hits)), humanize.Comma(int64(s.Misses)),
		humanize.Comma(int64(s.Evictions)), humanize.Comma(int64(s.Failures)))
}

// Clear drops every cell and resets the cursor. Counters are kept.
func (c *Cache) Clear() {
	for i, v := range c.views {
		if v != nil {
			v.Dispose()
			c.views[i] = nil
		}
		c.cellKey[i] = key{}
	}
	clear(c.idToCell)
	clear(c.failed)
	c.cursor = 0
}

// Close clears the cache and releases the atlas surface.
func (c *Cache) Close() {
	c.Clear()
	c.surface.Dispose()
}
