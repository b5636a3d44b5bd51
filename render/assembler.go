package render

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"golang.org/x/time/rate"

	"tilecore/gfx"
)

// Config sizes the viewport and the primitive pool.
type Config struct {
	Columns  int
	Rows     int
	TileSize int
	// LayersPerCell bounds the primitives budgeted per screen cell.
	LayersPerCell int
	// CreatureDisplacement shifts creatures up and left, in tiles.
	CreatureDisplacement float64
	Lighting             Lighting
	// Logf receives throttled pool warnings. Nil means log.Printf.
	Logf func(format string, args ...any)
	// Now drives animations. Nil means time.Now.
	Now func() time.Time
}

func DefaultConfig() Config {
	return Config{
		Columns:              27,
		Rows:                 13,
		TileSize:             32,
		LayersPerCell:        50,
		CreatureDisplacement: 0.25,
		Lighting:             DefaultLighting(),
	}
}

// PoolSize covers the viewport plus the partly visible edge row and column.
func (c Config) PoolSize() int {
	return (c.Columns + 1) * (c.Rows + 1) * c.LayersPerCell
}

func (c Config) validate() error {
	if c.Columns <= 0 || c.Rows <= 0 || c.TileSize <= 0 || c.LayersPerCell <= 0 {
		return fmt.Errorf("render: invalid viewport %dx%d tile %d layers %d",
			c.Columns, c.Rows, c.TileSize, c.LayersPerCell)
	}
	return nil
}

// Deps are the collaborators read during a frame. Hover is optional.
type Deps struct {
	Tiles   TileProvider
	Player  Player
	Sprites SpriteSource
	Hover   Hover
}

var ErrMissingDep = errors.New("render: missing dependency")

// FrameStats describe the last frame.
type FrameStats struct {
	DrawCalls       int
	Batches         int
	TextureSwitches int
	Dropped         int
	AssembleTime    time.Duration
}

// Totals accumulate over all frames.
type Totals struct {
	Frames       int
	DrawCalls    int
	Dropped      int
	AssembleTime time.Duration
}

var shortUnits, _ = durafmt.DefaultUnitsCoder.Decode("y:yrs,wk:wks,d:d,h:h,m:m,s:s,ms:ms,us:us")

func (t Totals) String() string {
	avg := time.Duration(0)
	if t.Frames > 0 {
		avg = t.AssembleTime / time.Duration(t.Frames)
	}
	return fmt.Sprintf("%s frames, %s draws, %s dropped, assembling %s (avg %s)",
		humanize.Comma(int64(t.Frames)), humanize.Comma(int64(t.DrawCalls)),
		humanize.Comma(int64(t.Dropped)),
		durafmt.Parse(t.AssembleTime).LimitFirstN(2).Format(shortUnits), avg)
}

type deferredCreature struct {
	pos   Position
	c     Creature
	drawn bool
}

// Assembler builds the primitive list for one frame at a time.
type Assembler struct {
	cfg     Config
	proj    Projector
	tiles   *TileCache
	player  Player
	sprites SpriteSource
	outfits OutfitSource
	hover   Hover

	batcher  *Batcher
	pool     *Pool
	deferred []deferredCreature
	distance [MaxFloors][]*DistanceEffect
	warn     *rate.Limiter

	now    time.Time
	stats  FrameStats
	totals Totals

	lastKey uint32
	flushed bool
}

func NewAssembler(cfg Config, deps Deps) (*Assembler, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	switch {
	case deps.Tiles == nil:
		return nil, fmt.Errorf("%w: tiles", ErrMissingDep)
	case deps.Player == nil:
		return nil, fmt.Errorf("%w: player", ErrMissingDep)
	case deps.Sprites == nil:
		return nil, fmt.Errorf("%w: sprites", ErrMissingDep)
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	a := &Assembler{
		cfg:     cfg,
		proj:    Projector{Columns: cfg.Columns, Rows: cfg.Rows, Player: deps.Player},
		tiles:   NewTileCache(deps.Tiles),
		player:  deps.Player,
		sprites: deps.Sprites,
		hover:   deps.Hover,
		batcher: NewBatcher(),
		pool:    NewPool(cfg.PoolSize()),
		warn:    rate.NewLimiter(rate.Every(5*time.Second), 1),
	}
	a.outfits, _ = deps.Sprites.(OutfitSource)
	return a, nil
}

// Projector returns the projector used for placement.
func (a *Assembler) Projector() Projector { return a.proj }

// InvalidateTiles makes the next frame refetch the visible tiles.
func (a *Assembler) InvalidateTiles() { a.tiles.Invalidate() }

// AddDistanceEffect schedules e on floor layer floor. It reports false for
// a layer outside [0, MaxFloors).
func (a *Assembler) AddDistanceEffect(floor int, e *DistanceEffect) bool {
	if e == nil || floor < 0 || floor >= MaxFloors {
		return false
	}
	a.distance[floor] = append(a.distance[floor], e)
	return true
}

// DistanceEffects is the number of active distance effects.
func (a *Assembler) DistanceEffects() int {
	n := 0
	for _, l := range a.distance {
		n += len(l)
	}
	return n
}

// RenderFrame rebuilds the primitive list from the current world state.
func (a *Assembler) RenderFrame() {
	start := time.Now()
	a.now = a.cfg.Now()
	a.stats = FrameStats{}
	a.batcher.Reset()
	a.pool.Begin()
	a.deferred = a.deferred[:0]

	playerZ := a.player.Depth()
	var hoverPos Position
	hovering := false
	if a.hover != nil {
		hoverPos, hovering = a.hover.HoveredTile()
	}

	floors := a.tiles.Floors()
	for f := 0; f < MaxFloors; f++ {
		if f < len(floors) {
			for _, t := range floors[f] {
				a.collectTile(t, playerZ, hovering && t.Position() == hoverPos)
			}
		}
		a.processDistanceLayer(f)
	}
	// Creatures deferred onto a tile that was not visited.
	for i := range a.deferred {
		if d := &a.deferred[i]; !d.drawn {
			a.drawCreature(d.c, a.cfg.Lighting.StyleFor(d.c.Position().Z, playerZ))
			d.drawn = true
		}
	}

	a.flush()

	a.stats.AssembleTime = time.Since(start)
	a.totals.Frames++
	a.totals.DrawCalls += a.stats.DrawCalls
	a.totals.Dropped += a.stats.Dropped
	a.totals.AssembleTime += a.stats.AssembleTime
	if a.stats.Dropped > 0 && a.warn.Allow() {
		a.cfg.Logf("render: draw pool exhausted, dropped %d of %d requests (capacity %d)",
			a.stats.Dropped, a.stats.Dropped+a.stats.DrawCalls, a.pool.Cap())
	}
}

func (a *Assembler) culled(p Point) bool {
	return p.X < -1 || p.X > float64(a.cfg.Columns+1) || p.Y < -1 || p.Y > float64(a.cfg.Rows+1)
}

func (a *Assembler) collectTile(t Tile, playerZ int, hovered bool) {
	pos := t.Position()
	screen := a.proj.ProjectStatic(pos)
	if a.culled(screen) {
		return
	}
	style := a.cfg.Lighting.StyleFor(pos.Z, playerZ)
	items := t.Items()

	ground := style
	if hovered && len(items) == 0 {
		ground = hoverStyle(style, a.now)
	}
	a.pushThing(t, screen, ground, false)

	elevation := 0.0
	for i, it := range items {
		if it.OnTop() {
			continue
		}
		p := Point{X: screen.X - elevation, Y: screen.Y - elevation}
		a.pushThing(it, p, style, hovered && i == len(items)-1)
		elevation = min(elevation+float64(it.Elevation())/32, 1)
	}

	for _, c := range t.Creatures() {
		if target, ok := deferTarget(c, pos); ok {
			a.deferred = append(a.deferred, deferredCreature{pos: target, c: c})
			continue
		}
		a.drawCreature(c, style)
	}
	for i := range a.deferred {
		if d := &a.deferred[i]; !d.drawn && d.pos == pos {
			a.drawCreature(d.c, style)
			d.drawn = true
		}
	}

	for i, it := range items {
		if it.OnTop() {
			a.pushThing(it, screen, style, hovered && i == len(items)-1)
		}
	}
	for _, e := range t.Effects() {
		if !e.Expired() {
			a.pushThing(e, screen, style, false)
		}
	}
}

// deferTarget reports whether a walking creature has to be drawn with
// another tile so the tile it is leaving does not cover it, and which one.
func deferTarget(c Creature, tile Position) (Position, bool) {
	if c.Teleported() || !c.Moving() {
		return Position{}, false
	}
	prev := c.PreviousPosition()
	if prev.Z != c.Position().Z {
		return Position{}, false
	}
	switch c.Direction() {
	case North, West, NorthWest:
		if prev != tile {
			return prev, true
		}
	case NorthEast:
		if prev != tile.West() {
			return c.Position().South(), true
		}
	case SouthWest:
		if prev != tile.North() {
			return c.Position().East(), true
		}
	}
	return Position{}, false
}

func (a *Assembler) drawCreature(c Creature, style Style) {
	p := a.proj.ProjectCreature(c)
	p.X -= a.cfg.CreatureDisplacement
	p.Y -= a.cfg.CreatureDisplacement
	for _, e := range c.EffectsBelow() {
		if !e.Expired() {
			a.pushThing(e, p, style, false)
		}
	}
	if o, ok := c.(Outfitted); ok && a.outfits != nil {
		a.pushOutfit(c, o, p, style)
	} else {
		a.pushThing(c, p, style, false)
	}
	for _, e := range c.EffectsAbove() {
		if !e.Expired() {
			a.pushThing(e, p, style, false)
		}
	}
}

func (a *Assembler) processDistanceLayer(floor int) {
	list := a.distance[floor]
	kept := list[:0]
	for _, e := range list {
		if e.Expired(a.now) {
			continue
		}
		kept = append(kept, e)
		from := a.proj.ProjectStatic(e.From)
		to := a.proj.ProjectStatic(e.To)
		p := lerp(from, to, e.Fraction(a.now))
		if !a.culled(p) {
			a.pushThing(e.Sprite, p, Style{}, false)
		}
	}
	clear(list[len(kept):])
	a.distance[floor] = kept
}

func (a *Assembler) pushThing(s Sprited, p Point, style Style, outline bool) {
	if s == nil {
		return
	}
	w, h, layers := s.Dimensions()
	for l := 0; l < layers; l++ {
		for cy := 0; cy < h; cy++ {
			for cx := 0; cx < w; cx++ {
				id := s.SpriteID(l, cx, cy)
				if id == 0 {
					continue
				}
				a.place(a.sprites.Get(id), p, cx, cy, style, outline)
			}
		}
	}
}

func (a *Assembler) pushOutfit(s Sprited, o Outfitted, p Point, style Style) {
	w, h, layers := s.Dimensions()
	outfit := o.Outfit()
	for l := 0; l < layers; l++ {
		for cy := 0; cy < h; cy++ {
			for cx := 0; cx < w; cx++ {
				id := s.SpriteID(l, cx, cy)
				if id == 0 {
					continue
				}
				a.place(a.outfits.GetOutfit(id, o.OutfitMask(l, cx, cy), outfit), p, cx, cy, style, false)
			}
		}
	}
}

func (a *Assembler) place(tex gfx.Texture, p Point, cx, cy int, style Style, outline bool) {
	if tex == nil {
		return
	}
	ts := float64(a.cfg.TileSize)
	x := int(math.Round((p.X - float64(cx)) * ts))
	y := int(math.Round((p.Y - float64(cy)) * ts))
	a.batcher.Push(tex, x, y, a.cfg.TileSize, a.cfg.TileSize, outline, style)
}

// flush copies batches into the pool. A batch that finds the pool full is
// dropped whole and not counted.
func (a *Assembler) flush() {
	a.lastKey, a.flushed = 0, false
	a.batcher.ForEach(a.flushBatch)
	a.stats.Dropped = a.pool.Dropped()
}

func (a *Assembler) flushBatch(key uint32, reqs []DrawRequest) {
	if a.pool.Full() {
		a.pool.drop(len(reqs))
		return
	}
	a.stats.Batches++
	if !a.flushed || key != a.lastKey {
		a.stats.TextureSwitches++
	}
	a.flushed = true
	a.lastKey = key
	for _, r := range reqs {
		prim, ok := a.pool.Claim()
		if !ok {
			continue
		}
		*prim = Primitive{
			Texture: r.Texture,
			X:       r.X, Y: r.Y, W: r.W, H: r.H,
			Style:   r.Style,
			Outline: r.Outline,
			Visible: true,
		}
		a.stats.DrawCalls++
	}
}

// Stats describe the last RenderFrame.
func (a *Assembler) Stats() FrameStats { return a.stats }

func (a *Assembler) Totals() Totals { return a.totals }

// Primitives are the visible primitives of the last frame.
func (a *Assembler) Primitives() []Primitive { return a.pool.Visible() }

func (a *Assembler) PoolCap() int { return a.pool.Cap() }
