package main

import (
	"math/rand"
	"time"

	"tilecore/render"
	"tilecore/spr"
)

// The demo world stands in for the game's world model: a patch of ground on
// the player's floor, a sparse floor below it, a few wandering creatures and
// a missile now and then.

const (
	demoFloor   = 7
	demoRadiusX = 15
	demoRadiusY = 8
	stepTime    = 200 * time.Millisecond
)

// demoSprite is a single-cell sprite of one or more layers.
type demoSprite []uint32

func (s demoSprite) Dimensions() (int, int, int)    { return 1, 1, len(s) }
func (s demoSprite) SpriteID(layer, _, _ int) uint32 { return s[layer] }

type demoItem struct {
	demoSprite
	onTop     bool
	elevation int
}

func (i *demoItem) OnTop() bool    { return i.onTop }
func (i *demoItem) Elevation() int { return i.elevation }

type demoEffect struct {
	demoSprite
	until time.Time
	clock *time.Time
}

func (e *demoEffect) Expired() bool { return e.clock.After(e.until) }

type demoTile struct {
	demoSprite
	pos       render.Position
	items     []render.Item
	creatures []render.Creature
	effects   []render.Effect
}

func (t *demoTile) Position() render.Position         { return t.pos }
func (t *demoTile) Items() []render.Item              { return t.items }
func (t *demoTile) Creatures() []render.Creature      { return t.creatures }
func (t *demoTile) Effects() []render.Effect          { return t.effects }
func (t *demoTile) removeCreature(c render.Creature) {
	for i, o := range t.creatures {
		if o == c {
			t.creatures = append(t.creatures[:i], t.creatures[i+1:]...)
			return
		}
	}
}

// stepper tracks one step between tiles.
type stepper struct {
	pos, prev render.Position
	dir       render.Direction
	started   time.Time
	clock     *time.Time
}

func (s *stepper) remaining() float64 {
	left := 1 - float64(s.clock.Sub(s.started))/float64(stepTime)
	return max(left, 0)
}

func (s *stepper) Moving() bool { return s.remaining() > 0 }

// MoveOffset starts at the full step back towards the previous tile.
func (s *stepper) MoveOffset() render.Point {
	r := s.remaining()
	return render.Point{X: float64(s.pos.X-s.prev.X) * r, Y: float64(s.pos.Y-s.prev.Y) * r}
}

type demoCreature struct {
	demoSprite
	stepper
	mask   uint32
	outfit spr.Outfit
	next   time.Time
}

func (c *demoCreature) Position() render.Position         { return c.pos }
func (c *demoCreature) PreviousPosition() render.Position { return c.prev }
func (c *demoCreature) Direction() render.Direction       { return c.dir }
func (c *demoCreature) Teleported() bool                  { return false }
func (c *demoCreature) ElevationOffset() float64          { return 0 }
func (c *demoCreature) EffectsBelow() []render.Effect     { return nil }
func (c *demoCreature) EffectsAbove() []render.Effect     { return nil }
func (c *demoCreature) OutfitMask(int, int, int) uint32   { return c.mask }
func (c *demoCreature) Outfit() spr.Outfit                { return c.outfit }

type demoWorld struct {
	ids    []uint32
	clock  time.Time
	rng    *rand.Rand
	tiles  map[render.Position]*demoTile
	player *demoCreature
	mobs   []*demoCreature

	// moved is set when the visible tiles change.
	moved bool
	// missiles waiting to be handed to the assembler.
	missiles []*render.DistanceEffect
	nextShot time.Time
}

func newDemoWorld(ids []uint32, seed int64, now time.Time) *demoWorld {
	if len(ids) == 0 {
		ids = []uint32{0}
	}
	w := &demoWorld{
		ids:   ids,
		clock: now,
		rng:   rand.New(rand.NewSource(seed)),
		tiles: make(map[render.Position]*demoTile),
	}
	center := render.Position{X: 100, Y: 100, Z: demoFloor}
	for y := -demoRadiusY * 2; y <= demoRadiusY*2; y++ {
		for x := -demoRadiusX * 2; x <= demoRadiusX*2; x++ {
			pos := render.Position{X: center.X + x, Y: center.Y + y, Z: demoFloor}
			t := &demoTile{demoSprite: demoSprite{w.sprite(w.rng.Intn(4))}, pos: pos}
			switch r := w.rng.Intn(20); {
			case r == 0:
				t.items = append(t.items, &demoItem{demoSprite: demoSprite{w.sprite(10)}, elevation: 16},
					&demoItem{demoSprite: demoSprite{w.sprite(11)}})
			case r == 1:
				t.items = append(t.items, &demoItem{demoSprite: demoSprite{w.sprite(12)}, onTop: true})
			case r == 2:
				t.effects = append(t.effects, &demoEffect{demoSprite: demoSprite{w.sprite(13)}, until: now.Add(time.Minute), clock: &w.clock})
			}
			w.tiles[pos] = t
			if x%3 == 0 && y%3 == 0 {
				below := render.Position{X: pos.X + 1, Y: pos.Y + 1, Z: demoFloor - 1}
				w.tiles[below] = &demoTile{demoSprite: demoSprite{w.sprite(5)}, pos: below}
			}
		}
	}
	w.player = w.newCreature(center, 20)
	for i := 0; i < 6; i++ {
		pos := render.Position{X: center.X + w.rng.Intn(9) - 4, Y: center.Y + w.rng.Intn(7) - 3, Z: demoFloor}
		w.mobs = append(w.mobs, w.newCreature(pos, 21+i))
	}
	w.moved = true
	return w
}

func (w *demoWorld) sprite(i int) uint32 {
	return w.ids[i%len(w.ids)]
}

func (w *demoWorld) newCreature(pos render.Position, sprite int) *demoCreature {
	c := &demoCreature{
		demoSprite: demoSprite{w.sprite(sprite)},
		stepper:    stepper{pos: pos, prev: pos, dir: render.South, clock: &w.clock},
		mask:       w.sprite(sprite + 1),
		outfit:     spr.Outfit{Head: uint8(w.rng.Intn(133)), Body: uint8(w.rng.Intn(133)), Legs: uint8(w.rng.Intn(133)), Feet: uint8(w.rng.Intn(133))},
		next:       w.clock.Add(time.Duration(w.rng.Intn(1000)) * time.Millisecond),
	}
	if t := w.tiles[pos]; t != nil {
		t.creatures = append(t.creatures, c)
	}
	return c
}

var steps = [...]struct {
	dx, dy int
	dir    render.Direction
}{
	{0, -1, render.North}, {1, 0, render.East}, {0, 1, render.South}, {-1, 0, render.West},
	{1, -1, render.NorthEast}, {1, 1, render.SouthEast}, {-1, 1, render.SouthWest}, {-1, -1, render.NorthWest},
}

// move steps c one tile in direction d. It fails while c is still walking
// or when the target tile does not exist.
func (w *demoWorld) move(c *demoCreature, d render.Direction) bool {
	if c.Moving() {
		return false
	}
	s := steps[d]
	to := render.Position{X: c.pos.X + s.dx, Y: c.pos.Y + s.dy, Z: c.pos.Z}
	dst := w.tiles[to]
	if dst == nil {
		return false
	}
	if src := w.tiles[c.pos]; src != nil {
		src.removeCreature(c)
	}
	dst.creatures = append(dst.creatures, c)
	c.prev, c.pos, c.dir, c.started = c.pos, to, d, w.clock
	return true
}

// movePlayer steps the player and marks the visible tiles stale.
func (w *demoWorld) movePlayer(d render.Direction) bool {
	if !w.move(w.player, d) {
		return false
	}
	w.moved = true
	return true
}

// update advances the clock, wanders the creatures and fires missiles.
func (w *demoWorld) update(now time.Time) {
	w.clock = now
	for _, m := range w.mobs {
		if now.Before(m.next) {
			continue
		}
		w.move(m, render.Direction(w.rng.Intn(len(steps))))
		m.next = now.Add(time.Second + time.Duration(w.rng.Intn(1000))*time.Millisecond)
	}
	if now.After(w.nextShot) && len(w.mobs) > 0 {
		target := w.mobs[w.rng.Intn(len(w.mobs))]
		w.missiles = append(w.missiles, &render.DistanceEffect{
			From:     w.player.pos,
			To:       target.pos,
			Sprite:   demoSprite{w.sprite(30)},
			Start:    now,
			Duration: 400 * time.Millisecond,
		})
		w.nextShot = now.Add(2 * time.Second)
	}
}

// takeMissiles hands over the queued missiles.
func (w *demoWorld) takeMissiles() []*render.DistanceEffect {
	m := w.missiles
	w.missiles = nil
	return m
}

// takeMoved reports and clears the moved flag.
func (w *demoWorld) takeMoved() bool {
	m := w.moved
	w.moved = false
	return m
}

// VisibleTiles returns the floor below the player then the player's floor,
// each in row-major order.
func (w *demoWorld) VisibleTiles() [][]render.Tile {
	p := w.player.pos
	floors := make([][]render.Tile, 0, 2)
	for z := demoFloor - 1; z <= demoFloor; z++ {
		var list []render.Tile
		off := demoFloor - z
		for y := p.Y - demoRadiusY - off; y <= p.Y+demoRadiusY-off; y++ {
			for x := p.X - demoRadiusX - off; x <= p.X+demoRadiusX-off; x++ {
				if t := w.tiles[render.Position{X: x, Y: y, Z: z}]; t != nil {
					list = append(list, t)
				}
			}
		}
		floors = append(floors, list)
	}
	return floors
}

func (w *demoWorld) ProjectedPosition() render.Position { return w.player.pos.Projected() }
func (w *demoWorld) MoveOffset() render.Point           { return w.player.MoveOffset() }
func (w *demoWorld) Depth() int                         { return w.player.pos.Z }
