package render

import (
	"image"

	"tilecore/gfx"
	"tilecore/spr"
)

// fakeTexture is identified by id; textures with equal key batch together.
type fakeTexture struct {
	key uint32
	id  uint32
}

func (t *fakeTexture) Key() uint32             { return t.key }
func (t *fakeTexture) Bounds() image.Rectangle { return image.Rect(0, 0, 32, 32) }
func (t *fakeTexture) Dispose()                {}

// fakeSprites hands out one texture per id, keyed by id/100.
type fakeSprites struct {
	tex  map[uint32]*fakeTexture
	gets int
}

func newFakeSprites() *fakeSprites { return &fakeSprites{tex: map[uint32]*fakeTexture{}} }

func (s *fakeSprites) Get(id uint32) gfx.Texture {
	s.gets++
	if id >= 900 {
		return nil
	}
	t, ok := s.tex[id]
	if !ok {
		t = &fakeTexture{key: id / 100, id: id}
		s.tex[id] = t
	}
	return t
}

type outfitSprites struct {
	*fakeSprites
	composed []uint32
}

func (s *outfitSprites) GetOutfit(base, mask uint32, o spr.Outfit) gfx.Texture {
	s.composed = append(s.composed, base, mask)
	return s.Get(base + 50)
}

// thing is a single-cell sprite, or a stack of layers when more ids are given.
type thing struct {
	ids []uint32
}

func sprite(ids ...uint32) thing { return thing{ids: ids} }

func (t thing) Dimensions() (int, int, int)    { return 1, 1, len(t.ids) }
func (t thing) SpriteID(layer, _, _ int) uint32 { return t.ids[layer] }

type fakeItem struct {
	thing
	onTop     bool
	elevation int
}

func (i fakeItem) OnTop() bool    { return i.onTop }
func (i fakeItem) Elevation() int { return i.elevation }

type fakeEffect struct {
	thing
	expired bool
}

func (e fakeEffect) Expired() bool { return e.expired }

type fakeCreature struct {
	thing
	pos, prev  Position
	dir        Direction
	moving     bool
	teleported bool
	offset     Point
	elevation  float64
	below      []Effect
	above      []Effect
}

func (c *fakeCreature) Position() Position         { return c.pos }
func (c *fakeCreature) PreviousPosition() Position { return c.prev }
func (c *fakeCreature) Direction() Direction       { return c.dir }
func (c *fakeCreature) Moving() bool               { return c.moving }
func (c *fakeCreature) Teleported() bool           { return c.teleported }
func (c *fakeCreature) MoveOffset() Point          { return c.offset }
func (c *fakeCreature) ElevationOffset() float64   { return c.elevation }
func (c *fakeCreature) EffectsBelow() []Effect     { return c.below }
func (c *fakeCreature) EffectsAbove() []Effect     { return c.above }

type outfitCreature struct {
	*fakeCreature
}

func (outfitCreature) OutfitMask(layer, x, y int) uint32 { return 77 }
func (outfitCreature) Outfit() spr.Outfit               { return spr.Outfit{Head: 1} }

type fakeTile struct {
	thing
	pos       Position
	items     []Item
	creatures []Creature
	effects   []Effect
}

func (t *fakeTile) Position() Position    { return t.pos }
func (t *fakeTile) Items() []Item         { return t.items }
func (t *fakeTile) Creatures() []Creature { return t.creatures }
func (t *fakeTile) Effects() []Effect     { return t.effects }

type fakePlayer struct {
	pos    Position
	offset Point
}

func (p *fakePlayer) ProjectedPosition() Position { return p.pos.Projected() }
func (p *fakePlayer) MoveOffset() Point           { return p.offset }
func (p *fakePlayer) Depth() int                  { return p.pos.Z }

type fakeWorld struct {
	floors [][]Tile
	calls  int
}

func (w *fakeWorld) VisibleTiles() [][]Tile {
	w.calls++
	return w.floors
}

type fakeHover struct {
	pos Position
	ok  bool
}

func (h fakeHover) HoveredTile() (Position, bool) { return h.pos, h.ok }

var playerPos = Position{X: 100, Y: 100, Z: 7}

type fixture struct {
	world   *fakeWorld
	player  *fakePlayer
	sprites *fakeSprites
	asm     *Assembler
}

func newFixture(t interface {
	Helper()
	Fatalf(string, ...any)
}, cfg Config, floors ...[]Tile) *fixture {
	t.Helper()
	f := &fixture{
		world:   &fakeWorld{floors: floors},
		player:  &fakePlayer{pos: playerPos},
		sprites: newFakeSprites(),
	}
	asm, err := NewAssembler(cfg, Deps{Tiles: f.world, Player: f.player, Sprites: f.sprites})
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}
	f.asm = asm
	return f
}

// ids lists the sprite ids of the visible primitives in draw order.
func ids(prims []Primitive) []uint32 {
	out := make([]uint32, len(prims))
	for i, p := range prims {
		out[i] = p.Texture.(*fakeTexture).id
	}
	return out
}

func find(prims []Primitive, id uint32) (Primitive, bool) {
	for _, p := range prims {
		if p.Texture.(*fakeTexture).id == id {
			return p, true
		}
	}
	return Primitive{}, false
}
