package render

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func groundTile(pos Position, ids ...uint32) *fakeTile {
	return &fakeTile{thing: sprite(ids...), pos: pos}
}

func TestRenderFrameGroupsTwoTextures(t *testing.T) {
	tiles := []Tile{
		groundTile(playerPos, 1),
		groundTile(playerPos.East(), 101),
		groundTile(playerPos.South(), 2),
		groundTile(playerPos.West(), 102),
		groundTile(playerPos.North(), 3),
	}
	f := newFixture(t, DefaultConfig(), tiles)
	f.asm.RenderFrame()
	s := f.asm.Stats()
	if s.Batches != 2 || s.TextureSwitches != 2 || s.DrawCalls != 5 || s.Dropped != 0 {
		t.Fatalf("stats = %+v", s)
	}
	if diff := cmp.Diff([]uint32{1, 2, 3, 101, 102}, ids(f.asm.Primitives())); diff != "" {
		t.Fatalf("draw order (-want +got):\n%s", diff)
	}
	p, _ := find(f.asm.Primitives(), 101)
	if p.X != 14*32 || p.Y != 6*32 || p.W != 32 || !p.Visible {
		t.Fatalf("east tile primitive = %+v", p)
	}
}

func TestRenderFramePoolBounding(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Columns, cfg.Rows, cfg.LayersPerCell = 1, 1, 1
	var logged []string
	cfg.Logf = func(format string, args ...any) { logged = append(logged, fmt.Sprintf(format, args...)) }
	stack := groundTile(playerPos, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)
	other := groundTile(playerPos.East(), 101)
	f := newFixture(t, cfg, []Tile{stack, other})
	capacity := f.asm.PoolCap()
	if capacity != 4 {
		t.Fatalf("pool capacity = %d, want 4", capacity)
	}

	f.asm.RenderFrame()
	s := f.asm.Stats()
	if s.DrawCalls != capacity || len(f.asm.Primitives()) != capacity {
		t.Fatalf("draw calls = %d visible = %d, want %d", s.DrawCalls, len(f.asm.Primitives()), capacity)
	}
	if s.Dropped != 7 || s.Batches != 1 || s.TextureSwitches != 1 {
		t.Fatalf("stats = %+v, want 7 dropped in 1 batch", s)
	}
	if len(logged) != 1 || !strings.Contains(logged[0], "dropped 7") {
		t.Fatalf("logged %q", logged)
	}

	f.asm.RenderFrame()
	if len(logged) != 1 {
		t.Fatalf("pool warning not throttled: %q", logged)
	}

	f.world.floors = [][]Tile{{groundTile(playerPos, 1)}}
	f.asm.InvalidateTiles()
	f.asm.RenderFrame()
	if got := len(f.asm.Primitives()); got != 1 {
		t.Fatalf("visible = %d, want 1", got)
	}
	for i, p := range f.asm.pool.prims[1:] {
		if p.Visible {
			t.Fatalf("stale primitive %d still visible", i+1)
		}
	}
	if f.asm.Stats().Dropped != 0 {
		t.Fatalf("drop count not reset")
	}
	if tot := f.asm.Totals(); tot.Frames != 3 || tot.Dropped != 14 {
		t.Fatalf("totals = %+v", tot)
	}
}

func TestRenderFrameDepthDimming(t *testing.T) {
	below := groundTile(Position{X: 99, Y: 99, Z: 6}, 31)
	same := groundTile(playerPos, 32)
	above := groundTile(Position{X: 94, Y: 94, Z: 8}, 33)
	f := newFixture(t, DefaultConfig(), []Tile{below}, []Tile{same, above})
	f.asm.RenderFrame()
	prims := f.asm.Primitives()

	p, ok := find(prims, 31)
	if !ok {
		t.Fatalf("tile behind the player not drawn")
	}
	if p.Style == (Style{}) || p.Style.Alpha >= 1 {
		t.Fatalf("tile behind the player style = %+v, want dimmed", p.Style)
	}
	for _, id := range []uint32{32, 33} {
		p, ok := find(prims, id)
		if !ok {
			t.Fatalf("tile %d not drawn", id)
		}
		if p.Style != (Style{}) {
			t.Fatalf("tile %d style = %+v, want default", id, p.Style)
		}
	}
}

func TestRenderFrameTileOrder(t *testing.T) {
	creature := &fakeCreature{thing: sprite(23), pos: playerPos}
	tile := &fakeTile{
		thing: sprite(1),
		pos:   playerPos,
		items: []Item{
			fakeItem{thing: sprite(21), onTop: true},
			fakeItem{thing: sprite(22)},
		},
		creatures: []Creature{creature},
		effects:   []Effect{fakeEffect{thing: sprite(24)}, fakeEffect{thing: sprite(25), expired: true}},
	}
	f := newFixture(t, DefaultConfig(), []Tile{tile})
	f.asm.RenderFrame()
	if diff := cmp.Diff([]uint32{1, 22, 23, 21, 24}, ids(f.asm.Primitives())); diff != "" {
		t.Fatalf("draw order (-want +got):\n%s", diff)
	}
	p, _ := find(f.asm.Primitives(), 23)
	if p.X != 408 || p.Y != 184 {
		t.Fatalf("creature at %d,%d, want displaced to 408,184", p.X, p.Y)
	}
}

func TestRenderFrameElevationStacking(t *testing.T) {
	tile := &fakeTile{
		thing: sprite(1),
		pos:   playerPos,
		items: []Item{
			fakeItem{thing: sprite(11), elevation: 16},
			fakeItem{thing: sprite(12), elevation: 16},
			fakeItem{thing: sprite(13), elevation: 32},
			fakeItem{thing: sprite(14)},
		},
	}
	f := newFixture(t, DefaultConfig(), []Tile{tile})
	f.asm.RenderFrame()
	want := map[uint32][2]int{
		11: {416, 192},
		12: {400, 176},
		13: {384, 160},
		14: {384, 160},
	}
	for id, xy := range want {
		p, ok := find(f.asm.Primitives(), id)
		if !ok {
			t.Fatalf("item %d not drawn", id)
		}
		if p.X != xy[0] || p.Y != xy[1] {
			t.Fatalf("item %d at %d,%d, want %d,%d", id, p.X, p.Y, xy[0], xy[1])
		}
	}
}

func TestRenderFrameCreatureDeferral(t *testing.T) {
	here := playerPos
	south := playerPos.South()
	tests := []struct {
		name  string
		c     *fakeCreature
		other Position
		order []uint32
	}{
		{
			name:  "walking north is drawn with the tile it leaves",
			c:     &fakeCreature{dir: North, moving: true, prev: south},
			order: []uint32{1, 2, 3},
		},
		{
			name:  "walking north east is drawn with the tile south",
			c:     &fakeCreature{dir: NorthEast, moving: true, prev: Position{X: 99, Y: 101, Z: 7}},
			order: []uint32{1, 2, 3},
		},
		{
			name:  "walking south west is drawn with the tile east",
			c:     &fakeCreature{dir: SouthWest, moving: true, prev: Position{X: 101, Y: 99, Z: 7}},
			other: playerPos.East(),
			order: []uint32{1, 2, 3},
		},
		{
			name:  "idle",
			c:     &fakeCreature{dir: North, prev: south},
			order: []uint32{1, 3, 2},
		},
		{
			name:  "teleported",
			c:     &fakeCreature{dir: North, moving: true, teleported: true, prev: south},
			order: []uint32{1, 3, 2},
		},
		{
			name:  "changed floor",
			c:     &fakeCreature{dir: North, moving: true, prev: Position{X: 100, Y: 101, Z: 6}},
			order: []uint32{1, 3, 2},
		},
		{
			name:  "walking south",
			c:     &fakeCreature{dir: South, moving: true, prev: playerPos.North()},
			order: []uint32{1, 3, 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.c.thing = sprite(3)
			tt.c.pos = here
			a := &fakeTile{thing: sprite(1), pos: here, creatures: []Creature{tt.c}}
			other := tt.other
			if other == (Position{}) {
				other = south
			}
			b := groundTile(other, 2)
			f := newFixture(t, DefaultConfig(), []Tile{a, b})
			f.asm.RenderFrame()
			if diff := cmp.Diff(tt.order, ids(f.asm.Primitives())); diff != "" {
				t.Fatalf("draw order (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderFrameDeferredOntoMissingTile(t *testing.T) {
	c := &fakeCreature{thing: sprite(3), pos: playerPos, dir: West, moving: true, prev: playerPos.East()}
	tile := &fakeTile{thing: sprite(1), pos: playerPos, creatures: []Creature{c}}
	f := newFixture(t, DefaultConfig(), []Tile{tile})
	f.asm.RenderFrame()
	if diff := cmp.Diff([]uint32{1, 3}, ids(f.asm.Primitives())); diff != "" {
		t.Fatalf("draw order (-want +got):\n%s", diff)
	}
}

func TestRenderFrameCreatureEffectsAndOutfit(t *testing.T) {
	c := &fakeCreature{
		thing: sprite(3),
		pos:   playerPos,
		below: []Effect{fakeEffect{thing: sprite(61)}},
		above: []Effect{fakeEffect{thing: sprite(62)}, fakeEffect{thing: sprite(63), expired: true}},
	}
	tile := &fakeTile{thing: sprite(1), pos: playerPos, creatures: []Creature{outfitCreature{c}}}
	world := &fakeWorld{floors: [][]Tile{{tile}}}
	src := &outfitSprites{fakeSprites: newFakeSprites()}
	asm, err := NewAssembler(DefaultConfig(), Deps{Tiles: world, Player: &fakePlayer{pos: playerPos}, Sprites: src})
	if err != nil {
		t.Fatalf("NewAssembler: %v", err)
	}
	asm.RenderFrame()
	if diff := cmp.Diff([]uint32{1, 61, 53, 62}, ids(asm.Primitives())); diff != "" {
		t.Fatalf("draw order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint32{3, 77}, src.composed); diff != "" {
		t.Fatalf("composed (-want +got):\n%s", diff)
	}
}

func TestRenderFrameCulling(t *testing.T) {
	far := groundTile(Position{X: 200, Y: 200, Z: 7}, 1)
	edge := groundTile(Position{X: 100 - 14, Y: 100, Z: 7}, 2)
	outside := groundTile(Position{X: 100 - 15, Y: 100, Z: 7}, 3)
	f := newFixture(t, DefaultConfig(), []Tile{far, edge, outside})
	f.asm.RenderFrame()
	if diff := cmp.Diff([]uint32{2}, ids(f.asm.Primitives())); diff != "" {
		t.Fatalf("drawn (-want +got):\n%s", diff)
	}
	if f.sprites.gets != 1 {
		t.Fatalf("culled tiles looked up %d sprites", f.sprites.gets-1)
	}
}

func TestRenderFrameHover(t *testing.T) {
	empty := groundTile(playerPos, 1)
	stacked := &fakeTile{
		thing: sprite(2),
		pos:   playerPos.East(),
		items: []Item{fakeItem{thing: sprite(21)}, fakeItem{thing: sprite(22)}},
	}
	for _, tc := range []struct {
		hovered Position
		check   func(t *testing.T, prims []Primitive)
	}{
		{playerPos, func(t *testing.T, prims []Primitive) {
			p, _ := find(prims, 1)
			if p.Style.Tint == (Style{}).Tint {
				t.Fatalf("hovered empty tile not tinted")
			}
		}},
		{playerPos.East(), func(t *testing.T, prims []Primitive) {
			for _, id := range []uint32{2, 21} {
				if p, _ := find(prims, id); p.Outline || p.Style != (Style{}) {
					t.Fatalf("sprite %d = %+v, want plain", id, p)
				}
			}
			if p, _ := find(prims, 22); !p.Outline {
				t.Fatalf("top item not outlined")
			}
		}},
	} {
		world := &fakeWorld{floors: [][]Tile{{empty, stacked}}}
		asm, err := NewAssembler(DefaultConfig(), Deps{
			Tiles:   world,
			Player:  &fakePlayer{pos: playerPos},
			Sprites: newFakeSprites(),
			Hover:   fakeHover{pos: tc.hovered, ok: true},
		})
		if err != nil {
			t.Fatalf("NewAssembler: %v", err)
		}
		asm.RenderFrame()
		tc.check(t, asm.Primitives())
	}
}

func TestRenderFrameDistanceEffects(t *testing.T) {
	now := time.Unix(1000, 0)
	cfg := DefaultConfig()
	cfg.Now = func() time.Time { return now }
	f := newFixture(t, cfg)
	missile := &DistanceEffect{
		From:     playerPos,
		To:       Position{X: 104, Y: 100, Z: 7},
		Sprite:   sprite(40),
		Start:    now,
		Duration: time.Second,
	}
	stopped := &DistanceEffect{From: playerPos, To: playerPos, Sprite: sprite(41), Start: now, Duration: time.Second}
	if !f.asm.AddDistanceEffect(7, missile) || !f.asm.AddDistanceEffect(0, stopped) {
		t.Fatalf("AddDistanceEffect refused a valid floor")
	}
	if f.asm.AddDistanceEffect(MaxFloors, missile) || f.asm.AddDistanceEffect(-1, missile) {
		t.Fatalf("AddDistanceEffect accepted an invalid floor")
	}

	now = now.Add(500 * time.Millisecond)
	stopped.Expire()
	f.asm.RenderFrame()
	prims := f.asm.Primitives()
	if diff := cmp.Diff([]uint32{40}, ids(prims)); diff != "" {
		t.Fatalf("drawn (-want +got):\n%s", diff)
	}
	if prims[0].X != 15*32 || prims[0].Y != 6*32 {
		t.Fatalf("missile at %d,%d, want halfway at %d,%d", prims[0].X, prims[0].Y, 15*32, 6*32)
	}
	if n := f.asm.DistanceEffects(); n != 1 {
		t.Fatalf("active effects = %d, want 1", n)
	}

	now = now.Add(500 * time.Millisecond)
	f.asm.RenderFrame()
	if len(f.asm.Primitives()) != 0 || f.asm.DistanceEffects() != 0 {
		t.Fatalf("arrived missile still drawn or active")
	}
}

func TestTileCacheRefreshesOnInvalidate(t *testing.T) {
	f := newFixture(t, DefaultConfig(), []Tile{groundTile(playerPos, 1)})
	for i := 0; i < 3; i++ {
		f.asm.RenderFrame()
	}
	if f.world.calls != 1 {
		t.Fatalf("visible tiles fetched %d times, want 1", f.world.calls)
	}
	f.asm.InvalidateTiles()
	f.asm.RenderFrame()
	if f.world.calls != 2 {
		t.Fatalf("visible tiles fetched %d times after invalidation, want 2", f.world.calls)
	}

	many := make([][]Tile, MaxFloors+3)
	c := NewTileCache(&fakeWorld{floors: many})
	if got := len(c.Floors()); got != MaxFloors {
		t.Fatalf("floors = %d, want %d", got, MaxFloors)
	}
}

func TestNewAssemblerValidates(t *testing.T) {
	_, err := NewAssembler(DefaultConfig(), Deps{Player: &fakePlayer{}, Sprites: newFakeSprites()})
	if !errors.Is(err, ErrMissingDep) {
		t.Fatalf("err = %v, want ErrMissingDep", err)
	}
	cfg := DefaultConfig()
	cfg.TileSize = 0
	if _, err := NewAssembler(cfg, Deps{}); err == nil {
		t.Fatalf("zero tile size accepted")
	}
}

func TestTotalsString(t *testing.T) {
	tot := Totals{Frames: 1200, DrawCalls: 2500000, AssembleTime: 1500 * time.Millisecond}
	s := tot.String()
	for _, want := range []string{"1,200 frames", "2,500,000 draws", "1 s"} {
		if !strings.Contains(s, want) {
			t.Fatalf("Totals = %q, missing %q", s, want)
		}
	}
}
