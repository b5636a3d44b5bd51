package main

import (
	"time"

	"tilecore/atlas"
	"tilecore/gfx"
	"tilecore/render"
	"tilecore/spr"
)

// missileLayer is the distance effect layer of the player's floor, the
// second floor the demo world reports.
const missileLayer = 1

// pipeline is the sprite atlas and frame assembler over one world.
type pipeline struct {
	cache *atlas.Cache
	asm   *render.Assembler
}

func renderConfig() render.Config {
	cfg := render.DefaultConfig()
	cfg.Lighting.Enabled = gs.Lighting
	cfg.Logf = logDebug
	return cfg
}

// viewportSize is the logical screen in pixels.
func viewportSize() (int, int) {
	cfg := render.DefaultConfig()
	return cfg.Columns * cfg.TileSize, cfg.Rows * cfg.TileSize
}

func newPipeline(dev gfx.Device, sprites *spr.Sprites, world *demoWorld, hover render.Hover) (*pipeline, error) {
	acfg := atlas.DefaultConfig()
	acfg.Capacity = gs.AtlasCapacity
	acfg.Logf = logError
	cache, err := atlas.New(dev, spr.NewDecoder(sprites), acfg)
	if err != nil {
		return nil, err
	}
	asm, err := render.NewAssembler(renderConfig(), render.Deps{
		Tiles:   world,
		Player:  world,
		Sprites: cache,
		Hover:   hover,
	})
	if err != nil {
		cache.Close()
		return nil, err
	}
	return &pipeline{cache: cache, asm: asm}, nil
}

// step advances the world to now and forwards its changes to the assembler.
func (p *pipeline) step(world *demoWorld, now time.Time) {
	world.update(now)
	if world.takeMoved() {
		p.asm.InvalidateTiles()
	}
	for _, m := range world.takeMissiles() {
		p.asm.AddDistanceEffect(missileLayer, m)
	}
}
