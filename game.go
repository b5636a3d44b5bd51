package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"tilecore/gfx"
	"tilecore/render"
	"tilecore/spr"
)

// outlineAlpha is the strength of the additive highlight pass.
const outlineAlpha = 0.4

var blendMultiply = ebiten.Blend{
	BlendFactorSourceRGB:        ebiten.BlendFactorDestinationColor,
	BlendFactorSourceAlpha:      ebiten.BlendFactorDestinationAlpha,
	BlendFactorDestinationRGB:   ebiten.BlendFactorOneMinusSourceAlpha,
	BlendFactorDestinationAlpha: ebiten.BlendFactorOneMinusSourceAlpha,
	BlendOperationRGB:           ebiten.BlendOperationAdd,
	BlendOperationAlpha:         ebiten.BlendOperationAdd,
}

func blendFor(m render.BlendMode) ebiten.Blend {
	switch m {
	case render.BlendAdditive:
		return ebiten.BlendLighter
	case render.BlendMultiply:
		return blendMultiply
	default:
		return ebiten.BlendSourceOver
	}
}

type Game struct {
	ctx   context.Context
	world *demoWorld
	*pipeline

	op         ebiten.DrawImageOptions
	lastRecord time.Time
}

func newGame(ctx context.Context, sprites *spr.Sprites, world *demoWorld) (*Game, error) {
	g := &Game{ctx: ctx, world: world}
	p, err := newPipeline(gfx.EbitenDevice{}, sprites, world, g)
	if err != nil {
		return nil, err
	}
	g.pipeline = p
	return g, nil
}

// HoveredTile maps the cursor to a tile on the player's floor.
func (g *Game) HoveredTile() (render.Position, bool) {
	x, y := ebiten.CursorPosition()
	w, h := viewportSize()
	if x < 0 || y < 0 || x >= w || y >= h {
		return render.Position{}, false
	}
	cfg := renderConfig()
	return tileAt(float64(x), float64(y), cfg.TileSize, g.asm.Projector().Center(), g.world.MoveOffset(), g.world.ProjectedPosition()), true
}

// tileAt inverts the static projection for a screen pixel.
func tileAt(x, y float64, tileSize int, center, off render.Point, me render.Position) render.Position {
	d := me.Z % 8
	cx := int(math.Floor(x/float64(tileSize) - off.X - center.X))
	cy := int(math.Floor(y/float64(tileSize) - off.Y - center.Y))
	return render.Position{X: me.X + cx + d, Y: me.Y + cy + d, Z: me.Z}
}

var walkKeys = []struct {
	keys []ebiten.Key
	dir  render.Direction
}{
	{[]ebiten.Key{ebiten.KeyHome, ebiten.KeyNumpad7}, render.NorthWest},
	{[]ebiten.Key{ebiten.KeyPageUp, ebiten.KeyNumpad9}, render.NorthEast},
	{[]ebiten.Key{ebiten.KeyEnd, ebiten.KeyNumpad1}, render.SouthWest},
	{[]ebiten.Key{ebiten.KeyPageDown, ebiten.KeyNumpad3}, render.SouthEast},
	{[]ebiten.Key{ebiten.KeyArrowUp, ebiten.KeyW, ebiten.KeyNumpad8}, render.North},
	{[]ebiten.Key{ebiten.KeyArrowDown, ebiten.KeyS, ebiten.KeyNumpad2}, render.South},
	{[]ebiten.Key{ebiten.KeyArrowLeft, ebiten.KeyA, ebiten.KeyNumpad4}, render.West},
	{[]ebiten.Key{ebiten.KeyArrowRight, ebiten.KeyD, ebiten.KeyNumpad6}, render.East},
}

func walkDirection() (render.Direction, bool) {
	for _, wk := range walkKeys {
		for _, k := range wk.keys {
			if ebiten.IsKeyPressed(k) {
				return wk.dir, true
			}
		}
	}
	return 0, false
}

func (g *Game) Update() error {
	select {
	case <-g.ctx.Done():
		return errors.New("shutdown")
	default:
	}

	if d, ok := walkDirection(); ok {
		g.world.movePlayer(d)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		gs.ShowStats = !gs.ShowStats
		settingsDirty = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.cache.Clear()
		logDebug("atlas cleared")
	}

	now := time.Now()
	g.step(g.world, now)
	if now.Sub(g.lastRecord) >= time.Second {
		recordStats(g.asm.Totals(), g.cache.Stats())
		g.lastRecord = now
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	g.asm.RenderFrame()
	for _, p := range g.asm.Primitives() {
		img := gfx.EbitenImage(p.Texture)
		if img == nil {
			continue
		}
		b := img.Bounds()
		g.op = ebiten.DrawImageOptions{Filter: ebiten.FilterNearest, DisableMipmaps: true}
		g.op.GeoM.Scale(float64(p.W)/float64(b.Dx()), float64(p.H)/float64(b.Dy()))
		g.op.GeoM.Translate(float64(p.X), float64(p.Y))
		g.op.ColorScale.ScaleWithColor(p.Style.TintOrWhite())
		g.op.ColorScale.ScaleAlpha(p.Style.Opacity())
		g.op.Blend = blendFor(p.Style.Blend)
		screen.DrawImage(img, &g.op)
		if p.Outline {
			g.op.Blend = ebiten.BlendLighter
			g.op.ColorScale.ScaleAlpha(outlineAlpha)
			screen.DrawImage(img, &g.op)
		}
	}
	if gs.ShowStats {
		ebitenutil.DebugPrint(screen, g.overlay())
	}
}

func (g *Game) overlay() string {
	s := g.asm.Stats()
	return fmt.Sprintf("FPS %.0f  draws %d/%d  batches %d  switches %d  dropped %d  %s\n%s\n%s",
		ebiten.ActualFPS(), s.DrawCalls, g.asm.PoolCap(), s.Batches, s.TextureSwitches, s.Dropped,
		s.AssembleTime.Round(time.Microsecond), g.cache.Summary(), g.asm.Totals())
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return viewportSize()
}

func runGame(g *Game) {
	ebiten.SetWindowTitle("tilecore")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	applySettings()

	op := &ebiten.RunGameOptions{ScreenTransparent: false}
	if err := ebiten.RunGameWithOptions(g, op); err != nil {
		log.Printf("ebiten: %v", err)
	}
	recordStats(g.asm.Totals(), g.cache.Stats())
	saveStats()
	if settingsDirty {
		saveSettings()
	}
	g.cache.Close()
}
