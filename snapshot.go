package main

import (
	"image"
	"image/color"

	"github.com/gogpu/gg"

	"tilecore/gfx"
	"tilecore/render"
	"tilecore/spr"
)

func snapshotBlend(m render.BlendMode) gg.BlendMode {
	switch m {
	case render.BlendAdditive:
		return gg.BlendScreen
	case render.BlendMultiply:
		return gg.BlendMultiply
	default:
		return gg.BlendNormal
	}
}

// writeSnapshot renders one frame of world without a window and saves it
// as a PNG.
func writeSnapshot(path string, sprites *spr.Sprites, world *demoWorld) error {
	p, err := newPipeline(&gfx.MemoryDevice{}, sprites, world, nil)
	if err != nil {
		return err
	}
	defer p.cache.Close()
	p.step(world, world.clock)
	p.asm.RenderFrame()
	logDebug("snapshot: %s", p.cache.Summary())

	w, h := viewportSize()
	return composeSnapshot(p.asm.Primitives(), w, h).SavePNG(path)
}

// composeSnapshot draws primitives made by a MemoryDevice onto a black
// canvas. Other textures are skipped.
func composeSnapshot(prims []render.Primitive, w, h int) *gg.Context {
	dc := gg.NewContext(w, h)
	dc.ClearWithColor(gg.Black)
	surfaces := make(map[uint32]*gg.ImageBuf)
	for _, p := range prims {
		mt, ok := p.Texture.(*gfx.MemoryTexture)
		if !ok {
			continue
		}
		opts := gg.DrawImageOptions{
			X:             float64(p.X),
			Y:             float64(p.Y),
			DstWidth:      float64(p.W),
			DstHeight:     float64(p.H),
			Interpolation: gg.InterpNearest,
			Opacity:       float64(p.Style.Opacity()),
			BlendMode:     snapshotBlend(p.Style.Blend),
		}
		var buf *gg.ImageBuf
		if p.Style.Tint == (color.RGBA{}) {
			buf = surfaces[mt.Key()]
			if buf == nil {
				buf = gg.ImageBufFromImage(mt.Backing())
				surfaces[mt.Key()] = buf
			}
			src := mt.Bounds()
			opts.SrcRect = &src
		} else {
			buf = gg.ImageBufFromImage(tinted(mt.Pixels(), p.Style.Tint))
		}
		dc.DrawImageEx(buf, opts)
		if p.Outline {
			opts.BlendMode = gg.BlendScreen
			opts.Opacity = outlineAlpha
			dc.DrawImageEx(buf, opts)
		}
	}
	return dc
}

// tinted returns a copy of img multiplied by c, anchored at the origin.
func tinted(img *image.RGBA, c color.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			px := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			out.SetRGBA(x, y, color.RGBA{
				R: uint8(uint16(px.R) * uint16(c.R) / 0xFF),
				G: uint8(uint16(px.G) * uint16(c.G) / 0xFF),
				B: uint8(uint16(px.B) * uint16(c.B) / 0xFF),
				A: px.A,
			})
		}
	}
	return out
}
