package gfx

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// ebitenMaxTextureSize is the largest surface edge requested from ebiten.
const ebitenMaxTextureSize = 8192

// EbitenDevice allocates surfaces as ebiten images.
type EbitenDevice struct{}

func (EbitenDevice) MaxTextureSize() int { return ebitenMaxTextureSize }

// NewSurface returns an unmanaged image so ebiten never moves it into its own
// internal atlas.
func (EbitenDevice) NewSurface(w, h int) Surface {
	img := ebiten.NewImageWithOptions(image.Rect(0, 0, w, h), &ebiten.NewImageOptions{Unmanaged: true})
	return &ebitenTexture{img: img, key: newKey()}
}

type ebitenTexture struct {
	img  *ebiten.Image
	key  uint32
	view bool
}

func (t *ebitenTexture) Key() uint32             { return t.key }
func (t *ebitenTexture) Bounds() image.Rectangle { return t.img.Bounds() }

func (t *ebitenTexture) Dispose() {
	if t.view {
		t.img = nil
		return
	}
	t.img.Deallocate()
}

func (t *ebitenTexture) WritePixels(pix []byte, r image.Rectangle) {
	t.img.SubImage(r).(*ebiten.Image).WritePixels(pix)
}

func (t *ebitenTexture) View(r image.Rectangle) Texture {
	return &ebitenTexture{
		img:  t.img.SubImage(r).(*ebiten.Image),
		key:  t.key,
		view: true,
	}
}

// EbitenImage returns the ebiten image behind t, or nil when t was not made
// by an EbitenDevice or has been disposed.
func EbitenImage(t Texture) *ebiten.Image {
	if et, ok := t.(*ebitenTexture); ok {
		return et.img
	}
	return nil
}
