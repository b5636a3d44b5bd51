package render

import (
	"image/color"
	"math"
	"time"
)

type BlendMode uint8

const (
	BlendNormal BlendMode = iota
	BlendAdditive
	BlendMultiply
)

// Style overrides how a sprite is drawn. Zero fields keep the defaults:
// no tint, opaque, normal blending.
type Style struct {
	Tint  color.RGBA
	Alpha float32
	Blend BlendMode
}

// TintOrWhite returns the tint, white when unset.
func (s Style) TintOrWhite() color.RGBA {
	if s.Tint == (color.RGBA{}) {
		return color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	}
	return s.Tint
}

// Opacity returns the alpha, 1 when unset.
func (s Style) Opacity() float32 {
	if s.Alpha == 0 {
		return 1
	}
	return s.Alpha
}

// Lighting is the depth cue for floors below the player.
type Lighting struct {
	Enabled  bool
	DimTint  color.RGBA
	DimAlpha float32
}

func DefaultLighting() Lighting {
	return Lighting{Enabled: true, DimTint: color.RGBA{0xA0, 0xA0, 0xA0, 0xFF}, DimAlpha: 0.85}
}

// StyleFor returns the style for a tile on floor tileZ seen from floor
// playerZ.
func (l Lighting) StyleFor(tileZ, playerZ int) Style {
	if !l.Enabled || tileZ >= playerZ {
		return Style{}
	}
	return Style{Tint: l.DimTint, Alpha: l.DimAlpha}
}

var hoverColor = color.RGBA{0xFF, 0xA5, 0x00, 0xFF}

// hoverStyle pulses between a half and a full orange tint.
func hoverStyle(base Style, now time.Time) Style {
	ms := float64(now.UnixMilli())
	k := 0.75 + 0.25*math.Sin(ms*0.005)
	mix := func(c uint8) uint8 {
		return uint8(math.Round(0xFF - (0xFF-float64(c))*k))
	}
	base.Tint = color.RGBA{mix(hoverColor.R), mix(hoverColor.G), mix(hoverColor.B), 0xFF}
	return base
}
