package spr

import "image/color"

// Outfit selects palette colors for the four recolorable regions of a
// creature sprite.
type Outfit struct {
	Head, Body, Legs, Feet uint8
}

// palette holds the outfit colors as 0xBBGGRR.
var palette = [...]uint32{
	0xFFFFFF, 0xBFD4FF, 0xBFE9FF, 0xBFFFFF, 0xBFFFE9, 0xBFFFD4, 0xBFFFBF,
	0xD4FFBF, 0xE9FFBF, 0xFFFFBF, 0xFFE9BF, 0xFFD4BF, 0xFFBFBF, 0xFFBFD4,
	0xFFBFE9, 0xFFBFFF, 0xE9BFFF, 0xD4BFFF, 0xBFBFFF, 0xDADADA, 0x8F9FBF,
	0x8FAFBF, 0x8FBFBF, 0x8FBFAF, 0x8FBF9F, 0x8FBF8F, 0x9FBF8F, 0xAFBF8F,
	0xBFBF8F, 0xBFAF8F, 0xBF9F8F, 0xBF8F8F, 0xBF8F9F, 0xBF8FAF, 0xBF8FBF,
	0xAF8FBF, 0x9F8FBF, 0x8F8FBF, 0xB6B6B6, 0x5F7FBF, 0x8FAFBF, 0x5FBFBF,
	0x5FBF9F, 0x5FBF7F, 0x5FBF5F, 0x7FBF5F, 0x9FBF5F, 0xBFBF5F, 0xBF9F5F,
	0xBF7F5F, 0xBF5F5F, 0xBF5F7F, 0xBF5F9F, 0xBF5FBF, 0x9F5FBF, 0x7F5FBF,
	0x5F5FBF, 0x919191, 0x3F6ABF, 0x3F94BF, 0x3FBFBF, 0x3FBF94, 0x3FBF6A,
	0x3FBF3F, 0x6ABF3F, 0x94BF3F, 0xBFBF3F, 0xBF943F, 0xBF6A3F, 0xBF3F3F,
	0xBF3F6A, 0xBF3F94, 0xBF3FBF, 0x943FBF, 0x6A3FBF, 0x3F3FBF, 0x6D6D6D,
	0x0055FF, 0x00AAFF, 0x00FFFF, 0x00FFAA, 0x00FF54, 0x00FF00, 0x54FF00,
	0xAAFF00, 0xFFFF00, 0xFFA900, 0xFF5500, 0xFF0000, 0xFF0055, 0xFF00A9,
	0xFF00FE, 0xAA00FF, 0x5500FF, 0x0000FF, 0x484848, 0x003FBF, 0x007FBF,
	0x00BFBF, 0x00BF7F, 0x00BF3F, 0x00BF00, 0x3FBF00, 0x7FBF00, 0xBFBF00,
	0xBF7F00, 0xBF3F00, 0xBF0000, 0xBF003F, 0xBF007F, 0xBF00BF, 0x7F00BF,
	0x3F00BF, 0x0000BF, 0x242424, 0x002A7F, 0x00557F, 0x007F7F, 0x007F55,
	0x007F2A, 0x007F00, 0x2A7F00, 0x557F00, 0x7F7F00, 0x7F5400, 0x7F2A00,
	0x7F0000, 0x7F002A, 0x7F0054, 0x7F007F, 0x55007F, 0x2A007F, 0x00007F,
}

// PaletteColor returns outfit palette entry i. Out of range indices map to
// white, which leaves the base sprite unchanged.
func PaletteColor(i uint8) color.RGBA {
	if int(i) >= len(palette) {
		return color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}
	}
	c := palette[i]
	return color.RGBA{uint8(c), uint8(c >> 8), uint8(c >> 16), 0xFF}
}

// Mask colors marking the recolorable regions, packed as R<<24|G<<16|B<<8|A.
const (
	maskHead = 0xFFFF00FF // yellow
	maskBody = 0xFF0000FF // red
	maskLegs = 0x00FF00FF // green
	maskFeet = 0x0000FFFF // blue
)

// Colorize multiplies the base pixels covered by a mask region with the
// outfit color for that region. Both buffers are RGBA sprites of PixelBytes;
// base is modified in place.
func Colorize(base, mask []byte, o Outfit) {
	head := PaletteColor(o.Head)
	body := PaletteColor(o.Body)
	legs := PaletteColor(o.Legs)
	feet := PaletteColor(o.Feet)

	n := min(len(base), len(mask))
	for i := 0; i+3 < n; i += 4 {
		var c color.RGBA
		switch uint32(mask[i])<<24 | uint32(mask[i+1])<<16 | uint32(mask[i+2])<<8 | uint32(mask[i+3]) {
		case maskHead:
			c = head
		case maskBody:
			c = body
		case maskLegs:
			c = legs
		case maskFeet:
			c = feet
		default:
			continue
		}
		base[i] = uint8(uint16(base[i]) * uint16(c.R) / 0xFF)
		base[i+1] = uint8(uint16(base[i+1]) * uint16(c.G) / 0xFF)
		base[i+2] = uint8(uint16(base[i+2]) * uint16(c.B) / 0xFF)
	}
}
