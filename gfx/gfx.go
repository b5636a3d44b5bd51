// Package gfx abstracts the texture storage the renderer draws from, so the
// atlas can live in ebiten GPU images or in plain memory.
package gfx

import (
	"image"
	"sync/atomic"
)

// Texture is a drawable rectangle of image storage.
type Texture interface {
	// Key identifies the backing storage. Views cut from the same surface
	// share the surface's key, which is what draw batching groups by.
	Key() uint32
	Bounds() image.Rectangle
	// Dispose releases the texture. Disposing a view leaves its surface
	// intact.
	Dispose()
}

// Surface is a writable texture that views can be cut from.
type Surface interface {
	Texture
	// WritePixels uploads premultiplied RGBA pixels covering r.
	WritePixels(pix []byte, r image.Rectangle)
	// View returns a texture over r sharing this surface's storage.
	View(r image.Rectangle) Texture
}

// Device creates surfaces.
type Device interface {
	NewSurface(w, h int) Surface
	MaxTextureSize() int
}

var lastKey atomic.Uint32

func newKey() uint32 {
	return lastKey.Add(1)
}
