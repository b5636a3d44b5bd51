package gfx

import "image"

// MemoryDevice keeps surfaces in main memory. It backs headless rendering
// and counts uploads so callers can check partial-upload behaviour.
type MemoryDevice struct {
	// MaxSize bounds surface edges; zero means 8192.
	MaxSize int

	Uploads        int
	UploadedPixels int
	Disposed       int
}

func (d *MemoryDevice) MaxTextureSize() int {
	if d.MaxSize > 0 {
		return d.MaxSize
	}
	return ebitenMaxTextureSize
}

func (d *MemoryDevice) NewSurface(w, h int) Surface {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	return &MemoryTexture{img: img, rect: img.Rect, key: newKey(), dev: d}
}

// MemoryTexture is a surface or view created by a MemoryDevice.
type MemoryTexture struct {
	img      *image.RGBA
	rect     image.Rectangle
	key      uint32
	dev      *MemoryDevice
	view     bool
	disposed bool
}

func (t *MemoryTexture) Key() uint32             { return t.key }
func (t *MemoryTexture) Bounds() image.Rectangle { return t.rect }

// Backing returns the whole surface image, premultiplied.
func (t *MemoryTexture) Backing() *image.RGBA { return t.img }

// Pixels returns the region covered by t.
func (t *MemoryTexture) Pixels() *image.RGBA {
	return t.img.SubImage(t.rect).(*image.RGBA)
}

func (t *MemoryTexture) Disposed() bool { return t.disposed }

func (t *MemoryTexture) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.dev.Disposed++
	if !t.view {
		t.img = image.NewRGBA(image.Rectangle{})
	}
}

func (t *MemoryTexture) WritePixels(pix []byte, r image.Rectangle) {
	r = r.Intersect(t.rect)
	w := r.Dx() * 4
	for y := 0; y < r.Dy(); y++ {
		off := t.img.PixOffset(r.Min.X, r.Min.Y+y)
		copy(t.img.Pix[off:off+w], pix[y*w:(y+1)*w])
	}
	t.dev.Uploads++
	t.dev.UploadedPixels += r.Dx() * r.Dy()
}

func (t *MemoryTexture) View(r image.Rectangle) Texture {
	return &MemoryTexture{img: t.img, rect: r.Intersect(t.rect), key: t.key, dev: t.dev, view: true}
}
