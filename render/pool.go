package render

import "tilecore/gfx"

// Primitive is a reusable draw slot.
type Primitive struct {
	Texture    gfx.Texture
	X, Y, W, H int
	Style      Style
	Outline    bool
	Visible    bool
}

// Pool is a fixed set of primitives. It never grows: claims past capacity
// are counted and refused.
type Pool struct {
	prims   []Primitive
	used    int
	dropped int
}

func NewPool(size int) *Pool {
	return &Pool{prims: make([]Primitive, size)}
}

// Begin hides the previous frame's primitives and rewinds the cursor.
func (p *Pool) Begin() {
	for i := range p.prims[:p.used] {
		p.prims[i].Visible = false
		p.prims[i].Texture = nil
	}
	p.used = 0
	p.dropped = 0
}

// Claim returns the next free slot, or false when the pool is exhausted.
func (p *Pool) Claim() (*Primitive, bool) {
	if p.used == len(p.prims) {
		p.dropped++
		return nil, false
	}
	prim := &p.prims[p.used]
	p.used++
	return prim, true
}

// drop records n requests refused without claiming.
func (p *Pool) drop(n int) { p.dropped += n }

func (p *Pool) Full() bool { return p.used == len(p.prims) }

// Visible returns this frame's claimed primitives.
func (p *Pool) Visible() []Primitive { return p.prims[:p.used] }

func (p *Pool) Cap() int     { return len(p.prims) }
func (p *Pool) Used() int    { return p.used }
func (p *Pool) Dropped() int { return p.dropped }
