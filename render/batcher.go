package render

import "tilecore/gfx"

// DrawRequest is one sprite placement in screen pixels.
type DrawRequest struct {
	Texture    gfx.Texture
	X, Y, W, H int
	Outline    bool
	Style      Style
}

type batch struct {
	key  uint32
	reqs []DrawRequest
}

// Batcher groups draw requests by backing texture. Its storage survives
// Reset, so a steady frame allocates nothing.
type Batcher struct {
	index map[uint32]int
	lists []batch
	order []int // list indices in first use order this frame
}

func NewBatcher() *Batcher {
	return &Batcher{index: make(map[uint32]int)}
}

func (b *Batcher) Reset() {
	for _, i := range b.order {
		b.lists[i].reqs = b.lists[i].reqs[:0]
	}
	b.order = b.order[:0]
}

// Push queues a request. A nil texture is ignored.
func (b *Batcher) Push(tex gfx.Texture, x, y, w, h int, outline bool, style Style) {
	if tex == nil {
		return
	}
	k := tex.Key()
	i, ok := b.index[k]
	if !ok {
		i = len(b.lists)
		b.index[k] = i
		b.lists = append(b.lists, batch{key: k})
	}
	l := &b.lists[i]
	if len(l.reqs) == 0 {
		b.order = append(b.order, i)
	}
	l.reqs = append(l.reqs, DrawRequest{Texture: tex, X: x, Y: y, W: w, H: h, Outline: outline, Style: style})
}

// Len is the number of non-empty batches.
func (b *Batcher) Len() int { return len(b.order) }

// Requests is the total number of queued requests.
func (b *Batcher) Requests() int {
	n := 0
	for _, i := range b.order {
		n += len(b.lists[i].reqs)
	}
	return n
}

// ForEach visits non-empty batches in the order their key was first pushed.
func (b *Batcher) ForEach(fn func(key uint32, reqs []DrawRequest)) {
	for _, i := range b.order {
		fn(b.lists[i].key, b.lists[i].reqs)
	}
}
