package fog

import (
	"sync/atomic"

	"golang.org/x/crypto/blake2b"
)

// Palette maps the three fog states to texture values.
type Palette struct {
	Unexplored uint8
	Explored   uint8
	Visible    uint8
}

// DefaultPalette is used when a zero Palette is configured.
var DefaultPalette = Palette{Unexplored: 0, Explored: 96, Visible: 255}

func (p Palette) orDefault() Palette {
	if p == (Palette{}) {
		return DefaultPalette
	}
	return p
}

// Texture is one completed fog-of-war frame. A published Texture is never
// written again; readers may keep it as long as they like.
type Texture struct {
	Width    int
	Height   int
	Pix      []uint8 // row-major, Pix[y*Width+x]
	Revision uint64  // manager state revision this frame was computed from
	Seq      uint64  // publish counter of the worker that produced it
	Digest   [32]byte
	Explored []bool // explored memory as of this frame, independent of the palette
}

func newTexture(w, h int) *Texture {
	return &Texture{Width: w, Height: h, Pix: make([]uint8, w*h)}
}

func (t *Texture) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < t.Width && y < t.Height
}

// At returns the value at (x, y); out-of-range reads return 0.
func (t *Texture) At(x, y int) uint8 {
	if !t.In(x, y) {
		return 0
	}
	return t.Pix[y*t.Width+x]
}

func (t *Texture) seal() {
	t.Digest = blake2b.Sum256(t.Pix)
}

// Buffer is the publish side of the double buffer: the worker fills a
// private scratch Texture and swaps it in whole, so a reader only ever sees
// complete frames.
type Buffer struct {
	front     atomic.Pointer[Texture]
	published atomic.Uint64
}

func (b *Buffer) Publish(t *Texture) {
	b.front.Store(t)
	b.published.Add(1)
}

// Load returns the latest published texture, or nil before the first publish.
func (b *Buffer) Load() *Texture {
	return b.front.Load()
}

func (b *Buffer) Published() uint64 {
	return b.published.Load()
}
