package ggass

import (
	"fmt"
	"unsafe"
)

// Sprite places one A8 bitmap of a Frame. The layout matches the 28-byte
// C record wrms_sprite_t.
type Sprite struct {
	X, Y   int32
	W, H   int32
	Stride int32

	// Color is R<<24 | G<<16 | B<<8 | (255 - alpha), passed through from
	// the backend.
	Color uint32

	// Offset is the start of the sprite's rows in Frame.Bitmaps.
	Offset uint32
}

// SpriteSize is the size of a Sprite record in bytes.
const SpriteSize = int(unsafe.Sizeof(Sprite{}))

// Frame is one rendered frame: sprites plus one blob holding every sprite's
// rows back to back in sprite order. A Frame returned by RenderAt is owned by
// the caller until FreeFrame.
type Frame struct {
	Sprites []Sprite
	Bitmaps []byte

	alloc   Allocator
	changed int
}

// Empty reports whether the frame holds no sprites.
func (f *Frame) Empty() bool {
	return f == nil || len(f.Sprites) == 0
}

// Bitmap returns the rows of sprite i.
func (f *Frame) Bitmap(i int) []byte {
	s := f.Sprites[i]
	n := int(s.Stride) * int(s.H)
	return f.Bitmaps[s.Offset : int(s.Offset)+n]
}

// Changed reports how the frame differs from the previous frame rendered
// by the same engine: 0 identical, 1 same content at other positions, 2
// different content. The first frame an engine renders reports 2.
func (f *Frame) Changed() int {
	if f == nil {
		return 0
	}
	return f.changed
}

func (f *Frame) reset() {
	f.Sprites = nil
	f.Bitmaps = nil
	f.alloc = nil
	f.changed = 0
}

// FreeFrame returns the frame's buffers to the allocator that produced them
// and zeroes the frame. A nil or already freed frame is a no-op.
func FreeFrame(f *Frame) {
	if f == nil {
		return
	}
	if f.alloc != nil {
		if f.Sprites != nil {
			f.alloc.FreeSprites(f.Sprites)
		}
		if f.Bitmaps != nil {
			f.alloc.FreeBitmaps(f.Bitmaps)
		}
	}
	f.reset()
}

// DefaultMaxFrameBytes limits the combined sprite and bitmap bytes of one
// frame with the default allocator.
const DefaultMaxFrameBytes = 256 << 20

// Allocator provides the two buffers of a frame. RenderAt allocates sprites
// first and frees them again if the bitmap allocation fails.
type Allocator interface {
	AllocSprites(n int) ([]Sprite, error)
	AllocBitmaps(n int) ([]byte, error)
	FreeSprites(s []Sprite)
	FreeBitmaps(b []byte)
}

// HeapAllocator allocates frame buffers on the Go heap and refuses any single
// buffer above MaxBytes. An engine using it also rejects frames whose two
// buffers together exceed MaxBytes.
type HeapAllocator struct {
	MaxBytes int
}

// NewHeapAllocator returns a heap allocator with the given limit; a
// non-positive limit selects DefaultMaxFrameBytes.
func NewHeapAllocator(maxBytes int) *HeapAllocator {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxFrameBytes
	}
	return &HeapAllocator{MaxBytes: maxBytes}
}

// AllocSprites implements Allocator.
func (a *HeapAllocator) AllocSprites(n int) ([]Sprite, error) {
	if n < 0 || n > a.MaxBytes/SpriteSize {
		return nil, fmt.Errorf("%d sprites exceed %d bytes", n, a.MaxBytes)
	}
	return make([]Sprite, n), nil
}

// AllocBitmaps implements Allocator.
func (a *HeapAllocator) AllocBitmaps(n int) ([]byte, error) {
	if n < 0 || n > a.MaxBytes {
		return nil, fmt.Errorf("%d bitmap bytes exceed %d", n, a.MaxBytes)
	}
	return make([]byte, n), nil
}

// FreeSprites implements Allocator. Heap buffers are reclaimed by the GC.
func (a *HeapAllocator) FreeSprites([]Sprite) {}

// FreeBitmaps implements Allocator.
func (a *HeapAllocator) FreeBitmaps([]byte) {}
