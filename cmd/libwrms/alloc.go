package main

// #include <stdlib.h>
import "C"

import (
	"errors"
	"unsafe"

	"github.com/gogpu/ggass"
)

var errCAlloc = errors.New("malloc failed")

// cAllocator hands out malloc'ed frame buffers so C callers can release
// them with wrms_free_frame.
type cAllocator struct {
	maxBytes int
}

func newCAllocator(maxBytes int) cAllocator {
	if maxBytes <= 0 {
		maxBytes = ggass.DefaultMaxFrameBytes
	}
	return cAllocator{maxBytes: maxBytes}
}

func (a cAllocator) malloc(n int) (unsafe.Pointer, error) {
	if n <= 0 || n > a.maxBytes {
		return nil, errCAlloc
	}
	p := C.malloc(C.size_t(n))
	if p == nil {
		return nil, errCAlloc
	}
	return p, nil
}

func (a cAllocator) AllocSprites(n int) ([]ggass.Sprite, error) {
	if n > a.maxBytes/ggass.SpriteSize {
		return nil, errCAlloc
	}
	p, err := a.malloc(n * ggass.SpriteSize)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*ggass.Sprite)(p), n), nil
}

func (a cAllocator) AllocBitmaps(n int) ([]byte, error) {
	p, err := a.malloc(n)
	if err != nil {
		return nil, err
	}
	return unsafe.Slice((*byte)(p), n), nil
}

func (cAllocator) FreeSprites(s []ggass.Sprite) {
	C.free(unsafe.Pointer(unsafe.SliceData(s)))
}

func (cAllocator) FreeBitmaps(b []byte) {
	C.free(unsafe.Pointer(unsafe.SliceData(b)))
}
