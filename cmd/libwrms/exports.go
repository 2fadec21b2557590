package main

/*
#include <stddef.h>
#include <stdint.h>
#include <stdlib.h>

typedef uintptr_t wrms_handle_t;

typedef struct {
  int32_t x;
  int32_t y;
  int32_t w;
  int32_t h;
  int32_t stride;
  uint32_t color;
  uint32_t offset;
} wrms_sprite_t;

typedef struct {
  wrms_sprite_t* sprites;
  size_t sprites_len;

  uint8_t* bitmaps;
  size_t bitmaps_len;
} wrms_frame_t;
*/
import "C"

import (
	"math"
	"unsafe"

	"github.com/gogpu/ggass"
)

func init() {
	if int(C.sizeof_wrms_sprite_t) != ggass.SpriteSize {
		panic("wrms: sprite record size mismatch")
	}
}

//export wrms_create
func wrms_create() C.wrms_handle_t {
	cfg, err := sharedConfig()
	if err != nil {
		ggass.Logger().Warn("wrms: config", "err", err)
		return 0
	}
	return C.wrms_handle_t(create(cfg, newCAllocator(cfg.Render.MaxFrameBytes)))
}

//export wrms_destroy
func wrms_destroy(h C.wrms_handle_t) {
	destroy(uintptr(h))
}

//export wrms_set_frame_size
func wrms_set_frame_size(h C.wrms_handle_t, width, height C.int) C.int {
	return C.int(setFrameSize(uintptr(h), int(width), int(height)))
}

//export wrms_set_track
func wrms_set_track(h C.wrms_handle_t, data *C.char, n C.size_t) C.int {
	if h == 0 {
		return ggass.CodeNilHandle
	}
	if data == nil || n == 0 || uint64(n) > math.MaxInt32 {
		return ggass.CodeInvalidArgument
	}
	return C.int(setTrack(uintptr(h), C.GoBytes(unsafe.Pointer(data), C.int(n))))
}

//export wrms_render_a8
func wrms_render_a8(h C.wrms_handle_t, tMs C.int, out *C.wrms_frame_t) C.int {
	if out != nil {
		*out = C.wrms_frame_t{}
	}
	if h == 0 {
		return ggass.CodeNilHandle
	}
	if out == nil {
		return ggass.CodeInvalidArgument
	}

	var f ggass.Frame
	if code := renderAt(uintptr(h), int64(tMs), &f); code != ggass.CodeOK {
		return C.int(code)
	}
	if f.Empty() {
		return ggass.CodeOK
	}
	// The buffers came from the C allocator; ownership moves to out.
	out.sprites = (*C.wrms_sprite_t)(unsafe.Pointer(unsafe.SliceData(f.Sprites)))
	out.sprites_len = C.size_t(len(f.Sprites))
	out.bitmaps = (*C.uint8_t)(unsafe.Pointer(unsafe.SliceData(f.Bitmaps)))
	out.bitmaps_len = C.size_t(len(f.Bitmaps))
	return ggass.CodeOK
}

//export wrms_free_frame
func wrms_free_frame(f *C.wrms_frame_t) {
	if f == nil {
		return
	}
	if f.sprites != nil {
		C.free(unsafe.Pointer(f.sprites))
	}
	if f.bitmaps != nil {
		C.free(unsafe.Pointer(f.bitmaps))
	}
	*f = C.wrms_frame_t{}
}

//export wrms_set_fonts
func wrms_set_fonts(h C.wrms_handle_t, defaultFamily, defaultFont, fontsDir *C.char) C.int {
	cfg := ggass.FontConfig{}
	if defaultFamily != nil {
		cfg.DefaultFamily = C.GoString(defaultFamily)
	}
	if defaultFont != nil {
		cfg.DefaultFont = C.GoString(defaultFont)
	}
	if fontsDir != nil {
		cfg.FontsDir = C.GoString(fontsDir)
	}
	return C.int(setFonts(uintptr(h), cfg))
}

//export wrms_add_font
func wrms_add_font(h C.wrms_handle_t, name *C.char, data *C.char, n C.size_t) C.int {
	if h == 0 {
		return ggass.CodeNilHandle
	}
	if data == nil || n == 0 || uint64(n) > math.MaxInt32 {
		return ggass.CodeInvalidArgument
	}
	var goName string
	if name != nil {
		goName = C.GoString(name)
	}
	return C.int(addFont(uintptr(h), goName, C.GoBytes(unsafe.Pointer(data), C.int(n))))
}
