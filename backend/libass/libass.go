//go:build libass

package libass

/*
#cgo pkg-config: libass
#include <stdlib.h>
#include <ass/ass.h>
*/
import "C"

import (
	"fmt"
	"log/slog"
	"os"
	"unsafe"

	"github.com/gogpu/ggass/backend"
)

// fontProviderAutodetect is ASS_FONTPROVIDER_AUTODETECT.
const fontProviderAutodetect = 1

// init registers the libass backend on package import.
func init() {
	backend.Register(backend.BackendLibass, func() backend.Backend {
		return Backend{}
	})
}

// Backend is the libass subtitle backend.
type Backend struct{}

// Name returns the backend identifier.
func (Backend) Name() string { return backend.BackendLibass }

// NewLibrary calls ass_library_init. Embedded track fonts are extracted.
func (Backend) NewLibrary(cfg backend.Config) (backend.Library, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	lib := C.ass_library_init()
	if lib == nil {
		return nil, ErrLibraryInit
	}
	C.ass_set_extract_fonts(lib, 1)
	logger.Debug("libass: library initialized", "version", int(C.ass_library_version()))
	return &library{lib: lib, logger: logger}, nil
}

type library struct {
	lib    *C.ASS_Library
	logger *slog.Logger
}

func (l *library) NewRenderer() (backend.Renderer, error) {
	if l.lib == nil {
		return nil, ErrClosed
	}
	r := C.ass_renderer_init(l.lib)
	if r == nil {
		return nil, ErrRendererInit
	}
	return &renderer{lib: l, r: r}, nil
}

func (l *library) ReadTrack(data []byte) (backend.Track, error) {
	if l.lib == nil {
		return nil, ErrClosed
	}
	if len(data) == 0 {
		return nil, ErrReadTrack
	}
	// ass_read_memory may modify the buffer, so it gets a private copy.
	buf := C.CBytes(data)
	defer C.free(buf)

	t := C.ass_read_memory(l.lib, (*C.char)(buf), C.size_t(len(data)), nil)
	if t == nil {
		return nil, ErrReadTrack
	}
	return &track{lib: l, t: t}, nil
}

func (l *library) AddFont(name string, data []byte) error {
	if len(data) == 0 {
		return backend.ErrEmptyFontData
	}
	if l.lib == nil {
		return ErrClosed
	}
	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))
	cdata := C.CBytes(data)
	defer C.free(cdata)

	C.ass_add_font(l.lib, cname, (*C.char)(cdata), C.int(len(data)))
	return nil
}

func (l *library) Close() error {
	if l.lib == nil {
		return ErrClosed
	}
	C.ass_library_done(l.lib)
	l.lib = nil
	return nil
}

type renderer struct {
	lib    *library
	r      *C.ASS_Renderer
	images []backend.Image
}

func (r *renderer) SetFrameSize(width, height int) {
	if r.r == nil {
		return
	}
	C.ass_set_frame_size(r.r, C.int(width), C.int(height))
}

func (r *renderer) SetFonts(cfg backend.FontConfig) error {
	if r.r == nil || r.lib.lib == nil {
		return ErrClosed
	}

	if cfg.FontsDir != "" {
		dir := C.CString(cfg.FontsDir)
		C.ass_set_fonts_dir(r.lib.lib, dir)
		C.free(unsafe.Pointer(dir))
	}
	for _, f := range cfg.Files {
		data, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("libass: font %q: %w", f, err)
		}
		if err := r.lib.AddFont(f, data); err != nil {
			return err
		}
	}

	var defFont, defFamily *C.char
	if cfg.DefaultFont != "" {
		defFont = C.CString(cfg.DefaultFont)
		defer C.free(unsafe.Pointer(defFont))
	}
	if cfg.DefaultFamily != "" {
		defFamily = C.CString(cfg.DefaultFamily)
		defer C.free(unsafe.Pointer(defFamily))
	}
	C.ass_set_fonts(r.r, defFont, defFamily, fontProviderAutodetect, nil, 1)
	r.lib.logger.Debug("libass: fonts configured",
		"default_family", cfg.DefaultFamily, "default_font", cfg.DefaultFont,
		"fonts_dir", cfg.FontsDir, "files", len(cfg.Files))
	return nil
}

func (r *renderer) RenderFrame(tr backend.Track, tMs int64) (*backend.Image, int) {
	t, ok := tr.(*track)
	if !ok || t.lib != r.lib || t.t == nil || r.r == nil {
		r.lib.logger.Warn("libass: cannot render track", "err", backend.ErrForeignTrack)
		return nil, 0
	}

	var changed C.int
	img := C.ass_render_frame(r.r, t.t, C.longlong(tMs), &changed)

	// The bitmaps stay owned by libass until the next render call.
	r.images = r.images[:0]
	for it := img; it != nil; it = it.next {
		var bitmap []byte
		if it.bitmap != nil && it.stride > 0 && it.h > 0 {
			bitmap = unsafe.Slice((*byte)(unsafe.Pointer(it.bitmap)), int(it.stride)*int(it.h))
		}
		r.images = append(r.images, backend.Image{
			W:      int(it.w),
			H:      int(it.h),
			Stride: int(it.stride),
			Bitmap: bitmap,
			Color:  uint32(it.color),
			DstX:   int(it.dst_x),
			DstY:   int(it.dst_y),
		})
	}
	if len(r.images) == 0 {
		return nil, int(changed)
	}
	for i := range r.images[:len(r.images)-1] {
		r.images[i].Next = &r.images[i+1]
	}
	return &r.images[0], int(changed)
}

func (r *renderer) Close() error {
	if r.r == nil {
		return ErrClosed
	}
	C.ass_renderer_done(r.r)
	r.r = nil
	r.images = nil
	return nil
}

type track struct {
	lib *library
	t   *C.ASS_Track
}

func (t *track) Close() error {
	if t.t == nil {
		return ErrClosed
	}
	C.ass_free_track(t.t)
	t.t = nil
	return nil
}
