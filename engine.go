package ggass

import (
	"fmt"
	"math"
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/gogpu/ggass/backend"
	_ "github.com/gogpu/ggass/backend/libass" // registers "libass" (nil without the build tag)
	_ "github.com/gogpu/ggass/backend/native" // registers "native"
)

// Engine renders one subtitle track to A8 sprites. It owns a library
// context, a renderer context and optionally a track, guarded by one mutex:
// every method holds it for its full duration, so calls on one engine are
// serialized while distinct engines are independent.
//
// The zero value is not usable; call Create.
type Engine struct {
	mu sync.Mutex

	name     string
	lib      backend.Library
	renderer backend.Renderer
	track    backend.Track

	width, height int
	alloc         Allocator
	maxFrameBytes int
	destroyed     bool
}

// Create initializes a library context and a renderer context. If the
// renderer (or the font configuration) fails, the library is released
// before the error is returned, so a failed Create leaks nothing.
func Create(opts ...EngineOption) (_ *Engine, err error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	var b backend.Backend
	if o.backend != "" {
		b = backend.Get(o.backend)
	} else {
		b = backend.Default()
	}
	if b == nil {
		return nil, fmt.Errorf("%w: %q", ErrBackendUnavailable, o.backend)
	}

	log := Logger()
	lib, err := b.NewLibrary(backend.Config{Logger: log})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLibraryInit, err)
	}
	defer func() {
		if err != nil {
			if cerr := lib.Close(); cerr != nil {
				log.Warn("ggass: library release failed", "err", cerr)
			}
		}
	}()

	r, err := lib.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRendererInit, err)
	}
	defer func() {
		if err != nil {
			if cerr := r.Close(); cerr != nil {
				log.Warn("ggass: renderer release failed", "err", cerr)
			}
		}
	}()

	if o.fonts != nil {
		if err = r.SetFonts(*o.fonts); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFont, err)
		}
	}

	alloc, maxFrameBytes := o.alloc, 0
	if alloc == nil {
		heap := NewHeapAllocator(o.maxFrameBytes)
		alloc, maxFrameBytes = heap, heap.MaxBytes
	}

	log.Debug("ggass: engine created", "backend", b.Name())
	return &Engine{
		name:     b.Name(),
		lib:      lib,
		renderer:      r,
		alloc:         alloc,
		maxFrameBytes: maxFrameBytes,
	}, nil
}

// Destroy releases the track, the renderer and the library, in that order.
// A nil engine is a no-op, as is destroying twice. Destroy must not race
// with other calls on the same engine.
func (e *Engine) Destroy() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.destroyed {
		return
	}

	var result *multierror.Error
	if err := e.closeTrackLocked(); err != nil {
		result = multierror.Append(result, fmt.Errorf("track: %w", err))
	}
	if err := e.renderer.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("renderer: %w", err))
	}
	if err := e.lib.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("library: %w", err))
	}
	e.renderer, e.lib = nil, nil
	e.destroyed = true

	log := Logger()
	if err := result.ErrorOrNil(); err != nil {
		log.Warn("ggass: engine teardown", "err", err)
	}
	log.Debug("ggass: engine destroyed", "backend", e.name)
}

func (e *Engine) closeTrackLocked() error {
	if e.track == nil {
		return nil
	}
	err := e.track.Close()
	e.track = nil
	return err
}

// lock acquires the engine mutex, failing for nil or destroyed engines.
func (e *Engine) lock() error {
	if e == nil {
		return ErrNilEngine
	}
	e.mu.Lock()
	if e.destroyed {
		e.mu.Unlock()
		return ErrNilEngine
	}
	return nil
}

// SetFrameSize sets the canvas the track is laid out on. Both dimensions
// must be positive; on error nothing changes.
func (e *Engine) SetFrameSize(width, height int) error {
	if e == nil {
		return ErrNilEngine
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidFrameSize, width, height)
	}
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	e.width, e.height = width, height
	e.renderer.SetFrameSize(width, height)
	return nil
}

// FrameSize returns the last accepted frame size, or 0, 0.
func (e *Engine) FrameSize() (width, height int) {
	if err := e.lock(); err != nil {
		return 0, 0
	}
	defer e.mu.Unlock()
	return e.width, e.height
}

// SetTrack replaces the loaded track with one parsed from data. Empty data
// is rejected and keeps the current track. A parse failure releases the
// previous track and leaves the engine without one.
func (e *Engine) SetTrack(data []byte) error {
	if e == nil {
		return ErrNilEngine
	}
	if len(data) == 0 {
		return ErrInvalidTrack
	}
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if err := e.closeTrackLocked(); err != nil {
		Logger().Warn("ggass: track release failed", "err", err)
	}

	t, err := e.lib.ReadTrack(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTrackParse, err)
	}
	e.track = t
	Logger().Debug("ggass: track loaded", "backend", e.name, "bytes", len(data))
	return nil
}

// HasTrack reports whether a track is loaded.
func (e *Engine) HasTrack() bool {
	if err := e.lock(); err != nil {
		return false
	}
	defer e.mu.Unlock()
	return e.track != nil
}

// Backend returns the name of the engine's backend.
func (e *Engine) Backend() string {
	if e == nil {
		return ""
	}
	return e.name
}

// SetFonts applies a font configuration to the renderer.
func (e *Engine) SetFonts(cfg FontConfig) error {
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if err := e.renderer.SetFonts(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrFont, err)
	}
	return nil
}

// AddFont registers an in-memory font with the library.
func (e *Engine) AddFont(name string, data []byte) error {
	if e == nil {
		return ErrNilEngine
	}
	if len(data) == 0 {
		return ErrInvalidFontData
	}
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if err := e.lib.AddFont(name, data); err != nil {
		return fmt.Errorf("%w: %w", ErrFont, err)
	}
	return nil
}

// RenderAt renders the track at tMs milliseconds into out.
//
// out is reset to empty before anything else; its previous buffers must
// have been released with FreeFrame. No visible subtitles is not an error
// and yields an empty frame. Backend images without pixels are skipped.
// On success out owns freshly allocated buffers until FreeFrame.
func (e *Engine) RenderAt(tMs int64, out *Frame) error {
	if out != nil {
		out.reset()
	}
	if e == nil {
		return ErrNilEngine
	}
	if out == nil {
		return ErrNilFrame
	}
	if tMs < 0 {
		return ErrNegativeTime
	}
	if err := e.lock(); err != nil {
		return err
	}
	defer e.mu.Unlock()

	if e.track == nil {
		return ErrNoTrack
	}

	img, changed := e.renderer.RenderFrame(e.track, tMs)
	if img == nil {
		out.changed = changed
		return nil
	}

	n, total := 0, 0
	for it := img; it != nil; it = it.Next {
		if usable(it) {
			n++
			total += it.Stride * it.H
		}
	}
	if n == 0 || total == 0 {
		out.changed = changed
		return nil
	}
	if uint64(total) > math.MaxUint32 {
		return fmt.Errorf("%w: %d bitmap bytes", ErrAllocation, total)
	}
	// The default allocator's limit covers both buffers of the frame.
	if e.maxFrameBytes > 0 && n*SpriteSize+total > e.maxFrameBytes {
		return fmt.Errorf("%w: frame of %d bytes exceeds %d", ErrAllocation, n*SpriteSize+total, e.maxFrameBytes)
	}

	sprites, err := e.alloc.AllocSprites(n)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrAllocation, err)
	}
	bitmaps, err := e.alloc.AllocBitmaps(total)
	if err != nil {
		e.alloc.FreeSprites(sprites)
		return fmt.Errorf("%w: %w", ErrAllocation, err)
	}

	i, off := 0, 0
	for it := img; it != nil; it = it.Next {
		if !usable(it) {
			continue
		}
		size := it.Stride * it.H
		sprites[i] = Sprite{
			X:      int32(it.DstX),   //nolint:gosec // frame coordinates fit in int32
			Y:      int32(it.DstY),   //nolint:gosec // frame coordinates fit in int32
			W:      int32(it.W),      //nolint:gosec // bitmap sizes fit in int32
			H:      int32(it.H),      //nolint:gosec // bitmap sizes fit in int32
			Stride: int32(it.Stride), //nolint:gosec // bitmap sizes fit in int32
			Color:  it.Color,
			Offset: uint32(off), //nolint:gosec // total checked against MaxUint32
		}
		copy(bitmaps[off:off+size], it.Bitmap[:size])
		off += size
		i++
	}

	out.Sprites = sprites
	out.Bitmaps = bitmaps
	out.alloc = e.alloc
	out.changed = changed
	return nil
}

// usable reports whether a backend image carries pixels.
func usable(img *backend.Image) bool {
	return img.W > 0 && img.H > 0 && img.Stride > 0 &&
		img.Bitmap != nil && len(img.Bitmap) >= img.Stride*img.H
}
