package native

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/ggass/ass"
	"github.com/gogpu/ggass/backend"
)

// Errors returned by the native backend.
var (
	// ErrLibraryClosed is returned when a closed library is used.
	ErrLibraryClosed = errors.New("native: library closed")

	// ErrFontNotFound is returned by SetFonts when the default font cannot be loaded.
	ErrFontNotFound = errors.New("native: default font not found")
)

// init registers the native backend on package import.
func init() {
	backend.Register(backend.BackendNative, func() backend.Backend {
		return Backend{}
	})
}

// Backend is the pure Go subtitle rasterizer.
type Backend struct{}

// Name returns the backend identifier.
func (Backend) Name() string { return backend.BackendNative }

// NewLibrary creates a library preloaded with the Go font family.
func (Backend) NewLibrary(cfg backend.Config) (backend.Library, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	lib := &library{logger: logger, fonts: &fontSet{}}
	for _, fc := range builtinSet() {
		lib.fonts.add(fc)
	}
	logger.Debug("native: library initialized", "fonts", lib.fonts.len())
	return lib, nil
}

// library is the native library context.
type library struct {
	logger *slog.Logger
	fonts  *fontSet
	closed atomic.Bool
}

func (l *library) NewRenderer() (backend.Renderer, error) {
	if l.closed.Load() {
		return nil, ErrLibraryClosed
	}
	return &renderer{
		lib:    l,
		logger: l.logger,
		shaper: newShaper(),
	}, nil
}

func (l *library) ReadTrack(data []byte) (backend.Track, error) {
	if l.closed.Load() {
		return nil, ErrLibraryClosed
	}
	t, err := ass.Parse(data)
	if err != nil {
		return nil, err
	}
	for _, f := range t.Fonts {
		if err := l.AddFont(f.Name, f.Data); err != nil {
			l.logger.Warn("native: skipping embedded font", "name", f.Name, "err", err)
		}
	}
	l.logger.Debug("native: track loaded",
		"type", t.Type, "events", len(t.Events), "styles", len(t.Styles),
		"play_res_x", t.PlayResX, "play_res_y", t.PlayResY)
	return &track{lib: l, ass: t}, nil
}

func (l *library) AddFont(name string, data []byte) error {
	if len(data) == 0 {
		return backend.ErrEmptyFontData
	}
	if l.closed.Load() {
		return ErrLibraryClosed
	}
	fc, err := parseFace(name, data)
	if err != nil {
		return fmt.Errorf("native: add font: %w", err)
	}
	l.fonts.add(fc)
	return nil
}

func (l *library) Close() error {
	if !l.closed.CompareAndSwap(false, true) {
		return ErrLibraryClosed
	}
	return nil
}

// track wraps a parsed script.
type track struct {
	lib    *library
	ass    *ass.Track
	closed atomic.Bool
}

func (t *track) Close() error {
	t.closed.Store(true)
	return nil
}
