package backend

import (
	"errors"
	"log/slog"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not available.
	ErrBackendNotAvailable = errors.New("backend: not available")

	// ErrForeignTrack is returned when a track created by one library is
	// handed to a renderer of another.
	ErrForeignTrack = errors.New("backend: track belongs to another library")

	// ErrEmptyFontData is returned by AddFont for empty font data.
	ErrEmptyFontData = errors.New("backend: empty font data")
)

// Backend names.
const (
	BackendLibass = "libass"
	BackendNative = "native"
)

// Backend is a subtitle rasterization library. It only knows how to bring
// up a library context; everything else hangs off the Library.
type Backend interface {
	// Name returns the backend identifier (e.g., "native", "libass").
	Name() string

	// NewLibrary initializes a library context.
	NewLibrary(cfg Config) (Library, error)
}

// Config is passed to Backend.NewLibrary.
type Config struct {
	// Logger receives backend diagnostics. Nil means silent.
	Logger *slog.Logger
}

// Library is the library context. It owns font data shared by its renderers
// and parses tracks.
type Library interface {
	// NewRenderer initializes a renderer context bound to this library.
	NewRenderer() (Renderer, error)

	// ReadTrack parses subtitle text held in memory. The data is not
	// retained and needs no terminator.
	ReadTrack(data []byte) (Track, error)

	// AddFont registers an in-memory font under the given name.
	AddFont(name string, data []byte) error

	// Close releases the library. Renderers and tracks must be closed first.
	Close() error
}

// Renderer is the renderer context.
type Renderer interface {
	// SetFrameSize sets the output canvas size in pixels.
	SetFrameSize(width, height int)

	// SetFonts applies a font configuration.
	SetFonts(cfg FontConfig) error

	// RenderFrame renders the track at tMs milliseconds. A nil image means
	// nothing is visible. The returned images (including their bitmaps) stay
	// valid until the next RenderFrame or Close call on this renderer.
	//
	// changed is 0 if the result is identical to the previous call, 1 if
	// only positions differ and 2 if the content changed.
	RenderFrame(track Track, tMs int64) (img *Image, changed int)

	// Close releases the renderer.
	Close() error
}

// Track is a parsed subtitle track.
type Track interface {
	// Close releases the track.
	Close() error
}

// Image is one A8 bitmap placed on the frame. Images form a singly linked
// list in composition order.
type Image struct {
	// W and H are the bitmap dimensions in pixels.
	W, H int

	// Stride is the row length of Bitmap in bytes.
	Stride int

	// Bitmap holds H rows of Stride bytes, one coverage byte per pixel.
	Bitmap []byte

	// Color is R<<24 | G<<16 | B<<8 | (255 - alpha).
	Color uint32

	// DstX and DstY are the top-left placement on the frame.
	DstX, DstY int

	Next *Image
}

// FontConfig selects fonts for a renderer.
type FontConfig struct {
	// DefaultFamily is used when a style names a family that is not available.
	DefaultFamily string `yaml:"default_family,omitempty"`

	// DefaultFont is a font file used as the final fallback.
	DefaultFont string `yaml:"default_font,omitempty"`

	// FontsDir is scanned for font files.
	FontsDir string `yaml:"fonts_dir,omitempty"`

	// Files are additional font files.
	Files []string `yaml:"files,omitempty"`
}
