// Package config holds the YAML configuration of the ggass service and CLI.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/ggass"
	"github.com/gogpu/ggass/backend"
	"github.com/gogpu/ggass/composite"
)

// Default ports of the render service.
const (
	DefaultHTTPPort      = 19090
	DefaultDiscoveryPort = 19091
)

// DefaultMaxFramePixels bounds the composited frame size; 8192x8192 RGBA
// matches ggass.DefaultMaxFrameBytes.
const DefaultMaxFramePixels = 8192 * 8192

var (
	// ErrInvalid is wrapped by every Validate failure.
	ErrInvalid = errors.New("config: invalid")

	// ErrFrameTooLarge is returned by Render.CheckFrameSize.
	ErrFrameTooLarge = errors.New("frame size exceeds max_frame_pixels")
)

// Config is the whole configuration file. Zero sections are not usable;
// start from Default and read the file over it.
type Config struct {
	Log    Log                `yaml:"log"`
	Render Render             `yaml:"render"`
	Fonts  backend.FontConfig `yaml:"fonts"`
	Server Server             `yaml:"server"`
}

// Log configures the process logger.
type Log struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Render holds the engine defaults and the frame limits.
type Render struct {
	// Backend names the rasterizer; empty selects the best available.
	Backend        string           `yaml:"backend,omitempty"`
	Width          int              `yaml:"width"`
	Height         int              `yaml:"height"`
	Format         composite.Format `yaml:"format"`
	MaxFrameBytes  int              `yaml:"max_frame_bytes"`
	// MaxFramePixels bounds width*height of any frame a client asks for.
	MaxFramePixels int              `yaml:"max_frame_pixels"`
}

// CheckFrameSize reports ErrFrameTooLarge if a width x height frame exceeds
// MaxFramePixels. Non-positive sizes are left to the engine to reject.
func (r Render) CheckFrameSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	if width > r.MaxFramePixels/height {
		return fmt.Errorf("%w: %dx%d", ErrFrameTooLarge, width, height)
	}
	return nil
}

// Server configures the HTTP render service and its UDP discovery responder.
type Server struct {
	Addr          string `yaml:"addr"`
	DiscoveryAddr string `yaml:"discovery_addr"`
	// Name is announced by /health and discovery; empty means the host name.
	Name          string `yaml:"name,omitempty"`
	MaxSessions   int    `yaml:"max_sessions"`
	MaxTrackBytes int64  `yaml:"max_track_bytes"`
}

// Default returns the built-in configuration: full HD WebP frames on the
// best available backend, served on DefaultHTTPPort.
func Default() Config {
	return Config{
		Log: Log{Level: "info"},
		Render: Render{
			Width:          1920,
			Height:         1080,
			Format:         composite.FormatWebP,
			MaxFrameBytes:  ggass.DefaultMaxFrameBytes,
			MaxFramePixels: DefaultMaxFramePixels,
		},
		Server: Server{
			Addr:          fmt.Sprintf(":%d", DefaultHTTPPort),
			DiscoveryAddr: fmt.Sprintf(":%d", DefaultDiscoveryPort),
			MaxSessions:   64,
			MaxTrackBytes: 32 << 20,
		},
	}
}

// LoadFile reads the config at path over the defaults. An empty path yields
// the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("unable to read file '%s': %w", path, err)
	}
	if _, err := cfg.Read(b); err != nil {
		return cfg, fmt.Errorf("unable to parse '%s': %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("'%s': %w", path, err)
	}
	return cfg, nil
}

// SlogLevel parses Log.Level.
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalid, l.Level)
	}
	return level, nil
}

// Validate checks the values a caller cannot recover from at run time.
func (cfg Config) Validate() error {
	if _, err := cfg.Log.SlogLevel(); err != nil {
		return err
	}
	r := cfg.Render
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: render size %dx%d", ErrInvalid, r.Width, r.Height)
	}
	if _, err := composite.ParseFormat(string(r.Format)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if r.MaxFrameBytes < 0 {
		return fmt.Errorf("%w: max_frame_bytes %d", ErrInvalid, r.MaxFrameBytes)
	}
	if r.MaxFramePixels <= 0 {
		return fmt.Errorf("%w: max_frame_pixels %d", ErrInvalid, r.MaxFramePixels)
	}
	if err := r.CheckFrameSize(r.Width, r.Height); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if r.Backend != "" && !backend.IsRegistered(r.Backend) {
		return fmt.Errorf("%w: unknown backend %q", ErrInvalid, r.Backend)
	}
	s := cfg.Server
	if s.Addr == "" {
		return fmt.Errorf("%w: empty server addr", ErrInvalid)
	}
	if s.MaxSessions <= 0 {
		return fmt.Errorf("%w: max_sessions %d", ErrInvalid, s.MaxSessions)
	}
	if s.MaxTrackBytes <= 0 {
		return fmt.Errorf("%w: max_track_bytes %d", ErrInvalid, s.MaxTrackBytes)
	}
	return nil
}

// EngineOptions returns the engine options the config selects.
func (cfg Config) EngineOptions() []ggass.EngineOption {
	opts := []ggass.EngineOption{ggass.WithMaxFrameBytes(cfg.Render.MaxFrameBytes)}
	if cfg.Render.Backend != "" {
		opts = append(opts, ggass.WithBackend(cfg.Render.Backend))
	}
	f := cfg.Fonts
	if f.DefaultFamily != "" || f.DefaultFont != "" || f.FontsDir != "" || len(f.Files) > 0 {
		opts = append(opts, ggass.WithFonts(f))
	}
	return opts
}
