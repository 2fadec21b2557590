package ggass

import "github.com/gogpu/ggass/backend"

// FontConfig selects fonts for an engine's renderer.
type FontConfig = backend.FontConfig

// EngineOption configures an Engine during creation.
// Use functional options to customize Engine behavior.
//
// Example:
//
//	// Best available backend, Go fonts, heap frames
//	e, err := ggass.Create()
//
//	// Explicit backend and a font directory
//	e, err := ggass.Create(
//		ggass.WithBackend("native"),
//		ggass.WithFonts(ggass.FontConfig{FontsDir: "/usr/share/fonts"}),
//	)
type EngineOption func(*engineOptions)

// engineOptions holds optional configuration for Engine creation.
type engineOptions struct {
	backend       string
	fonts         *FontConfig
	alloc         Allocator
	maxFrameBytes int
}

// defaultOptions returns the default engine options.
func defaultOptions() engineOptions {
	return engineOptions{
		backend:       "", // Will be resolved with backend.Default
		maxFrameBytes: DefaultMaxFrameBytes,
	}
}

// WithBackend selects a backend by name instead of the best available one.
func WithBackend(name string) EngineOption {
	return func(o *engineOptions) {
		o.backend = name
	}
}

// WithFonts applies a font configuration to the renderer at creation.
// Creation fails if the backend rejects it.
func WithFonts(cfg FontConfig) EngineOption {
	return func(o *engineOptions) {
		o.fonts = &cfg
	}
}

// WithAllocator sets the allocator for frame buffers.
// Use this when frames are released by code outside Go, as the C ABI does.
func WithAllocator(a Allocator) EngineOption {
	return func(o *engineOptions) {
		o.alloc = a
	}
}

// WithMaxFrameBytes limits the combined sprite and bitmap bytes of one frame
// with the default heap allocator. It has no effect together with WithAllocator.
func WithMaxFrameBytes(n int) EngineOption {
	return func(o *engineOptions) {
		o.maxFrameBytes = n
	}
}
