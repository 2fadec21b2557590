// Package backend defines the subtitle rasterization library that the
// engine drives, and a registry of implementations.
//
// The call surface is deliberately the one of libass: a library context,
// a renderer context bound to it, tracks read from memory, a frame size
// and render-at-time returning a linked list of A8 images.
//
// # Backend Registration
//
// Backends are registered via init() functions and selected at runtime:
//
//	import _ "github.com/gogpu/ggass/backend/native"
//
// # Backend Selection
//
// Use Default() to get the best available backend, or Get() to request
// a specific backend by name:
//
//	b := backend.Default()
//	lib, err := b.NewLibrary(backend.Config{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer lib.Close()
//
// # Available Backends
//
//   - "native": pure Go parser and rasterizer (always available)
//   - "libass": cgo binding to libass (build with -tags libass)
package backend
