// Package libass provides a subtitle backend backed by libass through cgo.
//
// The backend maps one to one onto the libass C API:
//
//	Library  -> ass_library_init / ass_add_font / ass_read_memory / ass_library_done
//	Renderer -> ass_renderer_init / ass_set_frame_size / ass_set_fonts / ass_render_frame
//	Track    -> ass_free_track
//
// # Registration and Selection
//
// The backend is registered when this package is imported with the "libass"
// build tag and is then preferred over the native backend:
//
//	// Build with: go build -tags libass
//	import _ "github.com/gogpu/ggass/backend/libass"
//
// Without the tag, a stub is compiled that returns nil from the factory, so
// backend.Default falls back to the native backend.
//
// # Dependencies
//
// libass and its development headers, located through pkg-config:
//   - Debian/Ubuntu: libass-dev
//   - macOS: brew install libass
//
// # Thread Safety
//
// A Library and the renderers and tracks created from it must not be used
// concurrently. The engine serializes every call on its handle.
package libass
