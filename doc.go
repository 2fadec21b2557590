// Package ggass renders ASS/SSA subtitles to A8 sprites for compositing by a
// host application.
//
// # Overview
//
// An Engine wraps a subtitle rasterization backend (see package backend):
// a library context, a renderer context and an optional track. The host
// drives it synchronously:
//
//	e, err := ggass.Create()
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer e.Destroy()
//
//	_ = e.SetFrameSize(1920, 1080)
//	if err := e.SetTrack(script); err != nil {
//		log.Fatal(err)
//	}
//
//	var f ggass.Frame
//	if err := e.RenderAt(12_500, &f); err != nil {
//		log.Fatal(err)
//	}
//	defer ggass.FreeFrame(&f)
//
//	for i, s := range f.Sprites {
//		rows := f.Bitmap(i) // s.H rows of s.Stride coverage bytes
//		_ = rows
//	}
//
// # Frame Layout
//
// A Frame is a flat sprite list plus one bitmap blob holding every sprite's
// rows back to back in sprite order; Sprite.Offset locates them. Sprite is
// laid out like the 28-byte C record of the libwrms shared library, so
// frames cross the C boundary without conversion.
//
// # Errors
//
// Every engine error carries a stable status code, available with Code:
//
//	0 success
//	1 nil engine
//	2 invalid frame size, empty track data or nil output frame
//	3 track parse failure or negative timestamp
//	4 no track loaded
//	5 frame allocation failure
//
// # Backends
//
// The "libass" backend (build tag libass) is preferred; the pure Go "native"
// backend is always available. Select one explicitly with WithBackend.
//
// # Logging
//
// ggass is silent by default. Use SetLogger to route diagnostics to a
// log/slog logger.
package ggass
