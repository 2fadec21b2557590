// Package native provides the pure Go subtitle backend.
//
// It parses scripts with package ass, shapes text with go-text/typesetting
// (HarfBuzz), loads glyph outlines with golang.org/x/image/font/sfnt and
// rasterizes them into A8 coverage with golang.org/x/image/vector.
//
// Each visible event produces its shadow images, then its border images,
// then its fill images, one image per distinct color, cropped to the
// covered pixels and to the frame. Colors use the libass packing.
//
// The backend registers itself as "native" on import:
//
//	import _ "github.com/gogpu/ggass/backend/native"
//
// Without a font configuration every style renders with the Go font family
// (golang.org/x/image/font/gofont), picking the bold and italic variants the
// style asks for.
package native
