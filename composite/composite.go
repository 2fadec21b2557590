// Package composite turns ggass frames into RGBA images.
//
// Sprites are blended in order with straight-alpha source-over onto a
// transparent canvas, the way a host overlays subtitles on video.
package composite

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"

	"github.com/gogpu/ggass"
)

// ErrUnknownFormat is returned for an unsupported output format.
var ErrUnknownFormat = errors.New("composite: unknown image format")

// Format is an output image encoding.
type Format string

// Supported formats.
const (
	FormatWebP Format = "webp"
	FormatPNG  Format = "png"
)

// ParseFormat accepts a format name or a file name with a known extension.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(s)
	if ext := filepath.Ext(name); ext != "" {
		name = ext[1:]
	}
	switch Format(name) {
	case FormatWebP:
		return FormatWebP, nil
	case FormatPNG:
		return FormatPNG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case FormatWebP:
		return "image/webp"
	case FormatPNG:
		return "image/png"
	}
	return "application/octet-stream"
}

// ColorNRGBA decodes a packed R<<24 | G<<16 | B<<8 | (255 - alpha) color.
func ColorNRGBA(c uint32) color.NRGBA {
	return color.NRGBA{
		R: uint8(c >> 24),
		G: uint8(c >> 16),
		B: uint8(c >> 8),
		A: 255 - uint8(c),
	}
}

// div255 divides by 255 with rounding.
func div255(v int) uint8 {
	return uint8((v + 127) / 255) //nolint:gosec // v <= 255*255+127
}

// Draw blends the sprites of f onto dst. Sprites are placed relative to the
// origin of dst's bounds and clipped to them.
func Draw(dst *image.NRGBA, f *ggass.Frame) {
	if dst == nil || f.Empty() {
		return
	}
	b := dst.Bounds()
	width, height := b.Dx(), b.Dy()

	for i, s := range f.Sprites {
		c := ColorNRGBA(s.Color)
		if c.A == 0 || s.W <= 0 || s.H <= 0 || s.Stride <= 0 {
			continue
		}
		src := f.Bitmap(i)

		sx0, sy0 := 0, 0
		dx0, dy0 := int(s.X), int(s.Y)
		if dx0 < 0 {
			sx0, dx0 = -dx0, 0
		}
		if dy0 < 0 {
			sy0, dy0 = -dy0, 0
		}
		dw := min(int(s.W)-sx0, width-dx0)
		dh := min(int(s.H)-sy0, height-dy0)
		if dw <= 0 || dh <= 0 {
			continue
		}

		r, g, bl, a0 := int(c.R), int(c.G), int(c.B), int(c.A)
		for y := range dh {
			row := src[(sy0+y)*int(s.Stride)+sx0:]
			pix := dst.Pix[dst.PixOffset(b.Min.X+dx0, b.Min.Y+dy0+y):]
			for x := range dw {
				m := int(row[x])
				if m == 0 {
					continue
				}
				a := int(div255(a0 * m))
				inv := 255 - a
				p := pix[x*4 : x*4+4 : x*4+4]
				p[0] = div255(r*a + int(p[0])*inv)
				p[1] = div255(g*a + int(p[1])*inv)
				p[2] = div255(bl*a + int(p[2])*inv)
				p[3] = uint8(a) + div255(int(p[3])*inv) //nolint:gosec // a + da*inv/255 <= 255
			}
		}
	}
}

// Render composites f onto a new transparent width x height canvas.
func Render(f *ggass.Frame, width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, max(width, 0), max(height, 0)))
	Draw(img, f)
	return img
}

// EncodeWebP writes img as lossless WebP.
func EncodeWebP(w io.Writer, img image.Image) error {
	err := webp.Encode(w, img, &webp.Options{
		Lossless: true,
		Exact:    true,
	})
	if err != nil {
		return fmt.Errorf("unable to encode WebP: %w", err)
	}
	return nil
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("unable to encode PNG: %w", err)
	}
	return nil
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatWebP:
		return EncodeWebP(w, img)
	case FormatPNG:
		return EncodePNG(w, img)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}
