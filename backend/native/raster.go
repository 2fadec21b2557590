package native

import (
	"image"
	"image/draw"

	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/gogpu/ggass/internal/mask"
)

// italicShear is the horizontal shear applied for synthetic italics.
const italicShear = 0.2

// transform maps glyph space (pixels at the shaping size, y down, origin on
// the baseline) to mask space.
type transform struct {
	sx, sy float64 // scale
	shear  float64 // x += -y * shear before scaling
	ox, oy float64 // origin in mask space
}

func (t transform) apply(p fixed.Point26_6) (float32, float32) {
	x := float64(p.X) / 64
	y := float64(p.Y) / 64
	x -= y * t.shear
	return float32(t.ox + x*t.sx), float32(t.oy + y*t.sy)
}

// glyphRasterizer accumulates glyph outlines into one coverage mask.
type glyphRasterizer struct {
	z   *vector.Rasterizer
	buf sfnt.Buffer
	n   int
}

func newGlyphRasterizer(w, h int) *glyphRasterizer {
	return &glyphRasterizer{z: vector.NewRasterizer(w, h)}
}

// addGlyph appends the outline of gid, loaded at ppem, placed by t.
// Glyphs without outlines (spaces) add nothing.
func (g *glyphRasterizer) addGlyph(f *sfnt.Font, gid sfnt.GlyphIndex, ppem float64, t transform) {
	segments, err := f.LoadGlyph(&g.buf, gid, fixed.Int26_6(ppem*64), nil)
	if err != nil || len(segments) == 0 {
		return
	}

	open := false
	for _, seg := range segments {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				g.z.ClosePath()
			}
			x, y := t.apply(seg.Args[0])
			g.z.MoveTo(x, y)
			open = true
		case sfnt.SegmentOpLineTo:
			x, y := t.apply(seg.Args[0])
			g.z.LineTo(x, y)
		case sfnt.SegmentOpQuadTo:
			bx, by := t.apply(seg.Args[0])
			cx, cy := t.apply(seg.Args[1])
			g.z.QuadTo(bx, by, cx, cy)
		case sfnt.SegmentOpCubeTo:
			bx, by := t.apply(seg.Args[0])
			cx, cy := t.apply(seg.Args[1])
			dx, dy := t.apply(seg.Args[2])
			g.z.CubeTo(bx, by, cx, cy, dx, dy)
		}
	}
	if open {
		g.z.ClosePath()
	}
	g.n++
}

// drawInto rasterizes the accumulated outlines into m.
func (g *glyphRasterizer) drawInto(m *mask.Mask) {
	if g.n == 0 {
		return
	}
	g.z.DrawOp = draw.Over
	dst := m.Alpha()
	g.z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
}
