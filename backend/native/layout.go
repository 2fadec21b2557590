package native

import (
	"image"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/ggass/ass"
)

// frameScale maps script coordinates to frame pixels.
type frameScale struct {
	width, height int
	x, y          float64 // script unit to pixel
	border        float64 // border/shadow unit to pixel
}

func newFrameScale(t *ass.Track, width, height int) frameScale {
	fs := frameScale{
		width:  width,
		height: height,
		x:      float64(width) / float64(max(t.PlayResX, 1)),
		y:      float64(height) / float64(max(t.PlayResY, 1)),
		border: 1,
	}
	if t.ScaledBorderAndShadow {
		fs.border = fs.y
	}
	return fs
}

// runInfo is a run style resolved against the fonts and the frame.
type runInfo struct {
	style ass.RunStyle
	face  *face

	ppem   float64 // shaping size
	sx, sy float64 // glyph scale after shaping
	shear  float64
	// embolden grows the fill for bold styles whose face is not bold.
	embolden float64

	ascent, descent float64
	border, shadow  float64
	spacing         float64
}

// glyphTransform places a glyph with its origin at (x, y) in mask space.
func (ri *runInfo) glyphTransform(x, y float64) transform {
	return transform{sx: ri.sx, sy: ri.sy, shear: ri.shear, ox: x, oy: y}
}

// placedGlyph is a shaped glyph with scaled metrics.
type placedGlyph struct {
	run   *runInfo
	gid   sfnt.GlyphIndex
	x, y  float64 // offset from the pen
	adv   float64
	space bool // a breaking space
}

// textLine is one laid out line of an event.
type textLine struct {
	glyphs          []placedGlyph
	width           float64
	ascent, descent float64
}

func (l *textLine) height() float64 { return l.ascent + l.descent }

// measure recomputes width and vertical metrics from the glyphs, keeping
// fallback metrics for lines without glyphs.
func (l *textLine) measure(fallback *runInfo) {
	l.width = 0
	l.ascent, l.descent = 0, 0
	for _, g := range l.glyphs {
		l.width += g.adv
		l.ascent = max(l.ascent, g.run.ascent)
		l.descent = max(l.descent, g.run.descent)
	}
	if len(l.glyphs) == 0 && fallback != nil {
		l.ascent, l.descent = fallback.ascent, fallback.descent
	}
}

// resolveRun matches fonts and computes scaled metrics for a run style.
// It returns nil for runs that cannot produce output.
func (r *renderer) resolveRun(rs ass.RunStyle, fs frameScale) *runInfo {
	if rs.FontSize <= 0 || rs.ScaleX <= 0 || rs.ScaleY <= 0 {
		return nil
	}
	fc := r.matchFont(rs.FontName, rs.Bold, rs.Italic)
	if fc == nil {
		return nil
	}

	ri := &runInfo{
		style:   rs,
		face:    fc,
		ppem:    rs.FontSize * fs.y * fc.emScale,
		sx:      rs.ScaleX * fs.x / fs.y,
		sy:      rs.ScaleY,
		border:  rs.Border * fs.border,
		shadow:  rs.Shadow * fs.border,
		spacing: rs.Spacing * fs.x,
	}
	if rs.Italic && !fc.italic {
		ri.shear = italicShear
	}
	if rs.Bold && !fc.bold {
		ri.embolden = max(ri.ppem/48, 0.5)
	}

	var buf sfnt.Buffer
	if m, err := fc.sfnt.Metrics(&buf, fixed.Int26_6(ri.ppem*64), font.HintingNone); err == nil {
		ri.ascent = fixedToFloat(m.Ascent) * ri.sy
		ri.descent = fixedToFloat(m.Descent) * ri.sy
	} else {
		ri.ascent = ri.ppem * 0.8 * ri.sy
		ri.descent = ri.ppem * 0.2 * ri.sy
	}
	return ri
}

// shapeLine shapes the runs of one hard line.
func (r *renderer) shapeLine(runs []ass.Run, fs frameScale) textLine {
	var l textLine
	for _, run := range runs {
		ri := r.resolveRun(run.Style, fs)
		if ri == nil {
			continue
		}
		runes := []rune(run.Text)
		for _, g := range r.shaper.shape(runes, ri.face, ri.ppem) {
			space := g.cluster >= 0 && g.cluster < len(runes) && runes[g.cluster] == ' '
			l.glyphs = append(l.glyphs, placedGlyph{
				run:   ri,
				gid:   g.gid,
				x:     g.xOff * ri.sx,
				y:     -g.yOff * ri.sy,
				adv:   g.advance*ri.sx + ri.spacing,
				space: space,
			})
		}
	}
	return l
}

// wrap breaks a line at spaces so that no line exceeds maxWidth, unless a
// single word is wider. WrapStyle 2 never wraps.
func wrap(l textLine, maxWidth float64, wrapStyle int, base *runInfo) []textLine {
	l.measure(base)
	if wrapStyle == 2 || maxWidth <= 0 || l.width <= maxWidth {
		return []textLine{l}
	}

	var lines []textLine
	glyphs := l.glyphs
	for len(glyphs) > 0 {
		width := 0.0
		brk := -1
		end := len(glyphs)
		for i, g := range glyphs {
			if g.space {
				brk = i
			}
			width += g.adv
			if width > maxWidth && brk > 0 && !g.space {
				end = brk
				break
			}
		}
		lines = append(lines, newLine(glyphs[:end], base))
		glyphs = trimLeadingSpaces(glyphs[end:])
	}

	if wrapStyle == 0 || wrapStyle == 3 {
		balance(lines, maxWidth, wrapStyle == 3, base)
	}
	return lines
}

func newLine(glyphs []placedGlyph, base *runInfo) textLine {
	for len(glyphs) > 0 && glyphs[len(glyphs)-1].space {
		glyphs = glyphs[:len(glyphs)-1]
	}
	l := textLine{glyphs: glyphs}
	l.measure(base)
	return l
}

func trimLeadingSpaces(glyphs []placedGlyph) []placedGlyph {
	for len(glyphs) > 0 && glyphs[0].space {
		glyphs = glyphs[1:]
	}
	return glyphs
}

// balance moves words between adjacent wrapped lines to even out their
// widths. With lowerWider the lower line ends up the wider one, otherwise
// the upper.
func balance(lines []textLine, maxWidth float64, lowerWider bool, base *runInfo) {
	for i := 0; i+1 < len(lines); i++ {
		for {
			a, b := &lines[i], &lines[i+1]
			var moved bool
			if lowerWider {
				moved = shiftLastWord(a, b, maxWidth, base)
			} else {
				moved = shiftLastWordIfTopStaysWider(a, b, maxWidth, base)
			}
			if !moved {
				break
			}
		}
	}
}

// splitLastWord returns the index where the last word of l starts, or -1.
func splitLastWord(l *textLine) int {
	for i := len(l.glyphs) - 1; i > 0; i-- {
		if l.glyphs[i].space {
			return i
		}
	}
	return -1
}

// tryShift builds the pair resulting from moving the last word of a to the
// front of b.
func tryShift(a, b *textLine, base *runInfo) (textLine, textLine, bool) {
	k := splitLastWord(a)
	if k < 0 {
		return textLine{}, textLine{}, false
	}
	word := trimLeadingSpaces(a.glyphs[k:])
	nb := make([]placedGlyph, 0, len(word)+1+len(b.glyphs))
	nb = append(nb, word...)
	nb = append(nb, a.glyphs[k])
	nb = append(nb, b.glyphs...)
	return newLine(a.glyphs[:k], base), newLine(nb, base), true
}

func shiftLastWordIfTopStaysWider(a, b *textLine, maxWidth float64, base *runInfo) bool {
	na, nb, ok := tryShift(a, b, base)
	if !ok || nb.width > maxWidth || na.width < nb.width {
		return false
	}
	if math.Abs(na.width-nb.width) >= math.Abs(a.width-b.width) {
		return false
	}
	*a, *b = na, nb
	return true
}

func shiftLastWord(a, b *textLine, maxWidth float64, base *runInfo) bool {
	na, nb, ok := tryShift(a, b, base)
	if !ok || nb.width > maxWidth {
		return false
	}
	if a.width <= b.width {
		return false
	}
	*a, *b = na, nb
	return true
}

// block is the laid out text of one event.
type block struct {
	lines  []textLine
	width  float64
	height float64
	// x0, y0 is the top-left corner in frame pixels.
	x0, y0 float64
	halign int // 0 left, 1 center, 2 right
}

func (b *block) bounds() image.Rectangle {
	return image.Rect(
		int(math.Floor(b.x0)), int(math.Floor(b.y0)),
		int(math.Ceil(b.x0+b.width)), int(math.Ceil(b.y0+b.height)),
	)
}

// lineX returns the left edge of line i in frame pixels.
func (b *block) lineX(i int) float64 {
	slack := b.width - b.lines[i].width
	switch b.halign {
	case 1:
		return b.x0 + slack/2
	case 2:
		return b.x0 + slack
	default:
		return b.x0
	}
}

// margins returns the effective margins of an event in frame pixels.
func margins(t *ass.Track, e *ass.Event, fs frameScale) (l, r, v float64) {
	s := t.Style(e)
	ml, mr, mv := s.MarginL, s.MarginR, s.MarginV
	if e.MarginL != 0 {
		ml = e.MarginL
	}
	if e.MarginR != 0 {
		mr = e.MarginR
	}
	if e.MarginV != 0 {
		mv = e.MarginV
	}
	return float64(ml) * fs.x, float64(mr) * fs.x, float64(mv) * fs.y
}

// place sets the block origin from alignment, margins and an optional
// explicit anchor in frame pixels.
func (b *block) place(alignment int, anchor *ass.Point, ml, mr, mv float64, fs frameScale) {
	if alignment < 1 || alignment > 9 {
		alignment = 2
	}
	b.halign = (alignment - 1) % 3
	valign := (alignment - 1) / 3 // 0 bottom, 1 middle, 2 top

	if anchor != nil {
		switch b.halign {
		case 0:
			b.x0 = anchor.X
		case 1:
			b.x0 = anchor.X - b.width/2
		default:
			b.x0 = anchor.X - b.width
		}
		switch valign {
		case 0:
			b.y0 = anchor.Y - b.height
		case 1:
			b.y0 = anchor.Y - b.height/2
		default:
			b.y0 = anchor.Y
		}
		return
	}

	w, h := float64(fs.width), float64(fs.height)
	switch b.halign {
	case 0:
		b.x0 = ml
	case 1:
		b.x0 = ml + (w-ml-mr-b.width)/2
	default:
		b.x0 = w - mr - b.width
	}
	switch valign {
	case 0:
		b.y0 = h - mv - b.height
	case 1:
		b.y0 = (h - b.height) / 2
	default:
		b.y0 = mv
	}
}

// collisions tracks the areas used by unpositioned events per layer.
type collisions map[int][]image.Rectangle

// fit moves b vertically until it does not overlap earlier events of the
// same layer. Bottom and middle aligned events move up, top aligned down.
func (c collisions) fit(layer int, b *block, down bool) {
	used := c[layer]
	for range len(used) + 1 {
		r := b.bounds()
		hit := false
		for _, u := range used {
			if !r.Overlaps(u) {
				continue
			}
			hit = true
			if down {
				b.y0 = float64(u.Max.Y)
			} else {
				b.y0 = float64(u.Min.Y) - b.height
			}
			break
		}
		if !hit {
			break
		}
	}
	c[layer] = append(used, b.bounds())
}
