package native

import (
	"sync"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/bidi"

	"github.com/gogpu/ggass/internal/cache"
)

// shapedGlyph is a glyph positioned relative to the run's pen start, in
// unscaled pixels at the shaping size.
type shapedGlyph struct {
	gid     sfnt.GlyphIndex
	cluster int // rune index into the run text
	advance float64
	xOff    float64
	yOff    float64
}

// shapeCacheSize bounds the shaped runs kept per renderer.
const shapeCacheSize = 1024

type shapeKey struct {
	face *face
	text string
	ppem float64
}

// shaper turns text into glyphs. HarfbuzzShaper is not safe for
// concurrent use, so instances are pooled. Results are cached; the returned
// slices are shared and must not be modified.
type shaper struct {
	pool  sync.Pool
	cache *cache.Cache[shapeKey, []shapedGlyph]
}

func newShaper() *shaper {
	return &shaper{
		pool: sync.Pool{
			New: func() any { return &shaping.HarfbuzzShaper{} },
		},
		cache: cache.New[shapeKey, []shapedGlyph](shapeCacheSize),
	}
}

// shape shapes runes with fc at ppem pixels per em. Glyphs come back in
// visual order.
func (s *shaper) shape(runes []rune, fc *face, ppem float64) []shapedGlyph {
	if len(runes) == 0 {
		return nil
	}
	key := shapeKey{face: fc, text: string(runes), ppem: ppem}
	return s.cache.GetOrCreate(key, func() []shapedGlyph {
		return s.shapeUncached(runes, fc, ppem)
	})
}

// reset drops every cached run and reports how many there were. Runs are
// keyed by face, so they go stale when the font set changes.
func (s *shaper) reset() int {
	n := s.cache.Len()
	s.cache.Clear()
	return n
}

func (s *shaper) shapeUncached(runes []rune, fc *face, ppem float64) []shapedGlyph {
	if fc.shaping == nil {
		return shapeSimple(runes, fc, ppem)
	}

	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: direction(runes),
		Face:      gotext.NewFace(fc.shaping),
		Size:      fixed.Int26_6(ppem * 64),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}

	hb := s.pool.Get().(*shaping.HarfbuzzShaper)
	out := hb.Shape(input)
	s.pool.Put(hb)

	glyphs := make([]shapedGlyph, len(out.Glyphs))
	for i, g := range out.Glyphs {
		glyphs[i] = shapedGlyph{
			gid:     sfnt.GlyphIndex(g.GlyphID), //nolint:gosec // glyph ids fit in 16 bits
			cluster: g.TextIndex(),
			advance: fixedToFloat(g.Advance),
			xOff:    fixedToFloat(g.XOffset),
			yOff:    fixedToFloat(g.YOffset),
		}
	}
	return glyphs
}

// shapeSimple maps runes to glyphs one to one using sfnt advances and
// kerning. Used for fonts go-text cannot read.
func shapeSimple(runes []rune, fc *face, ppem float64) []shapedGlyph {
	var buf sfnt.Buffer
	size := fixed.Int26_6(ppem * 64)

	glyphs := make([]shapedGlyph, 0, len(runes))
	var prev sfnt.GlyphIndex
	for i, r := range runes {
		gid, err := fc.sfnt.GlyphIndex(&buf, r)
		if err != nil {
			gid = 0
		}
		adv, err := fc.sfnt.GlyphAdvance(&buf, gid, size, font.HintingNone)
		if err != nil {
			adv = 0
		}
		if i > 0 {
			if k, err := fc.sfnt.Kern(&buf, prev, gid, size, font.HintingNone); err == nil {
				glyphs[len(glyphs)-1].advance += fixedToFloat(k)
			}
		}
		glyphs = append(glyphs, shapedGlyph{gid: gid, cluster: i, advance: fixedToFloat(adv)})
		prev = gid
	}
	return glyphs
}

// direction reports the paragraph direction of the runes using the
// Unicode bidi algorithm.
func direction(runes []rune) di.Direction {
	var p bidi.Paragraph
	if _, err := p.SetString(string(runes)); err != nil {
		return di.DirectionLTR
	}
	ordering, err := p.Order()
	if err != nil || ordering.NumRuns() == 0 {
		return di.DirectionLTR
	}
	// The paragraph direction is that of its first run in logical order.
	if run := ordering.Run(0); run.Direction() == bidi.RightToLeft {
		return di.DirectionRTL
	}
	return di.DirectionLTR
}

// detectScript returns the script of the first non-space rune.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\u00a0' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64.0
}
