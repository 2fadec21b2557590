package native

import (
	"encoding/binary"
	"image"
	"log/slog"
	"math"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/gogpu/ggass/ass"
	"github.com/gogpu/ggass/backend"
	"github.com/gogpu/ggass/internal/mask"
)

// renderer is a renderer context. Not safe for concurrent use.
type renderer struct {
	lib    *library
	logger *slog.Logger
	shaper *shaper

	width, height int

	fontsMu       sync.RWMutex
	local         *fontSet
	defaultFamily string
	fallback      *face

	// Results of the last RenderFrame, kept alive until the next call.
	images  []backend.Image
	posHash uint64
	bmpHash uint64
	hashed  bool
	closed  bool
}

func (r *renderer) SetFrameSize(width, height int) {
	r.width, r.height = max(width, 0), max(height, 0)
}

func (r *renderer) SetFonts(cfg backend.FontConfig) error {
	local := &fontSet{}
	for _, fc := range loadFontFiles(r.logger, cfg.FontsDir, cfg.Files) {
		local.add(fc)
	}

	var fallback *face
	if cfg.DefaultFont != "" {
		faces := loadFontFiles(r.logger, "", []string{cfg.DefaultFont})
		if len(faces) == 0 {
			return ErrFontNotFound
		}
		fallback = faces[0]
	}

	r.fontsMu.Lock()
	r.local = local
	r.defaultFamily = cfg.DefaultFamily
	r.fallback = fallback
	r.fontsMu.Unlock()
	dropped := r.shaper.reset()

	r.logger.Debug("native: fonts configured",
		"files", local.len(), "default_family", cfg.DefaultFamily, "default_font", cfg.DefaultFont,
		"dropped_runs", dropped)
	return nil
}

// matchFont selects a face for a style: renderer fonts, then library fonts,
// then the default family, the default font and finally the Go fonts.
func (r *renderer) matchFont(family string, bold, italic bool) *face {
	r.fontsMu.RLock()
	local, defFamily, fallback := r.local, r.defaultFamily, r.fallback
	r.fontsMu.RUnlock()

	for _, name := range []string{family, defFamily} {
		if name == "" {
			continue
		}
		if local != nil {
			if fc := local.lookup(name, bold, italic); fc != nil {
				return fc
			}
		}
		if fc := r.lib.fonts.lookup(name, bold, italic); fc != nil {
			return fc
		}
	}
	if fallback != nil {
		return fallback
	}
	return r.lib.fonts.lookup(builtinFamily, bold, italic)
}

func (r *renderer) Close() error {
	r.images = nil
	r.closed = true
	return nil
}

func (r *renderer) RenderFrame(tr backend.Track, tMs int64) (*backend.Image, int) {
	t, ok := tr.(*track)
	if !ok || t == nil || t.lib != r.lib {
		r.logger.Warn("native: cannot render track", "err", backend.ErrForeignTrack)
		return nil, r.changed(nil)
	}
	if r.closed || t.closed.Load() || r.width == 0 || r.height == 0 {
		return nil, r.changed(nil)
	}

	fs := newFrameScale(t.ass, r.width, r.height)
	r.images = r.images[:0]
	used := collisions{}
	for _, e := range t.ass.ActiveAt(tMs) {
		r.renderEvent(t.ass, e, tMs, fs, used)
	}

	changed := r.changed(r.images)
	if len(r.images) == 0 {
		return nil, changed
	}
	for i := range r.images[:len(r.images)-1] {
		r.images[i].Next = &r.images[i+1]
	}
	r.images[len(r.images)-1].Next = nil
	return &r.images[0], changed
}

// renderEvent lays out one event and appends its shadow, border and fill
// images.
func (r *renderer) renderEvent(t *ass.Track, e *ass.Event, tMs int64, fs frameScale, used collisions) {
	d := t.ParseDialogue(e)
	base := r.resolveRun(d.Base, fs)

	ml, mr, mv := margins(t, e, fs)
	maxWidth := float64(fs.width) - ml - mr

	var b block
	for _, runs := range d.Lines {
		b.lines = append(b.lines, wrap(r.shapeLine(runs, fs), maxWidth, t.WrapStyle, base)...)
	}
	for i := range b.lines {
		b.width = max(b.width, b.lines[i].width)
		b.height += b.lines[i].height()
	}
	if b.width <= 0 {
		return
	}

	var anchor *ass.Point
	elapsed := tMs - e.Start
	switch {
	case d.Pos != nil:
		anchor = &ass.Point{X: d.Pos.X * fs.x, Y: d.Pos.Y * fs.y}
	case d.Move != nil:
		p := d.Move.At(elapsed, e.Duration)
		anchor = &ass.Point{X: p.X * fs.x, Y: p.Y * fs.y}
	}
	b.place(d.Alignment, anchor, ml, mr, mv, fs)
	if anchor == nil {
		used.fit(e.Layer, &b, (d.Alignment-1)/3 == 2)
	}

	fade := 0
	if d.Fade != nil {
		fade = d.Fade.Alpha(elapsed)
	}
	r.rasterize(&b, fs, fade)
}

// pass collects the masks of one output pass, one per color.
type pass struct {
	order []uint32
	masks map[uint32]*mask.Mask
}

func (p *pass) get(color uint32, w, h int) *mask.Mask {
	if p.masks == nil {
		p.masks = make(map[uint32]*mask.Mask)
	}
	m, ok := p.masks[color]
	if !ok {
		m = mask.New(w, h)
		p.masks[color] = m
		p.order = append(p.order, color)
	}
	return m
}

// rasterize draws a placed block into per-color masks covering the part of
// the frame the block can touch.
func (r *renderer) rasterize(b *block, fs frameScale, fade int) {
	pad := 2.0
	for _, l := range b.lines {
		for _, g := range l.glyphs {
			extra := g.run.border + g.run.embolden + math.Abs(g.run.shadow) + g.run.ascent*g.run.shear
			pad = max(pad, extra+2)
		}
	}
	p := int(math.Ceil(pad))
	area := b.bounds().Inset(-p).Intersect(image.Rect(0, 0, fs.width, fs.height))
	if area.Empty() {
		return
	}
	w, h := area.Dx(), area.Dy()
	ox, oy := float64(area.Min.X), float64(area.Min.Y)

	// Each run gets its own coverage so that borders follow run styles.
	var runs []*runInfo
	rasters := map[*runInfo]*glyphRasterizer{}
	rects := map[*runInfo]*mask.Mask{}

	y := b.y0
	for i, l := range b.lines {
		baseline := y + l.ascent
		x := b.lineX(i)
		for _, g := range l.glyphs {
			ri := g.run
			z, ok := rasters[ri]
			if !ok {
				z = newGlyphRasterizer(w, h)
				rasters[ri] = z
				runs = append(runs, ri)
			}
			z.addGlyph(ri.face.sfnt, g.gid, ri.ppem, ri.glyphTransform(x+g.x-ox, baseline+g.y-oy))

			if ri.style.Underline || ri.style.StrikeOut {
				m, ok := rects[ri]
				if !ok {
					m = mask.New(w, h)
					rects[ri] = m
				}
				thick := max(ri.ppem/16, 1)
				x0, x1 := x-ox, x+g.adv-ox
				if ri.style.Underline {
					uy := baseline - oy + ri.descent/2
					m.FillRect(x0, uy, x1, uy+thick)
				}
				if ri.style.StrikeOut {
					sy := baseline - oy - ri.ascent*0.3
					m.FillRect(x0, sy, x1, sy+thick)
				}
			}
			x += g.adv
		}
		y += l.height()
	}

	var shadows, borders, fills pass
	for _, ri := range runs {
		fill := mask.New(w, h)
		rasters[ri].drawInto(fill)
		if m, ok := rects[ri]; ok {
			fill.Union(m, 0, 0)
		}
		if ri.embolden > 0 {
			fill = fill.Dilate(ri.embolden)
		}
		fills.get(applyFade(ri.style.Primary, fade), w, h).Union(fill, 0, 0)

		shape := fill
		if ri.border > 0 {
			shape = fill.Dilate(ri.border)
			outline := shape.Clone()
			outline.Subtract(fill)
			borders.get(applyFade(ri.style.Outline, fade), w, h).Union(outline, 0, 0)
		}
		if ri.shadow != 0 {
			c := applyFade(ri.style.Back, fade)
			off := int(math.Round(ri.shadow))
			shadows.get(c, w, h).Union(shape, off, off)
		}
	}

	r.emit(&shadows, area)
	r.emit(&borders, area)
	r.emit(&fills, area)
}

// emit appends one image per color of the pass, cropped to coverage.
func (r *renderer) emit(p *pass, area image.Rectangle) {
	for _, c := range p.order {
		if c&0xFF == 0xFF {
			continue // fully transparent
		}
		m := p.masks[c]
		trim := m.Trim()
		if trim.Empty() {
			continue
		}
		r.images = append(r.images, backend.Image{
			W:      trim.Dx(),
			H:      trim.Dy(),
			Stride: trim.Dx(),
			Bitmap: m.Crop(trim),
			Color:  c,
			DstX:   area.Min.X + trim.Min.X,
			DstY:   area.Min.Y + trim.Min.Y,
		})
	}
}

// applyFade combines the transparency byte of c with a fade transparency.
func applyFade(c uint32, fade int) uint32 {
	if fade <= 0 {
		return c
	}
	a := int(c & 0xFF)
	a = a - a*fade/255 + fade
	return c&^0xFF | uint32(min(a, 255))
}

// changed compares the images with the previous call: 0 identical,
// 1 only positions moved, 2 content changed.
func (r *renderer) changed(images []backend.Image) int {
	pos := xxhash.New()
	bmp := xxhash.New()
	var rec [16]byte
	for i := range images {
		img := &images[i]
		binary.LittleEndian.PutUint32(rec[0:], uint32(img.W))
		binary.LittleEndian.PutUint32(rec[4:], uint32(img.H))
		binary.LittleEndian.PutUint32(rec[8:], uint32(img.Stride))
		binary.LittleEndian.PutUint32(rec[12:], img.Color)
		_, _ = bmp.Write(rec[:])
		_, _ = bmp.Write(img.Bitmap)

		binary.LittleEndian.PutUint32(rec[0:], uint32(int32(img.DstX)))
		binary.LittleEndian.PutUint32(rec[4:], uint32(int32(img.DstY)))
		_, _ = pos.Write(rec[:8])
	}
	ph, bh := pos.Sum64(), bmp.Sum64()

	changed := 0
	switch {
	case !r.hashed || bh != r.bmpHash:
		changed = 2
	case ph != r.posHash:
		changed = 1
	}
	r.posHash, r.bmpHash, r.hashed = ph, bh, true
	return changed
}
