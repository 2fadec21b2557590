package ass

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

type section int

const (
	sectionNone section = iota
	sectionScriptInfo
	sectionStyles
	sectionEvents
	sectionFonts
	sectionOther
)

var (
	defaultStyleFormatASS = []string{
		"name", "fontname", "fontsize", "primarycolour", "secondarycolour",
		"outlinecolour", "backcolour", "bold", "italic", "underline", "strikeout",
		"scalex", "scaley", "spacing", "angle", "borderstyle", "outline", "shadow",
		"alignment", "marginl", "marginr", "marginv", "encoding",
	}
	defaultStyleFormatSSA = []string{
		"name", "fontname", "fontsize", "primarycolour", "secondarycolour",
		"tertiarycolour", "backcolour", "bold", "italic", "borderstyle", "outline",
		"shadow", "alignment", "marginl", "marginr", "marginv", "alphalevel", "encoding",
	}
	defaultEventFormatASS = []string{
		"layer", "start", "end", "style", "name", "marginl", "marginr", "marginv",
		"effect", "text",
	}
	defaultEventFormatSSA = []string{
		"marked", "start", "end", "style", "name", "marginl", "marginr", "marginv",
		"effect", "text",
	}
)

// parser holds the state of one Parse call.
type parser struct {
	track       *Track
	section     section
	styleFormat []string
	eventFormat []string
	scaledSet   bool

	fontName string
	fontData strings.Builder
}

// Parse reads an ASS or SSA script. The input may be UTF-8 (with or
// without BOM) or UTF-16 with a BOM. The data is not retained.
func Parse(data []byte) (*Track, error) {
	text, err := decode(data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyScript
	}

	p := &parser{
		track: &Track{
			Styles: []Style{DefaultStyle()},
		},
	}
	for line := range strings.Lines(text) {
		p.line(strings.TrimRight(line, "\r\n"))
	}
	p.flushFont()

	if p.track.Type == TrackTypeUnknown {
		return nil, ErrUnknownTrackType
	}
	p.finish()
	return p.track, nil
}

// decode converts the input to UTF-8, honoring a BOM if present.
func decode(data []byte) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (p *parser) line(line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		p.flushFont()
		p.enterSection(strings.ToLower(trimmed))
		return
	}
	if p.section != sectionFonts && strings.HasPrefix(trimmed, ";") {
		return
	}

	switch p.section {
	case sectionScriptInfo:
		p.scriptInfo(trimmed)
	case sectionStyles:
		p.styleLine(trimmed)
	case sectionEvents:
		p.eventLine(trimmed)
	case sectionFonts:
		p.fontLine(trimmed)
	}
}

func (p *parser) enterSection(header string) {
	switch header {
	case "[script info]":
		p.section = sectionScriptInfo
	case "[v4+ styles]":
		p.section = sectionStyles
		if p.track.Type == TrackTypeUnknown {
			p.track.Type = TrackTypeASS
		}
	case "[v4 styles]":
		p.section = sectionStyles
		if p.track.Type == TrackTypeUnknown {
			p.track.Type = TrackTypeSSA
		}
	case "[events]":
		p.section = sectionEvents
	case "[fonts]":
		p.section = sectionFonts
	default:
		p.section = sectionOther
	}
}

func splitKeyValue(line string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}

func (p *parser) scriptInfo(line string) {
	key, value, ok := splitKeyValue(line)
	if !ok {
		return
	}
	t := p.track
	switch strings.ToLower(key) {
	case "scripttype":
		switch strings.ToLower(value) {
		case "v4.00+":
			t.Type = TrackTypeASS
		case "v4.00":
			t.Type = TrackTypeSSA
		}
	case "title":
		t.Title = value
	case "playresx":
		t.PlayResX = parseInt(value)
	case "playresy":
		t.PlayResY = parseInt(value)
	case "wrapstyle":
		t.WrapStyle = parseInt(value)
	case "scaledborderandshadow":
		t.ScaledBorderAndShadow = strings.EqualFold(value, "yes") || value == "1"
		p.scaledSet = true
	}
}

func parseFormat(value string) []string {
	fields := strings.Split(value, ",")
	for i, f := range fields {
		fields[i] = strings.ToLower(strings.TrimSpace(f))
	}
	return fields
}

func (p *parser) styleLine(line string) {
	key, value, ok := splitKeyValue(line)
	if !ok {
		return
	}
	switch strings.ToLower(key) {
	case "format":
		p.styleFormat = parseFormat(value)
	case "style":
		p.addStyle(value)
	}
}

func (p *parser) addStyle(value string) {
	format := p.styleFormat
	if format == nil {
		format = defaultStyleFormatASS
		if p.track.Type == TrackTypeSSA {
			format = defaultStyleFormatSSA
		}
	}
	values := strings.SplitN(value, ",", len(format))

	s := DefaultStyle()
	ssa := p.track.Type == TrackTypeSSA
	for i, v := range values {
		v = strings.TrimSpace(v)
		switch format[i] {
		case "name":
			s.Name = strings.TrimLeft(v, "*")
		case "fontname":
			s.FontName = v
		case "fontsize":
			s.FontSize = parseFloat(v)
		case "primarycolour":
			s.PrimaryColour = ParseColor(v)
		case "secondarycolour":
			s.SecondaryColour = ParseColor(v)
		case "outlinecolour", "tertiarycolour":
			s.OutlineColour = ParseColor(v)
		case "backcolour":
			s.BackColour = ParseColor(v)
		case "bold":
			s.Bold = parseBool(v)
		case "italic":
			s.Italic = parseBool(v)
		case "underline":
			s.Underline = parseBool(v)
		case "strikeout":
			s.StrikeOut = parseBool(v)
		case "scalex":
			s.ScaleX = parseFloat(v) / 100
		case "scaley":
			s.ScaleY = parseFloat(v) / 100
		case "spacing":
			s.Spacing = parseFloat(v)
		case "angle":
			s.Angle = parseFloat(v)
		case "borderstyle":
			s.BorderStyle = parseInt(v)
		case "outline":
			s.Outline = parseFloat(v)
		case "shadow":
			s.Shadow = parseFloat(v)
		case "alignment":
			a := parseInt(v)
			if ssa {
				a = legacyAlignment(a)
			}
			s.Alignment = clampAlignment(a)
		case "marginl":
			s.MarginL = parseInt(v)
		case "marginr":
			s.MarginR = parseInt(v)
		case "marginv":
			s.MarginV = parseInt(v)
		case "encoding":
			s.Encoding = parseInt(v)
		}
	}
	if ssa {
		// SSA draws outline and shadow in BackColour.
		s.OutlineColour = s.BackColour
	}
	if s.FontSize <= 0 {
		s.FontSize = DefaultStyle().FontSize
	}
	if s.ScaleX < 0 {
		s.ScaleX = 0
	}
	if s.ScaleY < 0 {
		s.ScaleY = 0
	}

	p.track.Styles = append(p.track.Styles, s)
	if s.Name == "Default" {
		p.track.DefaultStyle = len(p.track.Styles) - 1
	}
}

func (p *parser) eventLine(line string) {
	key, value, ok := splitKeyValue(line)
	if !ok {
		return
	}
	switch strings.ToLower(key) {
	case "format":
		p.eventFormat = parseFormat(value)
	case "dialogue":
		p.addEvent(value)
	}
}

func (p *parser) addEvent(value string) {
	format := p.eventFormat
	if format == nil {
		format = defaultEventFormatASS
		if p.track.Type == TrackTypeSSA {
			format = defaultEventFormatSSA
		}
	}
	// Text is the last field and keeps its commas.
	values := strings.SplitN(value, ",", len(format))
	if len(values) < len(format) {
		return
	}

	e := Event{ReadOrder: len(p.track.Events)}
	var end int64
	for i, v := range values {
		name := format[i]
		if name != "text" {
			v = strings.TrimSpace(v)
		}
		switch name {
		case "layer":
			e.Layer = parseInt(v)
		case "start":
			t, err := ParseTime(v)
			if err != nil {
				return
			}
			e.Start = t
		case "end":
			t, err := ParseTime(v)
			if err != nil {
				return
			}
			end = t
		case "style":
			e.Style = p.track.StyleIndex(v)
		case "name", "actor":
			e.Name = v
		case "marginl":
			e.MarginL = parseInt(v)
		case "marginr":
			e.MarginR = parseInt(v)
		case "marginv":
			e.MarginV = parseInt(v)
		case "effect":
			e.Effect = v
		case "text":
			e.Text = v
		}
	}
	e.Duration = end - e.Start
	p.track.Events = append(p.track.Events, e)
}

func (p *parser) fontLine(line string) {
	if key, value, ok := splitKeyValue(line); ok && strings.EqualFold(key, "fontname") {
		p.flushFont()
		p.fontName = value
		return
	}
	if p.fontName != "" {
		p.fontData.WriteString(line)
	}
}

// flushFont decodes the pending embedded font. Undecodable fonts are
// dropped; they never fail the whole script.
func (p *parser) flushFont() {
	if p.fontName == "" {
		return
	}
	data, err := DecodeFont(p.fontData.String())
	name := p.fontName
	p.fontName = ""
	p.fontData.Reset()
	if err != nil {
		return
	}
	p.track.Fonts = append(p.track.Fonts, EmbeddedFont{Name: name, Data: data})
}

// finish fills in defaults that depend on the whole script.
func (p *parser) finish() {
	t := p.track
	switch {
	case t.PlayResX <= 0 && t.PlayResY <= 0:
		t.PlayResX, t.PlayResY = 384, 288
	case t.PlayResY <= 0:
		if t.PlayResX == 1280 {
			t.PlayResY = 1024
		} else {
			t.PlayResY = t.PlayResX * 3 / 4
		}
	case t.PlayResX <= 0:
		if t.PlayResY == 1024 {
			t.PlayResX = 1280
		} else {
			t.PlayResX = t.PlayResY * 4 / 3
		}
	}
	if !p.scaledSet {
		t.ScaledBorderAndShadow = true
	}
}
