package ass

import (
	"strings"
)

// RunStyle is the resolved style of a run of text after override tags.
type RunStyle struct {
	FontName  string
	FontSize  float64
	Bold      bool
	Italic    bool
	Underline bool
	StrikeOut bool

	ScaleX, ScaleY float64
	Spacing        float64

	Primary uint32
	Outline uint32
	Back    uint32

	Border float64
	Shadow float64
}

// runStyleOf converts a style into its run defaults.
func runStyleOf(s *Style) RunStyle {
	return RunStyle{
		FontName:  s.FontName,
		FontSize:  s.FontSize,
		Bold:      s.Bold,
		Italic:    s.Italic,
		Underline: s.Underline,
		StrikeOut: s.StrikeOut,
		ScaleX:    s.ScaleX,
		ScaleY:    s.ScaleY,
		Spacing:   s.Spacing,
		Primary:   s.PrimaryColour,
		Outline:   s.OutlineColour,
		Back:      s.BackColour,
		Border:    s.Outline,
		Shadow:    s.Shadow,
	}
}

// Run is text sharing one RunStyle.
type Run struct {
	Text  string
	Style RunStyle
}

// Point is a position in script coordinates.
type Point struct {
	X, Y float64
}

// Move is a \move animation. T1 and T2 are relative to the event start;
// both zero means the whole event.
type Move struct {
	From, To Point
	T1, T2   int64
}

// At returns the position at t milliseconds into an event lasting dur.
func (m *Move) At(t, dur int64) Point {
	t1, t2 := m.T1, m.T2
	if t1 == 0 && t2 == 0 {
		t2 = dur
	}
	if t2 < t1 {
		t1, t2 = t2, t1
	}
	var k float64
	switch {
	case t <= t1:
		k = 0
	case t >= t2:
		k = 1
	default:
		k = float64(t-t1) / float64(t2-t1)
	}
	return Point{
		X: m.From.X + (m.To.X-m.From.X)*k,
		Y: m.From.Y + (m.To.Y-m.From.Y)*k,
	}
}

// Fade is a \fade animation: transparency A1 until T1, ramps to A2 by T2,
// holds until T3 and ramps to A3 by T4. Times are relative to the event start.
type Fade struct {
	A1, A2, A3     int
	T1, T2, T3, T4 int64
}

// Alpha returns the transparency (0 opaque, 255 invisible) at t
// milliseconds into the event.
func (f *Fade) Alpha(t int64) int {
	switch {
	case t < f.T1:
		return f.A1
	case t < f.T2:
		return interpolate(f.A1, f.A2, t-f.T1, f.T2-f.T1)
	case t < f.T3:
		return f.A2
	case t < f.T4:
		return interpolate(f.A2, f.A3, t-f.T3, f.T4-f.T3)
	default:
		return f.A3
	}
}

func interpolate(from, to int, t, span int64) int {
	if span <= 0 {
		return to
	}
	return from + int(int64(to-from)*t/span)
}

// Dialogue is the parsed text of an event.
type Dialogue struct {
	// Lines are separated by hard breaks.
	Lines [][]Run

	// Alignment in numpad layout.
	Alignment int

	// Base is the event style before any override, used to size empty lines.
	Base RunStyle

	Pos  *Point
	Move *Move
	Fade *Fade
}

// ParseDialogue resolves the override tags of e against track styles.
func (t *Track) ParseDialogue(e *Event) *Dialogue {
	base := t.Style(e)
	d := &Dialogue{Alignment: base.Alignment, Base: runStyleOf(base)}
	st := &dialogueState{
		track:    t,
		base:     base,
		style:    runStyleOf(base),
		dialogue: d,
		duration: e.Duration,
	}

	text := e.Text
	for text != "" {
		open := strings.IndexByte(text, '{')
		if open < 0 {
			st.appendText(text)
			break
		}
		st.appendText(text[:open])
		closing := strings.IndexByte(text[open:], '}')
		if closing < 0 {
			// An unterminated block is literal text.
			st.appendText(text[open:])
			break
		}
		st.block(text[open+1 : open+closing])
		text = text[open+closing+1:]
	}
	st.flush()
	d.Lines = append(d.Lines, st.line)
	return d
}

type dialogueState struct {
	track    *Track
	base     *Style
	style    RunStyle
	dialogue *Dialogue
	duration int64

	alignSet bool
	drawing  bool

	line []Run
	buf  strings.Builder
}

func (st *dialogueState) appendText(s string) {
	if st.drawing {
		return
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'N':
				st.flush()
				st.dialogue.Lines = append(st.dialogue.Lines, st.line)
				st.line = nil
				i++
				continue
			case 'n':
				if st.track.WrapStyle == 2 {
					st.flush()
					st.dialogue.Lines = append(st.dialogue.Lines, st.line)
					st.line = nil
				} else {
					st.buf.WriteByte(' ')
				}
				i++
				continue
			case 'h':
				st.buf.WriteRune('\u00a0')
				i++
				continue
			}
		}
		st.buf.WriteByte(c)
	}
}

// flush closes the current run before the style changes.
func (st *dialogueState) flush() {
	if st.buf.Len() == 0 {
		return
	}
	st.line = append(st.line, Run{Text: st.buf.String(), Style: st.style})
	st.buf.Reset()
}

// tagNames are matched in order, so longer names precede their prefixes.
var tagNames = []string{
	"alpha", "an", "a",
	"bord", "be", "blur", "b",
	"1c", "2c", "3c", "4c", "1a", "2a", "3a", "4a",
	"clip", "c",
	"fade", "fad", "fscx", "fscy", "fsp", "fs", "fn", "fax", "fay", "frx", "fry", "frz", "fr", "fe",
	"iclip", "i",
	"kf", "ko", "k", "K",
	"move", "org",
	"pos", "pbo", "p",
	"q", "r",
	"shad", "s",
	"t", "u",
	"xbord", "ybord", "xshad", "yshad",
}

// block applies the tags of one {...} override block.
func (st *dialogueState) block(content string) {
	for _, tag := range splitTags(content) {
		for _, name := range tagNames {
			if strings.HasPrefix(tag, name) {
				st.flush()
				st.apply(name, strings.TrimSpace(tag[len(name):]))
				break
			}
		}
	}
}

// splitTags splits block content at backslashes outside parentheses.
// Text not introduced by a backslash is a comment and dropped.
func splitTags(content string) []string {
	var tags []string
	depth := 0
	start := -1
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case '\\':
			if depth > 0 {
				continue
			}
			if start >= 0 {
				tags = append(tags, content[start:i])
			}
			start = i + 1
		}
	}
	if start >= 0 {
		tags = append(tags, content[start:])
	}
	return tags
}

// parenArgs splits "(a,b,c)" into its trimmed arguments.
func parenArgs(arg string) []string {
	arg = strings.TrimSpace(arg)
	if !strings.HasPrefix(arg, "(") {
		return nil
	}
	arg = strings.TrimPrefix(arg, "(")
	arg = strings.TrimSuffix(arg, ")")
	parts := strings.Split(arg, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func (st *dialogueState) apply(name, arg string) {
	s := &st.style
	base := st.base
	num, hasNum := parseFloatPrefix(arg)

	switch name {
	case "b":
		if hasNum {
			s.Bold = num == 1 || num >= 700
		} else {
			s.Bold = base.Bold
		}
	case "i":
		if hasNum {
			s.Italic = num == 1
		} else {
			s.Italic = base.Italic
		}
	case "u":
		if hasNum {
			s.Underline = num == 1
		} else {
			s.Underline = base.Underline
		}
	case "s":
		if hasNum {
			s.StrikeOut = num == 1
		} else {
			s.StrikeOut = base.StrikeOut
		}
	case "fn":
		if arg == "" || arg == "0" {
			s.FontName = base.FontName
		} else {
			s.FontName = arg
		}
	case "fs":
		if hasNum && num > 0 {
			s.FontSize = num
		} else {
			s.FontSize = base.FontSize
		}
	case "fscx":
		if hasNum && num >= 0 {
			s.ScaleX = num / 100
		} else {
			s.ScaleX = base.ScaleX
		}
	case "fscy":
		if hasNum && num >= 0 {
			s.ScaleY = num / 100
		} else {
			s.ScaleY = base.ScaleY
		}
	case "fsp":
		if hasNum {
			s.Spacing = num
		} else {
			s.Spacing = base.Spacing
		}
	case "c", "1c":
		s.Primary = mixColor(s.Primary, base.PrimaryColour, arg)
	case "3c":
		s.Outline = mixColor(s.Outline, base.OutlineColour, arg)
	case "4c":
		s.Back = mixColor(s.Back, base.BackColour, arg)
	case "alpha":
		if arg == "" {
			s.Primary = s.Primary&^0xFF | base.PrimaryColour&0xFF
			s.Outline = s.Outline&^0xFF | base.OutlineColour&0xFF
			s.Back = s.Back&^0xFF | base.BackColour&0xFF
			break
		}
		a := parseAlphaTag(arg)
		s.Primary = s.Primary&^0xFF | a
		s.Outline = s.Outline&^0xFF | a
		s.Back = s.Back&^0xFF | a
	case "1a":
		s.Primary = mixAlpha(s.Primary, base.PrimaryColour, arg)
	case "3a":
		s.Outline = mixAlpha(s.Outline, base.OutlineColour, arg)
	case "4a":
		s.Back = mixAlpha(s.Back, base.BackColour, arg)
	case "bord":
		if hasNum && num >= 0 {
			s.Border = num
		} else {
			s.Border = base.Outline
		}
	case "shad":
		if hasNum && num >= 0 {
			s.Shadow = num
		} else {
			s.Shadow = base.Shadow
		}
	case "an":
		if !st.alignSet && hasNum && num >= 1 && num <= 9 {
			st.dialogue.Alignment = int(num)
			st.alignSet = true
		}
	case "a":
		if !st.alignSet && hasNum && num >= 1 && num <= 11 {
			st.dialogue.Alignment = legacyAlignment(int(num))
			st.alignSet = true
		}
	case "pos":
		args := parenArgs(arg)
		if st.dialogue.Pos == nil && st.dialogue.Move == nil && len(args) == 2 {
			st.dialogue.Pos = &Point{X: parseFloat(args[0]), Y: parseFloat(args[1])}
		}
	case "move":
		args := parenArgs(arg)
		if st.dialogue.Pos != nil || st.dialogue.Move != nil || (len(args) != 4 && len(args) != 6) {
			break
		}
		m := &Move{
			From: Point{X: parseFloat(args[0]), Y: parseFloat(args[1])},
			To:   Point{X: parseFloat(args[2]), Y: parseFloat(args[3])},
		}
		if len(args) == 6 {
			m.T1 = int64(parseInt(args[4]))
			m.T2 = int64(parseInt(args[5]))
		}
		st.dialogue.Move = m
	case "fad":
		args := parenArgs(arg)
		if st.dialogue.Fade != nil || len(args) != 2 {
			break
		}
		in, out := int64(parseInt(args[0])), int64(parseInt(args[1]))
		st.dialogue.Fade = &Fade{
			A1: 255, A2: 0, A3: 255,
			T1: 0, T2: in, T3: st.duration - out, T4: st.duration,
		}
	case "fade":
		args := parenArgs(arg)
		if st.dialogue.Fade != nil || len(args) != 7 {
			break
		}
		st.dialogue.Fade = &Fade{
			A1: parseInt(args[0]), A2: parseInt(args[1]), A3: parseInt(args[2]),
			T1: int64(parseInt(args[3])), T2: int64(parseInt(args[4])),
			T3: int64(parseInt(args[5])), T4: int64(parseInt(args[6])),
		}
	case "r":
		style := st.base
		if arg != "" {
			style = &st.track.Styles[st.track.StyleIndex(arg)]
		}
		st.style = runStyleOf(style)
	case "p":
		st.drawing = hasNum && num > 0
	}
}

// mixColor replaces the RGB bits of cur, keeping its alpha. An empty
// argument restores the style color.
func mixColor(cur, styleColor uint32, arg string) uint32 {
	if arg == "" {
		return cur&0xFF | styleColor&^0xFF
	}
	return cur&0xFF | parseColorTag(arg)
}

// mixAlpha replaces the alpha byte of cur.
func mixAlpha(cur, styleColor uint32, arg string) uint32 {
	if arg == "" {
		return cur&^0xFF | styleColor&0xFF
	}
	return cur&^0xFF | parseAlphaTag(arg)
}
