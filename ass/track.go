package ass

import (
	"slices"
	"strings"
)

// TrackType is the script dialect.
type TrackType int

const (
	// TrackTypeUnknown means neither a ScriptType nor a styles section was seen.
	TrackTypeUnknown TrackType = iota
	// TrackTypeASS is Advanced SubStation Alpha (v4.00+).
	TrackTypeASS
	// TrackTypeSSA is SubStation Alpha (v4.00).
	TrackTypeSSA
)

// String returns the ScriptType spelling of the dialect.
func (t TrackType) String() string {
	switch t {
	case TrackTypeASS:
		return "v4.00+"
	case TrackTypeSSA:
		return "v4.00"
	default:
		return "unknown"
	}
}

// Track is a parsed subtitle script.
type Track struct {
	Type  TrackType
	Title string

	// PlayResX and PlayResY define the script coordinate space.
	PlayResX, PlayResY int

	// WrapStyle: 0 smart, 1 end-of-line, 2 none, 3 smart with lower line wider.
	WrapStyle int

	ScaledBorderAndShadow bool

	// Styles always starts with the built-in "Default" style.
	Styles []Style

	// DefaultStyle indexes Styles; it points at a script-defined "Default"
	// style when there is one.
	DefaultStyle int

	// Events in read order.
	Events []Event

	// Fonts are the fonts embedded in the [Fonts] section.
	Fonts []EmbeddedFont
}

// Style is a named set of rendering attributes. Colors use the packing
// R<<24 | G<<16 | B<<8 | (255 - alpha).
type Style struct {
	Name     string
	FontName string
	FontSize float64

	PrimaryColour   uint32
	SecondaryColour uint32
	OutlineColour   uint32
	BackColour      uint32

	Bold      bool
	Italic    bool
	Underline bool
	StrikeOut bool

	// ScaleX and ScaleY are fractions (1 is 100%).
	ScaleX, ScaleY float64
	Spacing        float64
	Angle          float64

	BorderStyle int
	Outline     float64
	Shadow      float64

	// Alignment is in numpad layout (1..9).
	Alignment int

	MarginL, MarginR, MarginV int
	Encoding                  int
}

// DefaultStyle returns the style libass uses when a script defines none.
func DefaultStyle() Style {
	return Style{
		Name:            "Default",
		FontName:        "Arial",
		FontSize:        18,
		PrimaryColour:   0xFFFFFF00,
		SecondaryColour: 0x00FFFF00,
		OutlineColour:   0x00000000,
		BackColour:      0x00000080,
		ScaleX:          1,
		ScaleY:          1,
		BorderStyle:     1,
		Outline:         2,
		Shadow:          2,
		Alignment:       2,
		MarginL:         20,
		MarginR:         20,
		MarginV:         20,
		Encoding:        1,
	}
}

// Event is one Dialogue line.
type Event struct {
	ReadOrder int
	Layer     int

	// Start and Duration are in milliseconds.
	Start, Duration int64

	// Style indexes Track.Styles.
	Style int

	Name                      string
	MarginL, MarginR, MarginV int
	Effect                    string

	// Text is the raw text including override blocks.
	Text string
}

// End returns the first millisecond at which the event is no longer shown.
func (e *Event) End() int64 {
	return e.Start + e.Duration
}

// EmbeddedFont is a font extracted from the [Fonts] section.
type EmbeddedFont struct {
	Name string
	Data []byte
}

// StyleIndex resolves a style name the way libass does: a leading '*' is
// ignored, later definitions win, and unknown names map to the default style.
func (t *Track) StyleIndex(name string) int {
	name = strings.TrimLeft(strings.TrimSpace(name), "*")
	for i := len(t.Styles) - 1; i >= 0; i-- {
		if t.Styles[i].Name == name {
			return i
		}
	}
	return t.DefaultStyle
}

// Style returns the style of an event, falling back to the default style.
func (t *Track) Style(e *Event) *Style {
	if e.Style >= 0 && e.Style < len(t.Styles) {
		return &t.Styles[e.Style]
	}
	return &t.Styles[t.DefaultStyle]
}

// ActiveAt returns the events visible at tMs sorted by layer, then read order.
func (t *Track) ActiveAt(tMs int64) []*Event {
	var active []*Event
	for i := range t.Events {
		e := &t.Events[i]
		if e.Start <= tMs && tMs < e.End() {
			active = append(active, e)
		}
	}
	slices.SortStableFunc(active, func(a, b *Event) int {
		if a.Layer != b.Layer {
			return a.Layer - b.Layer
		}
		return a.ReadOrder - b.ReadOrder
	})
	return active
}
