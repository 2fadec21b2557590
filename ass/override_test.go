package ass

import (
	"testing"
)

func newTestTrack(t *testing.T) *Track {
	t.Helper()
	tr, err := Parse([]byte(sampleScript))
	if err != nil {
		t.Fatal(err)
	}
	return tr
}

func dialogueOf(t *testing.T, tr *Track, text string) *Dialogue {
	t.Helper()
	e := &Event{Style: tr.DefaultStyle, Duration: 2000, Text: text}
	return tr.ParseDialogue(e)
}

func TestParseDialoguePlain(t *testing.T) {
	tr := newTestTrack(t)
	d := dialogueOf(t, tr, "Hello, world")

	if len(d.Lines) != 1 || len(d.Lines[0]) != 1 {
		t.Fatalf("Lines = %+v", d.Lines)
	}
	run := d.Lines[0][0]
	if run.Text != "Hello, world" {
		t.Errorf("Text = %q", run.Text)
	}
	if run.Style.FontSize != 48 || !run.Style.Bold || run.Style.Border != 3 {
		t.Errorf("Style = %+v", run.Style)
	}
	if d.Alignment != 2 || d.Pos != nil || d.Fade != nil {
		t.Errorf("Dialogue = %+v", d)
	}
}

func TestParseDialogueBreaks(t *testing.T) {
	tr := newTestTrack(t)

	d := dialogueOf(t, tr, `one\Ntwo\nthree\hfour`)
	if len(d.Lines) != 2 {
		t.Fatalf("len(Lines) = %d, want 2", len(d.Lines))
	}
	if got := d.Lines[0][0].Text; got != "one" {
		t.Errorf("line 0 = %q", got)
	}
	if got := d.Lines[1][0].Text; got != "two three\u00a0four" {
		t.Errorf("line 1 = %q", got)
	}

	tr.WrapStyle = 2
	d = dialogueOf(t, tr, `a\nb`)
	if len(d.Lines) != 2 {
		t.Errorf("WrapStyle 2: len(Lines) = %d, want 2", len(d.Lines))
	}
}

func TestParseDialogueTags(t *testing.T) {
	tr := newTestTrack(t)
	d := dialogueOf(t, tr, `{\an7\pos(10,20)\fad(100,200)}a{\b0\i1\fs20\c&HFF0000&\3c&H00FF00&\alpha&H80&\bord0}b{\r}c{\1a&H10&\fnGo\fscx50}d`)

	if d.Alignment != 7 {
		t.Errorf("Alignment = %d, want 7", d.Alignment)
	}
	if d.Pos == nil || d.Pos.X != 10 || d.Pos.Y != 20 {
		t.Errorf("Pos = %+v", d.Pos)
	}
	if d.Fade == nil {
		t.Fatal("Fade = nil")
	}
	if d.Fade.T2 != 100 || d.Fade.T3 != 1800 || d.Fade.T4 != 2000 {
		t.Errorf("Fade = %+v", d.Fade)
	}

	runs := d.Lines[0]
	if len(runs) != 4 {
		t.Fatalf("len(runs) = %d, want 4: %+v", len(runs), runs)
	}

	b := runs[1].Style
	if b.Bold || !b.Italic || b.FontSize != 20 || b.Border != 0 {
		t.Errorf("run b style = %+v", b)
	}
	if b.Primary != 0x0000FF80 {
		t.Errorf("run b Primary = %#08x, want 0x0000ff80", b.Primary)
	}
	if b.Outline != 0x00FF0080 {
		t.Errorf("run b Outline = %#08x, want 0x00ff0080", b.Outline)
	}

	c := runs[2].Style
	if c != runStyleOf(&tr.Styles[tr.DefaultStyle]) {
		t.Errorf("run c after \\r = %+v", c)
	}

	dd := runs[3].Style
	if dd.Primary != 0xFFFFFF10 || dd.FontName != "Go" || dd.ScaleX != 0.5 {
		t.Errorf("run d style = %+v", dd)
	}
}

func TestParseDialogueFirstWins(t *testing.T) {
	tr := newTestTrack(t)
	d := dialogueOf(t, tr, `{\an1\pos(1,1)}x{\an9\pos(5,5)\move(0,0,1,1)}y`)
	if d.Alignment != 1 {
		t.Errorf("Alignment = %d, want 1", d.Alignment)
	}
	if d.Pos.X != 1 || d.Move != nil {
		t.Errorf("Pos = %+v Move = %+v", d.Pos, d.Move)
	}
}

func TestParseDialogueDrawingAndComments(t *testing.T) {
	tr := newTestTrack(t)
	d := dialogueOf(t, tr, `{comment}a{\p1}m 0 0 l 10 10{\p0}b{unterminated`)
	var text string
	for _, r := range d.Lines[0] {
		text += r.Text
	}
	if text != "ab{unterminated" {
		t.Errorf("text = %q, want %q", text, "ab{unterminated")
	}
}

func TestMoveAt(t *testing.T) {
	m := &Move{From: Point{0, 0}, To: Point{100, 50}}
	if p := m.At(500, 1000); p.X != 50 || p.Y != 25 {
		t.Errorf("At(500) = %+v", p)
	}
	m = &Move{From: Point{0, 0}, To: Point{100, 0}, T1: 200, T2: 400}
	for _, tt := range []struct {
		t    int64
		want float64
	}{{0, 0}, {200, 0}, {300, 50}, {400, 100}, {900, 100}} {
		if p := m.At(tt.t, 1000); p.X != tt.want {
			t.Errorf("At(%d).X = %v, want %v", tt.t, p.X, tt.want)
		}
	}
}

func TestFadeAlpha(t *testing.T) {
	f := &Fade{A1: 255, A2: 0, A3: 255, T1: 0, T2: 100, T3: 900, T4: 1000}
	for _, tt := range []struct {
		t    int64
		want int
	}{{0, 255}, {50, 128}, {100, 0}, {500, 0}, {950, 127}, {1000, 255}} {
		if got := f.Alpha(tt.t); got != tt.want {
			t.Errorf("Alpha(%d) = %d, want %d", tt.t, got, tt.want)
		}
	}
}
