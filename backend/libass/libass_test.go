//go:build libass

package libass

import (
	"testing"

	"github.com/gogpu/ggass/backend"
)

const script = `[Script Info]
ScriptType: v4.00+
PlayResX: 640
PlayResY: 360

[Events]
Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text
Dialogue: 0,0:00:01.00,0:00:02.00,Default,,0,0,0,,Hello
`

func TestRenderCycle(t *testing.T) {
	lib, err := Backend{}.NewLibrary(backend.Config{})
	if err != nil {
		t.Fatalf("NewLibrary() error = %v", err)
	}
	defer lib.Close()

	r, err := lib.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}
	defer r.Close()

	tr, err := lib.ReadTrack([]byte(script))
	if err != nil {
		t.Fatalf("ReadTrack() error = %v", err)
	}
	defer tr.Close()

	r.SetFrameSize(640, 360)
	if img, _ := r.RenderFrame(tr, 0); img != nil {
		t.Error("RenderFrame(0) should be empty")
	}
	// Glyph output depends on the fonts installed, so only the list shape
	// is checked.
	for img, _ := r.RenderFrame(tr, 1500); img != nil; img = img.Next {
		if img.Bitmap != nil && len(img.Bitmap) != img.Stride*img.H {
			t.Errorf("bitmap len = %d, want %d", len(img.Bitmap), img.Stride*img.H)
		}
	}
}
