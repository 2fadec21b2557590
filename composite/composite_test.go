package composite

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/chai2010/webp"

	"github.com/gogpu/ggass"
)

func TestColorNRGBA(t *testing.T) {
	tests := []struct {
		in   uint32
		want color.NRGBA
	}{
		{0xFFFFFF00, color.NRGBA{255, 255, 255, 255}},
		{0x00000080, color.NRGBA{0, 0, 0, 127}},
		{0x102030FF, color.NRGBA{0x10, 0x20, 0x30, 0}},
	}
	for _, tt := range tests {
		if got := ColorNRGBA(tt.in); got != tt.want {
			t.Errorf("ColorNRGBA(%#08x) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func frameOf(sprites []ggass.Sprite, bitmaps []byte) *ggass.Frame {
	return &ggass.Frame{Sprites: sprites, Bitmaps: bitmaps}
}

func TestDrawBlend(t *testing.T) {
	tests := []struct {
		name  string
		color uint32
		cov   byte
		want  color.NRGBA
	}{
		{"opaque full", 0xFFFFFF00, 255, color.NRGBA{255, 255, 255, 255}},
		{"opaque half", 0xFF000000, 128, color.NRGBA{128, 0, 0, 128}},
		{"translucent full", 0x00FF0080, 255, color.NRGBA{0, 127, 0, 127}},
		{"no coverage", 0xFFFFFF00, 0, color.NRGBA{}},
		{"transparent color", 0xFFFFFFFF, 255, color.NRGBA{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := frameOf([]ggass.Sprite{{W: 1, H: 1, Stride: 1, Color: tt.color}}, []byte{tt.cov})
			img := Render(f, 1, 1)
			if got := img.NRGBAAt(0, 0); got != tt.want {
				t.Errorf("pixel = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDrawOrder(t *testing.T) {
	f := frameOf([]ggass.Sprite{
		{W: 1, H: 1, Stride: 1, Color: 0x00000000, Offset: 0},
		{W: 1, H: 1, Stride: 1, Color: 0xFFFFFF00, Offset: 1},
	}, []byte{255, 255})
	if got := Render(f, 1, 1).NRGBAAt(0, 0); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("pixel = %v, later sprite should cover earlier", got)
	}
}

func TestDrawClip(t *testing.T) {
	// 2x2 sprite with stride 3 hanging off the top-left corner.
	bitmap := []byte{
		10, 20, 0,
		30, 255, 0,
	}
	f := frameOf([]ggass.Sprite{{X: -1, Y: -1, W: 2, H: 2, Stride: 3, Color: 0xFFFFFF00}}, bitmap)
	img := Render(f, 2, 2)

	if got := img.NRGBAAt(0, 0); got.A != 255 {
		t.Errorf("(0,0) alpha = %d, want 255", got.A)
	}
	for _, p := range []image.Point{{1, 0}, {0, 1}, {1, 1}} {
		if got := img.NRGBAAt(p.X, p.Y); got.A != 0 {
			t.Errorf("%v alpha = %d, want 0", p, got.A)
		}
	}

	// Entirely outside.
	f = frameOf([]ggass.Sprite{{X: 5, Y: 5, W: 1, H: 1, Stride: 1, Color: 0xFFFFFF00}}, []byte{255})
	img = Render(f, 2, 2)
	for i, v := range img.Pix {
		if v != 0 {
			t.Fatalf("Pix[%d] = %d, want untouched canvas", i, v)
		}
	}
}

func TestDrawSubImage(t *testing.T) {
	canvas := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	sub := canvas.SubImage(image.Rect(2, 2, 4, 4)).(*image.NRGBA)
	Draw(sub, frameOf([]ggass.Sprite{{W: 1, H: 1, Stride: 1, Color: 0xFFFFFF00}}, []byte{255}))
	if got := canvas.NRGBAAt(2, 2); got.A != 255 {
		t.Errorf("sprite not placed at the sub-image origin: %v", got)
	}
	if got := canvas.NRGBAAt(0, 0); got.A != 0 {
		t.Errorf("sprite leaked outside the sub-image: %v", got)
	}
}

func TestDrawEmpty(t *testing.T) {
	img := Render(&ggass.Frame{}, 3, 2)
	if img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Errorf("bounds = %v", img.Bounds())
	}
	Draw(nil, &ggass.Frame{})
	Draw(img, nil)
}

func testImage() *image.NRGBA {
	f := frameOf([]ggass.Sprite{
		{X: 1, Y: 1, W: 2, H: 2, Stride: 2, Color: 0x3366CC00},
	}, []byte{255, 255, 255, 255})
	return Render(f, 4, 4)
}

func TestEncodeWebPLossless(t *testing.T) {
	src := testImage()
	var buf bytes.Buffer
	if err := Encode(&buf, src, FormatWebP); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := webp.Decode(&buf)
	if err != nil {
		t.Fatalf("webp.Decode() error = %v", err)
	}
	if got.Bounds() != src.Bounds() {
		t.Fatalf("bounds = %v, want %v", got.Bounds(), src.Bounds())
	}
	want := src.NRGBAAt(1, 1)
	if c := color.NRGBAModel.Convert(got.At(1, 1)).(color.NRGBA); c != want {
		t.Errorf("pixel = %v, want %v", c, want)
	}
	if _, _, _, a := got.At(0, 0).RGBA(); a != 0 {
		t.Errorf("corner alpha = %d, want 0", a)
	}
}

func TestEncodePNG(t *testing.T) {
	src := testImage()
	var buf bytes.Buffer
	if err := Encode(&buf, src, FormatPNG); err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if c := color.NRGBAModel.Convert(got.At(2, 2)).(color.NRGBA); c != src.NRGBAAt(2, 2) {
		t.Errorf("pixel = %v, want %v", c, src.NRGBAAt(2, 2))
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"webp", FormatWebP, false},
		{"PNG", FormatPNG, false},
		{"out/frame.webp", FormatWebP, false},
		{"frame.PNG", FormatPNG, false},
		{"frame.jpg", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
		}
		if err != nil && !errors.Is(err, ErrUnknownFormat) {
			t.Errorf("ParseFormat(%q) error = %v, want ErrUnknownFormat", tt.in, err)
		}
	}

	if FormatWebP.ContentType() != "image/webp" || FormatPNG.ContentType() != "image/png" {
		t.Error("unexpected content types")
	}
	if err := Encode(&bytes.Buffer{}, testImage(), "gif"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Encode(gif) error = %v", err)
	}
}
