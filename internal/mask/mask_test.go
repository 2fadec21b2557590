package mask

import (
	"image"
	"image/color"
	"testing"
)

// at reads coverage through the image view; outside the mask it is 0.
func at(m *Mask, x, y int) uint8 { return m.Alpha().AlphaAt(x, y).A }

func set(m *Mask, x, y int, v uint8) { m.Alpha().SetAlpha(x, y, color.Alpha{A: v}) }

func TestNew(t *testing.T) {
	m := New(100, 50)
	if b := m.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Errorf("expected 100x50, got %v", b)
	}
	if r := m.Trim(); !r.Empty() {
		t.Error("new mask should be empty")
	}
	if n := New(-1, 3); n.Bounds().Dx() != 0 || len(n.Alpha().Pix) != 0 {
		t.Errorf("negative width should clamp to 0, got %v", n.Bounds())
	}
}

func TestAlphaSharesStorage(t *testing.T) {
	m := New(4, 4)
	a := m.Alpha()
	a.Pix[a.PixOffset(2, 3)] = 77
	if got := m.Crop(image.Rect(2, 3, 3, 4)); got[0] != 77 {
		t.Errorf("mask at (2,3) = %d, want 77", got[0])
	}
	if at(m, -1, 0) != 0 || at(m, 4, 0) != 0 {
		t.Error("expected 0 outside the mask")
	}
}

func TestFillRect(t *testing.T) {
	m := New(4, 2)
	m.FillRect(1.5, 0, 3, 1)

	want := []uint8{0, 128, 255, 0, 0, 0, 0, 0}
	for i, v := range m.Alpha().Pix {
		if v != want[i] {
			t.Errorf("data[%d] = %d, want %d", i, v, want[i])
		}
	}
}

func TestUnionSubtract(t *testing.T) {
	a := New(4, 4)
	b := New(2, 2)
	set(b, 0, 0, 200)
	set(b, 1, 1, 100)

	set(a, 2, 2, 150)
	a.Union(b, 2, 2)
	if at(a, 2, 2) != 200 {
		t.Errorf("Union should keep max, got %d", at(a, 2, 2))
	}
	if at(a, 3, 3) != 100 {
		t.Errorf("Union offset wrong, got %d", at(a, 3, 3))
	}

	// Placing partly outside is clipped.
	a.Union(b, 3, 3)

	c := New(4, 4)
	set(c, 2, 2, 50)
	set(c, 3, 3, 255)
	a.Subtract(c)
	if at(a, 2, 2) != 150 {
		t.Errorf("Subtract = %d, want 150", at(a, 2, 2))
	}
	if at(a, 3, 3) != 0 {
		t.Errorf("Subtract should saturate at 0, got %d", at(a, 3, 3))
	}
}

func TestDilate(t *testing.T) {
	m := New(11, 11)
	set(m, 5, 5, 255)

	d := m.Dilate(2)
	tests := []struct {
		x, y int
		want uint8
	}{
		{5, 5, 255},
		{6, 6, 255},
		{7, 5, 128},
		{8, 5, 0},
		{5, 3, 128},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := at(d, tt.x, tt.y); got != tt.want {
			t.Errorf("Dilate At(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}

	// Source untouched, zero radius copies.
	if at(m, 6, 6) != 0 {
		t.Error("Dilate modified the source")
	}
	if c := m.Dilate(0); at(c, 5, 5) != 255 || at(c, 6, 5) != 0 {
		t.Error("Dilate(0) should copy")
	}
}

func TestTrimCrop(t *testing.T) {
	m := New(8, 6)
	if r := m.Trim(); !r.Empty() {
		t.Errorf("Trim of empty mask = %v", r)
	}

	set(m, 2, 1, 10)
	set(m, 4, 3, 20)
	r := m.Trim()
	if r != image.Rect(2, 1, 5, 4) {
		t.Fatalf("Trim = %v, want (2,1)-(5,4)", r)
	}

	buf := m.Crop(r)
	if len(buf) != 9 {
		t.Fatalf("len(Crop) = %d, want 9", len(buf))
	}
	if buf[0] != 10 || buf[8] != 20 {
		t.Errorf("Crop = %v", buf)
	}
}
