// Package mask provides 8-bit coverage masks and the morphology needed to
// turn glyph fills into outlines and shadows.
package mask

import (
	"image"
	"math"
)

// Mask represents an A8 coverage mask.
// Values range from 0 (not covered) to 255 (fully covered).
type Mask struct {
	width  int
	height int
	data   []uint8
}

// New creates a new empty mask with the given dimensions.
// All values are initialized to 0.
func New(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		width:  width,
		height: height,
		data:   make([]uint8, width*height),
	}
}

// Alpha returns an image.Alpha sharing the mask's storage, so that
// rasterizers can draw into the mask directly.
func (m *Mask) Alpha() *image.Alpha {
	return &image.Alpha{
		Pix:    m.data,
		Stride: m.width,
		Rect:   image.Rect(0, 0, m.width, m.height),
	}
}

// Bounds returns the mask dimensions as an image.Rectangle.
func (m *Mask) Bounds() image.Rectangle {
	return image.Rect(0, 0, m.width, m.height)
}

// Clone creates a copy of the mask.
func (m *Mask) Clone() *Mask {
	clone := New(m.width, m.height)
	copy(clone.data, m.data)
	return clone
}

// FillRect covers r, clipped to the mask, with full coverage. Fractional
// edges get partial coverage.
func (m *Mask) FillRect(x0, y0, x1, y1 float64) {
	if x1 <= x0 || y1 <= y0 {
		return
	}
	iy0 := max(int(math.Floor(y0)), 0)
	iy1 := min(int(math.Ceil(y1)), m.height)
	ix0 := max(int(math.Floor(x0)), 0)
	ix1 := min(int(math.Ceil(x1)), m.width)
	for y := iy0; y < iy1; y++ {
		cy := overlap(float64(y), float64(y+1), y0, y1)
		row := m.data[y*m.width:]
		for x := ix0; x < ix1; x++ {
			c := cy * overlap(float64(x), float64(x+1), x0, x1)
			v := uint8(math.Round(c * 255))
			if v > row[x] {
				row[x] = v
			}
		}
	}
}

func overlap(a0, a1, b0, b1 float64) float64 {
	return max(0, min(a1, b1)-max(a0, b0))
}

// Union combines o into m, placing o's origin at (dx, dy), keeping the
// larger coverage of both.
func (m *Mask) Union(o *Mask, dx, dy int) {
	for y := 0; y < o.height; y++ {
		ty := y + dy
		if ty < 0 || ty >= m.height {
			continue
		}
		src := o.data[y*o.width : (y+1)*o.width]
		dst := m.data[ty*m.width : (ty+1)*m.width]
		for x, v := range src {
			tx := x + dx
			if v == 0 || tx < 0 || tx >= m.width {
				continue
			}
			if v > dst[tx] {
				dst[tx] = v
			}
		}
	}
}

// Subtract removes o's coverage from m. Both masks must have the same size.
func (m *Mask) Subtract(o *Mask) {
	n := min(len(m.data), len(o.data))
	for i := 0; i < n; i++ {
		if o.data[i] >= m.data[i] {
			m.data[i] = 0
		} else {
			m.data[i] -= o.data[i]
		}
	}
}

// Dilate returns a new mask where every covered pixel is grown by a disc of
// the given radius. The disc edge is antialiased so fractional radii grow
// smoothly. A non-positive radius returns a copy.
func (m *Mask) Dilate(radius float64) *Mask {
	if radius <= 0 {
		return m.Clone()
	}

	r := int(math.Ceil(radius))
	kernel := discKernel(radius, r)
	size := 2*r + 1

	out := New(m.width, m.height)
	for y := 0; y < m.height; y++ {
		row := m.data[y*m.width : (y+1)*m.width]
		for x, v := range row {
			if v == 0 {
				continue
			}
			for ky := 0; ky < size; ky++ {
				ty := y + ky - r
				if ty < 0 || ty >= m.height {
					continue
				}
				dst := out.data[ty*out.width : (ty+1)*out.width]
				krow := kernel[ky*size : (ky+1)*size]
				for kx, k := range krow {
					if k == 0 {
						continue
					}
					tx := x + kx - r
					if tx < 0 || tx >= out.width {
						continue
					}
					c := uint8((uint32(v)*uint32(k) + 127) / 255)
					if c > dst[tx] {
						dst[tx] = c
					}
				}
			}
		}
	}
	return out
}

// discKernel returns a (2r+1)^2 coverage kernel for a disc of the radius.
func discKernel(radius float64, r int) []uint8 {
	size := 2*r + 1
	k := make([]uint8, size*size)
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			d := math.Hypot(float64(x), float64(y))
			c := radius + 0.5 - d
			switch {
			case c >= 1:
				k[(y+r)*size+x+r] = 255
			case c > 0:
				k[(y+r)*size+x+r] = uint8(math.Round(c * 255))
			}
		}
	}
	return k
}

// Trim returns the smallest rectangle holding every covered pixel.
// The rectangle is empty when nothing is covered.
func (m *Mask) Trim() image.Rectangle {
	minX, minY := m.width, m.height
	maxX, maxY := -1, -1
	for y := 0; y < m.height; y++ {
		row := m.data[y*m.width : (y+1)*m.width]
		for x, v := range row {
			if v == 0 {
				continue
			}
			minX = min(minX, x)
			maxX = max(maxX, x)
			minY = min(minY, y)
			maxY = y
		}
	}
	if maxX < 0 {
		return image.Rectangle{}
	}
	return image.Rect(minX, minY, maxX+1, maxY+1)
}

// Crop copies the pixels inside r into a new tightly packed buffer
// (stride equal to r.Dx()).
func (m *Mask) Crop(r image.Rectangle) []byte {
	r = r.Intersect(m.Bounds())
	w, h := r.Dx(), r.Dy()
	out := make([]byte, w*h)
	for y := 0; y < h; y++ {
		src := m.data[(r.Min.Y+y)*m.width+r.Min.X:]
		copy(out[y*w:(y+1)*w], src[:w])
	}
	return out
}
