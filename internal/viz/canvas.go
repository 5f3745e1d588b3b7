package viz

import (
	"math"
	"strings"
)

const brailleBase = 0x2800

// dotBits maps a sub-pixel (row, col) inside a cell to its Braille dot.
var dotBits = [4][2]uint8{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a grid of Braille cells, each holding 2x4 sub-pixels, so
// the drawable area is (Width*2) x (Height*4) with y growing downward.
type Canvas struct {
	Width, Height int
	cells         []uint8
}

func NewCanvas(w, h int) *Canvas {
	return &Canvas{Width: w, Height: h, cells: make([]uint8, w*h)}
}

// cell returns the cell index and dot mask of a sub-pixel, ok false
// when it lies outside the canvas.
func (c *Canvas) cell(x, y int) (idx int, bit uint8, ok bool) {
	if x < 0 || y < 0 || x >= c.Width*2 || y >= c.Height*4 {
		return 0, 0, false
	}
	return (y/4)*c.Width + x/2, dotBits[y%4][x%2], true
}

func (c *Canvas) Set(x, y int) {
	if i, bit, ok := c.cell(x, y); ok {
		c.cells[i] |= bit
	}
}

func (c *Canvas) Unset(x, y int) {
	if i, bit, ok := c.cell(x, y); ok {
		c.cells[i] &^= bit
	}
}

// IsSet reports whether the sub-pixel at (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	i, bit, ok := c.cell(x, y)
	return ok && c.cells[i]&bit != 0
}

// Rune is the Braille character of cell (col, row).
func (c *Canvas) Rune(col, row int) rune {
	return rune(brailleBase + int(c.cells[row*c.Width+col]))
}

func (c *Canvas) Clear() { clear(c.cells) }

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx, dy := x1-x0, y1-y0
	sx, sy := 1, 1
	if dx < 0 {
		dx, sx = -dx, -1
	}
	if dy < 0 {
		dy, sy = -dy, -1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.Height * (c.Width*3 + 1))
	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			b.WriteRune(c.Rune(col, row))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// PlotSeries draws values as a polyline spanning the full canvas
// width. The vertical axis runs from 0 at the bottom to top; points
// outside that range are clipped.
func (c *Canvas) PlotSeries(values []float64, top float64) {
	if len(values) == 0 || top <= 0 {
		return
	}
	cw, ch := c.Width*2, c.Height*4
	project := func(i int) (int, int) {
		x := 0
		if len(values) > 1 {
			x = i * (cw - 1) / (len(values) - 1)
		}
		v := values[i]
		if math.IsNaN(v) {
			v = 0
		}
		v = math.Max(-top, math.Min(v, 2*top))
		return x, ch - 1 - int(math.Round(v/top*float64(ch-1)))
	}
	x0, y0 := project(0)
	c.Set(x0, y0)
	for i := 1; i < len(values); i++ {
		x1, y1 := project(i)
		c.DrawLine(x0, y0, x1, y1)
		x0, y0 = x1, y1
	}
}
