package vm

// Display is the framebuffer: a row-major grid of 24-bit colour
// values stored widened to uint64.
type Display struct {
	width  int
	height int
	buffer []uint64
}

// NewDisplay creates a new Display instance
func NewDisplay(width, height int) *Display {
	return &Display{
		width:  width,
		height: height,
		buffer: make([]uint64, width*height),
	}
}

func (d *Display) Width() int {
	return d.width
}

func (d *Display) Height() int {
	return d.height
}

// Framebuffer exposes the raw pixel grid, row-major.
func (d *Display) Framebuffer() []uint64 {
	return d.buffer
}

// Clear fills every pixel with the given colour.
func (d *Display) Clear(value uint64) {
	for i := range d.buffer {
		d.buffer[i] = value
	}
}

func (d *Display) ReadPixel(x, y int) (uint64, error) {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return 0, ErrInvalidMemoryAccess
	}

	return d.buffer[y*d.width+x], nil
}

func (d *Display) WritePixel(x, y int, value uint64) error {
	if x < 0 || x >= d.width || y < 0 || y >= d.height {
		return ErrInvalidMemoryAccess
	}

	d.buffer[y*d.width+x] = value
	return nil
}

// WriteBox fills a rectangle, clipping against the display edges.
func (d *Display) WriteBox(x, y, width, height int, value uint64) {
	for dy := 0; dy < height; dy++ {
		for dx := 0; dx < width; dx++ {
			px := x + dx
			py := y + dy

			if px >= 0 && px < d.width && py >= 0 && py < d.height {
				d.buffer[py*d.width+px] = value
			}
		}
	}
}

// WriteLine draws a segment with the integer midpoint algorithm. A
// segment leaving the display fails at the first out-of-bounds pixel.
func (d *Display) WriteLine(x0, y0, x1, y1 int, value uint64) error {
	dx := x1 - x0
	dy := y1 - y0

	stepX := 1
	if dx < 0 {
		stepX = -1
		dx = -dx
	}

	stepY := 1
	if dy < 0 {
		stepY = -1
		dy = -dy
	}

	x, y := x0, y0
	residual := dx - dy

	for {
		if err := d.WritePixel(x, y, value); err != nil {
			return err
		}

		if x == x1 && y == y1 {
			return nil
		}

		doubled := residual * 2

		if doubled > -dy {
			residual -= dy
			x += stepX
		}

		if doubled < dx {
			residual += dx
			y += stepY
		}
	}
}
