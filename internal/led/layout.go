package led

// Layout describes the physical matrix. With Serpentine wiring even columns
// run top to bottom and odd columns bottom to top; otherwise pixels are
// addressed row-major.
type Layout struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Serpentine bool `json:"serpentine"`
}

// Size is the number of pixels in the matrix.
func (l Layout) Size() int {
	if l.Width <= 0 || l.Height <= 0 {
		return 0
	}
	return l.Width * l.Height
}

// Index maps (x, y) to a strip index, or -1 when outside the matrix.
func (l Layout) Index(x, y int) int {
	if x < 0 || x >= l.Width || y < 0 || y >= l.Height {
		return -1
	}
	if !l.Serpentine {
		return y*l.Width + x
	}
	if x%2 == 0 {
		return x*l.Height + y
	}
	return x*l.Height + (l.Height - 1 - y)
}

// Coord is the inverse of Index. ok is false for indices outside the strip.
func (l Layout) Coord(i int) (x, y int, ok bool) {
	if i < 0 || i >= l.Size() {
		return 0, 0, false
	}
	if !l.Serpentine {
		return i % l.Width, i / l.Width, true
	}
	x = i / l.Height
	y = i % l.Height
	if x%2 == 1 {
		y = l.Height - 1 - y
	}
	return x, y, true
}

// Row returns the strip indices of row y, left to right.
func (l Layout) Row(y int) []int {
	var out []int
	for x := 0; x < l.Width; x++ {
		if i := l.Index(x, y); i >= 0 {
			out = append(out, i)
		}
	}
	return out
}

// Column returns the strip indices of column x, top to bottom.
func (l Layout) Column(x int) []int {
	var out []int
	for y := 0; y < l.Height; y++ {
		if i := l.Index(x, y); i >= 0 {
			out = append(out, i)
		}
	}
	return out
}
