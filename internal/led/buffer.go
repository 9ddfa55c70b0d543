package led

// Buffer is a fixed-size frame of LED colors.
type Buffer struct {
	px []Color
}

// NewBuffer allocates a black buffer of n pixels.
func NewBuffer(n int) *Buffer {
	if n < 0 {
		n = 0
	}
	return &Buffer{px: make([]Color, n)}
}

// Len returns the number of pixels.
func (b *Buffer) Len() int { return len(b.px) }

// Set writes c at index i. Out-of-range indices are ignored and report false.
func (b *Buffer) Set(i int, c Color) bool {
	if i < 0 || i >= len(b.px) {
		return false
	}
	b.px[i] = c
	return true
}

// At returns the color at index i, or black when out of range.
func (b *Buffer) At(i int) Color {
	if i < 0 || i >= len(b.px) {
		return Black
	}
	return b.px[i]
}

// Fill sets every pixel to c.
func (b *Buffer) Fill(c Color) {
	for i := range b.px {
		b.px[i] = c
	}
}

// Clear sets every pixel to black.
func (b *Buffer) Clear() { b.Fill(Black) }

// IsDark reports whether every pixel is black.
func (b *Buffer) IsDark() bool {
	for _, c := range b.px {
		if c != Black {
			return false
		}
	}
	return true
}

// Snapshot returns a copy of the pixel data.
func (b *Buffer) Snapshot() []Color {
	out := make([]Color, len(b.px))
	copy(out, b.px)
	return out
}
