package led

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#FF0000", Color{255, 0, 0}, false},
		{"#00ff7f", Color{0, 255, 127}, false},
		{"0099CC", Color{0, 0x99, 0xCC}, false},
		{"#FFF", Black, true},
		{"#GG0000", Black, true},
		{"", Black, true},
		{"#1234567", Black, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
		} else {
			assert.NoError(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestHexRoundTrip(t *testing.T) {
	c := Color{0x12, 0xAB, 0x0F}
	got, err := ParseHex(c.Hex())
	require.NoError(t, err)
	assert.Equal(t, c, got)
	assert.Equal(t, "#12AB0F", c.String())
}

func TestBlend(t *testing.T) {
	red := Color{255, 0, 0}
	assert.Equal(t, Black, Black.Blend(red, 0))
	assert.Equal(t, red, Black.Blend(red, 1))
	assert.Equal(t, Color{128, 0, 0}, Black.Blend(red, 0.5))
	assert.Equal(t, red, Black.Blend(red, 3), "t is clamped")
}

func TestScale(t *testing.T) {
	c := Color{200, 100, 255}
	assert.Equal(t, c, c.Scale(255))
	assert.Equal(t, Black, c.Scale(0))
	assert.Equal(t, Color{100, 50, 128}, c.Scale(128))
}

func TestBufferSetIgnoresOutOfRange(t *testing.T) {
	b := NewBuffer(256)
	b.Fill(Color{1, 2, 3})

	assert.False(t, b.Set(999, Color{255, 255, 255}))
	assert.False(t, b.Set(-1, Color{255, 255, 255}))
	for i := 0; i < b.Len(); i++ {
		require.Equal(t, Color{1, 2, 3}, b.At(i))
	}
	assert.Equal(t, Black, b.At(999))
}

func TestBufferSnapshotIsCopy(t *testing.T) {
	b := NewBuffer(4)
	snap := b.Snapshot()
	snap[0] = Color{9, 9, 9}
	assert.True(t, b.IsDark())
}

func TestSerpentineLayout(t *testing.T) {
	l := Layout{Width: 32, Height: 8, Serpentine: true}
	assert.Equal(t, 256, l.Size())

	// Even columns run down, odd columns run up.
	assert.Equal(t, 0, l.Index(0, 0))
	assert.Equal(t, 7, l.Index(0, 7))
	assert.Equal(t, 15, l.Index(1, 0))
	assert.Equal(t, 8, l.Index(1, 7))
	assert.Equal(t, -1, l.Index(32, 0))
	assert.Equal(t, -1, l.Index(0, -1))

	for i := 0; i < l.Size(); i++ {
		x, y, ok := l.Coord(i)
		require.True(t, ok)
		require.Equal(t, i, l.Index(x, y))
	}
	_, _, ok := l.Coord(256)
	assert.False(t, ok)
}

func TestRowMajorLayout(t *testing.T) {
	l := Layout{Width: 4, Height: 2}
	assert.Equal(t, []int{4, 5, 6, 7}, l.Row(1))
	assert.Equal(t, []int{2, 6}, l.Column(2))
}

type recordingSink struct {
	mu         sync.Mutex
	frames     [][]Color
	brightness uint8
	err        error
}

func (r *recordingSink) Push(px []Color) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, px)
	return r.err
}

func (r *recordingSink) SetBrightness(b uint8) {
	r.mu.Lock()
	r.brightness = b
	r.mu.Unlock()
}

func TestStripDrawPushes(t *testing.T) {
	sink := &recordingSink{}
	s := NewStrip(Layout{Width: 2, Height: 2}, sink, 77)
	assert.Equal(t, uint8(77), sink.brightness)

	s.Draw(func(b *Buffer) { b.Set(1, Color{1, 1, 1}) })
	s.Clear()

	require.Len(t, sink.frames, 2)
	assert.Equal(t, Color{1, 1, 1}, sink.frames[0][1])
	assert.Equal(t, Black, sink.frames[1][1])
	assert.Equal(t, uint64(2), s.Pushes())
}

func TestStripPushErrorIsNotFatal(t *testing.T) {
	sink := &recordingSink{err: errors.New("bus fault")}
	s := NewStrip(Layout{Width: 1, Height: 1}, sink, 255)
	s.Draw(func(b *Buffer) { b.Fill(Color{5, 5, 5}) })
	s.Draw(func(b *Buffer) { b.Fill(Color{6, 6, 6}) })
	assert.Len(t, sink.frames, 2)
	assert.Equal(t, []Color{{6, 6, 6}}, s.Snapshot())
}

func TestStripBrightness(t *testing.T) {
	sink := &recordingSink{}
	s := NewStrip(Layout{Width: 1, Height: 1}, sink, 10)
	s.SetBrightness(200)
	assert.Equal(t, uint8(200), s.Brightness())
	assert.Equal(t, uint8(200), sink.brightness)
}
