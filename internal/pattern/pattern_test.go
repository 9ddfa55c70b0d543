package pattern

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutcracker/showrunner/internal/led"
)

func mustDecode(t *testing.T, doc string) *Pattern {
	t.Helper()
	p, err := Decode(strings.NewReader(doc))
	require.NoError(t, err)
	return p
}

func TestDecodeSortsFrames(t *testing.T) {
	p := mustDecode(t, `{
		"name": "out of order",
		"durationMs": 1000,
		"frames": [
			{"timestampMs": 500, "effect": "fill", "color": "#0000FF"},
			{"timestampMs": 0,   "effect": "fill", "color": "#FF0000"},
			{"timestampMs": 250, "effect": "set", "color": "#00FF00", "leds": [1]},
			{"timestampMs": 250, "effect": "set", "color": "#00FF00", "leds": [2]}
		]
	}`)

	require.Len(t, p.Frames, 4)
	var at []time.Duration
	for _, f := range p.Frames {
		at = append(at, f.At)
	}
	assert.Equal(t, []time.Duration{0, 250 * time.Millisecond, 250 * time.Millisecond, 500 * time.Millisecond}, at)
	assert.Equal(t, []int{1}, p.Frames[1].Effect.(Set).LEDs, "equal timestamps keep file order")
	assert.Equal(t, []int{2}, p.Frames[2].Effect.(Set).LEDs)
	assert.Equal(t, time.Second, p.Duration)
	assert.Equal(t, 500*time.Millisecond, p.End())

	groups := p.Groups()
	require.Len(t, groups, 3)
	assert.Len(t, groups[1].Frames, 2)
}

func TestDecodeEffects(t *testing.T) {
	p := mustDecode(t, `{"frames": [
		{"timestampMs": 0, "effect": "fill", "color": "#010203"},
		{"timestampMs": 1, "effect": "set", "color": "#FFFFFF", "leds": [0, 5]},
		{"timestampMs": 2, "effect": "clear"},
		{"timestampMs": 3, "effect": "clear", "leds": [4]},
		{"timestampMs": 4, "effect": "gradient", "startColor": "#000000", "endColor": "#FF0000", "leds": [3, 2]},
		{"timestampMs": 5, "effect": "sparkle", "color": "#FFFFFF"},
		{"timestampMs": 6, "effect": "set", "leds": [1]},
		{"timestampMs": 7, "effect": "fill", "color": "not-a-color"}
	]}`)

	assert.Equal(t, Fill{Color: led.Color{R: 1, G: 2, B: 3}}, p.Frames[0].Effect)
	assert.Equal(t, Set{Color: led.Color{R: 255, G: 255, B: 255}, LEDs: []int{0, 5}}, p.Frames[1].Effect)
	assert.Equal(t, Clear{All: true}, p.Frames[2].Effect)
	assert.Equal(t, Clear{LEDs: []int{4}}, p.Frames[3].Effect)
	assert.Equal(t, Gradient{Start: led.Black, End: led.Color{R: 255}, LEDs: []int{3, 2}}, p.Frames[4].Effect)
	assert.Equal(t, "noop", p.Frames[5].Effect.Kind())
	assert.Equal(t, "noop", p.Frames[6].Effect.Kind(), "set without color is a no-op")
	assert.Equal(t, Fill{Color: led.Black}, p.Frames[7].Effect, "malformed colors become black")
}

func TestDecodeSchemaViolations(t *testing.T) {
	tests := map[string]string{
		"invalid json":       `{"frames": [`,
		"missing frames":     `{"name": "x"}`,
		"missing timestamp":  `{"frames": [{"effect": "fill", "color": "#FFFFFF"}]}`,
		"negative timestamp": `{"frames": [{"timestampMs": -5, "effect": "clear"}]}`,
		"negative duration":  `{"durationMs": -1, "frames": []}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}

	_, err := Decode(strings.NewReader(`{"frames": [{"effect": "clear"}]}`))
	assert.True(t, errors.Is(err, ErrSchema))
}

func TestGradientByListPosition(t *testing.T) {
	buf := led.NewBuffer(256)
	Apply(buf, Frame{Effect: Gradient{
		Start: led.Black,
		End:   led.Color{R: 255},
		LEDs:  []int{10, 20, 30},
	}})

	assert.Equal(t, "#000000", buf.At(10).Hex())
	assert.Equal(t, "#800000", buf.At(20).Hex())
	assert.Equal(t, "#FF0000", buf.At(30).Hex())
}

func TestGradientFollowsListOrderNotIndexOrder(t *testing.T) {
	buf := led.NewBuffer(8)
	Apply(buf, Frame{Effect: Gradient{
		Start: led.Color{B: 255},
		End:   led.Color{R: 255},
		LEDs:  []int{7, 0},
	}})
	assert.Equal(t, led.Color{B: 255}, buf.At(7))
	assert.Equal(t, led.Color{R: 255}, buf.At(0))
}

func TestGradientSingleElement(t *testing.T) {
	buf := led.NewBuffer(8)
	Apply(buf, Frame{Effect: Gradient{Start: led.Color{R: 9, G: 9, B: 9}, End: led.Color{R: 200}, LEDs: []int{3}}})
	assert.Equal(t, led.Color{R: 9, G: 9, B: 9}, buf.At(3))
}

func TestSetOutOfRangeIgnored(t *testing.T) {
	buf := led.NewBuffer(256)
	Apply(buf, Frame{Effect: Set{Color: led.Color{R: 255, G: 255, B: 255}, LEDs: []int{999, 4, -3}}})
	for i := 0; i < buf.Len(); i++ {
		if i == 4 {
			assert.Equal(t, led.Color{R: 255, G: 255, B: 255}, buf.At(i))
			continue
		}
		require.Equal(t, led.Black, buf.At(i), "index %d", i)
	}
}

func TestClearEffects(t *testing.T) {
	buf := led.NewBuffer(4)
	buf.Fill(led.Color{R: 1, G: 1, B: 1})

	Apply(buf, Frame{Effect: Clear{LEDs: []int{1, 42}}})
	assert.Equal(t, []led.Color{{1, 1, 1}, led.Black, {1, 1, 1}, {1, 1, 1}}, buf.Snapshot())

	Apply(buf, Frame{Effect: Clear{All: true}})
	assert.True(t, buf.IsDark())

	Apply(buf, Frame{Effect: Noop{Reason: "x"}})
	Apply(buf, Frame{})
	assert.True(t, buf.IsDark())
}

func TestValidate(t *testing.T) {
	p := mustDecode(t, `{"durationMs": 100, "frames": [
		{"timestampMs": 0, "effect": "set", "color": "#FFFFFF", "leds": [300]},
		{"timestampMs": 50, "effect": "wipe"},
		{"timestampMs": 200, "effect": "clear"}
	]}`)
	warnings := p.Validate(256)
	require.Len(t, warnings, 3)
	assert.Contains(t, warnings[0].String(), "led 300")
	assert.Contains(t, warnings[1].Message, "unknown effect")
	assert.Contains(t, warnings[2].Message, "after durationMs")
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestStoreLoad(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "lights", "a.json"), `{"name": "a", "frames": [{"timestampMs": 0, "effect": "clear"}]}`)

	s := NewStore(root)
	p, err := s.Load("lights/a.json")
	require.NoError(t, err)
	assert.Equal(t, "a", p.Name)

	again, err := s.Load("lights/a.json")
	require.NoError(t, err)
	assert.Same(t, p, again, "unchanged files come from the cache")
}

func TestStoreReloadsOnModification(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "p.json")
	writeFile(t, path, `{"name": "v1", "frames": []}`)

	s := NewStore(root)
	p, err := s.Load("p.json")
	require.NoError(t, err)
	assert.Equal(t, "v1", p.Name)

	writeFile(t, path, `{"name": "v2", "frames": []}`)
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	p, err = s.Load("p.json")
	require.NoError(t, err)
	assert.Equal(t, "v2", p.Name)
}

func TestStoreFailures(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bad.json"), `{not json`)
	writeFile(t, filepath.Join(filepath.Dir(root), "secret.json"), `{"frames": []}`)

	s := NewStore(root)

	_, err := s.Load("missing.json")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	_, err = s.Load("bad.json")
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "bad.json", le.Path)

	_, err = s.Load("../secret.json")
	assert.True(t, errors.Is(err, ErrOutsideRoot))

	_, err = s.Load(filepath.Join(filepath.Dir(root), "secret.json"))
	assert.True(t, errors.Is(err, ErrOutsideRoot))

	_, err = s.Load(".")
	assert.Error(t, err)
}

func TestResolvePath(t *testing.T) {
	root := t.TempDir()
	p, err := ResolvePath(root, "music/song.mp3")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "music", "song.mp3"), p)

	p, err = ResolvePath(root, filepath.Join(root, "x.json"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "x.json"), p)

	_, err = ResolvePath(root, "a/../../b")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}
