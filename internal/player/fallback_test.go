package player

import (
	"context"
	"testing"
	"time"
)

func TestSmoothstepBoundaries(t *testing.T) {
	tests := []struct {
		input float64
		want  float64
	}{
		{-0.5, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{1.5, 1},
	}
	for _, tt := range tests {
		got := Smoothstep(tt.input)
		if got != tt.want {
			t.Errorf("Smoothstep(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSmoothstepMonotonic(t *testing.T) {
	prev := 0.0
	for i := 1; i <= 100; i++ {
		x := float64(i) / 100.0
		val := Smoothstep(x)
		if val < prev {
			t.Errorf("Smoothstep not monotonic: f(%v)=%v < f(%v)=%v", x, val, float64(i-1)/100.0, prev)
		}
		prev = val
	}
}

func TestTriangle(t *testing.T) {
	tests := []struct {
		phase float64
		want  float64
	}{
		{0, 0},
		{0.25, 0.5},
		{0.5, 1},
		{0.75, 0.5},
		{1.25, 0.5},
	}
	for _, tt := range tests {
		if got := triangle(tt.phase); got != tt.want {
			t.Errorf("triangle(%v) = %v, want %v", tt.phase, got, tt.want)
		}
	}
}

func TestSweepPingPong(t *testing.T) {
	step := 10 * time.Millisecond
	want := []int{0, 1, 2, 3, 2, 1, 0, 1}
	for i, w := range want {
		if got := sweep(time.Duration(i)*step, 4, step); got != w {
			t.Errorf("sweep step %d = %d, want %d", i, got, w)
		}
	}
	if got := sweep(time.Hour, 1, step); got != 0 {
		t.Errorf("sweep with n=1 = %d, want 0", got)
	}
}

func TestFallbackRunsForRequestedDuration(t *testing.T) {
	sink := &recordingSink{}
	strip := newStrip(sink)
	fb := NewFallback(strip, 10*time.Millisecond)

	start := time.Now()
	if r := fb.Run(context.Background(), 200*time.Millisecond); r != Completed {
		t.Fatalf("Run = %v, want completed", r)
	}
	elapsed := time.Since(start)

	if elapsed < 200*time.Millisecond {
		t.Errorf("fallback ended early after %v", elapsed)
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("fallback overran: %v", elapsed)
	}
	if !isDark(strip.Snapshot()) {
		t.Error("strip not dark after fallback")
	}

	lit := 0
	for _, p := range sink.all() {
		if !isDark(p.px) {
			lit++
		}
	}
	if lit == 0 {
		t.Error("fallback never lit anything")
	}
}

func TestFallbackCancel(t *testing.T) {
	sink := &recordingSink{}
	strip := newStrip(sink)
	fb := NewFallback(strip, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result, 1)
	go func() { done <- fb.Run(ctx, 10*time.Second) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case r := <-done:
		if r != Cancelled {
			t.Errorf("Run = %v, want cancelled", r)
		}
	case <-time.After(time.Second):
		t.Fatal("fallback did not stop on cancel")
	}
	if !isDark(strip.Snapshot()) {
		t.Error("strip not dark after cancel")
	}
}

func TestFallbackZeroDuration(t *testing.T) {
	sink := &recordingSink{}
	strip := newStrip(sink)
	if r := NewFallback(strip, 0).Run(context.Background(), 0); r != Completed {
		t.Errorf("Run = %v, want completed", r)
	}
	if !isDark(strip.Snapshot()) {
		t.Error("strip not dark")
	}
}
