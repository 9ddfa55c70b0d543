package player

// Smoothstep returns the smoothstep interpolation for t in [0,1].
// Formula: 3t^2 - 2t^3.
func Smoothstep(t float64) float64 {
	if t <= 0 {
		return 0
	}
	if t >= 1 {
		return 1
	}
	return t * t * (3 - 2*t)
}

// triangle maps a phase in [0,1) to 0→1→0.
func triangle(phase float64) float64 {
	phase -= float64(int(phase))
	if phase < 0.5 {
		return phase * 2
	}
	return (1 - phase) * 2
}
