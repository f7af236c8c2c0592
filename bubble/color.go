package bubble

// Color is a linear RGB triple in [0, 1].
type Color struct {
	R, G, B float32
}

// Clamp limits every channel to [0, 1].
func (c Color) Clamp() Color {
	return Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B)}
}

// Perturb shifts each channel by a uniform amount in [-amount, amount) and
// clamps the result.
func (c Color) Perturb(rng Rand, amount float64) Color {
	return Color{
		R: c.R + float32(Uniform(rng, -amount, amount)),
		G: c.G + float32(Uniform(rng, -amount, amount)),
		B: c.B + float32(Uniform(rng, -amount, amount)),
	}.Clamp()
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
