package bubble

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Uniform draws from [lo, hi).
func Uniform(rng Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}

// UniformVec draws each component independently from [-x, x) and [-y, y).
func UniformVec(rng Rand, x, y float64) r2.Vec {
	return r2.Vec{X: Uniform(rng, -x, x), Y: Uniform(rng, -y, y)}
}

// Polar returns the vector of the given length at angle theta.
func Polar(length, theta float64) r2.Vec {
	return r2.Vec{X: math.Cos(theta) * length, Y: math.Sin(theta) * length}
}

// RandomAngle draws an angle in [0, 2pi).
func RandomAngle(rng Rand) float64 {
	return Uniform(rng, 0, 2*math.Pi)
}
