package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"

	"herd-sim/internal/config"

	"gonum.org/v1/gonum/stat/distuv"
)

// NoiseFunction returns an angular perturbation, in radians, drawn from rng.
type NoiseFunction func(rng *rand.Rand) float64

// NoNoise is a NoiseFunction that adds no noise.
func NoNoise(*rand.Rand) float64 {
	return 0
}

// UniformNoise creates a NoiseFunction returning eta·U(-π, π).
func UniformNoise(eta float64) NoiseFunction {
	if eta <= 0 {
		return NoNoise
	}
	return func(rng *rand.Rand) float64 {
		u := distuv.Uniform{Min: -math.Pi, Max: math.Pi, Src: rng}
		return eta * u.Rand()
	}
}

// GaussianNoise creates a NoiseFunction returning N(0, stdDev).
func GaussianNoise(stdDev float64) NoiseFunction {
	if stdDev <= 0 {
		return NoNoise
	}
	return func(rng *rand.Rand) float64 {
		n := distuv.Normal{Mu: 0, Sigma: stdDev, Src: rng}
		return n.Rand()
	}
}

// NewNoise returns the NoiseFunction named by kind.
func NewNoise(kind string, eta float64) (NoiseFunction, error) {
	switch kind {
	case config.NoiseUniform:
		return UniformNoise(eta), nil
	case config.NoiseGaussian:
		return GaussianNoise(eta), nil
	case config.NoiseNone:
		return NoNoise, nil
	}
	return nil, fmt.Errorf("unknown noise %q: %w", kind, config.ErrInvalidConfig)
}
