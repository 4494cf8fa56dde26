package common

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vector is a point or direction on the 2D field.
type Vector = r2.Vec

// NewRandomInDisc returns a point drawn uniformly from the disc of the given radius around center.
func NewRandomInDisc(rng *rand.Rand, center Vector, radius float64) Vector {
	r := radius * math.Sqrt(rng.Float64()) // sqrt keeps the density uniform over the area
	sin, cos := math.Sincos(2 * math.Pi * rng.Float64())
	return Vector{X: center.X + r*cos, Y: center.Y + r*sin}
}

// Distance calculates the Euclidean distance between two points.
func Distance(a, b Vector) float64 {
	return r2.Norm(r2.Sub(a, b))
}

// DistanceSq calculates the squared Euclidean distance between two points.
func DistanceSq(a, b Vector) float64 {
	return r2.Norm2(r2.Sub(a, b))
}

// Unit returns the unit vector colinear to v, or the zero vector if v is zero.
// Unlike r2.Unit it never produces NaNs.
func Unit(v Vector) Vector {
	if v.X == 0 && v.Y == 0 {
		return Vector{}
	}
	return r2.Unit(v)
}

// HeadingVector returns the unit vector pointing along heading theta.
func HeadingVector(theta float64) Vector {
	sin, cos := math.Sincos(theta)
	return Vector{X: cos, Y: sin}
}

// Angle returns the heading of v in (-π, π].
func Angle(v Vector) float64 {
	return math.Atan2(v.Y, v.X)
}

// WrapAngle maps theta into [-π, π).
func WrapAngle(theta float64) float64 {
	if math.IsNaN(theta) || math.IsInf(theta, 0) {
		return 0
	}
	a := math.Mod(theta+math.Pi, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	a -= math.Pi
	if a >= math.Pi { // rounding can land exactly on +π
		a = -math.Pi
	}
	return a
}

// DeltaAngle returns the shortest signed rotation taking from onto to, in [-π, π).
func DeltaAngle(from, to float64) float64 {
	return WrapAngle(to - from)
}

// MoveTowards moves current towards target by at most maxDelta.
func MoveTowards(current, target, maxDelta float64) float64 {
	if math.Abs(target-current) <= maxDelta {
		return target
	}
	return current + math.Copysign(maxDelta, target-current)
}

// MoveTowardsAngle rotates current towards target along the shortest arc by at most maxDelta.
func MoveTowardsAngle(current, target, maxDelta float64) float64 {
	delta := DeltaAngle(current, target)
	if math.Abs(delta) <= maxDelta {
		return current + delta
	}
	return current + math.Copysign(maxDelta, delta)
}

// Lerp interpolates linearly between a and b, with t clamped to [0, 1].
func Lerp(a, b Vector, t float64) Vector {
	t = math.Max(0, math.Min(1, t))
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

// String returns a compact representation of v for logging.
func String(v Vector) string {
	return fmt.Sprintf("[%.3f, %.3f]", v.X, v.Y)
}
