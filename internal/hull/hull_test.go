package hull

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func randomPoints(rng *rand.Rand, n int) []r2.Vec {
	pts := make([]r2.Vec, n)
	for i := range pts {
		pts[i] = r2.Vec{X: rng.Float64() * 50, Y: rng.Float64() * 50}
	}
	return pts
}

func TestUnitSquare(t *testing.T) {
	square := []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
	h := Convex(square)
	require.Len(t, h, 4)
	assert.Equal(t, r2.Vec{X: 0, Y: 0}, h[0], "anchor has the minimal Y, first occurrence")
	assert.InDelta(t, 1.0, Area(square), 1e-12)
}

func TestConvexIsCounterClockwise(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	pts := randomPoints(rng, 200)
	h := Convex(pts)
	require.GreaterOrEqual(t, len(h), 3)
	for i := range h {
		a, b, c := h[i], h[(i+1)%len(h)], h[(i+2)%len(h)]
		assert.Equal(t, TurnLeft, Orientation(a, b, c))
	}
	// every input point is inside or on the hull
	for _, p := range pts {
		for i := range h {
			assert.NotEqual(t, TurnRight, Orientation(h[i], h[(i+1)%len(h)], p))
		}
	}
}

func TestAreaInvariantUnderRigidMotion(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 12))
	for trial := 0; trial < 50; trial++ {
		pts := randomPoints(rng, 3+rng.IntN(60))
		want := Area(pts)

		shift := r2.Vec{X: rng.Float64()*200 - 100, Y: rng.Float64()*200 - 100}
		alpha := rng.Float64() * 2 * math.Pi
		moved := make([]r2.Vec, len(pts))
		for i, p := range pts {
			moved[i] = r2.Add(r2.Rotate(p, alpha, r2.Vec{}), shift)
		}
		assert.InDelta(t, want, Area(moved), 1e-6*math.Max(1, want))
	}
}

func TestAreaInvariantUnderInteriorInsertion(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 6))
	pts := randomPoints(rng, 40)
	want := Area(pts)
	h := Convex(pts)

	// convex combinations of hull vertices lie strictly inside
	for i := 0; i < 20; i++ {
		w := make([]float64, len(h))
		var total float64
		for j := range w {
			w[j] = 0.1 + rng.Float64()
			total += w[j]
		}
		var p r2.Vec
		for j, v := range h {
			p = r2.Add(p, r2.Scale(w[j]/total, v))
		}
		pts = append(pts, p)
	}
	assert.InDelta(t, want, Area(pts), 1e-9)
}

func TestDegenerateAreas(t *testing.T) {
	tests := []struct {
		name string
		pts  []r2.Vec
	}{
		{"empty", nil},
		{"single", []r2.Vec{{X: 1, Y: 1}}},
		{"pair", []r2.Vec{{X: 1, Y: 1}, {X: 2, Y: 3}}},
		{"collinear", []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 5, Y: 5}}},
		{"horizontal", []r2.Vec{{X: 3, Y: 1}, {X: 0, Y: 1}, {X: 9, Y: 1}}},
		{"duplicates", []r2.Vec{{X: 2, Y: 2}, {X: 2, Y: 2}, {X: 2, Y: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Zero(t, Area(tt.pts))
		})
	}
}

func TestAreaNonNegativeAndPositiveForTriangles(t *testing.T) {
	rng := rand.New(rand.NewPCG(8, 9))
	for i := 0; i < 200; i++ {
		pts := randomPoints(rng, 3)
		a := Area(pts)
		require.GreaterOrEqual(t, a, 0.0)
		if Orientation(pts[0], pts[1], pts[2]) != TurnNone {
			assert.Greater(t, a, 0.0)
		}
	}
}

func TestCollinearPointsOnEdgeKeepFarVertex(t *testing.T) {
	pts := []r2.Vec{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0.5}, {X: 0.5, Y: 0}}
	assert.InDelta(t, 1.0, Area(pts), 1e-12)
}

func TestCentroid(t *testing.T) {
	assert.Equal(t, r2.Vec{}, Centroid(nil))
	c := Centroid([]r2.Vec{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}})
	assert.Equal(t, r2.Vec{X: 1, Y: 1}, c)
}
