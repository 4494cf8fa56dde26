package flowfield

import (
	"math"
	"math/rand/v2"
	"testing"

	"herd-sim/internal/common"
	"herd-sim/internal/neighbor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func newField(t *testing.T, size float64, res int, p Params) *Field {
	t.Helper()
	lat, err := neighbor.NewLattice(size, res)
	require.NoError(t, err)
	if p.Interval == 0 {
		p.Interval = 1
	}
	f, err := New(lat, p, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	return f
}

func populate(f *Field, pts []r2.Vec) {
	f.Lattice.Clear()
	for i, p := range pts {
		f.Lattice.Insert(i, p, 0.5)
	}
}

func TestSingleCellPointsToCenterOfMass(t *testing.T) {
	f := newField(t, 100, 1, Params{Epsilon: 0.7, Omega: 10})
	populate(f, []r2.Vec{{X: 10, Y: 10}, {X: 20, Y: 30}, {X: 90, Y: 5}})

	require.NoError(t, f.Update(0.01))
	assert.Equal(t, r2.Vec{X: 50, Y: 50}, f.RawCOM, "single cell: COM is its centre")

	want := common.Unit(r2.Sub(f.COM, f.Lattice.Cells[0].Center))
	got := f.Cohesion(0)
	assert.InDelta(t, want.X, got.X, 1e-12)
	assert.InDelta(t, want.Y, got.Y, 1e-12)
	assert.LessOrEqual(t, r2.Norm(f.Offset), 10.0)
}

func TestEmptyFieldUsesDomainCenter(t *testing.T) {
	f := newField(t, 40, 4, Params{Epsilon: 0.5})
	populate(f, nil)

	require.NoError(t, f.Update(0.1))
	assert.Equal(t, r2.Vec{X: 20, Y: 20}, f.RawCOM)
	assert.Equal(t, r2.Vec{X: 20, Y: 20}, f.COM, "no perturbation when omega is zero")
	assert.Zero(t, f.Area)
	for _, c := range f.Lattice.Cells {
		assert.False(t, math.IsNaN(c.Cohesion.X) || math.IsNaN(c.Cohesion.Y))
	}
}

func TestWeightedCenterOfMass(t *testing.T) {
	f := newField(t, 40, 4, Params{Epsilon: 0.5})
	// three agents in cell (0,0), one in cell (3,0)
	populate(f, []r2.Vec{{X: 5, Y: 5}, {X: 4, Y: 5}, {X: 5, Y: 4}, {X: 35, Y: 5}})

	require.NoError(t, f.Update(0.1))
	assert.InDelta(t, (3*5.0+35)/4, f.RawCOM.X, 1e-12)
	assert.InDelta(t, 5.0, f.RawCOM.Y, 1e-12)
	// collinear occupancy: two cells times 100, less one cell
	assert.InDelta(t, 100.0, f.Area, 1e-9)
}

func TestNeighbourTermSuppressedByCrowding(t *testing.T) {
	// pure neighbour term: a crowded cell and a sparse cell next to the same neighbour
	build := func(own int) r2.Vec {
		f := newField(t, 30, 3, Params{Epsilon: 1})
		var pts []r2.Vec
		for i := 0; i < own; i++ {
			pts = append(pts, r2.Vec{X: 15, Y: 15}) // centre cell
		}
		pts = append(pts, r2.Vec{X: 25, Y: 15}) // right neighbour
		populate(f, pts)
		require.NoError(t, f.Update(0.1))

		centre := f.Lattice.Index(1, 1)
		return f.Cohesion(centre)
	}
	// the direction is normalised, so both point right
	assert.InDelta(t, 1.0, build(1).X, 1e-12)
	assert.InDelta(t, 1.0, build(50).X, 1e-12)

	f := newField(t, 30, 3, Params{Epsilon: 1})
	populate(f, []r2.Vec{{X: 25, Y: 15}, {X: 5, Y: 15}})
	require.NoError(t, f.Update(0.1))
	// opposite neighbours cancel
	assert.Equal(t, r2.Vec{}, f.Cohesion(f.Lattice.Index(1, 1)))
}

func TestPerturbationRerollsOnlyWhenTimerExpires(t *testing.T) {
	f := newField(t, 100, 5, Params{Epsilon: 0.7, Omega: 10, Interval: 1})
	populate(f, []r2.Vec{{X: 50, Y: 50}})

	require.NoError(t, f.Update(0.1))
	first := f.Offset
	for i := 0; i < 8; i++ {
		require.NoError(t, f.Update(0.1))
		assert.Equal(t, first, f.Offset)
	}
	require.NoError(t, f.Update(0.5))
	assert.NotEqual(t, first, f.Offset)
}

func TestTransitionTallies(t *testing.T) {
	f := newField(t, 40, 4, Params{Epsilon: 0.5})
	populate(f, []r2.Vec{{X: 5, Y: 5}, {X: 35, Y: 35}})
	f.Record(0, true, false)
	f.Record(15, false, true)
	f.Record(15, true, false)

	require.NoError(t, f.Update(0.1))
	assert.Equal(t, 2, f.ToRunning)
	assert.Equal(t, 1, f.ToIdle)

	populate(f, nil)
	require.NoError(t, f.Update(0.1))
	assert.Zero(t, f.ToRunning)
	assert.Zero(t, f.ToIdle)
}

func TestNewRejectsInvalid(t *testing.T) {
	lat, err := neighbor.NewLattice(10, 2)
	require.NoError(t, err)
	rng := rand.New(rand.NewPCG(1, 1))

	_, err = New(lat, Params{Epsilon: 1.5, Interval: 1}, rng)
	assert.Error(t, err)
	_, err = New(lat, Params{Epsilon: 0.5, Interval: 0}, rng)
	assert.Error(t, err)
	_, err = New(nil, Params{Epsilon: 0.5, Interval: 1}, rng)
	assert.Error(t, err)
}
