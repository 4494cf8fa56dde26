// Package flowfield keeps the per-cell cohesion directions of the grid model,
// together with the herd-wide quantities derived from cell occupancy.
package flowfield

import (
	"fmt"
	"math/rand/v2"

	"herd-sim/internal/common"
	"herd-sim/internal/hull"
	"herd-sim/internal/neighbor"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// Params configures a Field.
type Params struct {
	Epsilon  float64 // weight of the neighbouring-cell term against the centre-of-mass term
	Omega    float64 // radius of the centre-of-mass perturbation
	Interval float64 // driving-clock time between perturbation re-rolls
	Workers  int
}

// Field is the flow field over a lattice. The lattice occupancy must be
// filled (by the grid neighbour strategy) before Update is called.
type Field struct {
	Lattice *neighbor.Lattice
	params  Params

	timer  float64
	Offset r2.Vec // current perturbation of the centre of mass

	RawCOM r2.Vec  // occupant-weighted mean of cell centres
	COM    r2.Vec  // RawCOM + Offset
	Area   float64 // hull area of occupied cells, less one cell

	// herd-wide transition tallies accumulated this tick
	ToRunning int
	ToIdle    int

	rng     *rand.Rand
	centers [2][]float64 // cell centre coordinates, x then y
	weights []float64
}

// New creates a flow field. rng drives the centre-of-mass perturbation.
func New(lattice *neighbor.Lattice, params Params, rng *rand.Rand) (*Field, error) {
	if lattice == nil {
		return nil, fmt.Errorf("flow field needs a lattice")
	}
	if params.Epsilon < 0 || params.Epsilon > 1 {
		return nil, fmt.Errorf("epsilon must be within [0, 1], got %v", params.Epsilon)
	}
	if params.Omega < 0 {
		return nil, fmt.Errorf("omega must be non-negative, got %v", params.Omega)
	}
	if params.Interval <= 0 {
		return nil, fmt.Errorf("perturbation interval must be positive, got %v", params.Interval)
	}
	if rng == nil {
		return nil, fmt.Errorf("flow field needs a random source")
	}

	f := &Field{
		Lattice: lattice,
		params:  params,
		rng:     rng,
		weights: make([]float64, len(lattice.Cells)),
	}
	f.centers[0] = make([]float64, len(lattice.Cells))
	f.centers[1] = make([]float64, len(lattice.Cells))
	for i, c := range lattice.Cells {
		f.centers[0][i] = c.Center.X
		f.centers[1][i] = c.Center.Y
	}
	f.RawCOM = f.domainCenter()
	f.COM = f.RawCOM
	return f, nil
}

// Record tallies one agent's transition of the previous tick into its home cell.
func (f *Field) Record(cell int, toRunning, toIdle bool) {
	c := &f.Lattice.Cells[cell]
	if toRunning {
		c.ToRunning++
	}
	if toIdle {
		c.ToIdle++
	}
}

// Cohesion returns the flow direction of a cell.
func (f *Field) Cohesion(cell int) r2.Vec {
	return f.Lattice.Cells[cell].Cohesion
}

// Update advances the perturbation timer by dt and recomputes the centre of
// mass, the occupied area, the transition totals and every cell's cohesion.
func (f *Field) Update(dt float64) error {
	f.timer -= dt
	if f.timer <= 0 {
		f.Offset = r2.Scale(f.params.Omega, common.NewRandomInDisc(f.rng, r2.Vec{}, 1))
		f.timer = f.params.Interval
	}

	f.ToRunning, f.ToIdle = 0, 0
	occupied := make([]r2.Vec, 0, len(f.Lattice.Cells))
	for i, c := range f.Lattice.Cells {
		f.weights[i] = float64(c.Count)
		f.ToRunning += c.ToRunning
		f.ToIdle += c.ToIdle
		if c.Count > 0 {
			occupied = append(occupied, c.Center)
		}
	}

	if total := floats.Sum(f.weights); total > 0 {
		f.RawCOM = r2.Vec{
			X: floats.Dot(f.centers[0], f.weights) / total,
			Y: floats.Dot(f.centers[1], f.weights) / total,
		}
	} else {
		f.RawCOM = f.domainCenter()
	}
	f.COM = r2.Add(f.RawCOM, f.Offset)
	f.Area = f.occupiedArea(occupied)

	return common.ParallelFor(len(f.Lattice.Cells), f.params.Workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			f.Lattice.Cells[i].Cohesion = f.cohesion(i)
		}
	})
}

func (f *Field) cohesion(i int) r2.Vec {
	cells := f.Lattice.Cells
	c := cells[i]

	var sum r2.Vec
	n := 0
	for _, j := range c.Adjacent {
		if cells[j].Count == 0 {
			continue
		}
		n += cells[j].Count
		sum = r2.Add(sum, r2.Scale(float64(cells[j].Count), common.Unit(r2.Sub(cells[j].Center, c.Center))))
	}

	var v r2.Vec
	if n > 0 {
		v = r2.Scale(f.params.Epsilon/float64(n+c.Count), sum)
	}
	v = r2.Add(v, r2.Scale(1-f.params.Epsilon, common.Unit(r2.Sub(f.COM, c.Center))))
	return common.Unit(v)
}

// occupiedArea is the hull area of the occupied cell centres minus one cell.
// Collinear occupancy falls back to the occupied cell count times the cell area.
func (f *Field) occupiedArea(occupied []r2.Vec) float64 {
	cell := f.Lattice.CellArea()
	area := hull.Area(occupied)
	if area == 0 {
		area = float64(len(occupied)) * cell
	}
	return max(0, area-cell)
}

func (f *Field) domainCenter() r2.Vec {
	return r2.Vec{X: f.Lattice.Size / 2, Y: f.Lattice.Size / 2}
}
