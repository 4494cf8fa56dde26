package neighbor

import (
	"fmt"

	"herd-sim/internal/common"

	"gonum.org/v1/gonum/spatial/r2"
)

// Grid approximates the metric radius search with a Lattice whose cells
// overlap by Radius: every agent within Radius of another shares the other's
// home cell, so only the occupants of one cell need to be tested.
type Grid struct {
	Lattice *Lattice
	Radius  float64
	Workers int // parallelism of the per-agent filter; <= 0 means GOMAXPROCS
}

// NewGrid creates a grid strategy over an existing lattice.
func NewGrid(lattice *Lattice, radius float64, workers int) *Grid {
	return &Grid{Lattice: lattice, Radius: radius, Workers: workers}
}

// Compute implements Strategy. It repopulates the lattice as a side effect.
func (g *Grid) Compute(positions []r2.Vec) ([]Set, error) {
	g.Lattice.Clear()
	sets := make([]Set, len(positions))
	for i, p := range positions {
		sets[i].Cell = g.Lattice.Insert(i, p, g.Radius)
	}

	r2o := g.Radius * g.Radius
	err := common.ParallelFor(len(positions), g.Workers, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			for _, j := range g.Lattice.Cells[sets[i].Cell].Occupants {
				if j != i && r2.Norm2(r2.Sub(positions[i], positions[j])) < r2o {
					sets[i].Metric = append(sets[i].Metric, j)
				}
			}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("filtering grid neighbours: %w", err)
	}
	return sets, nil
}
