package neighbor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Cell is one square of the lattice.
type Cell struct {
	X, Y      int
	Center    r2.Vec // world-space centre
	Adjacent  []int  // Moore neighbourhood clipped to the field, fixed at construction
	Occupants []int  // agents registered here this tick, including overlap registrations
	Count     int    // agents whose home cell this is

	// transition tallies of the home occupants for this tick
	ToRunning int
	ToIdle    int

	Cohesion r2.Vec // unit flow direction, owned by the flow field
}

// Lattice partitions the square field [0, Size]² into Resolution×Resolution cells.
// Cells are stored row-major: index = y*Resolution + x.
type Lattice struct {
	Resolution int
	Size       float64
	CellSize   float64
	Cells      []Cell
}

// NewLattice builds the lattice and its immutable adjacency.
func NewLattice(size float64, resolution int) (*Lattice, error) {
	if resolution <= 0 {
		return nil, fmt.Errorf("lattice resolution must be positive, got %d", resolution)
	}
	if !(size > 0) || math.IsInf(size, 0) {
		return nil, fmt.Errorf("lattice size must be positive and finite, got %v", size)
	}

	l := &Lattice{
		Resolution: resolution,
		Size:       size,
		CellSize:   size / float64(resolution),
		Cells:      make([]Cell, resolution*resolution),
	}
	for y := 0; y < resolution; y++ {
		for x := 0; x < resolution; x++ {
			c := &l.Cells[l.Index(x, y)]
			c.X, c.Y = x, y
			c.Center = r2.Vec{
				X: (float64(x) + 0.5) * l.CellSize,
				Y: (float64(y) + 0.5) * l.CellSize,
			}
			for ny := max(0, y-1); ny <= min(y+1, resolution-1); ny++ {
				for nx := max(0, x-1); nx <= min(x+1, resolution-1); nx++ {
					if nx != x || ny != y {
						c.Adjacent = append(c.Adjacent, l.Index(nx, ny))
					}
				}
			}
		}
	}
	return l, nil
}

// Index returns the flat index of cell (x, y).
func (l *Lattice) Index(x, y int) int {
	return y*l.Resolution + x
}

// Locate returns the coordinates of the cell containing p.
// Points outside the field are clamped to the border cells.
func (l *Lattice) Locate(p r2.Vec) (x, y int) {
	clamp := func(v float64) int {
		i := int(math.Floor(v / l.CellSize))
		return max(0, min(i, l.Resolution-1))
	}
	return clamp(p.X), clamp(p.Y)
}

// CellArea returns the area of a single cell.
func (l *Lattice) CellArea() float64 {
	return l.CellSize * l.CellSize
}

// Clear empties every cell's per-tick state. Adjacency and cohesion are kept.
func (l *Lattice) Clear() {
	for i := range l.Cells {
		c := &l.Cells[i]
		c.Occupants = c.Occupants[:0]
		c.Count = 0
		c.ToRunning = 0
		c.ToIdle = 0
	}
}

// Insert registers agent id at position p in its home cell and, when p lies
// within margin of a cell boundary, in the cell across that boundary: at most
// one neighbour per axis, plus the diagonal one when both axes apply.
// It returns the home cell index.
func (l *Lattice) Insert(id int, p r2.Vec, margin float64) int {
	x, y := l.Locate(p)
	home := l.Index(x, y)
	l.Cells[home].Occupants = append(l.Cells[home].Occupants, id)
	l.Cells[home].Count++

	ox := p.X - float64(x)*l.CellSize
	oy := p.Y - float64(y)*l.CellSize
	dx, dy := 0, 0
	switch {
	case ox < margin && x > 0:
		dx = -1
	case ox > l.CellSize-margin && x < l.Resolution-1:
		dx = 1
	}
	switch {
	case oy < margin && y > 0:
		dy = -1
	case oy > l.CellSize-margin && y < l.Resolution-1:
		dy = 1
	}

	if dx != 0 {
		l.register(l.Index(x+dx, y), id)
	}
	if dy != 0 {
		l.register(l.Index(x, y+dy), id)
	}
	if dx != 0 && dy != 0 {
		l.register(l.Index(x+dx, y+dy), id)
	}
	return home
}

func (l *Lattice) register(cell, id int) {
	l.Cells[cell].Occupants = append(l.Cells[cell].Occupants, id)
}
