package simulation

import (
	"math"

	"herd-sim/internal/common"
	"herd-sim/internal/hull"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// HerdMetrics are the herd-level quantities derived after every tick.
type HerdMetrics struct {
	Step int
	Time float64 // elapsed logical time

	Centroid common.Vector
	Extents  r2.Box  // axis-aligned bounds of all positions
	HullArea float64 // area of the convex hull of all positions

	// grid model only
	HasFlowField bool
	COM          common.Vector // perturbed centre of mass
	CellArea     float64       // hull area of the occupied cells

	// transitions committed by the latest decisions
	ToRunning int
	ToIdle    int

	Idle    int
	Walking int
	Running int

	Polarization float64 // length of the mean heading vector, in [0, 1]
	Elongation   float64 // 1 - minor/major variance of the positions, in [0, 1]
	Orientation  float64 // direction of the major axis, in [-π/2, π/2)
}

// Population returns the number of agents the metrics cover.
func (m HerdMetrics) Population() int {
	return m.Idle + m.Walking + m.Running
}

// RunningFraction returns the share of running agents.
func (m HerdMetrics) RunningFraction() float64 {
	n := m.Population()
	if n == 0 {
		return 0
	}
	return float64(m.Running) / float64(n)
}

func (s *Simulation) computeMetrics() HerdMetrics {
	m := HerdMetrics{Step: s.steps, Time: s.time}
	if len(s.agents) == 0 {
		return m
	}

	positions := make([]common.Vector, len(s.agents))
	var headings common.Vector
	m.Extents = r2.Box{Min: s.agents[0].Position, Max: s.agents[0].Position}
	for i, a := range s.agents {
		p := a.Position
		positions[i] = p
		m.Extents.Min = r2.Vec{X: math.Min(m.Extents.Min.X, p.X), Y: math.Min(m.Extents.Min.Y, p.Y)}
		m.Extents.Max = r2.Vec{X: math.Max(m.Extents.Max.X, p.X), Y: math.Max(m.Extents.Max.Y, p.Y)}
		headings = r2.Add(headings, a.HeadingVector())

		switch a.State {
		case Idle:
			m.Idle++
		case Walking:
			m.Walking++
		case Running:
			m.Running++
		}
		if a.StartedRunning() {
			m.ToRunning++
		} else if a.Stopped() {
			m.ToIdle++
		}
	}

	m.Centroid = hull.Centroid(positions)
	m.HullArea = hull.Area(positions)
	m.Polarization = r2.Norm(headings) / float64(len(s.agents))
	m.Elongation, m.Orientation = principalAxis(positions)

	if g, ok := s.model.(*grid); ok {
		m.HasFlowField = true
		m.COM = g.field.COM
		m.CellArea = g.field.Area
	}
	return m
}

// principalAxis returns the elongation and major-axis direction of the point
// cloud from its principal components.
func principalAxis(points []common.Vector) (elongation, orientation float64) {
	if len(points) < 2 {
		return 0, 0
	}
	data := mat.NewDense(len(points), 2, nil)
	for i, p := range points {
		data.Set(i, 0, p.X)
		data.Set(i, 1, p.Y)
	}

	var pc stat.PC
	if !pc.PrincipalComponents(data, nil) {
		return 0, 0
	}
	vars := pc.VarsTo(nil)
	if len(vars) < 2 || vars[0] <= 0 {
		return 0, 0
	}

	var vecs mat.Dense
	pc.VectorsTo(&vecs)
	angle := math.Atan2(vecs.At(1, 0), vecs.At(0, 0))
	// an axis has no sign
	if angle >= math.Pi/2 {
		angle -= math.Pi
	} else if angle < -math.Pi/2 {
		angle += math.Pi
	}
	return 1 - vars[1]/vars[0], angle
}
