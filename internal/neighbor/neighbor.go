// Package neighbor computes, for every agent of a frozen position snapshot,
// the set of agents it interacts with during a tick.
//
// Two strategies are provided: Metric, a brute-force radius search paired with
// Voronoi (topological) adjacency, and Grid, a uniform lattice index whose cells
// overlap by the interaction radius.
package neighbor

import "gonum.org/v1/gonum/spatial/r2"

// NoCell marks a Set produced by a strategy without a lattice.
const NoCell = -1

// Set holds the neighbours of one agent, as indices into the position snapshot.
type Set struct {
	Metric      []int // agents closer than the interaction radius; symmetric
	Topological []int // agents whose Voronoi cells share an edge with this agent's
	Cell        int   // home lattice cell, or NoCell
}

// Strategy produces a neighbour Set for every position.
// The returned slice is parallel to positions and is only valid for the current tick.
type Strategy interface {
	Compute(positions []r2.Vec) ([]Set, error)
}
