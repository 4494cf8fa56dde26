package neighbor

import (
	"slices"

	"github.com/fogleman/delaunay"
	"gonum.org/v1/gonum/spatial/r2"
)

// Metric finds metric neighbours by testing every pair of agents and, when
// Topological is set, topological neighbours from the Delaunay triangulation
// (the dual of the Voronoi diagram) of the positions.
type Metric struct {
	Radius      float64
	Topological bool
}

// NewMetric creates a brute-force metric strategy.
func NewMetric(radius float64, topological bool) *Metric {
	return &Metric{Radius: radius, Topological: topological}
}

// Compute implements Strategy. It is O(n²) in the metric part and O(n log n)
// in the topological part.
func (m *Metric) Compute(positions []r2.Vec) ([]Set, error) {
	sets := make([]Set, len(positions))
	for i := range sets {
		sets[i].Cell = NoCell
	}

	r2o := m.Radius * m.Radius
	for i := 0; i < len(positions); i++ {
		for j := i + 1; j < len(positions); j++ {
			if r2.Norm2(r2.Sub(positions[i], positions[j])) < r2o {
				sets[i].Metric = append(sets[i].Metric, j)
				sets[j].Metric = append(sets[j].Metric, i)
			}
		}
	}

	if m.Topological {
		for i, adj := range VoronoiAdjacency(positions) {
			sets[i].Topological = adj
		}
	}
	return sets, nil
}

// VoronoiAdjacency returns, for every site, the sites whose Voronoi cells share
// an edge with its own. Coincident sites are treated as one site and are
// adjacent to each other; collinear sites are adjacent to their immediate
// predecessor and successor along the line.
func VoronoiAdjacency(sites []r2.Vec) [][]int {
	adj := make([][]int, len(sites))
	if len(sites) < 2 {
		return adj
	}

	// collapse coincident sites onto one representative
	rep := make(map[r2.Vec]int, len(sites))
	groups := make([][]int, 0, len(sites))
	owner := make([]int, len(sites))
	unique := make([]delaunay.Point, 0, len(sites))
	for i, p := range sites {
		g, ok := rep[p]
		if !ok {
			g = len(groups)
			rep[p] = g
			groups = append(groups, nil)
			unique = append(unique, delaunay.Point{X: p.X, Y: p.Y})
		}
		groups[g] = append(groups[g], i)
		owner[i] = g
	}

	edges := delaunayEdges(unique)
	if edges == nil {
		edges = chainEdges(unique)
	}

	groupAdj := make([][]int, len(groups))
	for _, e := range edges {
		groupAdj[e[0]] = append(groupAdj[e[0]], e[1])
		groupAdj[e[1]] = append(groupAdj[e[1]], e[0])
	}

	for i := range sites {
		g := owner[i]
		for _, twin := range groups[g] {
			if twin != i {
				adj[i] = append(adj[i], twin)
			}
		}
		for _, h := range groupAdj[g] {
			adj[i] = append(adj[i], groups[h]...)
		}
		slices.Sort(adj[i])
		adj[i] = slices.Compact(adj[i])
	}
	return adj
}

// delaunayEdges returns every Delaunay edge once, or nil if the points admit
// no triangulation (fewer than three points, or all collinear).
func delaunayEdges(points []delaunay.Point) [][2]int {
	if len(points) < 3 {
		return nil
	}
	tri, err := delaunay.Triangulate(points)
	if err != nil || len(tri.Triangles) == 0 {
		return nil
	}

	edges := make([][2]int, 0, len(tri.Triangles)/2+len(tri.ConvexHull))
	for e := range tri.Triangles {
		opposite := tri.Halfedges[e]
		if opposite != -1 && opposite < e {
			continue // the twin half-edge already produced this edge
		}
		edges = append(edges, [2]int{tri.Triangles[e], tri.Triangles[nextHalfedge(e)]})
	}
	return edges
}

func nextHalfedge(e int) int {
	if e%3 == 2 {
		return e - 2
	}
	return e + 1
}

// chainEdges links collinear points to their neighbours along the line.
func chainEdges(points []delaunay.Point) [][2]int {
	if len(points) < 2 {
		return nil
	}

	// direction from the first point to the point farthest from it
	origin := r2.Vec{X: points[0].X, Y: points[0].Y}
	var dir r2.Vec
	for _, p := range points[1:] {
		d := r2.Sub(r2.Vec{X: p.X, Y: p.Y}, origin)
		if r2.Norm2(d) > r2.Norm2(dir) {
			dir = d
		}
	}

	order := make([]int, len(points))
	for i := range order {
		order[i] = i
	}
	proj := func(i int) float64 {
		return r2.Dot(r2.Sub(r2.Vec{X: points[i].X, Y: points[i].Y}, origin), dir)
	}
	slices.SortStableFunc(order, func(a, b int) int {
		pa, pb := proj(a), proj(b)
		switch {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		}
		return 0
	})

	edges := make([][2]int, 0, len(order)-1)
	for k := 1; k < len(order); k++ {
		edges = append(edges, [2]int{order[k-1], order[k]})
	}
	return edges
}
