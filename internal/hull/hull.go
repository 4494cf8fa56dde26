// Package hull computes convex hulls and polygon areas of planar point sets.
//
// The hull is used as a dispersion proxy for the herd: its area grows when the
// herd spreads out and shrinks when it packs.
package hull

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// Turn classifies the turn p -> q -> r.
type Turn int

const (
	TurnRight Turn = -1
	TurnNone  Turn = 0
	TurnLeft  Turn = 1
)

// Orientation returns whether r lies left of, right of, or on the directed line p -> q.
func Orientation(p, q, r r2.Vec) Turn {
	c := r2.Cross(r2.Sub(q, p), r2.Sub(r, p))
	switch {
	case c > 0:
		return TurnLeft
	case c < 0:
		return TurnRight
	}
	return TurnNone
}

// Convex returns the convex hull of points in counter-clockwise order,
// starting from the anchor: the point with the minimal Y (first occurrence wins ties).
// Fewer than three distinct points, or collinear input, yield a degenerate
// hull of one or two vertices.
func Convex(points []r2.Vec) []r2.Vec {
	if len(points) == 0 {
		return nil
	}

	anchor := points[0]
	for _, p := range points[1:] {
		if p.Y < anchor.Y {
			anchor = p
		}
	}

	rest := make([]r2.Vec, 0, len(points)-1)
	for _, p := range points {
		if p != anchor {
			rest = append(rest, p)
		}
	}
	if len(rest) == 0 {
		return []r2.Vec{anchor}
	}

	// polar order around the anchor; equal angles keep the nearer point first
	slices.SortStableFunc(rest, func(a, b r2.Vec) int {
		ta := math.Atan2(a.Y-anchor.Y, a.X-anchor.X)
		tb := math.Atan2(b.Y-anchor.Y, b.X-anchor.X)
		switch {
		case ta < tb:
			return -1
		case ta > tb:
			return 1
		}
		da, db := r2.Norm2(r2.Sub(a, anchor)), r2.Norm2(r2.Sub(b, anchor))
		switch {
		case da < db:
			return -1
		case da > db:
			return 1
		}
		return 0
	})

	stack := make([]r2.Vec, 0, len(rest)+1)
	stack = append(stack, anchor)
	for _, p := range rest {
		stack = keepLeft(stack, p)
	}
	return stack
}

// keepLeft pops trailing vertices that would make a non-left turn into r, then pushes r.
func keepLeft(stack []r2.Vec, r r2.Vec) []r2.Vec {
	for len(stack) > 1 && Orientation(stack[len(stack)-2], stack[len(stack)-1], r) != TurnLeft {
		stack = stack[:len(stack)-1]
	}
	if stack[len(stack)-1] != r {
		stack = append(stack, r)
	}
	return stack
}

// PolygonArea returns the absolute area enclosed by polygon using the shoelace formula.
func PolygonArea(polygon []r2.Vec) float64 {
	var area float64
	for i := range polygon {
		j := (i + 1) % len(polygon)
		area += r2.Cross(polygon[i], polygon[j])
	}
	return math.Abs(area / 2)
}

// Area returns the area of the convex hull of points. It is zero for fewer
// than three points or when all points are collinear.
func Area(points []r2.Vec) float64 {
	if len(points) < 3 {
		return 0
	}
	return PolygonArea(Convex(points))
}

// Centroid returns the arithmetic mean of points, or the zero vector for an empty set.
func Centroid(points []r2.Vec) r2.Vec {
	if len(points) == 0 {
		return r2.Vec{}
	}
	var sum r2.Vec
	for _, p := range points {
		sum = r2.Add(sum, p)
	}
	return r2.Scale(1/float64(len(points)), sum)
}
