package visualization

import (
	"math"

	"herd-sim/internal/common"
	"herd-sim/internal/simulation"
)

const minViewSize = 10.0 // world units always kept in view

// Projector maps world coordinates onto the screen and keeps the herd in view.
type Projector interface {
	// Follow moves the view one frame towards the herd described by m.
	Follow(m simulation.HerdMetrics)
	// SetScreen records the current screen size in pixels.
	SetScreen(width, height int)
	// WorldToScreen converts a world position to screen coordinates.
	WorldToScreen(p common.Vector) (float32, float32)
	// Scale returns the number of pixels per world unit.
	Scale() float64
}

var _ Projector = (*Camera)(nil)

// Camera follows the herd: its centre and view size ease towards the herd's
// centroid and largest bounding dimension every frame.
type Camera struct {
	CentroidSpeed float64 // lerp factor of the centre per frame
	AreaSpeed     float64 // lerp factor of the view size per frame
	Padding       float64 // screen margin in pixels

	center   common.Vector
	viewSize float64

	screenWidth  int
	screenHeight int
}

// NewCamera frames the whole field.
func NewCamera(fieldSize float64) *Camera {
	return &Camera{
		CentroidSpeed: 0.05,
		AreaSpeed:     0.02,
		Padding:       40,
		center:        common.Vector{X: fieldSize / 2, Y: fieldSize / 2},
		viewSize:      fieldSize,
	}
}

// Follow implements Projector.
func (c *Camera) Follow(m simulation.HerdMetrics) {
	if m.Population() == 0 {
		return
	}
	c.center = common.Lerp(c.center, m.Centroid, c.CentroidSpeed)

	size := m.Extents.Size()
	target := math.Max(minViewSize, math.Max(size.X, size.Y))
	c.viewSize += (target - c.viewSize) * math.Max(0, math.Min(1, c.AreaSpeed))
}

// SetScreen implements Projector.
func (c *Camera) SetScreen(width, height int) {
	c.screenWidth, c.screenHeight = width, height
}

// Scale implements Projector.
func (c *Camera) Scale() float64 {
	usable := math.Min(float64(c.screenWidth), float64(c.screenHeight)) - 2*c.Padding
	if usable <= 0 || c.viewSize <= 0 {
		return 1
	}
	return usable / c.viewSize
}

// WorldToScreen implements Projector. Screen Y grows downwards, so world Y is flipped.
func (c *Camera) WorldToScreen(p common.Vector) (float32, float32) {
	s := c.Scale()
	x := (p.X-c.center.X)*s + float64(c.screenWidth)/2
	y := -(p.Y-c.center.Y)*s + float64(c.screenHeight)/2
	return float32(x), float32(y)
}
