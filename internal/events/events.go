// Package events detects the alternation of dispersing and packing phases of a
// herd and records the completed cycles.
package events

import (
	"fmt"
	"math"
)

// HerdState is the collective phase of the herd.
type HerdState int

const (
	Packing HerdState = iota
	Dispersing
)

func (s HerdState) String() string {
	if s == Dispersing {
		return "Dispersing"
	}
	return "Packing"
}

// Event is one completed phase.
type Event struct {
	ID       int
	Duration float64 // logical time
	Area     float64 // herd hull area when the phase began (dispersing) or ended (packing)
	Kind     HerdState
}

func (e Event) String() string {
	return fmt.Sprintf("%d,%g,%g,%s", e.ID, e.Duration, e.Area, e.Kind)
}

// Sample is the herd observation the detector consumes once per tick.
type Sample struct {
	Time            float64
	RunningFraction float64
	HullArea        float64
}

// Detector turns a stream of samples into dispersing/packing event pairs.
// The herd is dispersing while fewer than RunningThreshold of its agents run.
// A packing phase counts when it shrinks the hull by more than AreaThreshold
// of its starting area and follows a dispersing phase longer than MinDispersing.
type Detector struct {
	RunningThreshold float64
	AreaThreshold    float64
	MinDispersing    float64

	state HerdState
	next  int

	dispersingStart float64 // -Inf until the first complete dispersing phase begins
	packingStart    float64
	packingArea     float64
	tracking        bool // a packing phase is in progress
}

// NewDetector returns a detector with the default thresholds.
func NewDetector() *Detector {
	d := &Detector{
		RunningThreshold: 0.1,
		AreaThreshold:    0.1,
		MinDispersing:    2,
	}
	d.Reset()
	return d
}

// Reset forgets all phases; the herd is assumed to start packing.
func (d *Detector) Reset() {
	d.state = Packing
	d.next = 0
	d.dispersingStart = math.Inf(-1)
	d.packingStart = 0
	d.packingArea = 0
	d.tracking = false
}

// State returns the phase of the latest sample.
func (d *Detector) State() HerdState {
	return d.state
}

// Observe feeds one sample and returns the dispersing and packing events
// completed by it, if any.
func (d *Detector) Observe(s Sample) []Event {
	if s.RunningFraction < d.RunningThreshold {
		d.state = Dispersing
	} else {
		d.state = Packing
	}

	if d.state == Packing {
		if !d.tracking {
			d.tracking = true
			d.packingStart = s.Time
			d.packingArea = s.HullArea
		}
		return nil
	}

	if !d.tracking {
		return nil
	}
	d.tracking = false

	shrink := d.packingArea - s.HullArea
	dispersing := d.packingStart - d.dispersingStart
	if shrink <= d.packingArea*d.AreaThreshold || !(dispersing > d.MinDispersing) {
		return nil // too weak: the dispersing phase carries on
	}

	var out []Event
	if !math.IsInf(d.dispersingStart, -1) {
		out = []Event{
			{ID: d.next, Duration: dispersing, Area: d.packingArea, Kind: Dispersing},
			{ID: d.next + 1, Duration: s.Time - d.packingStart, Area: s.HullArea, Kind: Packing},
		}
		d.next += 2
	}
	d.dispersingStart = s.Time
	return out
}
