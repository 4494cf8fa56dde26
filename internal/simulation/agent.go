package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"

	"herd-sim/internal/common"
	"herd-sim/internal/neighbor"
)

// State is the behavioural state of an agent.
type State int

const (
	Idle State = iota
	Walking
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Walking:
		return "walking"
	case Running:
		return "running"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Moving reports whether an agent in this state steers.
func (s State) Moving() bool {
	return s == Walking || s == Running
}

// Agent is one member of the herd.
type Agent struct {
	ID       int
	Position common.Vector
	Heading  float64 // radians, kept in [-π, π)
	Speed    float64

	DesiredHeading float64
	DesiredSpeed   float64

	State         State
	PreviousState State // state before the most recent decision

	MeanNeighborDistance float64 // mean distance to topological neighbours at the last decision
	Cell                 int     // home lattice cell, or neighbor.NoCell

	timer float64 // driving-clock time until the next decision
	rng   *rand.Rand
}

// newAgent creates an idle agent with a random heading.
func newAgent(id int, pos common.Vector, rng *rand.Rand) *Agent {
	heading := common.WrapAngle((rng.Float64()*2 - 1) * math.Pi)
	return &Agent{
		ID:             id,
		Position:       pos,
		Heading:        heading,
		DesiredHeading: heading,
		State:          Idle,
		PreviousState:  Idle,
		Cell:           neighbor.NoCell,
		rng:            rng,
	}
}

// HeadingVector returns the unit vector along the agent's heading.
func (a *Agent) HeadingVector() common.Vector {
	return common.HeadingVector(a.Heading)
}

// StartedRunning reports whether the last decision moved the agent into Running.
func (a *Agent) StartedRunning() bool {
	return a.State == Running && a.PreviousState != Running
}

// Stopped reports whether the last decision moved the agent from Running to Idle.
func (a *Agent) Stopped() bool {
	return a.State == Idle && a.PreviousState == Running
}

// decide samples the next state. Idle and Walking are tested against each
// other first, then the shared transition into Running or out of it, each
// with a fresh draw.
func (a *Agent) decide(p Probabilities, walkSpeed, runSpeed float64) {
	a.PreviousState = a.State

	switch a.State {
	case Idle:
		if a.rng.Float64() < p.IdleToWalking {
			a.State = Walking
		}
	case Walking:
		if a.rng.Float64() < p.WalkingToIdle {
			a.State = Idle
		}
	}

	switch a.State {
	case Idle, Walking:
		if a.rng.Float64() < p.ToRunning {
			a.State = Running
		}
	case Running:
		if a.rng.Float64() < p.RunningToIdle {
			a.State = Idle
		}
	}

	switch a.State {
	case Idle:
		a.DesiredSpeed = 0
	case Walking:
		a.DesiredSpeed = walkSpeed
	case Running:
		a.DesiredSpeed = runSpeed
	}
}

// String representation for logging
func (a *Agent) String() string {
	return fmt.Sprintf("Agent[%d] Pos: %s Heading: %.3f Speed: %.3f State: %s",
		a.ID, common.String(a.Position), a.Heading, a.Speed, a.State)
}
