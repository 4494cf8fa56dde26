package simulation

import (
	"math"

	"herd-sim/internal/common"
	"herd-sim/internal/neighbor"
)

// Rates are the hazard rates of the four state transitions, per unit of logical time.
type Rates struct {
	IdleToWalking float64
	WalkingToIdle float64
	ToRunning     float64 // from Idle or Walking
	RunningToIdle float64
}

// Probabilities are the per-decision transition probabilities.
type Probabilities struct {
	IdleToWalking float64
	WalkingToIdle float64
	ToRunning     float64
	RunningToIdle float64
}

// Probabilities converts the rates into probabilities for a decision step of
// length dt using p = 1 - exp(-rate·dt).
func (r Rates) Probabilities(dt float64) Probabilities {
	return Probabilities{
		IdleToWalking: hazard(r.IdleToWalking, dt),
		WalkingToIdle: hazard(r.WalkingToIdle, dt),
		ToRunning:     hazard(r.ToRunning, dt),
		RunningToIdle: hazard(r.RunningToIdle, dt),
	}
}

func hazard(rate, dt float64) float64 {
	x := rate * dt
	if math.IsNaN(x) || x <= 0 {
		return 0
	}
	return math.Min(1, -math.Expm1(-x))
}

// World is the frozen snapshot of the herd read by every agent during a tick.
// Agents never observe each other's in-progress updates.
type World struct {
	Positions []common.Vector
	Headings  []float64
	States    []State
	Previous  []State
	Sets      []neighbor.Set
}

func (w *World) resize(n int) {
	w.Positions = make([]common.Vector, n)
	w.Headings = make([]float64, n)
	w.States = make([]State, n)
	w.Previous = make([]State, n)
	w.Sets = nil
}

// freeze copies the committed agent state into the snapshot.
func (w *World) freeze(agents []*Agent) {
	for i, a := range agents {
		w.Positions[i] = a.Position
		w.Headings[i] = a.Heading
		w.States[i] = a.State
		w.Previous[i] = a.PreviousState
	}
}

func (w *World) startedRunning(i int) bool {
	return w.States[i] == Running && w.Previous[i] != Running
}

func (w *World) stopped(i int) bool {
	return w.States[i] == Idle && w.Previous[i] == Running
}

// Model is a behavioural model of the herd. It is selected once, at reset.
type Model interface {
	// Name identifies the model in logs.
	Name() string
	// SpawnRadius is the radius of the disc the population is spawned in.
	SpawnRadius(population int) float64
	// Neighbors computes the neighbour sets of the frozen positions.
	Neighbors(positions []common.Vector) ([]neighbor.Set, error)
	// Refresh updates shared per-tick state once neighbours are known.
	Refresh(w *World, dt float64) error
	// Rates returns the transition rates of agent a.
	Rates(a *Agent, w *World) Rates
	// Steering returns the unnormalised desired direction of a moving agent.
	// A zero vector keeps the current heading.
	Steering(a *Agent, w *World) common.Vector
	// Integrate relaxes heading and speed and advances the position.
	// fired reports whether the agent made a decision this tick.
	Integrate(a *Agent, dt float64, fired bool)
}

// fenceProjections returns the closest point on each of the four fences.
func fenceProjections(p common.Vector, size float64) [4]common.Vector {
	return [4]common.Vector{
		{X: 0, Y: p.Y},
		{X: p.X, Y: 0},
		{X: size, Y: p.Y},
		{X: p.X, Y: size},
	}
}
