package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"

	"herd-sim/internal/common"
	"herd-sim/internal/config"
	"herd-sim/internal/flowfield"
	"herd-sim/internal/neighbor"

	"gonum.org/v1/gonum/spatial/r2"
)

// grid finds neighbours through an overlapping lattice and steers running
// agents along a flow field. Heading and speed relax towards their desired
// values at a bounded rate on every tick.
type grid struct {
	agent      config.AgentConfig
	params     config.GridConfig
	size       float64
	population float64
	speedup    float64
	maxTurn    float64 // radians per logical time unit
	maxAccel   float64 // speed per logical time unit

	strategy *neighbor.Grid
	field    *flowfield.Field
}

func newGrid(cfg config.Config, rng *rand.Rand) (*grid, error) {
	sim := cfg.Simulation
	lattice, err := neighbor.NewLattice(sim.FieldSize, sim.Resolution)
	if err != nil {
		return nil, fmt.Errorf("building lattice: %w", err)
	}
	field, err := flowfield.New(lattice, flowfield.Params{
		Epsilon:  cfg.Grid.Epsilon,
		Omega:    cfg.Grid.Omega,
		Interval: sim.DecisionInterval / sim.Speedup,
		Workers:  sim.Workers,
	}, rng)
	if err != nil {
		return nil, fmt.Errorf("building flow field: %w", err)
	}

	return &grid{
		agent:      cfg.Agent,
		params:     cfg.Grid,
		size:       sim.FieldSize,
		population: float64(sim.Population),
		speedup:    sim.Speedup,
		maxTurn:    math.Min(2*math.Pi, cfg.Grid.MaxTurn*sim.Speedup),
		maxAccel:   math.Min(cfg.Agent.RunSpeed, cfg.Grid.MaxAccel*sim.Speedup),
		strategy:   neighbor.NewGrid(lattice, cfg.Agent.MetricRadius, sim.Workers),
		field:      field,
	}, nil
}

func (m *grid) Name() string { return config.ModelGrid }

func (m *grid) SpawnRadius(population int) float64 {
	return math.Sqrt(float64(population))
}

func (m *grid) Neighbors(positions []common.Vector) ([]neighbor.Set, error) {
	return m.strategy.Compute(positions)
}

// Refresh tallies the latest transitions into the agents' home cells and
// recomputes the flow field.
func (m *grid) Refresh(w *World, dt float64) error {
	for i, s := range w.Sets {
		m.field.Record(s.Cell, w.startedRunning(i), w.stopped(i))
	}
	return m.field.Update(dt)
}

func (m *grid) Rates(a *Agent, w *World) Rates {
	var nIdle, nWalking int
	for _, j := range w.Sets[a.ID].Metric {
		switch w.States[j] {
		case Idle:
			nIdle++
		case Walking:
			nWalking++
		}
	}

	p := m.params
	f := m.field
	distToCOM := common.DistanceSq(f.COM, w.Positions[a.ID])
	return Rates{
		IdleToWalking: (1 + p.Alpha*float64(nWalking)) / p.TauIW,
		WalkingToIdle: (1 + p.Alpha*float64(nIdle)) / p.TauWI,
		ToRunning:     math.Exp(f.Area-p.AreaFactor*m.population) * (1 + p.Alpha*float64(f.ToRunning)),
		RunningToIdle: math.Exp(-(distToCOM - p.DistanceFactor*m.population)) * (1 + p.Alpha*float64(f.ToIdle)),
	}
}

func (m *grid) Steering(a *Agent, w *World) common.Vector {
	self := w.Positions[a.ID]
	v := m.fences(self)
	metric := w.Sets[a.ID].Metric

	for _, j := range metric {
		if a.State == Walking || w.States[j] == Running {
			v = r2.Add(v, common.HeadingVector(w.Headings[j]))
		}
		// separation: f <= 0 inside the radius, so this points away from j
		e := r2.Sub(w.Positions[j], self)
		d := r2.Norm(e)
		f := math.Min(0, (d-m.agent.MetricRadius)/m.agent.MetricRadius)
		v = r2.Add(v, r2.Scale(m.agent.Beta*f, common.Unit(e)))
	}
	if len(metric) == 0 {
		v = r2.Add(v, a.HeadingVector())
	}
	if a.State == Running && a.Cell != neighbor.NoCell {
		v = r2.Add(v, m.field.Cohesion(a.Cell))
	}
	return v
}

// fences pushes towards the field centre, inversely to the fence distance,
// only inside the border band.
func (m *grid) fences(p common.Vector) common.Vector {
	var v common.Vector
	rf := m.agent.FenceRadius
	if m.agent.FenceStrength <= 0 || rf <= 0 {
		return v
	}
	lo, hi := rf, m.size-rf
	if p.X > lo && p.X < hi && p.Y > lo && p.Y < hi {
		return v
	}

	toCentre := common.Unit(r2.Sub(r2.Vec{X: m.size / 2, Y: m.size / 2}, p))
	for _, q := range fenceProjections(p, m.size) {
		d2 := common.DistanceSq(q, p)
		if d2 >= rf*rf {
			continue
		}
		d := math.Max(math.Sqrt(d2), 1e-9)
		v = r2.Add(v, r2.Scale(m.agent.FenceStrength*rf/d, toCentre))
	}
	return v
}

func (m *grid) Integrate(a *Agent, dt float64, _ bool) {
	tau := dt * m.speedup
	a.Speed = common.MoveTowards(a.Speed, a.DesiredSpeed, m.maxAccel*tau)
	a.Heading = common.WrapAngle(common.MoveTowardsAngle(a.Heading, a.DesiredHeading, m.maxTurn*tau))
	a.Position = r2.Add(a.Position, r2.Scale(a.Speed*tau, a.HeadingVector()))
}
