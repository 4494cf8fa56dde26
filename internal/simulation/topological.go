package simulation

import (
	"math"

	"herd-sim/internal/common"
	"herd-sim/internal/config"
	"herd-sim/internal/neighbor"

	"gonum.org/v1/gonum/spatial/r2"
)

// topological couples metric neighbours, for the idle/walking dynamics, with
// Voronoi neighbours, for running. Decisions snap heading and speed and move
// the agent by one full decision step.
type topological struct {
	agent    config.AgentConfig
	params   config.TopologicalConfig
	size     float64
	interval float64 // logical length of a decision step
	tau      float64 // τ_iwr = τ_ri = population
	strategy neighbor.Strategy
}

func newTopological(cfg config.Config) *topological {
	return &topological{
		agent:    cfg.Agent,
		params:   cfg.Topological,
		size:     cfg.Simulation.FieldSize,
		interval: cfg.Simulation.DecisionInterval,
		tau:      float64(cfg.Simulation.Population),
		strategy: neighbor.NewMetric(cfg.Agent.MetricRadius, true),
	}
}

func (m *topological) Name() string { return config.ModelTopological }

func (m *topological) SpawnRadius(population int) float64 {
	return math.Sqrt(float64(population) / math.Pi)
}

func (m *topological) Neighbors(positions []common.Vector) ([]neighbor.Set, error) {
	return m.strategy.Compute(positions)
}

func (m *topological) Refresh(*World, float64) error { return nil }

func (m *topological) Rates(a *Agent, w *World) Rates {
	var nIdle, nWalking int
	for _, j := range w.Sets[a.ID].Metric {
		switch w.States[j] {
		case Idle:
			nIdle++
		case Walking:
			nWalking++
		}
	}

	var mRunning, mToIdle int
	var l float64
	topo := w.Sets[a.ID].Topological
	for _, j := range topo {
		if w.States[j] == Running {
			mRunning++
		} else if w.stopped(j) {
			mToIdle++
		}
		l += common.Distance(w.Positions[a.ID], w.Positions[j])
	}
	if len(topo) > 0 {
		l /= float64(len(topo))
	}
	a.MeanNeighborDistance = l

	p := m.params
	r := Rates{
		IdleToWalking: (1 + p.Alpha*float64(nWalking)) / p.TauIW,
		WalkingToIdle: (1 + p.Alpha*float64(nIdle)) / p.TauWI,
	}
	if l > 0 {
		r.ToRunning = math.Pow(l/p.DR*(1+p.Alpha*float64(mRunning)), p.Delta) / m.tau
		r.RunningToIdle = math.Pow(p.DS/l*(1+p.Alpha*float64(mToIdle)), p.Delta) / m.tau
	}
	return r
}

func (m *topological) Steering(a *Agent, w *World) common.Vector {
	self := w.Positions[a.ID]
	v := m.fences(self)
	set := w.Sets[a.ID]

	switch a.State {
	case Walking:
		for _, j := range set.Metric {
			v = r2.Add(v, common.HeadingVector(w.Headings[j]))
		}
		if len(set.Metric) == 0 {
			v = r2.Add(v, a.HeadingVector())
		}
	case Running:
		for _, j := range set.Topological {
			if w.States[j] == Running {
				v = r2.Add(v, common.HeadingVector(w.Headings[j]))
			}
			e := r2.Sub(w.Positions[j], self)
			d := r2.Norm(e)
			f := math.Min(1, (d-m.agent.EquilibriumDistance)/m.agent.EquilibriumDistance)
			v = r2.Add(v, r2.Scale(m.agent.Beta*f, common.Unit(e)))
		}
		if len(set.Topological) == 0 {
			v = r2.Add(v, a.HeadingVector())
		}
	}
	return v
}

// fences repels from every fence closer than the fence radius, linearly in the distance.
func (m *topological) fences(p common.Vector) common.Vector {
	var v common.Vector
	rf := m.agent.FenceRadius
	if m.agent.FenceStrength <= 0 || rf <= 0 {
		return v
	}
	for _, q := range fenceProjections(p, m.size) {
		e := r2.Sub(q, p)
		if r2.Norm2(e) >= rf*rf {
			continue
		}
		f := math.Max(0, (rf-r2.Norm(e))/rf)
		v = r2.Add(v, r2.Scale(-m.agent.FenceStrength*f, common.Unit(e)))
	}
	return v
}

func (m *topological) Integrate(a *Agent, _ float64, fired bool) {
	if !fired {
		return
	}
	a.Speed = a.DesiredSpeed
	a.Heading = common.WrapAngle(a.DesiredHeading)
	a.Position = r2.Add(a.Position, r2.Scale(a.Speed*m.interval, a.HeadingVector()))
}
