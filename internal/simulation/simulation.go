package simulation

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"herd-sim/internal/common"
	"herd-sim/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// stream ids of the generators that are not tied to an agent
const (
	spawnStream = 1<<63 + iota
	fieldStream
)

// Observer is called after every step of Run. Returning an error stops the run.
type Observer func(step int, m HerdMetrics) error

// Simulation owns the herd and drives the per-tick pipeline. It is not safe
// for concurrent use.
type Simulation struct {
	cfg    config.Config
	logger *zap.Logger

	model  Model
	noise  NoiseFunction
	agents []*Agent
	world  World

	runID      uuid.UUID
	seed       uint64
	generation uint64
	interval   float64 // driving-clock time between decisions
	time       float64 // elapsed logical time
	steps      int

	metrics HerdMetrics
}

// New validates cfg and creates a simulation with a freshly spawned herd.
// A nil logger discards all output.
func New(cfg config.Config, logger *zap.Logger) (*Simulation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Simulation{logger: logger.Named("simulation")}
	if err := s.Reset(cfg); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset discards the herd and respawns it for cfg. On error the simulation is
// left unchanged.
func (s *Simulation) Reset(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	noise, err := NewNoise(cfg.Agent.Noise, cfg.Agent.Eta)
	if err != nil {
		return err
	}

	sim := cfg.Simulation
	seed := sim.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	} else {
		seed += s.generation
	}

	var model Model
	switch sim.Model {
	case config.ModelTopological:
		model = newTopological(cfg)
	case config.ModelGrid:
		if cell := sim.FieldSize / float64(sim.Resolution); cell < 2*cfg.Agent.MetricRadius {
			s.logger.Warn("Lattice cells are narrower than twice the metric radius; grid neighbours may be missed.",
				zap.Float64("cell_size", cell), zap.Float64("metric_radius", cfg.Agent.MetricRadius))
		}
		model, err = newGrid(cfg, rand.New(rand.NewPCG(seed, fieldStream)))
		if err != nil {
			return fmt.Errorf("creating grid model: %w", err)
		}
	default:
		return fmt.Errorf("unknown model %q: %w", sim.Model, config.ErrInvalidConfig)
	}

	spawn := rand.New(rand.NewPCG(seed, spawnStream))
	centre := common.Vector{X: sim.FieldSize / 2, Y: sim.FieldSize / 2}
	radius := model.SpawnRadius(sim.Population)
	agents := make([]*Agent, sim.Population)
	for i := range agents {
		pos := common.NewRandomInDisc(spawn, centre, radius)
		agents[i] = newAgent(i, pos, rand.New(rand.NewPCG(seed, uint64(i))))
	}

	s.cfg = cfg
	s.model = model
	s.noise = noise
	s.agents = agents
	s.world.resize(len(agents))
	s.runID = uuid.New()
	s.seed = seed
	s.generation++
	s.interval = sim.DecisionInterval / sim.Speedup
	s.time = 0
	s.steps = 0
	s.metrics = s.computeMetrics()

	s.logger.Info("Herd spawned.",
		zap.String("run_id", s.runID.String()),
		zap.String("model", model.Name()),
		zap.Int("population", sim.Population),
		zap.Float64("field_size", sim.FieldSize),
		zap.Float64("spawn_radius", radius),
		zap.Uint64("seed", seed))
	return nil
}

// Step advances the simulation by one tick of dt driving-clock time, which is
// dt·speedup of logical time.
func (s *Simulation) Step(dt float64) error {
	if !(dt > 0) {
		return fmt.Errorf("step duration must be positive, got %v", dt)
	}

	s.world.freeze(s.agents)
	sets, err := s.model.Neighbors(s.world.Positions)
	if err != nil {
		return fmt.Errorf("computing %s neighbours: %w", s.model.Name(), err)
	}
	s.world.Sets = sets
	if err := s.model.Refresh(&s.world, dt); err != nil {
		return fmt.Errorf("refreshing %s model: %w", s.model.Name(), err)
	}

	err = common.ParallelFor(len(s.agents), s.cfg.Simulation.Workers, func(lo, hi int) {
		for _, a := range s.agents[lo:hi] {
			s.updateAgent(a, dt)
		}
	})
	if err != nil {
		return fmt.Errorf("updating agents: %w", err)
	}

	s.time += dt * s.cfg.Simulation.Speedup
	s.steps++
	s.metrics = s.computeMetrics()

	if ce := s.logger.Check(zap.DebugLevel, "Tick."); ce != nil {
		ce.Write(
			zap.Int("step", s.steps),
			zap.Float64("time", s.time),
			zap.Int("running", s.metrics.Running),
			zap.Float64("hull_area", s.metrics.HullArea))
	}
	return nil
}

// updateAgent runs one agent's decision, when its timer fires, and its
// motion. It writes only to a and reads only the frozen world.
func (s *Simulation) updateAgent(a *Agent, dt float64) {
	a.Cell = s.world.Sets[a.ID].Cell

	a.timer -= dt
	fired := a.timer <= 0
	if fired {
		p := s.model.Rates(a, &s.world).Probabilities(s.cfg.Simulation.DecisionInterval)
		a.decide(p, s.cfg.Agent.WalkSpeed, s.cfg.Agent.RunSpeed)

		if a.State.Moving() {
			theta := a.Heading
			if v := s.model.Steering(a, &s.world); v.X != 0 || v.Y != 0 {
				theta = common.Angle(v)
			}
			if a.State == Walking {
				theta += s.noise(a.rng)
			}
			a.DesiredHeading = common.WrapAngle(theta)
		}
		a.timer = s.interval
	}
	s.model.Integrate(a, dt, fired)
}

// Run performs steps ticks of the configured frame duration, calling every
// observer after each one. It stops early when ctx is cancelled.
func (s *Simulation) Run(ctx context.Context, steps int, observers ...Observer) error {
	dt := s.cfg.Run.FrameDT
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(dt); err != nil {
			return fmt.Errorf("step %d: %w", s.steps+1, err)
		}
		for _, observe := range observers {
			if err := observe(s.steps, s.metrics); err != nil {
				if errors.Is(err, ErrStop) {
					return nil
				}
				return err
			}
		}
	}
	return nil
}

// ErrStop may be returned by an Observer to end Run without an error.
var ErrStop = errors.New("stop simulation")

// Snapshot returns a copy of the committed state of every agent.
func (s *Simulation) Snapshot() []AgentView {
	views := make([]AgentView, len(s.agents))
	for i, a := range s.agents {
		views[i] = viewOf(a)
	}
	return views
}

// Metrics returns the herd metrics of the last committed tick.
func (s *Simulation) Metrics() HerdMetrics {
	return s.metrics
}

// Config returns the configuration of the current herd.
func (s *Simulation) Config() config.Config { return s.cfg }

// RunID identifies the current herd; it changes on every reset.
func (s *Simulation) RunID() uuid.UUID { return s.runID }

// Seed returns the seed the current herd was spawned from.
func (s *Simulation) Seed() uint64 { return s.seed }

// ModelName returns the name of the active behavioural model.
func (s *Simulation) ModelName() string { return s.model.Name() }

// Time returns the elapsed logical time.
func (s *Simulation) Time() float64 { return s.time }

// Steps returns the number of ticks since the last reset.
func (s *Simulation) Steps() int { return s.steps }
