package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -- Defaults --

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, ModelGrid, cfg.Simulation.Model)
	assert.Equal(t, 100, cfg.Simulation.Population)
	assert.Equal(t, 200.0, cfg.Simulation.FieldSize)
	assert.Equal(t, 40, cfg.Simulation.Resolution)
	assert.Equal(t, 20.0, cfg.Simulation.Speedup)
	assert.Equal(t, 0.13, cfg.Agent.Eta)
	assert.Equal(t, 31.6, cfg.Topological.DR)
	assert.Equal(t, 0.7, cfg.Grid.Epsilon)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, 3000, cfg.Run.Steps)
	assert.InDelta(t, 1.0/60, cfg.Run.FrameDT, 1e-12)

	assert.NoError(t, cfg.Validate(), "defaults must be valid")
}

// -- Validation --

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		msg    string
	}{
		{"zero population", func(c *Config) { c.Simulation.Population = 0 }, "simulation.population"},
		{"zero field", func(c *Config) { c.Simulation.FieldSize = 0 }, "simulation.field_size"},
		{"zero resolution", func(c *Config) { c.Simulation.Resolution = 0 }, "simulation.resolution"},
		{"unknown model", func(c *Config) { c.Simulation.Model = "boids" }, "simulation.model"},
		{"zero speedup", func(c *Config) { c.Simulation.Speedup = 0 }, "simulation.speedup"},
		{"zero interval", func(c *Config) { c.Simulation.DecisionInterval = 0 }, "simulation.decision_interval"},
		{"zero radius", func(c *Config) { c.Agent.MetricRadius = 0 }, "agent.metric_radius"},
		{"negative speed", func(c *Config) { c.Agent.RunSpeed = -1 }, "agent.run_speed"},
		{"unknown noise", func(c *Config) { c.Agent.Noise = "pink" }, "agent.noise"},
		{"epsilon out of range", func(c *Config) { c.Grid.Epsilon = 1.2 }, "grid.epsilon"},
		{"zero max turn", func(c *Config) { c.Grid.MaxTurn = 0 }, "grid.max_turn"},
		{"zero frame", func(c *Config) { c.Run.FrameDT = 0 }, "run.frame_dt"},
		{"nan field", func(c *Config) { c.Simulation.FieldSize = math.NaN() }, "simulation.field_size"},
		{"infinite field", func(c *Config) { c.Simulation.FieldSize = math.Inf(1) }, "simulation.field_size"},
		{"nan speedup", func(c *Config) { c.Simulation.Speedup = math.NaN() }, "simulation.speedup"},
		{"nan radius", func(c *Config) { c.Agent.MetricRadius = math.NaN() }, "agent.metric_radius"},
		{"nan beta", func(c *Config) { c.Agent.Beta = math.NaN() }, "agent.beta"},
		{"nan epsilon", func(c *Config) { c.Grid.Epsilon = math.NaN() }, "grid.epsilon"},
		{"nan omega", func(c *Config) { c.Grid.Omega = math.NaN() }, "grid.omega"},
		{"nan frame", func(c *Config) { c.Run.FrameDT = math.NaN() }, "run.frame_dt"},
		{"topological nan d_s", func(c *Config) {
			c.Simulation.Model = ModelTopological
			c.Topological.DS = math.NaN()
		}, "topological.d_s"},
		{"topological tau", func(c *Config) {
			c.Simulation.Model = ModelTopological
			c.Topological.TauIW = 0
		}, "topological.tau_iw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestValidationReportsFirstInvalidFieldInOrder(t *testing.T) {
	for i := 0; i < 20; i++ {
		cfg := NewDefaultConfig()
		cfg.Agent.FenceStrength = -1
		cfg.Agent.Eta = -1
		cfg.Agent.WalkSpeed = -1
		err := cfg.Validate()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "agent.walk_speed")
	}
}

func TestTopologicalIgnoresResolution(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Simulation.Model = ModelTopological
	cfg.Simulation.Resolution = 0
	cfg.Grid.Epsilon = 5 // grid section is not consulted
	assert.NoError(t, cfg.Validate())
}

// -- Loading --

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "herd.toml")
	content := `
[simulation]
model = "topological"
population = 250
seed = 42

[agent]
noise = "gaussian"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModelTopological, cfg.Simulation.Model)
	assert.Equal(t, 250, cfg.Simulation.Population)
	assert.Equal(t, uint64(42), cfg.Simulation.Seed)
	assert.Equal(t, NoiseGaussian, cfg.Agent.Noise)
	assert.Equal(t, 200.0, cfg.Simulation.FieldSize, "unset keys keep their defaults")
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("HERDSIM_SIMULATION_POPULATION", "12")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Simulation.Population)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("HERDSIM_SIMULATION_POPULATION", "0")
	_, err := Load("")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidConfig)
}
