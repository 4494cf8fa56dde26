package config

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Behavioural model names.
const (
	ModelGrid        = "grid"
	ModelTopological = "topological"
)

// Heading noise distributions.
const (
	NoiseUniform  = "uniform"
	NoiseGaussian = "gaussian"
	NoiseNone     = "none"
)

// EnvPrefix prefixes every environment override, e.g. HERDSIM_SIMULATION_POPULATION.
const EnvPrefix = "HERDSIM"

// Config holds the entire application configuration.
type Config struct {
	Simulation  SimulationConfig  `mapstructure:"simulation" yaml:"simulation"`
	Agent       AgentConfig       `mapstructure:"agent" yaml:"agent"`
	Topological TopologicalConfig `mapstructure:"topological" yaml:"topological"`
	Grid        GridConfig        `mapstructure:"grid" yaml:"grid"`
	Logger      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	Run         RunConfig         `mapstructure:"run" yaml:"run"`
}

// SimulationConfig sizes the herd and the field and selects the model.
type SimulationConfig struct {
	Model            string  `mapstructure:"model" yaml:"model"`
	Population       int     `mapstructure:"population" yaml:"population"`
	FieldSize        float64 `mapstructure:"field_size" yaml:"field_size"`
	Resolution       int     `mapstructure:"resolution" yaml:"resolution"`
	Speedup          float64 `mapstructure:"speedup" yaml:"speedup"`
	DecisionInterval float64 `mapstructure:"decision_interval" yaml:"decision_interval"`
	Seed             uint64  `mapstructure:"seed" yaml:"seed"`
	Workers          int     `mapstructure:"workers" yaml:"workers"`
}

// AgentConfig holds the motion parameters shared by both models.
type AgentConfig struct {
	WalkSpeed           float64 `mapstructure:"walk_speed" yaml:"walk_speed"`
	RunSpeed            float64 `mapstructure:"run_speed" yaml:"run_speed"`
	Eta                 float64 `mapstructure:"eta" yaml:"eta"`
	Noise               string  `mapstructure:"noise" yaml:"noise"`
	Beta                float64 `mapstructure:"beta" yaml:"beta"`
	MetricRadius        float64 `mapstructure:"metric_radius" yaml:"metric_radius"`
	EquilibriumDistance float64 `mapstructure:"equilibrium_distance" yaml:"equilibrium_distance"`
	FenceRadius         float64 `mapstructure:"fence_radius" yaml:"fence_radius"`
	FenceStrength       float64 `mapstructure:"fence_strength" yaml:"fence_strength"`
}

// TopologicalConfig holds the transition constants of the topological model.
type TopologicalConfig struct {
	Alpha float64 `mapstructure:"alpha" yaml:"alpha"`
	TauIW float64 `mapstructure:"tau_iw" yaml:"tau_iw"`
	TauWI float64 `mapstructure:"tau_wi" yaml:"tau_wi"`
	Delta float64 `mapstructure:"delta" yaml:"delta"`
	DR    float64 `mapstructure:"d_r" yaml:"d_r"`
	DS    float64 `mapstructure:"d_s" yaml:"d_s"`
}

// GridConfig holds the transition, flow field and relaxation constants of the grid model.
type GridConfig struct {
	Alpha          float64 `mapstructure:"alpha" yaml:"alpha"`
	TauIW          float64 `mapstructure:"tau_iw" yaml:"tau_iw"`
	TauWI          float64 `mapstructure:"tau_wi" yaml:"tau_wi"`
	AreaFactor     float64 `mapstructure:"area_factor" yaml:"area_factor"`
	DistanceFactor float64 `mapstructure:"distance_factor" yaml:"distance_factor"`
	Epsilon        float64 `mapstructure:"epsilon" yaml:"epsilon"`
	Omega          float64 `mapstructure:"omega" yaml:"omega"`
	MaxTurn        float64 `mapstructure:"max_turn" yaml:"max_turn"`
	MaxAccel       float64 `mapstructure:"max_accel" yaml:"max_accel"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// RunConfig drives the headless runner.
type RunConfig struct {
	Steps       int     `mapstructure:"steps" yaml:"steps"`
	FrameDT     float64 `mapstructure:"frame_dt" yaml:"frame_dt"`
	ReportEvery int     `mapstructure:"report_every" yaml:"report_every"`
	EventsFile  string  `mapstructure:"events_file" yaml:"events_file"`
	EventsLimit int     `mapstructure:"events_limit" yaml:"events_limit"` // events per run before it ends early; 0 means no limit
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration parameter.
func SetDefaults(v *viper.Viper) {
	// Simulation
	v.SetDefault("simulation.model", ModelGrid)
	v.SetDefault("simulation.population", 100)
	v.SetDefault("simulation.field_size", 200.0)
	v.SetDefault("simulation.resolution", 40)
	v.SetDefault("simulation.speedup", 20.0)
	v.SetDefault("simulation.decision_interval", 1.0)
	v.SetDefault("simulation.seed", 0)
	v.SetDefault("simulation.workers", 0)

	// Agent
	v.SetDefault("agent.walk_speed", 0.15)
	v.SetDefault("agent.run_speed", 1.5)
	v.SetDefault("agent.eta", 0.13)
	v.SetDefault("agent.noise", NoiseUniform)
	v.SetDefault("agent.beta", 0.8)
	v.SetDefault("agent.metric_radius", 1.0)
	v.SetDefault("agent.equilibrium_distance", 1.0)
	v.SetDefault("agent.fence_radius", 10.0)
	v.SetDefault("agent.fence_strength", 0.1)

	// Topological model
	v.SetDefault("topological.alpha", 15.0)
	v.SetDefault("topological.tau_iw", 35.0)
	v.SetDefault("topological.tau_wi", 8.0)
	v.SetDefault("topological.delta", 4.0)
	v.SetDefault("topological.d_r", 31.6)
	v.SetDefault("topological.d_s", 6.3)

	// Grid model
	v.SetDefault("grid.alpha", 15.0)
	v.SetDefault("grid.tau_iw", 35.0)
	v.SetDefault("grid.tau_wi", 8.0)
	v.SetDefault("grid.area_factor", 14.0)
	v.SetDefault("grid.distance_factor", 0.8)
	v.SetDefault("grid.epsilon", 0.7)
	v.SetDefault("grid.omega", 10.0)
	v.SetDefault("grid.max_turn", 0.1)
	v.SetDefault("grid.max_accel", 0.1)

	// Logger
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "herdsim")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// Run
	v.SetDefault("run.steps", 3000)
	v.SetDefault("run.frame_dt", 1.0/60.0)
	v.SetDefault("run.report_every", 100)
	v.SetDefault("run.events_file", "")
	v.SetDefault("run.events_limit", 0)
}

// NewViper returns a viper instance with defaults and environment overrides bound.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the configuration file at path, if any, on top of the defaults
// and environment, and returns the validated result.
func Load(path string) (*Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}
	return NewConfigFromViper(v)
}

// NewConfigFromViper unmarshals and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	if err := c.Simulation.Validate(); err != nil {
		return err
	}
	if err := c.Agent.Validate(); err != nil {
		return err
	}
	switch c.Simulation.Model {
	case ModelTopological:
		if err := c.Topological.Validate(); err != nil {
			return err
		}
	case ModelGrid:
		if err := c.Grid.Validate(); err != nil {
			return err
		}
	}
	if c.Run.Steps < 0 {
		return invalid("run.steps must not be negative")
	}
	if c.Run.EventsLimit < 0 {
		return invalid("run.events_limit must not be negative, got %d", c.Run.EventsLimit)
	}
	if !(c.Run.FrameDT > 0) {
		return invalid("run.frame_dt must be positive")
	}
	return nil
}

// Validate checks the simulation section.
func (s *SimulationConfig) Validate() error {
	switch s.Model {
	case ModelGrid:
		if s.Resolution <= 0 {
			return invalid("simulation.resolution must be a positive integer, got %d", s.Resolution)
		}
	case ModelTopological:
	default:
		return invalid("simulation.model must be %q or %q, got %q", ModelGrid, ModelTopological, s.Model)
	}
	if s.Population <= 0 {
		return invalid("simulation.population must be a positive integer, got %d", s.Population)
	}
	if !(s.FieldSize > 0) || math.IsInf(s.FieldSize, 1) {
		return invalid("simulation.field_size must be positive and finite, got %v", s.FieldSize)
	}
	if !(s.Speedup > 0) {
		return invalid("simulation.speedup must be positive, got %v", s.Speedup)
	}
	if !(s.DecisionInterval > 0) {
		return invalid("simulation.decision_interval must be positive, got %v", s.DecisionInterval)
	}
	return nil
}

// Validate checks the agent section.
func (a *AgentConfig) Validate() error {
	switch a.Noise {
	case NoiseUniform, NoiseGaussian, NoiseNone:
	default:
		return invalid("agent.noise must be one of uniform, gaussian or none, got %q", a.Noise)
	}
	if !(a.MetricRadius > 0) {
		return invalid("agent.metric_radius must be positive, got %v", a.MetricRadius)
	}
	if !(a.EquilibriumDistance > 0) {
		return invalid("agent.equilibrium_distance must be positive, got %v", a.EquilibriumDistance)
	}
	return nonNegative([]field{
		{"agent.walk_speed", a.WalkSpeed},
		{"agent.run_speed", a.RunSpeed},
		{"agent.eta", a.Eta},
		{"agent.beta", a.Beta},
		{"agent.fence_radius", a.FenceRadius},
		{"agent.fence_strength", a.FenceStrength},
	})
}

// Validate checks the topological model constants.
func (t *TopologicalConfig) Validate() error {
	if err := positive([]field{
		{"topological.tau_iw", t.TauIW},
		{"topological.tau_wi", t.TauWI},
		{"topological.d_r", t.DR},
		{"topological.d_s", t.DS},
	}); err != nil {
		return err
	}
	return nonNegative([]field{
		{"topological.alpha", t.Alpha},
		{"topological.delta", t.Delta},
	})
}

// Validate checks the grid model constants.
func (g *GridConfig) Validate() error {
	if !(g.Epsilon >= 0 && g.Epsilon <= 1) {
		return invalid("grid.epsilon must be within [0, 1], got %v", g.Epsilon)
	}
	if err := positive([]field{
		{"grid.tau_iw", g.TauIW},
		{"grid.tau_wi", g.TauWI},
		{"grid.max_turn", g.MaxTurn},
		{"grid.max_accel", g.MaxAccel},
	}); err != nil {
		return err
	}
	return nonNegative([]field{
		{"grid.alpha", g.Alpha},
		{"grid.area_factor", g.AreaFactor},
		{"grid.distance_factor", g.DistanceFactor},
		{"grid.omega", g.Omega},
	})
}

// field names a numeric setting for ordered validation.
type field struct {
	name  string
	value float64
}

// positive reports the first field that is not a positive number; NaN fails.
func positive(fields []field) error {
	for _, f := range fields {
		if !(f.value > 0) {
			return invalid("%s must be positive, got %v", f.name, f.value)
		}
	}
	return nil
}

// nonNegative reports the first field that is negative or NaN.
func nonNegative(fields []field) error {
	for _, f := range fields {
		if !(f.value >= 0) {
			return invalid("%s must not be negative, got %v", f.name, f.value)
		}
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalidConfig)
}
