package cmd

import (
	"fmt"
	"io"
	"os"

	"herd-sim/internal/config"
	"herd-sim/internal/events"
	"herd-sim/internal/simulation"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runOptions struct {
	steps      int
	runs       int
	model      string
	population int
	eventsFile string
	eventsMax  int
}

func newRunCommand(app *App) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the herd headless, logging metrics and recording herd events.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *app.Config
			flags := cmd.Flags()
			if flags.Changed("steps") {
				cfg.Run.Steps = opts.steps
			}
			if flags.Changed("model") {
				cfg.Simulation.Model = opts.model
			}
			if flags.Changed("population") {
				cfg.Simulation.Population = opts.population
			}
			if flags.Changed("events") {
				cfg.Run.EventsFile = opts.eventsFile
			}
			if flags.Changed("events-limit") {
				cfg.Run.EventsLimit = opts.eventsMax
			}
			if opts.runs < 1 {
				return fmt.Errorf("--runs must be at least 1, got %d", opts.runs)
			}
			return runHerd(cmd, app.Logger, cfg, opts.runs)
		},
	}

	cmd.Flags().IntVar(&opts.steps, "steps", 0, "ticks per run (overrides run.steps)")
	cmd.Flags().IntVar(&opts.runs, "runs", 1, "independent runs, each respawning the herd")
	cmd.Flags().StringVar(&opts.model, "model", "", "behavioural model: grid or topological")
	cmd.Flags().IntVar(&opts.population, "population", 0, "number of agents (overrides simulation.population)")
	cmd.Flags().StringVar(&opts.eventsFile, "events", "", "write dispersing/packing events to this CSV file, - for stdout")
	cmd.Flags().IntVar(&opts.eventsMax, "events-limit", 0, "end each run once it has recorded this many events (overrides run.events_limit)")
	return cmd
}

func runHerd(cmd *cobra.Command, logger *zap.Logger, cfg config.Config, runs int) error {
	sim, err := simulation.New(cfg, logger)
	if err != nil {
		return err
	}

	var recorder *events.Recorder
	if cfg.Run.EventsFile != "" {
		w, closeFn, err := openEvents(cmd, cfg.Run.EventsFile)
		if err != nil {
			return err
		}
		defer closeFn()
		if recorder, err = events.NewRecorder(w, sim.RunID().String()); err != nil {
			return err
		}
	}
	detector := events.NewDetector()
	runLogger := logger.Named("run")

	for run := 0; run < runs; run++ {
		if run > 0 {
			if err := sim.Reset(cfg); err != nil {
				return err
			}
			detector.Reset()
			if recorder != nil {
				recorder.SetRunID(sim.RunID().String())
			}
		}

		observers := []simulation.Observer{reportMetrics(runLogger, cfg.Run.ReportEvery)}
		if recorder != nil {
			observers = append(observers, recordEvents(detector, recorder, cfg.Run.EventsLimit, runLogger))
		}
		if err := sim.Run(cmd.Context(), cfg.Run.Steps, observers...); err != nil {
			return fmt.Errorf("run %s: %w", sim.RunID(), err)
		}

		m := sim.Metrics()
		runLogger.Info("Run finished.",
			zap.String("run_id", sim.RunID().String()),
			zap.Uint64("seed", sim.Seed()),
			zap.Int("steps", m.Step),
			zap.Float64("time", m.Time),
			zap.Float64("hull_area", m.HullArea),
			zap.Float64("polarization", m.Polarization))
	}

	if recorder != nil {
		runLogger.Info("Herd events recorded.",
			zap.String("file", cfg.Run.EventsFile),
			zap.Int("events", recorder.Count()))
	}
	return nil
}

func openEvents(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "-" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating events file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// reportMetrics logs the herd state every n steps; n <= 0 disables it.
func reportMetrics(logger *zap.Logger, n int) simulation.Observer {
	return func(step int, m simulation.HerdMetrics) error {
		if n <= 0 || step%n != 0 {
			return nil
		}
		fields := []zap.Field{
			zap.Int("step", step),
			zap.Float64("time", m.Time),
			zap.Int("idle", m.Idle),
			zap.Int("walking", m.Walking),
			zap.Int("running", m.Running),
			zap.Float64("hull_area", m.HullArea),
			zap.Float64("polarization", m.Polarization),
			zap.Float64("elongation", m.Elongation),
		}
		if m.HasFlowField {
			fields = append(fields, zap.Float64("cell_area", m.CellArea))
		}
		logger.Info("Herd metrics.", fields...)
		return nil
	}
}

// recordEvents feeds the detector and records completed events. Once limit
// events were recorded during this run it stops the run; limit <= 0 never stops.
func recordEvents(d *events.Detector, r *events.Recorder, limit int, logger *zap.Logger) simulation.Observer {
	start := r.Count()
	return func(step int, m simulation.HerdMetrics) error {
		evs := d.Observe(events.Sample{
			Time:            m.Time,
			RunningFraction: m.RunningFraction(),
			HullArea:        m.HullArea,
		})
		if len(evs) == 0 {
			return nil
		}
		for _, e := range evs {
			logger.Debug("Herd event.", zap.Stringer("event", e))
		}
		if err := r.Record(evs...); err != nil {
			return err
		}
		if limit > 0 && r.Count()-start >= limit {
			logger.Info("Events limit reached.", zap.Int("step", step), zap.Int("events", r.Count()-start))
			return simulation.ErrStop
		}
		return nil
	}
}
