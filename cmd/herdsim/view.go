package main

import (
	"fmt"

	"herd-sim/cmd"
	"herd-sim/internal/simulation"
	"herd-sim/internal/visualization"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newViewCommand(app *cmd.App) *cobra.Command {
	var width, height int

	c := &cobra.Command{
		Use:   "view",
		Short: "Open a window showing the herd. Space pauses, R respawns.",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			cfg := *app.Config
			sim, err := simulation.New(cfg, app.Logger)
			if err != nil {
				return err
			}

			camera := visualization.NewCamera(cfg.Simulation.FieldSize)
			renderer := visualization.NewRenderer(sim, camera, app.Logger)

			ebiten.SetWindowSize(width, height)
			ebiten.SetWindowTitle(fmt.Sprintf("Herd simulation (%s model)", sim.ModelName()))
			ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

			app.Logger.Info("Opening viewer.", zap.String("run_id", sim.RunID().String()))
			if err := ebiten.RunGame(renderer); err != nil {
				return fmt.Errorf("viewer: %w", err)
			}
			return nil
		},
	}
	c.Flags().IntVar(&width, "width", 1000, "window width in pixels")
	c.Flags().IntVar(&height, "height", 800, "window height in pixels")
	return c
}
