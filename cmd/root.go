package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"herd-sim/internal/config"
	"herd-sim/internal/observability"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// App carries what the root command prepares for its subcommands.
type App struct {
	ConfigFile string
	LogLevel   string

	Config *config.Config
	Logger *zap.Logger
}

// NewRootCommand builds the herdsim command tree. Subcommands that need the
// loaded configuration and logger read them from the returned App.
func NewRootCommand() (*cobra.Command, *App) {
	app := &App{Logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:           "herdsim",
		Short:         "herdsim simulates the collective motion of a grazing herd.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.initialize(cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			observability.Sync(app.Logger)
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
	rootCmd.PersistentFlags().StringVarP(&app.ConfigFile, "config", "c", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "override logger.level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCommand(app))
	return rootCmd, app
}

// initialize loads the configuration and builds the logger.
func (a *App) initialize(console io.Writer) error {
	cfg, err := config.Load(a.ConfigFile)
	if err != nil {
		return err
	}
	if a.LogLevel != "" {
		cfg.Logger.Level = a.LogLevel
	}

	logger, err := observability.NewLogger(cfg.Logger, zapcore.Lock(zapcore.AddSync(console)))
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	a.Config = cfg
	a.Logger = logger
	return nil
}

// Execute runs the command tree with the process arguments.
func Execute(ctx context.Context, extra ...func(*App) *cobra.Command) error {
	rootCmd, app := NewRootCommand()
	for _, newCommand := range extra {
		rootCmd.AddCommand(newCommand(app))
	}
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if app.Config != nil {
			app.Logger.Error("Command execution failed.", zap.Error(err))
			observability.Sync(app.Logger)
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}
