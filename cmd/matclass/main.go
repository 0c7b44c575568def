// Command matclass classifies material descriptions against the group
// hierarchy from the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgallion1/matclass/internal/app"
	"github.com/dgallion1/matclass/internal/config"
	"github.com/spf13/cobra"
)

var (
	verbose       bool
	model         string
	hierarchyPath string
	noHistory     bool
)

var rootCmd = &cobra.Command{
	Use:   "matclass",
	Short: "Hierarchical material classifier",
	Long: `matclass walks the material-group hierarchy from the root, asking an
LLM to pick among the children at each level and backtracking out of
branches that lead nowhere.

Configuration comes from config.yaml (or CONFIG_PATH) and the environment,
the same as the server.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "Model to consult (default: DEFAULT_MODEL)")
	rootCmd.PersistentFlags().StringVar(&hierarchyPath, "hierarchy", "", "Hierarchy file (default: HIERARCHY_PATH)")
	rootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "Do not record classifications in the database")

	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(treeCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(batchCmd)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig applies command-line overrides on top of config.Load.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if hierarchyPath != "" {
		cfg.HierarchyPath = hierarchyPath
	}
	if model != "" {
		if !cfg.ModelAllowed(model) {
			return config.Config{}, fmt.Errorf("unknown model %q (available: %v)", model, cfg.AvailableModels)
		}
		cfg.DefaultModel = model
	}
	return cfg, nil
}

func openApp(cmd *cobra.Command, withStore bool) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.Open(cmd.Context(), cfg, newLogger(), withStore && !noHistory)
}
