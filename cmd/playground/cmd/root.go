// Package cmd contains the playground CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AaronLay10/ScratchyEngine/internal/blocks"
	"github.com/AaronLay10/ScratchyEngine/internal/config"
	"github.com/AaronLay10/ScratchyEngine/internal/engine"
	"github.com/AaronLay10/ScratchyEngine/internal/storage/sqlite"
	"github.com/AaronLay10/ScratchyEngine/internal/tui"
	"github.com/AaronLay10/ScratchyEngine/internal/version"
)

var cfgFile string

// rootCmd launches the interactive playground when called without a
// subcommand.
var rootCmd = &cobra.Command{
	Use:   "playground",
	Short: "Scratchy - a block programming playground",
	Long: `Scratchy is a block programming playground for young learners.

Drag blocks from the palette into a program, run it and watch the sprite
move, or solve daily puzzles to earn coins.

Running 'playground' without arguments launches the interactive TUI.`,
	Version:      version.String(),
	SilenceUsage: true,
	RunE:         runPlaygroundTUI,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "playground config (default is config/playground.yaml)")
	rootCmd.PersistentFlags().String("lang", "", "label language, en or ar (default from config)")

	viper.BindPFlag("lang", rootCmd.PersistentFlags().Lookup("lang"))
}

// initConfig resolves the config path and reads SCRATCHY_* variables.
func initConfig() {
	viper.SetEnvPrefix("SCRATCHY")
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.Set("config", cfgFile)
	} else if viper.GetString("config") == "" {
		viper.Set("config", "config/playground.yaml")
	}
}

func loadConfig() (*config.PlaygroundConfig, error) {
	path := viper.GetString("config")
	cfg, err := config.LoadPlaygroundConfig(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return cfg, nil
}

func localeOf(cfg *config.PlaygroundConfig) blocks.Locale {
	if lang := viper.GetString("lang"); lang != "" {
		return blocks.ParseLocale(lang)
	}
	return blocks.ParseLocale(cfg.Playground.Locale)
}

// openTracker loads saved progress. Without a sqlite path the progress
// lives for this invocation only.
func openTracker(cfg *config.PlaygroundConfig) (*engine.Tracker, func(), error) {
	key := progressPrefix + cfg.PlaygroundID()
	if cfg.Storage.SQLite == "" {
		t, err := engine.NewTracker(nil, key, nil)
		return t, func() {}, err
	}

	store, err := sqlite.Open(cfg.Storage.SQLite)
	if err != nil {
		return nil, nil, err
	}
	t, err := engine.NewTracker(store, key, nil)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return t, func() { store.Close() }, nil
}

func loadPuzzles(cfg *config.PlaygroundConfig) (*engine.PuzzleSet, error) {
	path := cfg.PuzzlesFile
	if path == "" {
		path = "config/puzzles.yaml"
	}
	return engine.LoadPuzzleSet(path)
}

func runPlaygroundTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	tracker, closeStore, err := openTracker(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	catalog, ok := blocks.ByName(cfg.Playground.Catalog)
	if !ok {
		return fmt.Errorf("unknown catalog %q", cfg.Playground.Catalog)
	}
	pg := engine.NewPlayground(catalog,
		engine.WithReward(cfg.Playground.CompletionCoins, tracker.RunReward()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	return tui.Run(tui.NewPlayground(ctx, pg, localeOf(cfg)))
}

func printErr(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, format, a...)
}
