package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/ScratchyEngine/internal/config"
	"github.com/AaronLay10/ScratchyEngine/internal/storage/sqlite"
)

const progressPrefix = "progress:"

var coinsCmd = &cobra.Command{
	Use:   "coins",
	Short: "Show earned coins and solved puzzles",
	Long: `Show the coins and solved puzzles saved for this playground.

--reset forgets them; --all lists every playground with saved progress.`,
	Args: cobra.NoArgs,
	RunE: runCoins,
}

func init() {
	coinsCmd.Flags().Bool("reset", false, "forget saved progress for this playground")
	coinsCmd.Flags().Bool("all", false, "list playgrounds with saved progress")
	rootCmd.AddCommand(coinsCmd)
}

func runCoins(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Storage.SQLite == "" {
		printErr("no sqlite_path configured, progress is not saved\n")
	}

	if reset, _ := cmd.Flags().GetBool("reset"); reset {
		if err := resetProgress(cfg); err != nil {
			return err
		}
		fmt.Printf("progress for %s reset\n", cfg.PlaygroundID())
		return nil
	}
	if all, _ := cmd.Flags().GetBool("all"); all {
		ids, err := savedPlaygrounds(cfg)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Println(id)
		}
		return nil
	}

	tracker, closeStore, err := openTracker(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	p := tracker.Snapshot()
	fmt.Printf("coins:  %d\n", p.Coins)
	if len(p.Solved) == 0 {
		fmt.Println("solved: none yet")
		return nil
	}
	fmt.Printf("solved: %s\n", strings.Join(p.Solved, ", "))
	if len(p.DailyCompleted) > 0 {
		fmt.Printf("daily:  %s\n", strings.Join(p.DailyCompleted, ", "))
	}
	return nil
}

// resetProgress deletes the saved progress of cfg's playground. The
// Postgres ledger, if any, is left alone.
func resetProgress(cfg *config.PlaygroundConfig) error {
	if cfg.Storage.SQLite == "" {
		return nil
	}
	store, err := sqlite.Open(cfg.Storage.SQLite)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Delete(progressPrefix + cfg.PlaygroundID())
}

// savedPlaygrounds lists the playground ids with saved progress.
func savedPlaygrounds(cfg *config.PlaygroundConfig) ([]string, error) {
	if cfg.Storage.SQLite == "" {
		return nil, nil
	}
	store, err := sqlite.Open(cfg.Storage.SQLite)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	keys, err := store.Keys()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, k := range keys {
		if id, ok := strings.CutPrefix(k, progressPrefix); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
