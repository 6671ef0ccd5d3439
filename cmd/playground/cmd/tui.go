package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/ScratchyEngine/internal/engine"
	"github.com/AaronLay10/ScratchyEngine/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [puzzle-id|daily]",
	Short: "Launch the interactive playground or a puzzle",
	Long: `Launch the interactive playground. With a puzzle id, or "daily",
the palette is limited to the puzzle's blocks and the program can be
checked.

Example:
  playground tui
  playground tui daily`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return runPlaygroundTUI(cmd, args)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	puzzles, err := loadPuzzles(cfg)
	if err != nil {
		return err
	}

	var p *engine.Puzzle
	var ok bool
	if args[0] == "daily" {
		p, ok = puzzles.Daily(time.Now())
	} else {
		p, ok = puzzles.Get(args[0])
	}
	if !ok {
		return fmt.Errorf("unknown puzzle %q", args[0])
	}

	tracker, closeStore, err := openTracker(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	tracker.SetDaily(puzzles.Daily)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sess := engine.NewPuzzleSession(p, tracker.PuzzleReward(p.ID))
	return tui.Run(tui.NewPuzzle(ctx, sess, localeOf(cfg)).WithClaimCheck(tracker.CanClaim))
}
