package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/ScratchyEngine/internal/engine"
	"github.com/AaronLay10/ScratchyEngine/internal/render"
)

var checkCmd = &cobra.Command{
	Use:   "check <puzzle-id> <block-id>...",
	Short: "Check a program against a puzzle",
	Long: `Compose a program for a puzzle and check it. A correct program earns
the puzzle's coins the first time; the daily challenge pays once a day.

Example:
  playground check dc_1 move turn`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	puzzles, err := loadPuzzles(cfg)
	if err != nil {
		return err
	}
	p, ok := puzzles.Get(args[0])
	if !ok {
		return fmt.Errorf("unknown puzzle %q", args[0])
	}
	tracker, closeStore, err := openTracker(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	tracker.SetDaily(puzzles.Daily)

	eligible := tracker.CanClaim(p.ID)
	sess := engine.NewPuzzleSession(p, tracker.PuzzleReward(p.ID))
	for _, id := range args[1:] {
		d, ok := p.Catalog.Lookup(id)
		if !ok {
			return fmt.Errorf("block %q is not in puzzle %s", id, p.ID)
		}
		sess.Surface().Append(d)
	}

	locale := localeOf(cfg)
	correct := sess.Check()
	fmt.Println(render.TitleStyle.Render(p.TitleFor(locale)))
	fmt.Println(render.Program(sess.Surface().Instances(), locale, -1))
	fmt.Println(render.Verdict(correct, true))
	switch {
	case correct && eligible:
		fmt.Printf("+%d coins, %d total\n", p.CoinsReward, tracker.Snapshot().Coins)
	case correct:
		fmt.Printf("coins already earned, %d total\n", tracker.Snapshot().Coins)
	}
	return nil
}
