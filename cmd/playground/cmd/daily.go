package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/ScratchyEngine/internal/engine"
	"github.com/AaronLay10/ScratchyEngine/internal/render"
)

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Show today's challenge",
	Args:  cobra.NoArgs,
	RunE:  runDaily,
}

func init() {
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	puzzles, err := loadPuzzles(cfg)
	if err != nil {
		return err
	}
	now := time.Now()
	p, ok := puzzles.Daily(now)
	if !ok {
		return fmt.Errorf("no puzzles configured")
	}

	locale := localeOf(cfg)
	ids := make([]string, 0, p.Catalog.Len())
	for _, d := range p.Catalog.All() {
		ids = append(ids, d.ID)
	}

	fmt.Println(render.TitleStyle.Render(p.TitleFor(locale)))
	if d := p.DescriptionFor(locale); d != "" {
		fmt.Println(d)
	}
	fmt.Printf("date:   %s\n", engine.DayKey(now))
	fmt.Printf("id:     %s\n", p.ID)
	fmt.Printf("coins:  %d\n", p.CoinsReward)
	fmt.Printf("blocks: %s\n", strings.Join(ids, " "))
	if j := p.JokeFor(locale); j != "" {
		fmt.Printf("\njoke of the day: %s\n", j)
	}
	fmt.Printf("\nplayground check %s <block-id>...\n", p.ID)
	return nil
}
