package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/ScratchyEngine/internal/blocks"
	"github.com/AaronLay10/ScratchyEngine/internal/render"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog [playground|puzzles]",
	Short: "Show the block palette",
	Long: `Show every block of a catalog grouped by category, with its id.

Example:
  playground catalog
  playground catalog puzzles --lang ar`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	name := cfg.Playground.Catalog
	if len(args) == 1 {
		name = args[0]
	}
	c, ok := blocks.ByName(name)
	if !ok {
		return fmt.Errorf("unknown catalog %q", name)
	}

	locale := localeOf(cfg)
	fmt.Println(render.TitleStyle.Render(c.Name()))
	for _, g := range c.Groups() {
		fmt.Println(render.HeadingStyle.Render(g.Category.Label(locale)))
		for _, d := range g.Blocks {
			fmt.Printf("  %s %s\n", render.Chip(d, locale, false), render.HelpStyle.Render(d.ID))
		}
	}
	return nil
}
