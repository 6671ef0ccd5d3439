package engine

import (
	"fmt"

	"github.com/AaronLay10/ScratchyEngine/internal/blocks"
	"github.com/AaronLay10/ScratchyEngine/internal/config"
)

// LoadPuzzleSet reads puzzles.yaml and builds the puzzle set.
func LoadPuzzleSet(path string) (*PuzzleSet, error) {
	cfg, err := config.LoadPuzzlesConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load puzzles: %w", err)
	}
	return PuzzlesFromConfig(cfg)
}

// PuzzlesFromConfig resolves each puzzle's catalog (and optional block
// subset) and validates the result.
func PuzzlesFromConfig(cfg *config.PuzzlesConfig) (*PuzzleSet, error) {
	puzzles := make([]*Puzzle, 0, len(cfg.Puzzles))
	for _, pc := range cfg.Puzzles {
		catalog, ok := blocks.ByName(pc.Catalog)
		if !ok {
			return nil, fmt.Errorf("puzzle %s: unknown catalog %q", pc.ID, pc.Catalog)
		}
		if len(pc.Blocks) > 0 {
			sub, err := catalog.Subset(pc.ID, pc.Blocks...)
			if err != nil {
				return nil, fmt.Errorf("puzzle %s: %w", pc.ID, err)
			}
			catalog = sub
		}

		puzzles = append(puzzles, &Puzzle{
			ID:            pc.ID,
			Title:         pc.Title,
			TitleAr:       pc.TitleAr,
			Description:   pc.Description,
			DescriptionAr: pc.DescriptionAr,
			Joke:          pc.Joke,
			JokeAr:        pc.JokeAr,
			Catalog:       catalog,
			Solution:      append([]string(nil), pc.Solution...),
			CoinsReward:   pc.CoinsReward,
		})
	}
	return NewPuzzleSet(puzzles...)
}
