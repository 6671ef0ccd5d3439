package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/AaronLay10/ScratchyEngine/internal/blocks"
	"github.com/AaronLay10/ScratchyEngine/internal/composition"
	"github.com/AaronLay10/ScratchyEngine/internal/events"
)

// Puzzle is a fixed target program over a catalog subset.
type Puzzle struct {
	ID            string
	Title         string
	TitleAr       string
	Description   string
	DescriptionAr string
	Joke          string
	JokeAr        string
	Catalog       *blocks.Catalog
	Solution      []string
	CoinsReward   int
}

// Validate checks the puzzle is solvable with its own catalog.
func (p *Puzzle) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("puzzle: empty id")
	}
	if p.Catalog == nil {
		return fmt.Errorf("puzzle %s: no catalog", p.ID)
	}
	if len(p.Solution) == 0 {
		return fmt.Errorf("puzzle %s: empty solution", p.ID)
	}
	for _, id := range p.Solution {
		if _, ok := p.Catalog.Lookup(id); !ok {
			return fmt.Errorf("puzzle %s: solution block %s not in catalog %s", p.ID, id, p.Catalog.Name())
		}
	}
	if p.CoinsReward < 0 {
		return fmt.Errorf("puzzle %s: negative coins reward", p.ID)
	}
	return nil
}

// TitleFor returns the title in locale, falling back to English.
func (p *Puzzle) TitleFor(locale blocks.Locale) string {
	if locale == blocks.Arabic && p.TitleAr != "" {
		return p.TitleAr
	}
	if p.Title == "" {
		return "Solve the Puzzle!"
	}
	return p.Title
}

// DescriptionFor returns the description in locale, falling back to
// English.
func (p *Puzzle) DescriptionFor(locale blocks.Locale) string {
	return localized(locale, p.Description, p.DescriptionAr)
}

// JokeFor returns the joke of the day in locale, falling back to English.
func (p *Puzzle) JokeFor(locale blocks.Locale) string {
	return localized(locale, p.Joke, p.JokeAr)
}

func localized(locale blocks.Locale, en, ar string) string {
	if locale == blocks.Arabic && ar != "" {
		return ar
	}
	return en
}

// Matches reports whether a composition equals the solution: same length,
// same ids, same order.
func Matches(composition, solution []string) bool {
	if len(composition) != len(solution) {
		return false
	}
	for i := range composition {
		if composition[i] != solution[i] {
			return false
		}
	}
	return true
}

// PuzzleSession is one learner's attempt at a puzzle.
type PuzzleSession struct {
	puzzle  *Puzzle
	surface *composition.Surface
	reward  RewardFunc

	mu       sync.Mutex
	checked  bool
	correct  bool
	rewarded bool
}

// NewPuzzleSession opens a session with an empty composition.
func NewPuzzleSession(p *Puzzle, reward RewardFunc) *PuzzleSession {
	s := &PuzzleSession{
		puzzle:  p,
		surface: composition.NewSurface("puzzle:" + p.ID),
		reward:  reward,
	}
	s.surface.OnChange(func(composition.Change) { s.resetVerdict() })

	events.Emit("info", "puzzle.opened", "", map[string]interface{}{
		"puzzle_id": p.ID,
	})
	return s
}

// Puzzle returns the puzzle being attempted.
func (s *PuzzleSession) Puzzle() *Puzzle { return s.puzzle }

// Surface returns the session's composition.
func (s *PuzzleSession) Surface() *composition.Surface { return s.surface }

// Check compares the composition with the solution and records the
// verdict. The reward is offered only when the verdict turns correct:
// checking an unchanged, already correct composition again pays nothing.
func (s *PuzzleSession) Check() bool {
	ids := s.surface.IDs()
	ok := Matches(ids, s.puzzle.Solution)

	s.mu.Lock()
	pay := ok && !(s.checked && s.correct)
	s.checked = true
	s.correct = ok
	s.rewarded = pay
	s.mu.Unlock()

	if !ok {
		events.Emit("info", "puzzle.failed", "", map[string]interface{}{
			"puzzle_id": s.puzzle.ID,
			"blocks":    len(ids),
		})
		return false
	}

	events.Emit("info", "puzzle.solved", "", map[string]interface{}{
		"puzzle_id": s.puzzle.ID,
		"coins":     s.puzzle.CoinsReward,
	})
	if pay && s.reward != nil {
		s.reward(s.puzzle.CoinsReward)
	}
	return true
}

// Rewarded reports whether the last Check offered the reward.
func (s *PuzzleSession) Rewarded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewarded
}

// Verdict returns the last check result; checked is false when the
// composition changed since, or no check has run.
func (s *PuzzleSession) Verdict() (correct, checked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.correct, s.checked
}

func (s *PuzzleSession) resetVerdict() {
	s.mu.Lock()
	was := s.checked
	s.checked = false
	s.correct = false
	s.rewarded = false
	s.mu.Unlock()

	if was {
		events.Emit("info", "puzzle.reset", "", map[string]interface{}{
			"puzzle_id": s.puzzle.ID,
		})
	}
}

// PuzzleSet is the ordered list of configured puzzles.
type PuzzleSet struct {
	puzzles []*Puzzle
	byID    map[string]*Puzzle
}

// NewPuzzleSet validates and indexes puzzles.
func NewPuzzleSet(puzzles ...*Puzzle) (*PuzzleSet, error) {
	set := &PuzzleSet{byID: make(map[string]*Puzzle, len(puzzles))}
	for _, p := range puzzles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := set.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate puzzle id %s", p.ID)
		}
		set.byID[p.ID] = p
		set.puzzles = append(set.puzzles, p)
	}
	return set, nil
}

// Get returns a puzzle by id.
func (ps *PuzzleSet) Get(id string) (*Puzzle, bool) {
	p, ok := ps.byID[id]
	return p, ok
}

// All returns the puzzles in configuration order.
func (ps *PuzzleSet) All() []*Puzzle {
	return append([]*Puzzle(nil), ps.puzzles...)
}

// Daily returns the challenge for the day containing t: the puzzles rotate
// by day of year.
func (ps *PuzzleSet) Daily(t time.Time) (*Puzzle, bool) {
	if len(ps.puzzles) == 0 {
		return nil, false
	}
	return ps.puzzles[t.YearDay()%len(ps.puzzles)], true
}
