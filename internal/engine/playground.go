package engine

import (
	"context"

	"github.com/AaronLay10/ScratchyEngine/internal/blocks"
	"github.com/AaronLay10/ScratchyEngine/internal/composition"
	"github.com/AaronLay10/ScratchyEngine/internal/events"
	"github.com/AaronLay10/ScratchyEngine/internal/sprite"
)

// Playground is the free-run workspace: a palette, a program, a stage and
// the runner that animates it.
type Playground struct {
	Catalog *blocks.Catalog
	Surface *composition.Surface
	Stage   *sprite.Stage
	Runner  *Runner
}

// NewPlayground wires a fresh surface and stage to a runner.
func NewPlayground(catalog *blocks.Catalog, opts ...RunnerOption) *Playground {
	stage := sprite.NewStage()
	p := &Playground{
		Catalog: catalog,
		Surface: composition.NewSurface("playground"),
		Stage:   stage,
		Runner:  NewRunner(stage, opts...),
	}

	stage.Observe(func(s sprite.State) {
		events.Emit("debug", "sprite.updated", "", s.Fields())
	})
	p.Surface.OnChange(func(c composition.Change) {
		if c.Kind == composition.ChangeClear {
			p.Runner.Stop()
			p.Stage.Reset()
			events.Emit("info", "sprite.reset", "", nil)
		}
	})
	return p
}

// Run toggles a run of the current program.
func (p *Playground) Run(ctx context.Context) Result {
	return p.Runner.Run(ctx, p.Surface.IDs())
}

// Toggle starts the current program in the background, or stops the
// active run.
func (p *Playground) Toggle(ctx context.Context, done func(Result)) bool {
	return p.Runner.Toggle(ctx, p.Surface.IDs(), done)
}

// Clear empties the program and resets the sprite.
func (p *Playground) Clear() {
	p.Surface.Clear()
}
