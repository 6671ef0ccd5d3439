package engine

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AaronLay10/ScratchyEngine/internal/events"
	"github.com/AaronLay10/ScratchyEngine/internal/sprite"
)

// Status is how a call to Run ended.
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusStopped    Status = "stopped"
	StatusToggledOff Status = "toggled_off"
)

// Result summarises a call to Run.
type Result struct {
	Status       Status       `json:"status"`
	StepsApplied int          `json:"steps_applied"`
	Final        sprite.State `json:"final"`
}

// Runner executes programs against a stage, one run at a time.
type Runner struct {
	stage   *sprite.Stage
	sleep   Sleeper
	rng     *rand.Rand
	speaker Speaker

	reward          RewardFunc
	completionCoins int

	mu      sync.Mutex
	active  bool
	running atomic.Bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithSleeper replaces the wall-clock hold.
func WithSleeper(s Sleeper) RunnerOption {
	return func(r *Runner) { r.sleep = s }
}

// WithRand sets the source used by goto_random.
func WithRand(rng *rand.Rand) RunnerOption {
	return func(r *Runner) { r.rng = rng }
}

// WithSpeaker narrates say blocks.
func WithSpeaker(s Speaker) RunnerOption {
	return func(r *Runner) { r.speaker = s }
}

// WithReward pays coins to fn whenever a non-empty program runs to the end.
func WithReward(coins int, fn RewardFunc) RunnerOption {
	return func(r *Runner) {
		r.completionCoins = coins
		r.reward = fn
	}
}

// NewRunner returns a runner writing to stage.
func NewRunner(stage *sprite.Stage, opts ...RunnerOption) *Runner {
	seed := uint64(time.Now().UnixNano())
	r := &Runner{
		stage: stage,
		sleep: TimerSleep,
		rng:   rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Running reports whether a run is in progress and has not been asked to
// stop.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Stop asks the current run to finish after its in-flight step.
func (r *Runner) Stop() {
	r.running.Store(false)
}

// Run executes program from the default sprite state. It blocks until the
// run completes or is stopped. Calling Run while a run is active stops that
// run and returns StatusToggledOff without starting a new one.
//
// The running flag is checked only between steps: a hold in progress always
// elapses before a stop takes effect. Cancelling ctx ends the run at the
// current hold.
func (r *Runner) Run(ctx context.Context, program []string) Result {
	if !r.begin() {
		return Result{Status: StatusToggledOff, Final: r.stage.Snapshot()}
	}
	return r.execute(ctx, program)
}

// Toggle is the non-blocking Run: it starts program in the background and
// returns true, or stops the active run and returns false. done, if set,
// receives the started run's result.
func (r *Runner) Toggle(ctx context.Context, program []string, done func(Result)) bool {
	if !r.begin() {
		return false
	}
	go func() {
		res := r.execute(ctx, program)
		if done != nil {
			done(res)
		}
	}()
	return true
}

// Active reports whether a run holds the runner, including one that was
// asked to stop and is finishing its current hold.
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *Runner) begin() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		r.running.Store(false)
		return false
	}
	r.active = true
	r.running.Store(true)
	return true
}

func (r *Runner) execute(ctx context.Context, program []string) Result {
	defer func() {
		r.mu.Lock()
		r.active = false
		r.running.Store(false)
		r.mu.Unlock()
	}()

	r.stage.Reset()
	events.Emit("info", "run.started", "", map[string]interface{}{
		"steps": len(program),
	})

	status := StatusCompleted
	applied := 0
	for i, id := range program {
		if !r.running.Load() || ctx.Err() != nil {
			status = StatusStopped
			break
		}

		err := r.step(ctx, i, id)
		applied++
		if err != nil {
			status = StatusStopped
			break
		}
	}

	final := r.stage.Snapshot()
	fields := map[string]interface{}{
		"steps":   len(program),
		"applied": applied,
	}
	if status == StatusCompleted {
		events.Emit("info", "run.completed", "", fields)
		if r.reward != nil && r.completionCoins > 0 && len(program) > 0 {
			r.reward(r.completionCoins)
		}
	} else {
		events.Emit("info", "run.stopped", "", fields)
	}

	return Result{Status: status, StepsApplied: applied, Final: final}
}

// step applies one block and waits out its hold. After runs even when ctx
// ends the hold early so no bubble is left behind.
func (r *Runner) step(ctx context.Context, index int, id string) error {
	eff := EffectFor(id)

	st := r.stage.Apply(func(s sprite.State) sprite.State {
		return eff.Apply(s, r.rng)
	})

	events.Emit("info", "run.step", "", map[string]interface{}{
		"index":       index,
		"block_id":    id,
		"hold_ms":     eff.Hold.Milliseconds(),
		"interpreted": Interpreted(id),
		"sprite":      st.Fields(),
	})

	if eff.Say != "" && r.speaker != nil {
		if err := r.speaker.Speak(eff.Say); err != nil {
			events.Emit("warn", "speech.failed", err.Error(), map[string]interface{}{
				"block_id": id,
			})
		}
	}

	err := r.sleep(ctx, eff.Hold)
	if eff.After != nil {
		r.stage.Apply(eff.After)
	}
	return err
}
