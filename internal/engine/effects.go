package engine

import (
	"math/rand/v2"
	"time"

	"github.com/AaronLay10/ScratchyEngine/internal/sprite"
)

const (
	MoveStep    = 10
	TurnDegrees = 15
	SizeStep    = 10

	// goto_random lands in [-RandomXRange, RandomXRange) x [-RandomYRange, RandomYRange).
	RandomXRange = 100
	RandomYRange = 50
)

const (
	HoldMotion  = 200 * time.Millisecond
	HoldSay     = 1500 * time.Millisecond
	HoldToggle  = 100 * time.Millisecond
	HoldWait    = 1000 * time.Millisecond
	HoldDefault = 100 * time.Millisecond
)

// Effect is what one block does to the sprite. Apply runs first, then the
// hold elapses, then After (if set) runs.
type Effect struct {
	Apply func(sprite.State, *rand.Rand) sprite.State
	Hold  time.Duration
	Say   string
	After func(sprite.State) sprite.State
}

func unchanged(s sprite.State, _ *rand.Rand) sprite.State { return s }

func move(s sprite.State, _ *rand.Rand) sprite.State {
	s.X += MoveStep
	return s
}

func turn(deg int) func(sprite.State, *rand.Rand) sprite.State {
	return func(s sprite.State, _ *rand.Rand) sprite.State {
		s.Rotation += deg
		return s
	}
}

func gotoRandom(s sprite.State, rng *rand.Rand) sprite.State {
	s.X = rng.IntN(2*RandomXRange) - RandomXRange
	s.Y = rng.IntN(2*RandomYRange) - RandomYRange
	return s
}

func say(text string) Effect {
	return Effect{
		Apply: func(s sprite.State, _ *rand.Rand) sprite.State {
			s.Saying = text
			return s
		},
		Hold: HoldSay,
		Say:  text,
		After: func(s sprite.State) sprite.State {
			s.Saying = ""
			return s
		},
	}
}

func changeSize(s sprite.State, _ *rand.Rand) sprite.State {
	s.Size = min(sprite.MaxSize, s.Size+SizeStep)
	return s
}

func visible(v bool) func(sprite.State, *rand.Rand) sprite.State {
	return func(s sprite.State, _ *rand.Rand) sprite.State {
		s.Visible = v
		return s
	}
}

var (
	moveEffect  = Effect{Apply: move, Hold: HoldMotion}
	turnRight   = Effect{Apply: turn(TurnDegrees), Hold: HoldMotion}
	sayHello    = say("Hello!")
	waitEffect  = Effect{Apply: unchanged, Hold: HoldWait}
	inertEffect = Effect{Apply: unchanged, Hold: HoldDefault}
)

// Both catalogs resolve here; the puzzle ids share the playground families.
// Sound, event and control blocks other than wait have no interpreted
// semantics and fall through to inertEffect.
var effects = map[string]Effect{
	"move_10":     moveEffect,
	"move":        moveEffect,
	"turn_right":  turnRight,
	"turn":        turnRight,
	"turn_left":   {Apply: turn(-TurnDegrees), Hold: HoldMotion},
	"goto_random": {Apply: gotoRandom, Hold: HoldMotion},
	"say_hello":   sayHello,
	"say":         sayHello,
	"say_hmm":     say("Hmm..."),
	"change_size": {Apply: changeSize, Hold: HoldMotion},
	"show":        {Apply: visible(true), Hold: HoldToggle},
	"hide":        {Apply: visible(false), Hold: HoldToggle},
	"wait_1":      waitEffect,
	"wait":        waitEffect,
}

// EffectFor returns the effect for a block id. Unrecognised ids get a no-op
// with the default hold.
func EffectFor(id string) Effect {
	if e, ok := effects[id]; ok {
		return e
	}
	return inertEffect
}

// Interpreted reports whether id has an effect of its own.
func Interpreted(id string) bool {
	_, ok := effects[id]
	return ok
}
