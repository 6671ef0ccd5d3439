package engine

import (
	"context"
	"time"
)

// Speaker narrates speech-bubble text. Implementations live outside the
// engine (MQTT, a TTS service).
type Speaker interface {
	Speak(text string) error
}

// RewardFunc receives coins earned by a solved puzzle or a completed run.
type RewardFunc func(coins int)

// Sleeper suspends for d. It returns early only when ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// TimerSleep is the wall-clock Sleeper.
func TimerSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
