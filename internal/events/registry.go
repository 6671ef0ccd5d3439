package events

import "fmt"

var allowedEvents = map[string]struct{}{
	// composition
	"block.dropped":       {},
	"block.rejected":      {},
	"block.removed":       {},
	"composition.cleared": {},

	// run
	"run.started":   {},
	"run.step":      {},
	"run.stopped":   {},
	"run.completed": {},

	// sprite
	"sprite.updated": {},
	"sprite.reset":   {},
	"speech.failed":  {},

	// puzzle
	"puzzle.opened": {},
	"puzzle.solved": {},
	"puzzle.failed": {},
	"puzzle.reset":  {},

	// reward
	"reward.granted":  {},
	"reward.declined": {},

	// system
	"system.startup":         {},
	"system.startup_restore": {},
	"system.shutdown":        {},
	"system.error":           {},
}

// Validate returns an error if event is not a known event name.
func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return fmt.Errorf("unknown event: %s", event)
	}
	return nil
}
