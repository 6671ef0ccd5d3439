// Package composition holds the ordered program a learner assembles by
// dropping blocks from a palette.
package composition

import (
	"sync"

	"github.com/google/uuid"

	"github.com/AaronLay10/ScratchyEngine/internal/blocks"
	"github.com/AaronLay10/ScratchyEngine/internal/events"
)

// ChangeKind identifies the mutation a Change reports.
type ChangeKind string

const (
	ChangeAppend ChangeKind = "append"
	ChangeRemove ChangeKind = "remove"
	ChangeClear  ChangeKind = "clear"
)

// Change describes a completed mutation.
type Change struct {
	Kind     ChangeKind
	Index    int
	Instance blocks.Instance
}

// Surface is the program area. Append, RemoveAt and Clear are the only
// mutators; placed blocks cannot be reordered.
type Surface struct {
	mu       sync.Mutex
	name     string
	items    []blocks.Instance
	newID    func(blockID string) string
	onChange []func(Change)
}

// Option configures a Surface.
type Option func(*Surface)

// WithIDGenerator overrides instance id generation.
func WithIDGenerator(fn func(blockID string) string) Option {
	return func(s *Surface) { s.newID = fn }
}

// NewSurface returns an empty surface. name tags emitted events.
func NewSurface(name string, opts ...Option) *Surface {
	s := &Surface{
		name:  name,
		newID: defaultInstanceID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func defaultInstanceID(blockID string) string {
	return blockID + "_" + uuid.NewString()
}

// OnChange registers fn to run after every successful mutation.
func (s *Surface) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Drop decodes a drag payload and appends it. A malformed payload leaves the
// composition unchanged and returns false.
func (s *Surface) Drop(payload []byte) (blocks.Instance, bool) {
	d, err := blocks.DecodePayload(payload)
	if err != nil {
		events.Emit("debug", "block.rejected", "", map[string]interface{}{
			"surface": s.name,
			"error":   err.Error(),
		})
		return blocks.Instance{}, false
	}
	return s.Append(d), true
}

// Append places a new instance of d at the end of the program.
func (s *Surface) Append(d blocks.Descriptor) blocks.Instance {
	s.mu.Lock()
	inst := blocks.Instance{Descriptor: d, InstanceID: s.newID(d.ID)}
	s.items = append(s.items, inst)
	index := len(s.items) - 1
	hooks := s.onChange
	s.mu.Unlock()

	events.Emit("info", "block.dropped", "", map[string]interface{}{
		"surface":     s.name,
		"block_id":    d.ID,
		"instance_id": inst.InstanceID,
		"index":       index,
	})
	fire(hooks, Change{Kind: ChangeAppend, Index: index, Instance: inst})
	return inst
}

// RemoveAt removes the instance at index. Out of range is a no-op.
func (s *Surface) RemoveAt(index int) bool {
	s.mu.Lock()
	if index < 0 || index >= len(s.items) {
		s.mu.Unlock()
		return false
	}
	removed := s.items[index]
	items := make([]blocks.Instance, 0, len(s.items)-1)
	items = append(items, s.items[:index]...)
	s.items = append(items, s.items[index+1:]...)
	hooks := s.onChange
	s.mu.Unlock()

	events.Emit("info", "block.removed", "", map[string]interface{}{
		"surface":     s.name,
		"block_id":    removed.ID,
		"instance_id": removed.InstanceID,
		"index":       index,
	})
	fire(hooks, Change{Kind: ChangeRemove, Index: index, Instance: removed})
	return true
}

// Clear empties the program.
func (s *Surface) Clear() {
	s.mu.Lock()
	n := len(s.items)
	s.items = nil
	hooks := s.onChange
	s.mu.Unlock()

	events.Emit("info", "composition.cleared", "", map[string]interface{}{
		"surface": s.name,
		"removed": n,
	})
	fire(hooks, Change{Kind: ChangeClear, Index: -1})
}

// IDs projects the program to its block ids in display order.
func (s *Surface) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.items))
	for i, it := range s.items {
		ids[i] = it.ID
	}
	return ids
}

// Instances returns a copy of the program.
func (s *Surface) Instances() []blocks.Instance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]blocks.Instance{}, s.items...)
}

// Len returns the number of placed blocks.
func (s *Surface) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func fire(hooks []func(Change), c Change) {
	for _, fn := range hooks {
		fn(c)
	}
}
