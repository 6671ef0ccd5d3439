// Package sprite models the on-stage character driven by block execution.
package sprite

// MaxSize is the upper bound change-size effects clamp to.
const MaxSize = 200

// State is the complete sprite state. Every update replaces the whole value.
type State struct {
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Rotation int    `json:"rotation"`
	Size     int    `json:"size"`
	Visible  bool   `json:"visible"`
	Saying   string `json:"saying"`
}

// Default returns the state a run starts from.
func Default() State {
	return State{Size: 100, Visible: true}
}

// Fields returns the state as event fields.
func (s State) Fields() map[string]interface{} {
	return map[string]interface{}{
		"x":        s.X,
		"y":        s.Y,
		"rotation": s.Rotation,
		"size":     s.Size,
		"visible":  s.Visible,
		"saying":   s.Saying,
	}
}
