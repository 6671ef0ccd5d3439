package sprite

// Frame is the presentation of a state on a stage whose origin is the
// centre: positions are percentages of the stage box.
type Frame struct {
	LeftPct  float64 `json:"left_pct"`
	TopPct   float64 `json:"top_pct"`
	Rotation int     `json:"rotation"`
	Scale    float64 `json:"scale"`
	Visible  bool    `json:"visible"`
	Bubble   string  `json:"bubble,omitempty"`
}

// FrameOf maps a state to its frame. Rotation is normalised to [0,360)
// for display; the state itself keeps the accumulated value.
func FrameOf(s State) Frame {
	return Frame{
		LeftPct:  50 + float64(s.X)/4,
		TopPct:   50 - float64(s.Y)/4,
		Rotation: NormalizeRotation(s.Rotation),
		Scale:    float64(s.Size) / 100,
		Visible:  s.Visible,
		Bubble:   s.Saying,
	}
}

// NormalizeRotation folds degrees into [0,360).
func NormalizeRotation(deg int) int {
	r := deg % 360
	if r < 0 {
		r += 360
	}
	return r
}
