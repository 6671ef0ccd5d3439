package mqtt

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/AaronLay10/ScratchyEngine/internal/sprite"
)

// StageMessage is the retained stage update for remote displays.
type StageMessage struct {
	State sprite.State `json:"state"`
	Frame sprite.Frame `json:"frame"`
}

// StagePublisher mirrors sprite state to a retained topic. Register
// Observe with sprite.Stage.Observe.
type StagePublisher struct {
	pub   Publisher
	topic string

	mu          sync.Mutex
	errorLogged bool
}

func NewStagePublisher(pub Publisher, topic string) *StagePublisher {
	return &StagePublisher{pub: pub, topic: topic}
}

// Observe publishes s. Updates while disconnected are dropped; the next
// one after reconnect carries the full state.
func (p *StagePublisher) Observe(s sprite.State) {
	if !p.pub.IsConnected() {
		return
	}
	b, err := json.Marshal(StageMessage{State: s, Frame: sprite.FrameOf(s)})
	if err != nil {
		return
	}
	if err := p.pub.Publish(p.topic, true, b); err != nil {
		p.mu.Lock()
		first := !p.errorLogged
		p.errorLogged = true
		p.mu.Unlock()
		if first {
			log.Printf("mqtt: stage publish to %s failed: %v", p.topic, err)
		}
		return
	}

	p.mu.Lock()
	p.errorLogged = false
	p.mu.Unlock()
}
