package mqtt

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotConnected is returned when publishing without a broker connection.
var ErrNotConnected = errors.New("mqtt not connected")

// Publisher is the part of Client the playground adapters need.
type Publisher interface {
	Publish(topic string, retained bool, payload []byte) error
	IsConnected() bool
}

// Utterance is the speech message a TTS device consumes.
type Utterance struct {
	Text string `json:"text"`
	Lang string `json:"lang"`
	TS   string `json:"ts"`
}

// Speaker forwards speech bubbles to a text-to-speech device over MQTT.
type Speaker struct {
	pub   Publisher
	topic string
	lang  string
}

// NewSpeaker publishes utterances in lang ("en", "ar") to topic.
func NewSpeaker(pub Publisher, topic, lang string) *Speaker {
	if lang == "" {
		lang = "en"
	}
	return &Speaker{pub: pub, topic: topic, lang: lang}
}

// Speak publishes text. Failures are returned for the caller to report;
// they never stop a run.
func (s *Speaker) Speak(text string) error {
	if !s.pub.IsConnected() {
		return ErrNotConnected
	}
	b, err := json.Marshal(Utterance{
		Text: text,
		Lang: s.lang,
		TS:   time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	return s.pub.Publish(s.topic, false, b)
}
