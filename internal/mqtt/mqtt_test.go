package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/AaronLay10/ScratchyEngine/internal/sprite"
)

type published struct {
	topic    string
	retained bool
	payload  []byte
}

// MockPublisher records publishes instead of talking to a broker.
type MockPublisher struct {
	mu        sync.Mutex
	connected bool
	err       error
	sent      []published
}

func (m *MockPublisher) Publish(topic string, retained bool, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, published{topic, retained, payload})
	return nil
}

func (m *MockPublisher) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

type MockSubscriber struct {
	subscriptions map[string]paho.MessageHandler
	calls         int
	err           error
	hooks         []func()
}

func (m *MockSubscriber) Subscribe(topic string, handler paho.MessageHandler) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.subscriptions[topic] = handler
	return nil
}

func (m *MockSubscriber) OnConnect(fn func()) {
	m.hooks = append(m.hooks, fn)
}

// connect simulates the broker (re)accepting the client.
func (m *MockSubscriber) connect() {
	for _, fn := range m.hooks {
		fn()
	}
}

type mockMessage struct {
	topic   string
	payload []byte
}

func (m *mockMessage) Duplicate() bool   { return false }
func (m *mockMessage) Qos() byte         { return 1 }
func (m *mockMessage) Retained() bool    { return false }
func (m *mockMessage) Topic() string     { return m.topic }
func (m *mockMessage) MessageID() uint16 { return 1 }
func (m *mockMessage) Payload() []byte   { return m.payload }
func (m *mockMessage) Ack()              {}

func TestBrokerURL(t *testing.T) {
	t.Setenv("MQTT_URL", "")
	if got := BrokerURL(); got != "tcp://localhost:1883" {
		t.Errorf("expected default broker, got %s", got)
	}
	t.Setenv("MQTT_URL", "tcp://mqtt:1883")
	if got := BrokerURL(); got != "tcp://mqtt:1883" {
		t.Errorf("expected env broker, got %s", got)
	}
	if got := NewClient("", "test").Broker(); got != "tcp://mqtt:1883" {
		t.Errorf("expected client to fall back to env broker, got %s", got)
	}
}

func TestSpeakerPublishesUtterance(t *testing.T) {
	pub := &MockPublisher{connected: true}
	s := NewSpeaker(pub, "scratchy/default/speech", "ar")

	if err := s.Speak("Hello!"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.sent) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(pub.sent))
	}
	msg := pub.sent[0]
	if msg.topic != "scratchy/default/speech" || msg.retained {
		t.Errorf("unexpected publish %s retained=%v", msg.topic, msg.retained)
	}

	var u Utterance
	if err := json.Unmarshal(msg.payload, &u); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if u.Text != "Hello!" || u.Lang != "ar" || u.TS == "" {
		t.Errorf("unexpected utterance %+v", u)
	}
}

func TestSpeakerDisconnected(t *testing.T) {
	s := NewSpeaker(&MockPublisher{}, "t", "")
	if err := s.Speak("Hmm..."); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}

func TestStagePublisher(t *testing.T) {
	pub := &MockPublisher{connected: true}
	sp := NewStagePublisher(pub, "scratchy/default/stage")

	st := sprite.Default()
	st.X = 40
	sp.Observe(st)

	if len(pub.sent) != 1 || !pub.sent[0].retained {
		t.Fatalf("expected one retained publish, got %+v", pub.sent)
	}
	var m StageMessage
	if err := json.Unmarshal(pub.sent[0].payload, &m); err != nil {
		t.Fatalf("bad payload: %v", err)
	}
	if m.State.X != 40 || m.Frame.LeftPct != 60 {
		t.Errorf("unexpected stage message %+v", m)
	}

	pub.connected = false
	sp.Observe(st)
	if len(pub.sent) != 1 {
		t.Error("expected no publish while disconnected")
	}

	pub.connected = true
	pub.err = errors.New("broker gone")
	sp.Observe(st)
	sp.Observe(st)
	if !sp.errorLogged {
		t.Error("expected publish failure to be recorded")
	}
}

func TestSubscribeDrops(t *testing.T) {
	sub := &MockSubscriber{subscriptions: map[string]paho.MessageHandler{}}
	var got [][]byte
	err := SubscribeDrops(sub, "scratchy/default/drop", func(p []byte) bool {
		got = append(got, p)
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h, ok := sub.subscriptions["scratchy/default/drop"]
	if !ok {
		t.Fatal("expected subscription on drop topic")
	}
	h(nil, &mockMessage{topic: "scratchy/default/drop", payload: []byte(`{"id":"move_10"}`)})

	if len(got) != 1 || string(got[0]) != `{"id":"move_10"}` {
		t.Errorf("expected payload forwarded, got %q", got)
	}
}

func TestKeepDropsSubscribedAcrossReconnects(t *testing.T) {
	// broker down at startup
	sub := &MockSubscriber{subscriptions: map[string]paho.MessageHandler{}}
	drops := 0
	KeepDropsSubscribed(sub, "scratchy/default/drop", func([]byte) bool {
		drops++
		return true
	})
	if sub.calls != 0 {
		t.Fatalf("expected no subscribe before connect, got %d", sub.calls)
	}

	sub.connect()
	if _, ok := sub.subscriptions["scratchy/default/drop"]; !ok {
		t.Fatal("expected subscription after first connect")
	}

	// broker restart: clean session lost the subscription
	delete(sub.subscriptions, "scratchy/default/drop")
	sub.err = errors.New("not connected")
	sub.connect()
	sub.err = nil
	sub.connect()

	h, ok := sub.subscriptions["scratchy/default/drop"]
	if !ok {
		t.Fatal("expected subscription restored after reconnect")
	}
	if sub.calls != 3 {
		t.Errorf("expected a subscribe per connect, got %d", sub.calls)
	}
	h(nil, &mockMessage{topic: "scratchy/default/drop", payload: []byte(`{"id":"say_hello"}`)})
	if drops != 1 {
		t.Errorf("expected drop delivered, got %d", drops)
	}
}

func TestClientRunsConnectHooks(t *testing.T) {
	c := NewClient("tcp://localhost:1", "test")
	n := 0
	c.OnConnect(func() { n++ })
	c.OnConnect(func() { n += 10 })

	c.handleConnect(nil)
	c.handleConnect(nil)
	if n != 22 {
		t.Errorf("expected both hooks on every connect, got %d", n)
	}
}
