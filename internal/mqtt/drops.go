package mqtt

import (
	"log"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// Subscriber is the part of Client remote drops need.
type Subscriber interface {
	Subscribe(topic string, handler paho.MessageHandler) error
}

// DropFunc accepts a raw drag payload and reports whether it was appended.
type DropFunc func(payload []byte) bool

// SubscribeDrops feeds drag payloads published on topic to drop, so an
// external block palette (a tablet, a physical card reader) can build the
// program.
func SubscribeDrops(sub Subscriber, topic string, drop DropFunc) error {
	return sub.Subscribe(topic, dropHandler(drop))
}

// ConnectNotifier is a Subscriber that reports (re)connects; Client is one.
type ConnectNotifier interface {
	Subscriber
	OnConnect(fn func())
}

// KeepDropsSubscribed subscribes to topic on every connect, so remote
// drops survive a broker that is down at startup or restarts later.
func KeepDropsSubscribed(c ConnectNotifier, topic string, drop DropFunc) {
	c.OnConnect(func() {
		if err := SubscribeDrops(c, topic, drop); err != nil {
			log.Printf("mqtt: subscribe %s: %v", topic, err)
			return
		}
		log.Printf("mqtt: subscribed to %s", topic)
	})
}

func dropHandler(drop DropFunc) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		drop(msg.Payload())
	}
}
