package events

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

var buffer = NewRingBuffer(256)

var totalCount atomic.Int64

// Sink persists emitted events. The Postgres client implements it.
type Sink interface {
	Append(ts time.Time, level, event, msg string, fields map[string]interface{}, sessionID string) error
}

// sinkQueueSize bounds events waiting for the store. Emit never blocks on
// the store; when the queue is full the event is kept in memory only.
const sinkQueueSize = 1024

type sinkRecord struct {
	ts     time.Time
	level  string
	name   string
	msg    string
	fields map[string]interface{}
}

// sinkWriter appends queued events to one store on its own goroutine.
type sinkWriter struct {
	store     Sink
	sessionID string
	queue     chan sinkRecord
	done      chan struct{}

	dropped   atomic.Int64
	errLogged bool
}

var (
	writer *sinkWriter
	sinkMu sync.RWMutex
)

// SetSink sets the store events are persisted to. A nil sink disables
// persistence. The previous store's queue is drained before SetSink
// returns. Debug-level events are never persisted.
func SetSink(s Sink, sessionID string) {
	var next *sinkWriter
	if s != nil {
		next = &sinkWriter{
			store:     s,
			sessionID: sessionID,
			queue:     make(chan sinkRecord, sinkQueueSize),
			done:      make(chan struct{}),
		}
		go next.run()
	}

	sinkMu.Lock()
	prev := writer
	writer = next
	sinkMu.Unlock()

	if prev != nil {
		close(prev.queue)
		<-prev.done
	}
}

// DroppedCount returns how many events the current store missed because
// its queue was full.
func DroppedCount() int64 {
	sinkMu.RLock()
	defer sinkMu.RUnlock()
	if writer == nil {
		return 0
	}
	return writer.dropped.Load()
}

func (w *sinkWriter) run() {
	defer close(w.done)
	for rec := range w.queue {
		err := w.store.Append(rec.ts, rec.level, rec.name, rec.msg, rec.fields, w.sessionID)
		if err == nil || w.errLogged {
			continue
		}
		w.errLogged = true
		// Straight into the buffer: going through Emit again would
		// queue more writes while the store keeps failing.
		buffer.Add(Event{
			Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
			Level:     "error",
			Name:      "system.error",
			Message:   "event store append failed",
			Fields: map[string]interface{}{
				"error": err.Error(),
			},
		})
	}
}

// enqueue must be called with sinkMu read-held so SetSink cannot close
// the queue underneath it.
func (w *sinkWriter) enqueue(rec sinkRecord) {
	select {
	case w.queue <- rec:
	default:
		if w.dropped.Add(1) == 1 {
			log.Printf("events: store queue full, dropping %s", rec.name)
		}
	}
}

type Event struct {
	Timestamp string                 `json:"ts"`
	Level     string                 `json:"level"`
	Name      string                 `json:"event"`
	Message   string                 `json:"msg,omitempty"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

func Emit(level, name, msg string, fields map[string]interface{}) ([]byte, error) {
	if err := Validate(name); err != nil {
		return nil, err
	}

	ts := time.Now().UTC()
	e := Event{
		Timestamp: ts.Format(time.RFC3339Nano),
		Level:     level,
		Name:      name,
		Message:   msg,
		Fields:    fields,
	}

	buffer.Add(e)
	totalCount.Add(1)
	broadcast(e)

	if level != "debug" {
		sinkMu.RLock()
		if writer != nil {
			writer.enqueue(sinkRecord{ts: ts, level: level, name: name, msg: msg, fields: fields})
		}
		sinkMu.RUnlock()
	}

	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event: %w", err)
	}
	return b, nil
}

func Snapshot() []Event {
	return buffer.Snapshot()
}

// TotalCount returns the number of events emitted since startup.
func TotalCount() int64 {
	return totalCount.Load()
}

// Clear resets the event buffer. Used for testing.
func Clear() {
	buffer.Clear()
}
