// Package notify provides the real-time notification bus (SPEC_FULL.md
// §4.9): per-session state transitions fan out to live subscribers. The bus
// holds a watermill in-process gochannel (closed with the bus), but delivery
// runs through its own per-subscriber channels, adapted from the teacher's
// internal/event/bus.go direct-subscriber-callback bus.
//
// Per the redesign flag in spec.md §9 ("Broadcast via clients.forEach(send)"
// -> "a fan-out task per subscriber with a bounded send queue"), each
// subscriber gets its own goroutine draining a bounded channel; a publish
// that finds a subscriber's channel full drops that subscriber's copy of
// the event and logs a warning, rather than blocking the publisher.
package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/opencode-ai/mcp-gateway/internal/logging"
)

// EventType identifies the kind of notification payload.
type EventType string

const (
	SessionCreated     EventType = "session.created"
	SessionUpdated     EventType = "session.updated"
	SessionDeleted     EventType = "session.deleted"
	ActivityAppended   EventType = "session.activity"
	ApprovalRequired   EventType = "approval.required"
	ApprovalResolved   EventType = "approval.resolved"
	BatchUpdated       EventType = "batch.updated"
	QueueItemUpdated   EventType = "queue.updated"
	ConfigChanged      EventType = "config.changed"
)

// Event is one notification payload.
type Event struct {
	Type      EventType `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// sendQueueDepth bounds the per-subscriber fan-out channel.
const sendQueueDepth = 32

// subscriberEntry is one live fan-out task.
type subscriberEntry struct {
	id     uint64
	ch     chan Event
	stopCh chan struct{}
	cb     func(Event)
}

func newSubscriberEntry(id uint64, cb func(Event)) *subscriberEntry {
	e := &subscriberEntry{id: id, ch: make(chan Event, sendQueueDepth), stopCh: make(chan struct{}), cb: cb}
	go func() {
		for {
			select {
			case evt := <-e.ch:
				cb(evt)
			case <-e.stopCh:
				return
			}
		}
	}()
	return e
}

func (e *subscriberEntry) send(evt Event) {
	select {
	case e.ch <- evt:
	default:
		logging.Warn().Uint64("subscriberID", e.id).Msg("notify: send queue full, dropping event for subscriber")
	}
}

func (e *subscriberEntry) stop() {
	close(e.stopCh)
}

// Bus is the notification bus.
type Bus struct {
	mu sync.RWMutex

	pubsub *gochannel.GoChannel

	subscribers map[EventType][]*subscriberEntry
	global      []*subscriberEntry

	nextID uint64
	closed bool
}

var globalBus = newBus()

func newBus() *Bus {
	return &Bus{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 100, Persistent: false},
			watermill.NopLogger{},
		),
		subscribers: make(map[EventType][]*subscriberEntry),
	}
}

// NewBus creates an independent bus instance (used by tests).
func NewBus() *Bus { return newBus() }

func (b *Bus) newID() uint64 { return atomic.AddUint64(&b.nextID, 1) }

// Subscribe registers a callback for one event type. Returns an unsubscribe func.
func Subscribe(eventType EventType, fn func(Event)) func() { return globalBus.Subscribe(eventType, fn) }

func (b *Bus) Subscribe(eventType EventType, fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	entry := newSubscriberEntry(b.newID(), fn)
	b.subscribers[eventType] = append(b.subscribers[eventType], entry)
	return func() { b.unsubscribe(eventType, entry) }
}

// SubscribeAll registers a callback for every event type.
func SubscribeAll(fn func(Event)) func() { return globalBus.SubscribeAll(fn) }

func (b *Bus) SubscribeAll(fn func(Event)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return func() {}
	}
	entry := newSubscriberEntry(b.newID(), fn)
	b.global = append(b.global, entry)
	return func() { b.unsubscribeGlobal(entry) }
}

func (b *Bus) unsubscribe(eventType EventType, target *subscriberEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subscribers[eventType]
	for i, entry := range subs {
		if entry == target {
			b.subscribers[eventType] = append(subs[:i], subs[i+1:]...)
			entry.stop()
			break
		}
	}
}

func (b *Bus) unsubscribeGlobal(target *subscriberEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, entry := range b.global {
		if entry == target {
			b.global = append(b.global[:i], b.global[i+1:]...)
			entry.stop()
			break
		}
	}
}

// Publish fans an event out to all currently-alive subscribers. Per-subscriber
// delivery order is preserved (the per-subscriber goroutine drains its own
// channel in order); order across subscribers is not guaranteed.
func Publish(event Event) { globalBus.Publish(event) }

func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, entry := range b.subscribers[event.Type] {
		entry.send(event)
	}
	for _, entry := range b.global {
		entry.send(event)
	}
}

// PublishSync delivers synchronously in the caller's goroutine, bypassing
// the bounded queues. Used by tests that need delivery to have completed
// before asserting.
func PublishSync(event Event) { globalBus.PublishSync(event) }

func (b *Bus) PublishSync(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	b.mu.RLock()
	subs := make([]*subscriberEntry, 0, len(b.subscribers[event.Type])+len(b.global))
	subs = append(subs, b.subscribers[event.Type]...)
	subs = append(subs, b.global...)
	b.mu.RUnlock()
	for _, entry := range subs {
		entry.cb(event)
	}
}

// Reset tears down and replaces the global bus. For tests only.
func Reset() {
	globalBus.Close()
	globalBus = newBus()
}

// Close stops all subscriber fan-out tasks and the underlying pubsub.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	for _, entries := range b.subscribers {
		for _, e := range entries {
			e.stop()
		}
	}
	for _, e := range b.global {
		e.stop()
	}
	b.subscribers = make(map[EventType][]*subscriberEntry)
	b.global = nil
	b.mu.Unlock()
	return b.pubsub.Close()
}
