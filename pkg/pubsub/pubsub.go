// Package pubsub fans analysis progress events out to in-process
// listeners: HTTP pollers waiting on fresh snapshots and the external
// broadcast bridge.
package pubsub

import (
	"context"
	"sync"

	"github.com/bionetlab/netcontrol/pkg/analysis"
)

// subscriptionBuffer is the per-subscriber channel depth; slow consumers
// drop events rather than stall the runner.
const subscriptionBuffer = 64

// Bus delivers progress snapshots keyed by analysis ID. The wildcard
// topic receives every event.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscription]struct{}
	closed      bool
}

// Wildcard subscribes to events from every analysis
const Wildcard = "*"

// Subscription is one listener's event stream
type Subscription struct {
	topic   string
	events  chan analysis.Snapshot
	bus     *Bus
	closeMu sync.Once
}

// NewBus creates an empty progress bus
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[string]map[*Subscription]struct{}),
	}
}

// Subscribe registers a listener for one analysis ID (or Wildcard).
// Returns nil after the bus is closed.
func (b *Bus) Subscribe(topic string) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	sub := &Subscription{
		topic:  topic,
		events: make(chan analysis.Snapshot, subscriptionBuffer),
		bus:    b,
	}
	if b.subscribers[topic] == nil {
		b.subscribers[topic] = make(map[*Subscription]struct{})
	}
	b.subscribers[topic][sub] = struct{}{}
	return sub
}

// Publish delivers a snapshot to subscribers of its analysis ID and to
// wildcard subscribers. Delivery is non-blocking: a full subscriber
// channel drops the event.
func (b *Bus) Publish(snap analysis.Snapshot) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return
	}
	subs := make([]*Subscription, 0, 4)
	for s := range b.subscribers[snap.ID] {
		subs = append(subs, s)
	}
	for s := range b.subscribers[Wildcard] {
		subs = append(subs, s)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		select {
		case sub.events <- snap:
		default:
		}
	}
}

// SubscriberCount returns the number of listeners on a topic
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers[topic])
}

// Close shuts the bus down and closes every subscriber channel
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for topic, subs := range b.subscribers {
		for sub := range subs {
			sub.closeChannel()
		}
		delete(b.subscribers, topic)
	}
}

// Sink adapts the bus to analysis.ProgressSink: snapshots are published,
// log entries are dropped (they live in the store).
func (b *Bus) Sink() analysis.ProgressSink {
	return busSink{bus: b}
}

type busSink struct {
	bus *Bus
}

func (s busSink) SaveProgress(ctx context.Context, snap analysis.Snapshot) error {
	s.bus.Publish(snap)
	return nil
}

func (s busSink) AppendLog(ctx context.Context, analysisID string, entry analysis.LogEntry) error {
	return nil
}

// Events returns the subscription's snapshot channel
func (s *Subscription) Events() <-chan analysis.Snapshot {
	return s.events
}

// Unsubscribe removes the listener and closes its channel
func (s *Subscription) Unsubscribe() {
	s.bus.mu.Lock()
	if subs := s.bus.subscribers[s.topic]; subs != nil {
		delete(subs, s)
		if len(subs) == 0 {
			delete(s.bus.subscribers, s.topic)
		}
	}
	s.bus.mu.Unlock()

	s.closeChannel()
}

func (s *Subscription) closeChannel() {
	s.closeMu.Do(func() { close(s.events) })
}
