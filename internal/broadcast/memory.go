package broadcast

import (
	"context"
	"sync"
)

type subscriber struct {
	topic string
	ch    chan Event
}

// Memory is an in-process hub. Publish does a non-blocking send to every
// subscriber of the topic; events are dropped per-subscriber when a buffer
// is full rather than blocking the scan pipeline.
type Memory struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*subscriber
}

// NewMemory creates an empty hub.
func NewMemory() *Memory {
	return &Memory{subs: make(map[int]*subscriber)}
}

// Publish delivers evt to every current subscriber of evt.Topic.
func (m *Memory) Publish(_ context.Context, evt Event) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sub := range m.subs {
		if sub.topic != evt.Topic {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
		}
	}
	return nil
}

// Subscribe registers an observer for topic.
func (m *Memory) Subscribe(topic string, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	sub := &subscriber{topic: topic, ch: make(chan Event, buffer)}

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = sub
	m.mu.Unlock()

	cancel := func() {
		m.mu.Lock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(sub.ch)
		}
		m.mu.Unlock()
	}
	return sub.ch, cancel
}

// SubscriberCount returns the number of active subscriptions.
func (m *Memory) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}
