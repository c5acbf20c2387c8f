package broadcast

import (
	"context"
	"testing"
	"time"
)

func TestMemoryPublishSubscribe(t *testing.T) {
	m := NewMemory()
	ch, cancel := m.Subscribe(TopicPresence, 4)
	defer cancel()

	evt := Event{Topic: TopicPresence, Payload: []byte(`{"ok":true}`)}
	if err := m.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	select {
	case got := <-ch:
		if string(got.Payload) != `{"ok":true}` {
			t.Errorf("payload = %s", got.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestMemoryTopicIsolation(t *testing.T) {
	m := NewMemory()
	ch, cancel := m.Subscribe("other.topic", 4)
	defer cancel()

	m.Publish(context.Background(), Event{Topic: TopicPresence, Payload: []byte("x")})

	select {
	case evt := <-ch:
		t.Fatalf("received event for foreign topic: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMemoryNonBlockingPublish(t *testing.T) {
	m := NewMemory()
	ch, cancel := m.Subscribe(TopicPresence, 1)
	defer cancel()

	done := make(chan struct{})
	go func() {
		// Second publish overflows the buffer and must drop, not block.
		m.Publish(context.Background(), Event{Topic: TopicPresence, Payload: []byte("1")})
		m.Publish(context.Background(), Event{Topic: TopicPresence, Payload: []byte("2")})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}

	got := <-ch
	if string(got.Payload) != "1" {
		t.Errorf("kept payload = %s, want 1", got.Payload)
	}
}

func TestMemoryCancelStopsDelivery(t *testing.T) {
	m := NewMemory()
	ch, cancel := m.Subscribe(TopicPresence, 4)
	cancel()
	cancel() // idempotent

	if n := m.SubscriberCount(); n != 0 {
		t.Errorf("SubscriberCount = %d after cancel", n)
	}
	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}

	// Publishing after cancel must not panic.
	m.Publish(context.Background(), Event{Topic: TopicPresence, Payload: []byte("x")})
}

func TestMemoryFanOut(t *testing.T) {
	m := NewMemory()
	const n = 5
	var chans []<-chan Event
	for i := 0; i < n; i++ {
		ch, cancel := m.Subscribe(TopicPresence, 4)
		defer cancel()
		chans = append(chans, ch)
	}

	m.Publish(context.Background(), Event{Topic: TopicPresence, Payload: []byte("x")})

	for i, ch := range chans {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d missed the event", i)
		}
	}
}
