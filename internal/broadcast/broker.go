// Package broadcast is the publish/subscribe port used to push live
// attendance updates to connected observers. The scan pipeline depends only
// on the Broker interface; the in-memory hub serves a single process and the
// redis implementation fans events out across processes.
package broadcast

import "context"

// TopicPresence carries one event per successfully recorded attendance.
const TopicPresence = "presence.recorded"

// Event is a published message: a topic plus an opaque JSON payload.
type Event struct {
	Topic   string
	Payload []byte
}

// Broker publishes events to all current subscribers of a topic.
// Delivery is fire-and-forget; a slow or broken subscriber never fails a
// publish.
type Broker interface {
	Publish(ctx context.Context, evt Event) error
	// Subscribe returns a channel receiving events for topic until the
	// returned cancel func is called. buffer bounds the channel; events
	// overflowing it are dropped for that subscriber only.
	Subscribe(topic string, buffer int) (<-chan Event, func())
}
