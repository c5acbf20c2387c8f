package broadcast

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Redis fans events out through redis pub/sub so scans recorded by the
// queue worker reach observers connected to the API process.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a broker publishing on prefixed redis channels.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "presensi:"
	}
	return &Redis{client: client, prefix: prefix}
}

// Publish sends evt on its topic channel.
func (r *Redis) Publish(ctx context.Context, evt Event) error {
	return r.client.Publish(ctx, r.prefix+evt.Topic, evt.Payload).Err()
}

// Subscribe consumes a redis subscription until cancel is called.
func (r *Redis) Subscribe(topic string, buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ps := r.client.Subscribe(context.Background(), r.prefix+topic)
	out := make(chan Event, buffer)
	done := make(chan struct{})

	go func() {
		defer close(out)
		src := ps.Channel()
		for {
			select {
			case msg, ok := <-src:
				if !ok {
					return
				}
				evt := Event{Topic: topic, Payload: []byte(msg.Payload)}
				select {
				case out <- evt:
				default:
				}
			case <-done:
				return
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = ps.Close()
		})
	}
	return out, cancel
}
