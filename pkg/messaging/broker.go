package messaging

import "context"

// Broker publishes domain events to downstream consumers (notification
// senders, report builders). Channel names are the outbox event types.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}
