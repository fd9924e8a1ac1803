package notification

import (
	"context"
)

// Service defines the notification service interface
type Service interface {
	// Publish queues a message for delivery to the topic's current subscribers
	Publish(ctx context.Context, msg Message) error

	// Subscribe registers a listener on a topic until cleanup is called
	Subscribe(ctx context.Context, topic string) (<-chan Message, func())

	// Lifecycle
	Stop()
}
