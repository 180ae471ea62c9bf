package messaging

import (
	"context"
)

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Channels the bedside API publishes on. Consumers are the ward
// dashboard and any other live view of bed state.
const (
	ChannelBedUpdated = "bedside.bed.updated"
	ChannelBedCleared = "bedside.bed.cleared"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
