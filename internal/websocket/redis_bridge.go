package websocket

import (
	"context"

	"truthgate-api/internal/events"
)

// RedisBridge feeds conversation frames published by any instance into the
// local hub.
type RedisBridge struct {
	subscriber events.Subscriber
	hub        *Hub
}

func NewRedisBridge(subscriber events.Subscriber, hub *Hub) *RedisBridge {
	return &RedisBridge{subscriber: subscriber, hub: hub}
}

// Run blocks until ctx is cancelled or the subscription fails.
func (b *RedisBridge) Run(ctx context.Context) error {
	return b.subscriber.Subscribe(ctx, []string{events.ChannelPatternConversation}, func(channel string, payload []byte) {
		if _, ok := events.ConversationIDFromChannel(channel); !ok {
			return
		}
		b.hub.Broadcast(channel, payload)
	})
}
