package websocket

import (
	"context"
	"encoding/json"

	"truthgate-api/internal/events"

	"github.com/google/uuid"
)

// LocalBroadcaster delivers frames to subscribers on this instance only.
type LocalBroadcaster struct {
	hub *Hub
}

func NewLocalBroadcaster(hub *Hub) *LocalBroadcaster {
	return &LocalBroadcaster{hub: hub}
}

func (b *LocalBroadcaster) Broadcast(ctx context.Context, conversationID uuid.UUID, frame events.Frame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	b.hub.Broadcast(events.ConversationChannel(conversationID), payload)
	return nil
}

// RedisBroadcaster publishes frames so every instance's RedisBridge can
// deliver them to its local subscribers.
type RedisBroadcaster struct {
	publisher events.Publisher
}

func NewRedisBroadcaster(publisher events.Publisher) *RedisBroadcaster {
	return &RedisBroadcaster{publisher: publisher}
}

func (b *RedisBroadcaster) Broadcast(ctx context.Context, conversationID uuid.UUID, frame events.Frame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return b.publisher.Publish(ctx, events.ConversationChannel(conversationID), payload)
}
