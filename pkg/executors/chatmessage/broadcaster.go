package chatmessage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// BroadcastTopic carries posted chat messages to realtime gateways.
const BroadcastTopic = "pulse.chat.broadcast"

// BusBroadcaster publishes posted messages onto the message bus so realtime
// gateways can push them to connected clients.
type BusBroadcaster struct {
	publisher message.Publisher
}

func NewBusBroadcaster(publisher message.Publisher) *BusBroadcaster {
	return &BusBroadcaster{publisher: publisher}
}

func (b *BusBroadcaster) Broadcast(ctx context.Context, workspaceID, conversationID, text string) error {
	payload, err := json.Marshal(map[string]string{
		"workspace_id":    workspaceID,
		"conversation_id": conversationID,
		"text":            text,
		"posted_at":       time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to encode broadcast payload: %w", err)
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	msg.Metadata.Set("workspace_id", workspaceID)
	msg.SetContext(ctx)

	return b.publisher.Publish(BroadcastTopic, msg)
}
