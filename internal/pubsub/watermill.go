package pubsub

import (
	"context"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Metadata keys reserved for the Message fields that watermill has no slot for.
const (
	metaKeyUserID = "user_id"
	metaKeyTopic  = "topic"
	metaKeySentAt = "sent_at"
)

// WatermillBridge implements Publisher and Subscriber on top of watermill's
// in-memory GoChannel.
type WatermillBridge struct {
	ch     *gochannel.GoChannel
	logger watermill.LoggerAdapter
}

// NewWatermillBridge initializes an in-memory Pub/Sub system.
//
// Publish blocks until the subscribers acknowledged the message, so frames
// published by one sender reach a room in the order they were sent.
func NewWatermillBridge() *WatermillBridge {
	logger := watermill.NewStdLogger(false, false)
	return &WatermillBridge{
		ch: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            256,
			BlockPublishUntilSubscriberAck: true,
		}, logger),
		logger: logger,
	}
}

func toWatermill(ctx context.Context, msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	wmMsg.SetContext(ctx)

	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	wmMsg.Metadata.Set(metaKeyUserID, msg.UserID)
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)
	if wmMsg.Metadata.Get(metaKeySentAt) == "" {
		wmMsg.Metadata.Set(metaKeySentAt, time.Now().UTC().Format(time.RFC3339Nano))
	}
	return wmMsg
}

func fromWatermill(wmMsg *message.Message) Message {
	metadata := make(map[string]string, len(wmMsg.Metadata))
	for k, v := range wmMsg.Metadata {
		if k != metaKeyUserID && k != metaKeyTopic {
			metadata[k] = v
		}
	}
	return Message{
		Topic:    wmMsg.Metadata.Get(metaKeyTopic),
		UserID:   wmMsg.Metadata.Get(metaKeyUserID),
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish implements the Publisher interface.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	return wb.ch.Publish(msg.Topic, toWatermill(ctx, msg))
}

// Subscribe implements the Subscriber interface. Messages of one topic are
// handled one at a time, in publish order.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.ch.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for wmMsg := range messages {
			// A failed message is logged and acknowledged anyway: the in-memory
			// channel would redeliver a nacked message forever.
			if err := handler(ctx, fromWatermill(wmMsg)); err != nil {
				slog.Error("Failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
			}
			wmMsg.Ack()
		}
		slog.Debug("Subscription message loop ended", "topic", topic)
	}()

	return nil
}

// Close shuts the channel down and ends every subscription.
func (wb *WatermillBridge) Close() error {
	return wb.ch.Close()
}
