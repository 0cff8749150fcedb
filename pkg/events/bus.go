package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const topicPrefix = "council.events."

// Bus is an in-process pub/sub channel for council progress events, one
// topic per task. Single-user mode: subscribers attach before or during a
// run and receive events as they happen; nothing is replayed.
type Bus struct {
	pubSub *gochannel.GoChannel
}

func NewBus() *Bus {
	watermillLogger := watermill.NewStdLogger(false, false)
	return &Bus{
		pubSub: gochannel.NewGoChannel(gochannel.Config{}, watermillLogger),
	}
}

func topicFor(taskID string) string {
	return topicPrefix + taskID
}

// Publish fans the event out to every subscriber of the task's topic.
func (b *Bus) Publish(taskID string, evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	return b.pubSub.Publish(topicFor(taskID), msg)
}

// Subscribe returns the stream of raw messages for a task. Callers decode
// with Decode and must Ack each message.
func (b *Bus) Subscribe(ctx context.Context, taskID string) (<-chan *message.Message, error) {
	return b.pubSub.Subscribe(ctx, topicFor(taskID))
}

// Decode unmarshals a bus message back into an Event.
func Decode(msg *message.Message) (Event, error) {
	var evt Event
	err := json.Unmarshal(msg.Payload, &evt)
	return evt, err
}

func (b *Bus) Close() error {
	return b.pubSub.Close()
}
