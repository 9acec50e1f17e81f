package messaging

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// ContentTypeKey is the message metadata key carrying the payload encoding.
const ContentTypeKey = "content-type"

const contentTypeJSON = "application/json"

// Publish sends one typed event.
type Publish[T any] func(event *T) error

// NewPublishFunc encodes events as JSON and publishes each as its own message on topic.
func NewPublishFunc[T any](publisher message.Publisher, topic string) Publish[T] {
	return func(event *T) error {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("encode %s event: %w", topic, err)
		}

		msg := message.NewMessage(watermill.NewUUID(), payload)
		msg.Metadata.Set(ContentTypeKey, contentTypeJSON)

		if err = publisher.Publish(topic, msg); err != nil {
			return fmt.Errorf("publish %s event: %w", topic, err)
		}

		return nil
	}
}

// PublisherGroup owns a publisher shared by several Publish funcs.
type PublisherGroup struct {
	publisher message.Publisher

	closeOnce sync.Once
	closeErr  error
}

func NewPublisherGroup(publisher message.Publisher) *PublisherGroup {
	return &PublisherGroup{publisher: publisher}
}

func (g *PublisherGroup) Publisher() message.Publisher {
	return g.publisher
}

// Shutdown closes the publisher once; later calls return the first result.
func (g *PublisherGroup) Shutdown() error {
	g.closeOnce.Do(func() {
		g.closeErr = g.publisher.Close()
	})

	return g.closeErr
}
