package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// ErrDiscard tells the consumer to ack a message without handling it again.
var ErrDiscard = errors.New("discard message")

// Handler processes a single event. A returned error nacks the message for redelivery,
// unless it wraps ErrDiscard.
type Handler[T any] func(ctx context.Context, event *T) error

// Consumer decodes JSON messages from one topic and hands them to a typed Handler.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handle     Handler[T]
	logger     *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handle Handler[T],
	logger *zap.Logger,
) *Consumer[T] {
	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handle:     handle,
		logger:     logger.With(zap.String("topic", topic)),
		done:       make(chan struct{}),
	}
}

func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start subscribes and processes messages in the background until ctx ends or Shutdown is
// called.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		cancel()

		return fmt.Errorf("subscribe %s: %w", c.topic, err)
	}

	c.cancel = cancel

	go c.consume(ctx, msgs)

	return nil
}

func (c *Consumer[T]) consume(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			if c.process(ctx, msg) {
				msg.Ack()
			} else {
				msg.Nack()
			}
		}
	}
}

// process reports whether msg is settled and can be acked.
func (c *Consumer[T]) process(ctx context.Context, msg *message.Message) bool {
	log := c.logger.With(zap.String("messageId", msg.UUID))

	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// Redelivery cannot fix a payload that does not decode.
		log.Error("dropping undecodable event", zap.Error(err))

		return true
	}

	err := c.handle(ctx, &event)

	switch {
	case err == nil:
		log.Debug("processed event")

		return true
	case errors.Is(err, ErrDiscard):
		log.Warn("discarding event", zap.Error(err))

		return true
	default:
		log.Error("failed to handle event", zap.Error(err))

		return false
	}
}

// Shutdown stops consuming and waits for the message in hand to settle. It is a no-op when
// the consumer never started.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}
