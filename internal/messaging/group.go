package messaging

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/zap"
)

// Runnable is a group member.
type Runnable interface {
	Start(ctx context.Context) error
	Shutdown() error
}

// ConsumerGroup runs the consumers sharing one subscriber. Members start in the order they
// were added and stop in reverse, so a sink added first outlives its producers.
type ConsumerGroup struct {
	members    []Runnable
	started    int
	subscriber message.Subscriber
	logger     *zap.Logger
}

func NewConsumerGroup(subscriber message.Subscriber, logger *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		subscriber: subscriber,
		logger:     logger,
	}
}

func (g *ConsumerGroup) Add(members ...Runnable) {
	g.members = append(g.members, members...)
}

// Start starts every member. If one fails, those already running are stopped again.
func (g *ConsumerGroup) Start(ctx context.Context) error {
	for i, m := range g.members {
		if err := m.Start(ctx); err != nil {
			g.stopStarted()

			return fmt.Errorf("start group member %d: %w", i, err)
		}

		g.started++
	}

	g.logger.Info("consumer group started", zap.Int("members", g.started))

	return nil
}

// Shutdown stops the running members, newest first, then closes the subscriber. Every
// failure is reported.
func (g *ConsumerGroup) Shutdown() error {
	g.logger.Info("stopping consumer group", zap.Int("members", g.started))

	errs := g.stopStarted()

	if err := g.subscriber.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close subscriber: %w", err))
	}

	return errors.Join(errs...)
}

func (g *ConsumerGroup) stopStarted() []error {
	var errs []error

	for ; g.started > 0; g.started-- {
		if err := g.members[g.started-1].Shutdown(); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}
