package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/IBM/sarama"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/bbroten90/CWSFleetdms-sub000/platform/kafka"
)

const (
	rejoinBaseDelay = 500 * time.Millisecond
	rejoinMaxDelay  = 30 * time.Second
	rejoinAttempts  = 8
)

type Logger interface {
	Info(ctx context.Context, msg string, fields ...zap.Field)
	Error(ctx context.Context, msg string, fields ...zap.Field)
}

type consumer struct {
	group       sarama.ConsumerGroup
	topics      []string
	logger      Logger
	middlewares []kafka.Middleware
	backoff     func() retry.Backoff
}

func NewConsumer(group sarama.ConsumerGroup, topics []string, logger Logger, middlewares ...kafka.Middleware) *consumer {
	return &consumer{
		group:       group,
		topics:      topics,
		logger:      logger,
		middlewares: middlewares,
		backoff: func() retry.Backoff {
			b := retry.NewExponential(rejoinBaseDelay)
			b = retry.WithCappedDuration(rejoinMaxDelay, b)
			return retry.WithMaxRetries(rejoinAttempts, b)
		},
	}
}

// Consume joins the group and rejoins after every rebalance. A failed join
// is retried with backoff; Consume returns once ctx is cancelled, the group
// is closed or the retries run out.
func (c *consumer) Consume(ctx context.Context, handler kafka.MessageHandler) error {
	gh := NewGroupHandler(handler, c.logger, c.middlewares...)

	for ctx.Err() == nil {
		err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
			err := c.group.Consume(ctx, c.topics, gh)
			switch {
			case err == nil, errors.Is(err, sarama.ErrClosedConsumerGroup):
				return err
			default:
				c.logger.Error(ctx, "Kafka consume error, rejoining",
					zap.Strings("topics", c.topics),
					zap.Error(err),
				)
				return retry.RetryableError(err)
			}
		})
		if errors.Is(err, sarama.ErrClosedConsumerGroup) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		c.logger.Info(ctx, "Kafka consumer group rebalanced", zap.Strings("topics", c.topics))
	}

	return ctx.Err()
}
