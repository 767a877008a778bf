package middleware

import (
	"context"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/bbroten90/CWSFleetdms-sub000/platform/kafka"
)

type ErrorLogger interface {
	Error(ctx context.Context, msg string, fields ...zap.Field)
}

// Recovery converts a handler panic into an error; the offset stays unmarked.
func Recovery(logger ErrorLogger) kafka.Middleware {
	return func(next kafka.MessageHandler) kafka.MessageHandler {
		return func(ctx context.Context, msg kafka.Message) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				logger.Error(ctx, "Kafka handler panicked",
					zap.String("topic", msg.Topic),
					zap.String("event_type", msg.EventType()),
					zap.Int64("offset", msg.Offset),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				err = fmt.Errorf("kafka handler panic on %s@%d: %v", msg.Topic, msg.Offset, r)
			}()

			return next(ctx, msg)
		}
	}
}
