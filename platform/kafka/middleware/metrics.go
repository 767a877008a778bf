package middleware

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bbroten90/CWSFleetdms-sub000/platform/kafka"
)

// Metrics counts handled messages. handled must carry the labels topic,
// event_type and result.
func Metrics(handled *prometheus.CounterVec) kafka.Middleware {
	return func(next kafka.MessageHandler) kafka.MessageHandler {
		return func(ctx context.Context, msg kafka.Message) error {
			err := next(ctx, msg)

			result := "ok"
			if err != nil {
				result = "error"
			}
			handled.WithLabelValues(msg.Topic, msg.EventType(), result).Inc()

			return err
		}
	}
}
