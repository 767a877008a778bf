package consumer

import (
	"github.com/IBM/sarama"
	"go.uber.org/zap"

	"github.com/bbroten90/CWSFleetdms-sub000/platform/kafka"
)

type groupHandler struct {
	handler kafka.MessageHandler
	logger  Logger
}

// NewGroupHandler applies middlewares so that the first one is the outermost.
func NewGroupHandler(handler kafka.MessageHandler, logger Logger, middlewares ...kafka.Middleware) *groupHandler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}

	return &groupHandler{
		handler: handler,
		logger:  logger,
	}
}

func (g *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (g *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (g *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				g.logger.Info(session.Context(), "Kafka message channel closed")
				return nil
			}

			msg := toMessage(message)
			if err := g.handler(session.Context(), msg); err != nil {
				g.logger.Error(session.Context(), "Kafka handler error",
					zap.String("topic", msg.Topic),
					zap.Int64("offset", msg.Offset),
					zap.Error(err),
				)
				continue
			}

			session.MarkMessage(message, "")

		case <-session.Context().Done():
			g.logger.Info(session.Context(), "Kafka session context done")
			return nil
		}
	}
}

func toMessage(m *sarama.ConsumerMessage) kafka.Message {
	return kafka.Message{
		Key:            m.Key,
		Value:          m.Value,
		Topic:          m.Topic,
		Partition:      m.Partition,
		Offset:         m.Offset,
		Timestamp:      m.Timestamp,
		BlockTimestamp: m.BlockTimestamp,
		Headers:        extractHeaders(m.Headers),
	}
}

func extractHeaders(headers []*sarama.RecordHeader) map[string][]byte {
	result := make(map[string][]byte, len(headers))
	for _, h := range headers {
		if h != nil && h.Key != nil {
			result[string(h.Key)] = h.Value
		}
	}

	return result
}
