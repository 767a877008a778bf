package eventproducer

import (
	"context"
	"fmt"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/kafka"
)

type Converter interface {
	SyncEventToPayload(e model.SyncEvent) ([]byte, error)
	WorkOrderCompletedToPayload(e model.WorkOrderCompleted) ([]byte, error)
}

type syncEvents struct {
	producer kafka.Producer
	conv     Converter
}

// NewSyncEventProducer publishes sync lifecycle events keyed by tenant.
func NewSyncEventProducer(producer kafka.Producer, conv Converter) *syncEvents {
	return &syncEvents{producer: producer, conv: conv}
}

func (s *syncEvents) Send(ctx context.Context, event model.SyncEvent) error {
	payload, err := s.conv.SyncEventToPayload(event)
	if err != nil {
		return fmt.Errorf("converter sync_event_to_payload error: %w", err)
	}

	headers := map[string]string{kafka.HeaderEventType: string(event.Type)}
	if err := s.producer.Send(ctx, []byte(event.TenantID), payload, headers); err != nil {
		return fmt.Errorf("producer to sync events topic error: %w", err)
	}

	return nil
}

type completions struct {
	producer kafka.Producer
	conv     Converter
}

// NewCompletionProducer publishes work order completions keyed by work order.
func NewCompletionProducer(producer kafka.Producer, conv Converter) *completions {
	return &completions{producer: producer, conv: conv}
}

func (s *completions) Send(ctx context.Context, event model.WorkOrderCompleted) error {
	payload, err := s.conv.WorkOrderCompletedToPayload(event)
	if err != nil {
		return fmt.Errorf("converter work_order_completed_to_payload error: %w", err)
	}

	headers := map[string]string{kafka.HeaderEventType: model.WorkOrderCompletedEvent}
	if err := s.producer.Send(ctx, event.WorkOrderID[:], payload, headers); err != nil {
		return fmt.Errorf("producer to work order completed topic error: %w", err)
	}

	return nil
}
