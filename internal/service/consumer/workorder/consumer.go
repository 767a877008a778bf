package woconsumer

import (
	"context"
	"fmt"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/kafka"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/logger"
)

type Converter interface {
	WorkOrderCompletedToModel(data []byte) (model.WorkOrderCompleted, error)
}

type Service interface {
	RefreshOverAllocation(ctx context.Context, partIDs []string) error
}

type service struct {
	consumer kafka.Consumer
	conv     Converter
	svc      Service
}

func NewWorkOrderConsumer(
	consumer kafka.Consumer,
	conv Converter,
	svc Service,
) *service {
	return &service{consumer: consumer, conv: conv, svc: svc}
}

func (s *service) RunWorkOrderCompletedConsume(ctx context.Context) error {
	logger.Info(ctx, "Starting work order completed consumer")

	if err := s.consumer.Consume(ctx, s.workOrderCompletedHandler); err != nil {
		logger.Error(ctx, "Consume from work order completed topic error", logger.ErrorF(err))
		return err
	}

	return nil
}

func (s *service) workOrderCompletedHandler(ctx context.Context, msg kafka.Message) error {
	if typ := msg.EventType(); typ != "" && typ != model.WorkOrderCompletedEvent {
		logger.Debug(ctx, "skip foreign event", logger.String("event_type", typ))
		return nil
	}

	event, err := s.conv.WorkOrderCompletedToModel(msg.Value)
	if err != nil {
		logger.Error(ctx, "Failed to decode work order completed event", logger.ErrorF(err))
		return fmt.Errorf("converter work_order_completed_to_model error: %w", err)
	}

	if err := s.svc.RefreshOverAllocation(ctx, event.PartIDs()); err != nil {
		logger.Error(ctx, "consumer.RefreshOverAllocation",
			logger.String("work_order_id", event.WorkOrderID.String()),
			logger.ErrorF(err),
		)
		return err
	}

	return nil
}
