package model

import (
	"time"

	"github.com/google/uuid"
)

type SyncEventType string

const (
	SyncEventStarted   SyncEventType = "sync.started"
	SyncEventCompleted SyncEventType = "sync.completed"
	SyncEventFailed    SyncEventType = "sync.failed"
	SyncEventReset     SyncEventType = "sync.reset"
)

const WorkOrderCompletedEvent = "workorder.completed"

type SyncEvent struct {
	Type           SyncEventType
	TenantID       string
	Job            SyncJob
	PreviousStatus SyncStatus
	OccurredAt     time.Time
}

type WorkOrderCompleted struct {
	WorkOrderID uuid.UUID
	CompletedAt time.Time
	StockLevels []StockLevel
}

func (e WorkOrderCompleted) PartIDs() []string {
	ids := make([]string, 0, len(e.StockLevels))
	for _, l := range e.StockLevels {
		ids = append(ids, l.PartID)
	}
	return ids
}
