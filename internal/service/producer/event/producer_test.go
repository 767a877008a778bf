package eventproducer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/converter"
	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/kafka"
)

type sentMessage struct {
	key, value []byte
	headers    map[string]string
}

type fakeProducer struct {
	sent []sentMessage
	err  error
}

func (p *fakeProducer) Send(_ context.Context, key, value []byte, headers map[string]string) error {
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, sentMessage{key: key, value: value, headers: headers})
	return nil
}

func TestSyncEventProducer(t *testing.T) {
	t.Parallel()

	prod := &fakeProducer{}
	p := NewSyncEventProducer(prod, converter.NewKafkaConverter())

	err := p.Send(context.Background(), model.SyncEvent{
		Type:       model.SyncEventStarted,
		TenantID:   "tenant-a",
		Job:        model.SyncJob{TenantID: "tenant-a", Status: model.SyncInProgress},
		OccurredAt: time.Now(),
	})
	require.NoError(t, err)

	require.Len(t, prod.sent, 1)
	assert.Equal(t, []byte("tenant-a"), prod.sent[0].key)
	assert.Equal(t, "sync.started", prod.sent[0].headers[kafka.HeaderEventType])
	assert.Contains(t, string(prod.sent[0].value), `"status":"in_progress"`)
}

func TestCompletionProducer(t *testing.T) {
	t.Parallel()

	woID := uuid.New()
	prod := &fakeProducer{}
	p := NewCompletionProducer(prod, converter.NewKafkaConverter())

	require.NoError(t, p.Send(context.Background(), model.WorkOrderCompleted{WorkOrderID: woID, CompletedAt: time.Now()}))
	require.Len(t, prod.sent, 1)
	assert.Equal(t, woID[:], prod.sent[0].key)
	assert.Equal(t, model.WorkOrderCompletedEvent, prod.sent[0].headers[kafka.HeaderEventType])

	prod.err = errors.New("kafka: client has run out of available brokers")
	assert.Error(t, p.Send(context.Background(), model.WorkOrderCompleted{WorkOrderID: woID}))
}
