package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

type MockSyncBackend struct {
	mock.Mock
}

func NewMockSyncBackend(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSyncBackend {
	m := &MockSyncBackend{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSyncBackend) TriggerSync(ctx context.Context, tenantID string) error {
	args := m.Called(ctx, tenantID)
	return args.Error(0)
}

func (m *MockSyncBackend) SyncStatus(ctx context.Context, tenantID string) (model.RemoteSyncReport, error) {
	args := m.Called(ctx, tenantID)
	rep, _ := args.Get(0).(model.RemoteSyncReport)
	return rep, args.Error(1)
}
