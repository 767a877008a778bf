package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

type MockSyncEventSender struct {
	mock.Mock
}

func NewMockSyncEventSender(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSyncEventSender {
	m := &MockSyncEventSender{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSyncEventSender) Send(ctx context.Context, event model.SyncEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
