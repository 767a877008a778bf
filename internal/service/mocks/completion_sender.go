package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

type MockCompletionSender struct {
	mock.Mock
}

func NewMockCompletionSender(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockCompletionSender {
	m := &MockCompletionSender{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockCompletionSender) Send(ctx context.Context, event model.WorkOrderCompleted) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
