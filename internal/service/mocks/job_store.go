package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

type MockJobStore struct {
	mock.Mock
}

func NewMockJobStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockJobStore {
	m := &MockJobStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockJobStore) Job(ctx context.Context, tenantID string) (model.SyncJob, error) {
	args := m.Called(ctx, tenantID)
	job, _ := args.Get(0).(model.SyncJob)
	return job, args.Error(1)
}

func (m *MockJobStore) Begin(ctx context.Context, job model.SyncJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobStore) Save(ctx context.Context, job model.SyncJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}
