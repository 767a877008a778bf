package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockStatsClient struct {
	mock.Mock
}

func NewMockStatsClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStatsClient {
	m := &MockStatsClient{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockStatsClient) VehicleStats(ctx context.Context, tenantID, vehicleID string, types []string) ([]byte, error) {
	args := m.Called(ctx, tenantID, vehicleID, types)
	if fn, ok := args.Get(0).(func(context.Context, string, string, []string) ([]byte, error)); ok {
		return fn(ctx, tenantID, vehicleID, types)
	}
	raw, _ := args.Get(0).([]byte)
	return raw, args.Error(1)
}

func (m *MockStatsClient) DiagnosticCodes(ctx context.Context, tenantID, vehicleID string) ([]byte, error) {
	args := m.Called(ctx, tenantID, vehicleID)
	raw, _ := args.Get(0).([]byte)
	return raw, args.Error(1)
}
