package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

type MockInventoryStore struct {
	mock.Mock
}

func NewMockInventoryStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockInventoryStore {
	m := &MockInventoryStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockInventoryStore) PartByID(ctx context.Context, partID string) (model.PartInventory, error) {
	args := m.Called(ctx, partID)
	out, _ := args.Get(0).(model.PartInventory)
	return out, args.Error(1)
}

func (m *MockInventoryStore) PartsByIDs(ctx context.Context, ids []string) ([]model.PartInventory, error) {
	args := m.Called(ctx, ids)
	out, _ := args.Get(0).([]model.PartInventory)
	return out, args.Error(1)
}

func (m *MockInventoryStore) Deduct(ctx context.Context, deductions []model.StockDeduction) ([]model.StockLevel, error) {
	args := m.Called(ctx, deductions)
	out, _ := args.Get(0).([]model.StockLevel)
	return out, args.Error(1)
}

func (m *MockInventoryStore) Restock(ctx context.Context, deductions []model.StockDeduction) error {
	args := m.Called(ctx, deductions)
	return args.Error(0)
}
