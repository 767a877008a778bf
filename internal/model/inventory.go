package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CostScale is the number of decimal places stored for unit costs.
const CostScale = 2

// ValidUnitCost reports a non-negative cost with at most CostScale decimals.
func ValidUnitCost(c decimal.Decimal) bool {
	return !c.IsNegative() && c.Equal(c.Round(CostScale))
}

type PartInventory struct {
	PartID         string
	PartNumber     string
	Name           string
	UnitCost       decimal.Decimal
	QuantityOnHand int64
	ReorderLevel   int64
	UpdatedAt      *time.Time
}

func (p PartInventory) BelowReorder() bool {
	return p.QuantityOnHand <= p.ReorderLevel
}

type PartAllocation struct {
	ID            uuid.UUID
	WorkOrderID   uuid.UUID
	PartID        string
	Quantity      int64
	UnitCost      decimal.Decimal
	OverAllocated bool
	// Set once the work order is completed; the allocation is immutable after that.
	ConsumedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (a PartAllocation) Consumed() bool { return a.ConsumedAt != nil }

func (a PartAllocation) LineCost() decimal.Decimal {
	return a.UnitCost.Mul(decimal.NewFromInt(a.Quantity))
}

type AddAllocationParams struct {
	WorkOrderID      uuid.UUID
	PartID           string
	Quantity         int64
	UnitCostOverride *decimal.Decimal
}

type StockDeduction struct {
	PartID   string
	Quantity int64
}

type StockLevel struct {
	PartID       string
	Deducted     int64
	Remaining    int64
	ReorderLevel int64
}

func (l StockLevel) BelowReorder() bool { return l.Remaining <= l.ReorderLevel }

type WorkOrderView struct {
	WorkOrderID        uuid.UUID
	Allocations        []PartAllocation
	TotalCost          decimal.Decimal
	CompletedAt        *time.Time
	OverAllocatedParts []string
}

type CompletionResult struct {
	WorkOrderID uuid.UUID
	CompletedAt time.Time
	TotalCost   decimal.Decimal
	StockLevels []StockLevel
}

func TotalCost(allocs []PartAllocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocs {
		total = total.Add(a.LineCost())
	}
	return total
}
