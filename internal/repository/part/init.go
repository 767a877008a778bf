package repository

import (
	"context"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

type BatchCreator interface {
	CreateBatch(ctx context.Context, parts []model.PartInventory) error
}

// PartsBootstrap seeds a small shop catalog for local runs.
func PartsBootstrap(ctx context.Context, c BatchCreator) error {
	now := lo.ToPtr(time.Now().UTC())

	parts := []model.PartInventory{
		{
			PartID:         "oil-filter-lf3000",
			PartNumber:     "LF3000",
			Name:           "Fleetguard Lube Filter",
			UnitCost:       decimal.RequireFromString("18.45"),
			QuantityOnHand: 40,
			ReorderLevel:   10,
			UpdatedAt:      now,
		},
		{
			PartID:         "air-filter-af25139",
			PartNumber:     "AF25139M",
			Name:           "Primary Air Filter",
			UnitCost:       decimal.RequireFromString("74.90"),
			QuantityOnHand: 12,
			ReorderLevel:   4,
			UpdatedAt:      now,
		},
		{
			PartID:         "brake-shoe-4707q",
			PartNumber:     "4707Q",
			Name:           "Brake Shoe Kit",
			UnitCost:       decimal.RequireFromString("129.00"),
			QuantityOnHand: 8,
			ReorderLevel:   6,
			UpdatedAt:      now,
		},
		{
			PartID:         "def-fluid-2_5gal",
			PartNumber:     "DEF-25",
			Name:           "Diesel Exhaust Fluid 2.5 gal",
			UnitCost:       decimal.RequireFromString("14.99"),
			QuantityOnHand: 60,
			ReorderLevel:   20,
			UpdatedAt:      now,
		},
		{
			PartID:         "wiper-blade-22in",
			PartNumber:     "WB-22",
			Name:           "Heavy Duty Wiper Blade 22in",
			UnitCost:       decimal.RequireFromString("11.25"),
			QuantityOnHand: 3,
			ReorderLevel:   5,
			UpdatedAt:      now,
		},
	}

	return c.CreateBatch(ctx, parts)
}
