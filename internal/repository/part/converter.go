package repository

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

func EntityToModel(e *PartEntity) (model.PartInventory, error) {
	if e == nil {
		return model.PartInventory{}, model.ErrPartNotFound
	}

	cost, err := decimal.NewFromString(e.UnitCost.String())
	if err != nil {
		return model.PartInventory{}, fmt.Errorf("part %s unit cost: %w", e.ID, err)
	}

	return model.PartInventory{
		PartID:         e.ID,
		PartNumber:     e.PartNumber,
		Name:           e.Name,
		UnitCost:       cost,
		QuantityOnHand: e.QuantityOnHand,
		ReorderLevel:   e.ReorderLevel,
		UpdatedAt:      e.UpdatedAt,
	}, nil
}

func EntityFromModel(p model.PartInventory) (*PartEntity, error) {
	cost, err := bson.ParseDecimal128(p.UnitCost.String())
	if err != nil {
		return nil, fmt.Errorf("part %s unit cost: %w", p.PartID, err)
	}

	return &PartEntity{
		ID:             p.PartID,
		PartNumber:     p.PartNumber,
		Name:           p.Name,
		UnitCost:       cost,
		QuantityOnHand: p.QuantityOnHand,
		ReorderLevel:   p.ReorderLevel,
		UpdatedAt:      p.UpdatedAt,
	}, nil
}
