package repository

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type PartEntity struct {
	ID             string          `bson:"_id"`
	PartNumber     string          `bson:"part_number,omitempty"`
	Name           string          `bson:"name"`
	UnitCost       bson.Decimal128 `bson:"unit_cost"`
	QuantityOnHand int64           `bson:"quantity_on_hand"`
	ReorderLevel   int64           `bson:"reorder_level"`
	CreatedAt      *time.Time      `bson:"created_at,omitempty"`
	UpdatedAt      *time.Time      `bson:"updated_at,omitempty"`
}
