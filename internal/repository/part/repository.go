package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
	"github.com/bbroten90/CWSFleetdms-sub000/platform/logger"
)

type repository struct {
	coll *mongo.Collection
	// Transactions need a replica set; without one each part is still
	// decremented conditionally and earlier decrements are rolled back.
	transactional bool
}

func NewPartRepository(collection *mongo.Collection, transactional bool) *repository {
	return &repository{coll: collection, transactional: transactional}
}

func (r *repository) PartByID(ctx context.Context, id string) (model.PartInventory, error) {
	const op = "repository.PartByID"

	var ent PartEntity
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&ent)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return model.PartInventory{}, model.ErrPartNotFound
		}
		return model.PartInventory{}, fmt.Errorf("%s: %w", op, err)
	}

	return EntityToModel(&ent)
}

func (r *repository) PartsByIDs(ctx context.Context, ids []string) ([]model.PartInventory, error) {
	const op = "repository.PartsByIDs"

	if len(ids) == 0 {
		return []model.PartInventory{}, nil
	}

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": lo.Uniq(ids)}})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if cerr := cur.Close(ctx); cerr != nil {
			logger.Warn(ctx, "close parts cursor", logger.ErrorF(cerr))
		}
	}()

	out := make([]model.PartInventory, 0, len(ids))
	for cur.Next(ctx) {
		var ent PartEntity
		if err := cur.Decode(&ent); err != nil {
			return nil, fmt.Errorf("%s decode: %w", op, err)
		}
		part, err := EntityToModel(&ent)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, part)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s cursor: %w", op, err)
	}

	return out, nil
}

// Deduct decrements every part by its quantity, each only if enough stock
// remains. Either all deductions apply or none do; a refusal is reported as
// *model.InsufficientStockError naming every short part.
func (r *repository) Deduct(ctx context.Context, deductions []model.StockDeduction) ([]model.StockLevel, error) {
	const op = "repository.Deduct"

	deductions = sortedDeductions(deductions)
	if len(deductions) == 0 {
		return []model.StockLevel{}, nil
	}

	if !r.transactional {
		levels, err := r.deductEach(ctx, deductions)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return levels, nil
	}

	sess, err := r.coll.Database().Client().StartSession()
	if err != nil {
		return nil, fmt.Errorf("%s: start session: %w", op, err)
	}
	defer sess.EndSession(ctx)

	res, err := sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		levels := make([]model.StockLevel, 0, len(deductions))
		var shortfalls []model.StockShortfall

		for _, d := range deductions {
			level, short, err := r.decrement(ctx, d)
			if err != nil {
				return nil, err
			}
			if short != nil {
				shortfalls = append(shortfalls, *short)
				continue
			}
			levels = append(levels, level)
		}

		if len(shortfalls) > 0 {
			return nil, &model.InsufficientStockError{Shortfalls: shortfalls}
		}
		return levels, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return res.([]model.StockLevel), nil
}

func (r *repository) deductEach(ctx context.Context, deductions []model.StockDeduction) ([]model.StockLevel, error) {
	levels := make([]model.StockLevel, 0, len(deductions))
	applied := make([]model.StockDeduction, 0, len(deductions))
	var shortfalls []model.StockShortfall

	rollback := func() {
		if err := r.Restock(context.WithoutCancel(ctx), applied); err != nil {
			logger.Error(ctx, "roll back partial deduction",
				logger.Strings("part_ids", deductionIDs(applied)),
				logger.ErrorF(err),
			)
		}
	}

	for _, d := range deductions {
		level, short, err := r.decrement(ctx, d)
		if err != nil {
			rollback()
			return nil, err
		}
		if short != nil {
			shortfalls = append(shortfalls, *short)
			continue
		}
		applied = append(applied, d)
		levels = append(levels, level)
	}

	if len(shortfalls) > 0 {
		rollback()
		return nil, &model.InsufficientStockError{Shortfalls: shortfalls}
	}

	return levels, nil
}

// decrement applies one conditional $inc. A nil shortfall means it applied.
func (r *repository) decrement(ctx context.Context, d model.StockDeduction) (model.StockLevel, *model.StockShortfall, error) {
	filter := bson.M{
		"_id":              d.PartID,
		"quantity_on_hand": bson.M{"$gte": d.Quantity},
	}
	update := bson.M{
		"$inc": bson.M{"quantity_on_hand": -d.Quantity},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	var ent PartEntity
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ent)
	if err == nil {
		return model.StockLevel{
			PartID:       d.PartID,
			Deducted:     d.Quantity,
			Remaining:    ent.QuantityOnHand,
			ReorderLevel: ent.ReorderLevel,
		}, nil, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return model.StockLevel{}, nil, err
	}

	short := &model.StockShortfall{PartID: d.PartID, Requested: d.Quantity}
	var cur PartEntity
	err = r.coll.FindOne(ctx, bson.M{"_id": d.PartID}).Decode(&cur)
	switch {
	case err == nil:
		short.Available = cur.QuantityOnHand
	case errors.Is(err, mongo.ErrNoDocuments):
	default:
		return model.StockLevel{}, nil, err
	}

	return model.StockLevel{}, short, nil
}

// Restock adds quantities back unconditionally.
func (r *repository) Restock(ctx context.Context, deductions []model.StockDeduction) error {
	const op = "repository.Restock"

	var errs []error
	for _, d := range deductions {
		_, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": d.PartID},
			bson.M{
				"$inc": bson.M{"quantity_on_hand": d.Quantity},
				"$set": bson.M{"updated_at": time.Now().UTC()},
			},
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("part %s: %w", d.PartID, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (r *repository) CreateBatch(ctx context.Context, parts []model.PartInventory) error {
	const op = "repository.CreateBatch"

	docs := make([]any, 0, len(parts))
	for _, p := range parts {
		if p.PartID == "" {
			return fmt.Errorf("%s: part ID is empty", op)
		}
		if p.QuantityOnHand < 0 {
			return fmt.Errorf("%s: part %s: %w", op, p.PartID, model.ErrInvalidQuantity)
		}
		if !model.ValidUnitCost(p.UnitCost) {
			return fmt.Errorf("%s: part %s: %w: unit cost %s", op, p.PartID, model.ErrValidation, p.UnitCost)
		}

		ent, err := EntityFromModel(p)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if ent.UpdatedAt == nil {
			ent.UpdatedAt = lo.ToPtr(time.Now().UTC())
		}
		ent.CreatedAt = ent.UpdatedAt
		docs = append(docs, ent)
	}
	if len(docs) == 0 {
		return nil
	}

	_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// sortedDeductions merges duplicate parts and orders by part id so
// concurrent deductions touch documents in the same order.
func sortedDeductions(in []model.StockDeduction) []model.StockDeduction {
	byPart := make(map[string]int64, len(in))
	for _, d := range in {
		if d.Quantity <= 0 {
			continue
		}
		byPart[d.PartID] += d.Quantity
	}

	out := make([]model.StockDeduction, 0, len(byPart))
	for id, qty := range byPart {
		out = append(out, model.StockDeduction{PartID: id, Quantity: qty})
	}
	slices.SortFunc(out, func(a, b model.StockDeduction) int {
		return strings.Compare(a.PartID, b.PartID)
	})
	return out
}

func deductionIDs(ds []model.StockDeduction) []string {
	return lo.Map(ds, func(d model.StockDeduction, _ int) string { return d.PartID })
}
