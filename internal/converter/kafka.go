package converter

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-faster/jx"
	"github.com/google/uuid"

	"github.com/bbroten90/CWSFleetdms-sub000/internal/model"
)

var ErrMissingWorkOrderID = errors.New("work_order_id is required")

type KafkaConverter struct{}

func NewKafkaConverter() KafkaConverter { return KafkaConverter{} }

func (KafkaConverter) SyncEventToPayload(e model.SyncEvent) ([]byte, error) {
	var enc jx.Encoder
	enc.Obj(func(enc *jx.Encoder) {
		enc.Field("type", func(enc *jx.Encoder) { enc.Str(string(e.Type)) })
		enc.Field("tenant_id", func(enc *jx.Encoder) { enc.Str(e.TenantID) })
		enc.Field("previous_status", func(enc *jx.Encoder) { enc.Str(string(e.PreviousStatus)) })
		enc.Field("occurred_at", func(enc *jx.Encoder) { encodeTime(enc, &e.OccurredAt) })
		enc.Field("job", func(enc *jx.Encoder) {
			j := e.Job
			enc.Obj(func(enc *jx.Encoder) {
				enc.Field("status", func(enc *jx.Encoder) { enc.Str(string(j.Status)) })
				enc.Field("origin", func(enc *jx.Encoder) { enc.Str(string(j.Origin)) })
				enc.Field("started_at", func(enc *jx.Encoder) { encodeTime(enc, j.StartedAt) })
				enc.Field("completed_at", func(enc *jx.Encoder) { encodeTime(enc, j.CompletedAt) })
				enc.Field("created_count", func(enc *jx.Encoder) { enc.Int64(j.CreatedCount) })
				enc.Field("updated_count", func(enc *jx.Encoder) { enc.Int64(j.UpdatedCount) })
				enc.Field("detail_message", func(enc *jx.Encoder) { enc.Str(j.DetailMessage) })
				enc.Field("remote_status", func(enc *jx.Encoder) { enc.Str(string(j.RemoteStatus)) })
			})
		})
	})

	return enc.Bytes(), nil
}

func (KafkaConverter) WorkOrderCompletedToPayload(e model.WorkOrderCompleted) ([]byte, error) {
	var enc jx.Encoder
	enc.Obj(func(enc *jx.Encoder) {
		enc.Field("work_order_id", func(enc *jx.Encoder) { enc.Str(e.WorkOrderID.String()) })
		enc.Field("completed_at", func(enc *jx.Encoder) { encodeTime(enc, &e.CompletedAt) })
		enc.Field("stock_levels", func(enc *jx.Encoder) {
			enc.Arr(func(enc *jx.Encoder) {
				for _, l := range e.StockLevels {
					enc.Obj(func(enc *jx.Encoder) {
						enc.Field("part_id", func(enc *jx.Encoder) { enc.Str(l.PartID) })
						enc.Field("deducted", func(enc *jx.Encoder) { enc.Int64(l.Deducted) })
						enc.Field("remaining", func(enc *jx.Encoder) { enc.Int64(l.Remaining) })
						enc.Field("reorder_level", func(enc *jx.Encoder) { enc.Int64(l.ReorderLevel) })
					})
				}
			})
		})
	})

	return enc.Bytes(), nil
}

func (KafkaConverter) WorkOrderCompletedToModel(data []byte) (model.WorkOrderCompleted, error) {
	var out model.WorkOrderCompleted

	err := jx.DecodeBytes(data).ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "work_order_id":
			s, err := d.Str()
			if err != nil {
				return err
			}
			id, err := uuid.Parse(s)
			if err != nil {
				return fmt.Errorf("work_order_id: %w", err)
			}
			out.WorkOrderID = id
		case "completed_at":
			t, err := decodeTime(d)
			if err != nil {
				return fmt.Errorf("completed_at: %w", err)
			}
			if t != nil {
				out.CompletedAt = *t
			}
		case "stock_levels":
			if d.Next() == jx.Null {
				return d.Null()
			}
			return d.Arr(func(d *jx.Decoder) error {
				l, err := decodeStockLevel(d)
				if err != nil {
					return err
				}
				out.StockLevels = append(out.StockLevels, l)
				return nil
			})
		default:
			return d.Skip()
		}
		return nil
	})
	if err != nil {
		return model.WorkOrderCompleted{}, fmt.Errorf("decode work order completed: %w", err)
	}
	if out.WorkOrderID == uuid.Nil {
		return model.WorkOrderCompleted{}, ErrMissingWorkOrderID
	}

	return out, nil
}

func decodeStockLevel(d *jx.Decoder) (model.StockLevel, error) {
	var l model.StockLevel
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "part_id":
			l.PartID, err = d.Str()
		case "deducted":
			l.Deducted, err = d.Int64()
		case "remaining":
			l.Remaining, err = d.Int64()
		case "reorder_level":
			l.ReorderLevel, err = d.Int64()
		default:
			err = d.Skip()
		}
		return err
	})
	return l, err
}

func encodeTime(enc *jx.Encoder, t *time.Time) {
	if t == nil || t.IsZero() {
		enc.Null()
		return
	}
	enc.Str(t.UTC().Format(time.RFC3339Nano))
}

func decodeTime(d *jx.Decoder) (*time.Time, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
