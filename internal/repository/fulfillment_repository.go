package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shipment-orchestrator/internal/model"
)

// Las escrituras son condicionales a la versión leída (control optimista).
type MongoFulfillmentRepository struct {
	col *mongo.Collection
}

func NewMongoFulfillmentRepository(db *mongo.Database) *MongoFulfillmentRepository {
	return &MongoFulfillmentRepository{col: db.Collection(fulfillmentsCollection)}
}

// Create inserta el fulfillment si no existe otro con el mismo tracking code.
func (m *MongoFulfillmentRepository) Create(ctx context.Context, f *model.Fulfillment) error {
	now := time.Now().UTC()
	if f.CreatedAt.IsZero() {
		f.CreatedAt = now
		// Primer estado en historial
		f.History = []model.StateRecord{{
			State:     f.State,
			Reason:    "Envío creado",
			Timestamp: now,
			Current:   true,
		}}
	}
	f.UpdatedAt = now

	filter := bson.M{"tracking_code": f.TrackingCode}
	update := bson.M{"$setOnInsert": f}
	_, err := m.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (m *MongoFulfillmentRepository) FindByTrackingCode(ctx context.Context, trackingCode string) (*model.Fulfillment, error) {
	return findOne[model.Fulfillment](ctx, m.col, bson.M{"tracking_code": trackingCode})
}

// UpdateState reemplaza estado e historial en una sola escritura.
func (m *MongoFulfillmentRepository) UpdateState(ctx context.Context, f *model.Fulfillment, next model.FulfillmentState, reason string) error {
	now := time.Now().UTC()

	history := make([]model.StateRecord, 0, len(f.History)+1)
	for _, h := range f.History {
		h.Current = false
		history = append(history, h)
	}
	history = append(history, model.StateRecord{
		State:     next,
		Reason:    reason,
		Timestamp: now,
		Current:   true,
	})

	return m.conditionalUpdate(ctx, f, bson.M{
		"state":      next,
		"history":    history,
		"updated_at": now,
	})
}

func (m *MongoFulfillmentRepository) AttachLabel(ctx context.Context, f *model.Fulfillment, assetID string) error {
	return m.conditionalUpdate(ctx, f, bson.M{
		"custom_fields.label_asset_id": assetID,
		"updated_at":                   time.Now().UTC(),
	})
}

func (m *MongoFulfillmentRepository) conditionalUpdate(ctx context.Context, f *model.Fulfillment, set bson.M) error {
	filter := bson.M{"_id": f.ID, "version": f.Version}
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}

	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	return nil
}
