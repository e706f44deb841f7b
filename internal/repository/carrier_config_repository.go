package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shipment-orchestrator/internal/model"
)

// Solo lectura: las configuraciones las administra el backoffice.
type MongoCarrierConfigRepository struct {
	col *mongo.Collection
}

func NewMongoCarrierConfigRepository(db *mongo.Database) *MongoCarrierConfigRepository {
	return &MongoCarrierConfigRepository{col: db.Collection(carrierConfigsCollection)}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

func (m *MongoCarrierConfigRepository) FindLatest(ctx context.Context) (*model.CarrierConfig, error) {
	return findOne[model.CarrierConfig](ctx, m.col, bson.M{}, options.FindOne().SetSort(newestFirst))
}

func (m *MongoCarrierConfigRepository) FindByShippingMethod(ctx context.Context, shippingMethodID string) (*model.CarrierConfig, error) {
	return findOne[model.CarrierConfig](ctx, m.col,
		bson.M{"shipping_method_id": shippingMethodID},
		options.FindOne().SetSort(newestFirst))
}

func (m *MongoCarrierConfigRepository) FindByID(ctx context.Context, id string) (*model.CarrierConfig, error) {
	return findOne[model.CarrierConfig](ctx, m.col, bson.M{"_id": id})
}

func (m *MongoCarrierConfigRepository) FindAll(ctx context.Context) ([]*model.CarrierConfig, error) {
	cur, err := m.col.Find(ctx, bson.M{}, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []*model.CarrierConfig
	for cur.Next(ctx) {
		var v model.CarrierConfig
		if err := cur.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, &v)
	}
	return out, cur.Err()
}
