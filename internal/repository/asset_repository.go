package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"shipment-orchestrator/internal/model"
)

type MongoAssetRepository struct {
	col *mongo.Collection
}

func NewMongoAssetRepository(db *mongo.Database) *MongoAssetRepository {
	return &MongoAssetRepository{col: db.Collection(assetsCollection)}
}

func (m *MongoAssetRepository) Save(ctx context.Context, a *model.Asset) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	_, err := m.col.InsertOne(ctx, a)
	return err
}

// Eventos que no se pudieron reconciliar; sólo se agregan, para auditoría.
type MongoUnreconciledEventRepository struct {
	col *mongo.Collection
}

func NewMongoUnreconciledEventRepository(db *mongo.Database) *MongoUnreconciledEventRepository {
	return &MongoUnreconciledEventRepository{col: db.Collection(unreconciledCollection)}
}

func (m *MongoUnreconciledEventRepository) Save(ctx context.Context, e *model.UnreconciledEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := m.col.InsertOne(ctx, e)
	return err
}
