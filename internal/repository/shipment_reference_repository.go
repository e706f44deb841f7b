package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"shipment-orchestrator/internal/model"
)

// MongoShipmentReferenceRepository es el almacén de correlación.
// Nunca borra filas.
type MongoShipmentReferenceRepository struct {
	col *mongo.Collection
}

func NewMongoShipmentReferenceRepository(db *mongo.Database) *MongoShipmentReferenceRepository {
	return &MongoShipmentReferenceRepository{col: db.Collection(shipmentReferencesCollection)}
}

func (m *MongoShipmentReferenceRepository) Create(ctx context.Context, ref *model.ShipmentReference) error {
	now := time.Now().UTC()
	ref.CreatedAt = now
	ref.UpdatedAt = now
	_, err := m.col.InsertOne(ctx, ref)
	return err
}

// SetRemoteShipmentID asigna el id remoto una única vez.
func (m *MongoShipmentReferenceRepository) SetRemoteShipmentID(ctx context.Context, refID string, remoteID int64) error {
	filter := bson.M{"_id": refID, "remote_shipment_id": nil}
	update := bson.M{"$set": bson.M{
		"remote_shipment_id": remoteID,
		"updated_at":         time.Now().UTC(),
	}}

	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return m.missOrConflict(ctx, bson.M{"_id": refID}, ErrRemoteIDAlreadySet)
	}
	return nil
}

func (m *MongoShipmentReferenceRepository) FindByRemoteShipmentID(ctx context.Context, remoteID int64) (*model.ShipmentReference, error) {
	return findOne[model.ShipmentReference](ctx, m.col, bson.M{"remote_shipment_id": remoteID})
}

// ClaimPurchase toma la compra del envío si nadie la tomó, o si el claim
// anterior no se confirmó y tiene más de staleAfter.
func (m *MongoShipmentReferenceRepository) ClaimPurchase(ctx context.Context, remoteID, offerID int64, staleAfter time.Duration) (model.PurchaseClaim, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"remote_shipment_id": remoteID,
		"$or": bson.A{
			bson.M{"purchased_offer_id": bson.M{"$exists": false}},
			bson.M{
				"purchase_confirmed_at": nil,
				"purchase_claimed_at":   bson.M{"$lt": now.Add(-staleAfter)},
			},
		},
	}
	update := bson.M{"$set": bson.M{
		"purchased_offer_id":  offerID,
		"purchase_claimed_at": now,
		"updated_at":          now,
	}}

	res, err := m.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	if res.MatchedCount == 1 {
		return model.PurchaseClaimed, nil
	}

	ref, err := m.FindByRemoteShipmentID(ctx, remoteID)
	if err != nil {
		return 0, err
	}
	if ref.PurchaseConfirmedAt != nil {
		return model.PurchaseConfirmed, nil
	}
	return model.PurchaseInFlight, nil
}

// ConfirmPurchase marca la compra como hecha; desde ahí el claim no vence.
func (m *MongoShipmentReferenceRepository) ConfirmPurchase(ctx context.Context, remoteID, offerID int64) error {
	now := time.Now().UTC()
	filter := bson.M{"remote_shipment_id": remoteID, "purchased_offer_id": offerID}
	res, err := m.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"purchase_confirmed_at": now,
		"updated_at":            now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return m.missOrConflict(ctx, bson.M{"remote_shipment_id": remoteID}, ErrPurchaseClaimLost)
	}
	return nil
}

// ReleasePurchase deshace un claim sin confirmar cuando la compra falló.
func (m *MongoShipmentReferenceRepository) ReleasePurchase(ctx context.Context, remoteID int64) error {
	_, err := m.col.UpdateOne(ctx,
		bson.M{"remote_shipment_id": remoteID, "purchase_confirmed_at": nil},
		bson.M{
			"$unset": bson.M{"purchased_offer_id": "", "purchase_claimed_at": ""},
			"$set":   bson.M{"updated_at": time.Now().UTC()},
		})
	return err
}

// missOrConflict distingue "no existe" de "existe pero no cumple la condición".
func (m *MongoShipmentReferenceRepository) missOrConflict(ctx context.Context, filter bson.M, conflict error) error {
	n, err := m.col.CountDocuments(ctx, filter)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return conflict
}
