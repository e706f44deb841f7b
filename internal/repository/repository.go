package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrNotFound           = errors.New("registro no encontrado")
	ErrRemoteIDAlreadySet = errors.New("el envío remoto ya fue asignado a la referencia")
	ErrVersionConflict    = errors.New("el fulfillment fue modificado concurrentemente")
	ErrPurchaseClaimLost  = errors.New("el claim de compra ya no pertenece a esta oferta")
)

const (
	carrierConfigsCollection     = "carrier_configs"
	shipmentReferencesCollection = "shipment_references"
	fulfillmentsCollection       = "fulfillments"
	assetsCollection             = "assets"
	unreconciledCollection       = "unreconciled_events"
)

// EnsureIndexes crea los índices que sostienen las búsquedas por clave.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string]mongo.IndexModel{
		fulfillmentsCollection: {
			Keys:    bson.D{{Key: "tracking_code", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		shipmentReferencesCollection: {
			Keys: bson.D{{Key: "remote_shipment_id", Value: 1}},
		},
		carrierConfigsCollection: {
			Keys: bson.D{{Key: "shipping_method_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}
	for name, model := range indexes {
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, model); err != nil {
			return err
		}
	}
	return nil
}

func findOne[T any](ctx context.Context, col *mongo.Collection, filter any, opts ...*options.FindOneOptions) (*T, error) {
	var res T
	err := col.FindOne(ctx, filter, opts...).Decode(&res)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}
