package service

import (
	"context"
	"errors"
	"io"
	"time"

	"shipment-orchestrator/internal/carrier"
	"shipment-orchestrator/internal/dto"
	"shipment-orchestrator/internal/model"
)

// Interfaces que deben implementar los repositorios
type CarrierConfigRepository interface {
	FindLatest(ctx context.Context) (*model.CarrierConfig, error)
	FindByShippingMethod(ctx context.Context, shippingMethodID string) (*model.CarrierConfig, error)
	FindByID(ctx context.Context, id string) (*model.CarrierConfig, error)
	FindAll(ctx context.Context) ([]*model.CarrierConfig, error)
}

type ShipmentReferenceRepository interface {
	Create(ctx context.Context, ref *model.ShipmentReference) error
	SetRemoteShipmentID(ctx context.Context, refID string, remoteID int64) error
	FindByRemoteShipmentID(ctx context.Context, remoteID int64) (*model.ShipmentReference, error)
	ClaimPurchase(ctx context.Context, remoteID, offerID int64, staleAfter time.Duration) (model.PurchaseClaim, error)
	ConfirmPurchase(ctx context.Context, remoteID, offerID int64) error
	ReleasePurchase(ctx context.Context, remoteID int64) error
}

type FulfillmentRepository interface {
	Create(ctx context.Context, f *model.Fulfillment) error
	FindByTrackingCode(ctx context.Context, trackingCode string) (*model.Fulfillment, error)
	UpdateState(ctx context.Context, f *model.Fulfillment, next model.FulfillmentState, reason string) error
	AttachLabel(ctx context.Context, f *model.Fulfillment, assetID string) error
}

type AssetRepository interface {
	Save(ctx context.Context, a *model.Asset) error
}

type UnreconciledEventRepository interface {
	Save(ctx context.Context, e *model.UnreconciledEvent) error
}

type ObjectStorage interface {
	Upload(ctx context.Context, storageKey string, body io.ReadSeeker, size int64, contentType string) error
	Delete(ctx context.Context, storageKey string) error
}

// CarrierClient es el contrato del cliente HTTP del carrier.
type CarrierClient interface {
	CreateShipment(ctx context.Context, req carrier.CreateShipmentRequest) (*carrier.Shipment, error)
	GetShipment(ctx context.Context, id int64) (*carrier.Shipment, error)
	BuyOffer(ctx context.Context, shipmentID, offerID int64) (*carrier.Shipment, error)
	FetchLabel(ctx context.Context, shipmentID int64, format string) (io.ReadCloser, error)
}

// CarrierClientFactory construye un cliente nuevo por invocación.
type CarrierClientFactory func(cfg *model.CarrierConfig) CarrierClient

type JobOptions struct {
	Retries int
	Delay   time.Duration
}

// JobQueue cola durable de pasos (at-least-once).
type JobQueue interface {
	Add(ctx context.Context, job dto.OrderProgressJob, opts JobOptions) error
}

// Errores de negocio exportados (los usa el controller)
var (
	ErrConfigurationMissing       = errors.New("no hay configuración del carrier")
	ErrConfigurationIncomplete    = model.ErrConfigurationIncomplete
	ErrNoOrders                   = errors.New("no se indicaron órdenes")
	ErrInconsistentShippingMethod = errors.New("las órdenes no comparten un único método de envío")
	ErrMissingContactInformation  = errors.New("falta teléfono o email del cliente")
	ErrPurchaseInFlight           = errors.New("otro intento tiene tomada la compra")
)
