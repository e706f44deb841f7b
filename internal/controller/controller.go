package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shipment-orchestrator/internal/carrier"
	"shipment-orchestrator/internal/logger"
	"shipment-orchestrator/internal/model"
	"shipment-orchestrator/internal/service"
)

// Dependencias de los controllers

type ShipmentCreator interface {
	CreateShipment(ctx context.Context, orders []*model.Order, lineIDs []string, packageSize string) (*carrier.Shipment, error)
}

type OrderFetcher interface {
	GetOrders(ctx context.Context, ids []string, token string) ([]*model.Order, error)
}

type ConfigReader interface {
	Latest(ctx context.Context) (*model.CarrierConfig, error)
	IsConfigured(ctx context.Context) bool
	All(ctx context.Context) ([]*model.CarrierConfig, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, body []byte) (service.ReconcileOutcome, error)
}

type ReferenceReader interface {
	FindByRemoteShipmentID(ctx context.Context, remoteID int64) (*model.ShipmentReference, error)
}

type FulfillmentReader interface {
	FindByTrackingCode(ctx context.Context, trackingCode string) (*model.Fulfillment, error)
}

// statusFor traduce los errores de negocio a códigos HTTP.
func statusFor(err error) int {
	var apiErr *carrier.APIError
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoOrders),
		errors.Is(err, service.ErrInconsistentShippingMethod),
		errors.Is(err, service.ErrMissingContactInformation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrConfigurationMissing),
		errors.Is(err, service.ErrConfigurationIncomplete):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).Error("Error atendiendo request", zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}
