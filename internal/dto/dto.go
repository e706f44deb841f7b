// dto.go
package dto

import (
	"time"

	"shipment-orchestrator/internal/model"
)

// CreateShipmentRequest usado por la API para crear un envío de un lote de órdenes
type CreateShipmentRequest struct {
	OrderIDs    []string `json:"orderIds" binding:"required,min=1"`
	LineIDs     []string `json:"lineIds"`
	PackageSize string   `json:"packageSize" binding:"required"`
}

type ShipmentResponse struct {
	ID             int64  `json:"id"`
	Status         string `json:"status"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
}

type CarrierStatusResponse struct {
	Configured bool `json:"configured"`
}

// CarrierConfigResponse oculta la API key
type CarrierConfigResponse struct {
	ID               string    `json:"id"`
	Host             string    `json:"host"`
	APIKey           string    `json:"apiKey"`
	Service          string    `json:"service"`
	OrganizationID   string    `json:"organizationId"`
	ShippingMethodID string    `json:"shippingMethodId"`
	Configured       bool      `json:"configured"`
	CreatedAt        time.Time `json:"createdAt"`
}

// WebhookEvent cuerpo que envía el carrier: { payload: { status, shipment_id } }
type WebhookEvent struct {
	Payload *WebhookPayload `json:"payload" validate:"required"`
}

type WebhookPayload struct {
	Status     string `json:"status" validate:"required"`
	ShipmentID int64  `json:"shipment_id" validate:"required,gt=0"`
}

type Step string

const (
	StepBuy   Step = "buy"
	StepLabel Step = "label"
)

// JobContext es el contexto de la petición original serializado en el job.
type JobContext struct {
	RequestID string `json:"requestId"`
	UserID    string `json:"userId"`
}

// OrderProgressJob mensaje de la cola de pasos. La demora viaja en
// JobOptions y la cola la aplica al publicar.
type OrderProgressJob struct {
	Ctx        JobContext `json:"ctx"`
	ConfigID   string     `json:"configId"`
	ShipmentID int64      `json:"shipmentId"`
	Step       Step       `json:"step"`
}

type GeoWidgetResponse struct {
	Token string `json:"token"`
}

// ShipmentDetailResponse correlación de un envío remoto para soporte.
type ShipmentDetailResponse struct {
	Reference   *model.ShipmentReference `json:"reference"`
	Fulfillment *model.Fulfillment       `json:"fulfillment,omitempty"`
}
