// models.go
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrConfigurationIncomplete = errors.New("configuración del carrier incompleta")

// CarrierConfig: credenciales del carrier asociadas a un método de envío.
type CarrierConfig struct {
	ID               string    `bson:"_id" json:"id"`
	Host             string    `bson:"host" json:"host"`
	APIKey           string    `bson:"api_key" json:"apiKey"`
	Service          string    `bson:"service" json:"service"`
	OrganizationID   string    `bson:"organization_id" json:"organizationId"`
	GeoWidgetKey     string    `bson:"geo_widget_key,omitempty" json:"geoWidgetKey,omitempty"`
	ShippingMethodID string    `bson:"shipping_method_id" json:"shippingMethodId"`
	CreatedAt        time.Time `bson:"created_at" json:"createdAt"`
}

// Validate devuelve ErrConfigurationIncomplete con los campos faltantes.
func (c *CarrierConfig) Validate() error {
	var missing []string
	if c.Host == "" {
		missing = append(missing, "host")
	}
	if c.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if c.Service == "" {
		missing = append(missing, "service")
	}
	if c.OrganizationID == "" {
		missing = append(missing, "organization_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: faltan %s", ErrConfigurationIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// ShipmentReference correlaciona líneas de orden, configuración y envío remoto.
type ShipmentReference struct {
	ID               string   `bson:"_id" json:"id"`
	OrderLineIDs     []string `bson:"order_line_ids" json:"orderLineIds"`
	ConfigID         string   `bson:"config_id" json:"configId"`
	RemoteShipmentID *int64   `bson:"remote_shipment_id" json:"remoteShipmentId"` // nil hasta que el carrier responde

	// Claim de compra: evita una segunda compra si el job "buy" se reentrega.
	// Sin confirmación, el claim vence y otro intento puede tomarlo.
	PurchasedOfferID    *int64     `bson:"purchased_offer_id,omitempty" json:"purchasedOfferId,omitempty"`
	PurchaseClaimedAt   *time.Time `bson:"purchase_claimed_at,omitempty" json:"purchaseClaimedAt,omitempty"`
	PurchaseConfirmedAt *time.Time `bson:"purchase_confirmed_at,omitempty" json:"purchaseConfirmedAt,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// PurchaseClaim resultado de intentar tomar la compra de un envío.
type PurchaseClaim int

const (
	PurchaseClaimed   PurchaseClaim = iota // quien llama debe comprar
	PurchaseConfirmed                      // la compra ya se hizo
	PurchaseInFlight                       // otro intento la tiene tomada y no venció
)

type FulfillmentState string

const (
	FulfillmentPending   FulfillmentState = "Pending"
	FulfillmentShipped   FulfillmentState = "Shipped"
	FulfillmentDelivered FulfillmentState = "Delivered"
	FulfillmentCancelled FulfillmentState = "Cancelled"
)

// Transiciones permitidas. Delivered y Cancelled son finales.
var fulfillmentTransitions = map[FulfillmentState][]FulfillmentState{
	FulfillmentPending: {FulfillmentShipped, FulfillmentDelivered, FulfillmentCancelled},
	FulfillmentShipped: {FulfillmentDelivered, FulfillmentCancelled},
}

func (s FulfillmentState) CanTransitionTo(next FulfillmentState) bool {
	for _, allowed := range fulfillmentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s FulfillmentState) IsFinal() bool {
	return s == FulfillmentDelivered || s == FulfillmentCancelled
}

// Fulfillment local. TrackingCode = id del envío remoto como string.
type Fulfillment struct {
	ID           string            `bson:"_id" json:"id"`
	TrackingCode string            `bson:"tracking_code" json:"trackingCode"`
	Method       string            `bson:"method" json:"method"`
	OrderLineIDs []string          `bson:"order_line_ids" json:"orderLineIds"`
	State        FulfillmentState  `bson:"state" json:"state"`
	History      []StateRecord     `bson:"history" json:"history"`
	CustomFields FulfillmentFields `bson:"custom_fields" json:"customFields"`
	Version      int64             `bson:"version" json:"version"`
	CreatedAt    time.Time         `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time         `bson:"updated_at" json:"updatedAt"`
}

type FulfillmentFields struct {
	LabelAssetID string `bson:"label_asset_id,omitempty" json:"labelAssetId,omitempty"`
}

type StateRecord struct {
	State     FulfillmentState `bson:"state" json:"state"`
	Reason    string           `bson:"reason" json:"reason"`
	Timestamp time.Time        `bson:"timestamp" json:"timestamp"`

	// Para marcar cuál es el último
	Current bool `bson:"current" json:"current"`
}

// Asset administrado: archivo subido al bucket.
type Asset struct {
	ID         string    `bson:"_id" json:"id"`
	Name       string    `bson:"name" json:"name"`
	StorageKey string    `bson:"storage_key" json:"storageKey"`
	MimeType   string    `bson:"mime_type" json:"mimeType"`
	FileSize   int64     `bson:"file_size" json:"fileSize"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}

// UnreconciledEvent: evento que no pudo asociarse a un fulfillment.
type UnreconciledEvent struct {
	Source     string    `bson:"source" json:"source"` // webhook | label
	ShipmentID int64     `bson:"shipment_id" json:"shipmentId"`
	Status     string    `bson:"status,omitempty" json:"status,omitempty"`
	Reason     string    `bson:"reason" json:"reason"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}
