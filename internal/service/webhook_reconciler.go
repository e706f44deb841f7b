package service

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"shipment-orchestrator/internal/dto"
	"shipment-orchestrator/internal/model"
	"shipment-orchestrator/internal/repository"
)

type ReconcileOutcome string

const (
	OutcomeInvalid            ReconcileOutcome = "invalid"
	OutcomeUnknownShipment    ReconcileOutcome = "unknown_shipment"
	OutcomeUnknownFulfillment ReconcileOutcome = "unknown_fulfillment"
	OutcomeIgnored            ReconcileOutcome = "ignored"
	OutcomeUnchanged          ReconcileOutcome = "unchanged"
	OutcomeRejected           ReconcileOutcome = "rejected"
	OutcomeTransitioned       ReconcileOutcome = "transitioned"
)

// Estados del carrier que mueven el fulfillment; el resto se ignora.
var webhookTransitions = map[string]model.FulfillmentState{
	"delivered":                 model.FulfillmentDelivered,
	"taken_by_courier":          model.FulfillmentShipped,
	"taken_by_courier_from_pok": model.FulfillmentShipped,
	"canceled":                  model.FulfillmentCancelled,
}

// WebhookReconciler aplica los eventos del carrier sobre los fulfillments.
// Es síncrono y no usa la cola.
type WebhookReconciler struct {
	refs         ShipmentReferenceRepository
	fulfillments FulfillmentRepository
	unreconciled UnreconciledEventRepository
	validate     *validator.Validate
	logger       *zap.Logger
}

func NewWebhookReconciler(
	refs ShipmentReferenceRepository,
	fulfillments FulfillmentRepository,
	unreconciled UnreconciledEventRepository,
	logger *zap.Logger,
) *WebhookReconciler {
	return &WebhookReconciler{
		refs:         refs,
		fulfillments: fulfillments,
		unreconciled: unreconciled,
		validate:     validator.New(),
		logger:       logger.Named("webhooks"),
	}
}

// Reconcile nunca falla por el contenido del evento: los eventos malformados o
// sin correspondencia se registran y se descartan. Sólo devuelve error si falla
// el almacenamiento, para que el carrier reintente.
func (w *WebhookReconciler) Reconcile(ctx context.Context, body []byte) (ReconcileOutcome, error) {
	var event dto.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		w.logger.Warn("Webhook con cuerpo inválido", zap.Error(err))
		return OutcomeInvalid, nil
	}
	if err := w.validate.Struct(event); err != nil {
		w.logger.Warn("Webhook con formato inesperado", zap.Error(err))
		return OutcomeInvalid, nil
	}

	status := event.Payload.Status
	shipmentID := event.Payload.ShipmentID
	log := w.logger.With(zap.Int64("shipment_id", shipmentID), zap.String("status", status))

	if _, err := w.refs.FindByRemoteShipmentID(ctx, shipmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			reportUnreconciled(ctx, w.unreconciled, log, model.UnreconciledEvent{
				Source: "webhook", ShipmentID: shipmentID, Status: status, Reason: "envío desconocido",
			})
			return OutcomeUnknownShipment, nil
		}
		return "", err
	}

	trackingCode := strconv.FormatInt(shipmentID, 10)
	f, err := w.fulfillments.FindByTrackingCode(ctx, trackingCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			reportUnreconciled(ctx, w.unreconciled, log, model.UnreconciledEvent{
				Source: "webhook", ShipmentID: shipmentID, Status: status, Reason: "fulfillment no encontrado",
			})
			return OutcomeUnknownFulfillment, nil
		}
		return "", err
	}

	next, ok := webhookTransitions[status]
	if !ok {
		log.Debug("Estado de webhook ignorado")
		return OutcomeIgnored, nil
	}

	for attempt := 1; ; attempt++ {
		if f.State == next {
			return OutcomeUnchanged, nil
		}
		if !f.State.CanTransitionTo(next) {
			log.Warn("Transición no permitida",
				zap.String("from", string(f.State)), zap.String("to", string(next)))
			return OutcomeRejected, nil
		}

		err = w.fulfillments.UpdateState(ctx, f, next, "carrier: "+status)
		if err == nil {
			log.Info("Fulfillment actualizado",
				zap.String("from", string(f.State)), zap.String("to", string(next)))
			return OutcomeTransitioned, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) || attempt == maxVersionRetries {
			return "", err
		}
		if f, err = w.fulfillments.FindByTrackingCode(ctx, trackingCode); err != nil {
			return "", err
		}
	}
}
