package service

import (
	"context"

	"go.uber.org/zap"

	"shipment-orchestrator/internal/model"
)

// reportUnreconciled registra un evento que no pudo asociarse a un fulfillment.
// No devuelve error: quien llama descarta el evento de todas formas.
func reportUnreconciled(ctx context.Context, repo UnreconciledEventRepository, l *zap.Logger, ev model.UnreconciledEvent) {
	l.Warn("Evento no reconciliado",
		zap.Bool("unreconciled", true),
		zap.String("source", ev.Source),
		zap.Int64("shipment_id", ev.ShipmentID),
		zap.String("status", ev.Status),
		zap.String("reason", ev.Reason))

	if repo == nil {
		return
	}
	if err := repo.Save(ctx, &ev); err != nil {
		l.Error("No se pudo guardar el evento no reconciliado", zap.Error(err))
	}
}
