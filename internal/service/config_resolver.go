package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shipment-orchestrator/internal/model"
	"shipment-orchestrator/internal/repository"
)

// ConfigResolver resuelve la configuración del carrier. Solo lectura.
type ConfigResolver struct {
	repo   CarrierConfigRepository
	logger *zap.Logger
}

func NewConfigResolver(repo CarrierConfigRepository, logger *zap.Logger) *ConfigResolver {
	return &ConfigResolver{repo: repo, logger: logger.Named("config-resolver")}
}

// Latest devuelve la configuración más reciente, sin importar el método de envío.
func (r *ConfigResolver) Latest(ctx context.Context) (*model.CarrierConfig, error) {
	cfg, err := r.repo.FindLatest(ctx)
	if err != nil {
		return nil, r.wrapLookup(err)
	}
	return cfg, cfg.Validate()
}

// ForShippingMethod devuelve la configuración del método; si no hay una
// asociada se usa la más reciente.
func (r *ConfigResolver) ForShippingMethod(ctx context.Context, shippingMethodID string) (*model.CarrierConfig, error) {
	cfg, err := r.repo.FindByShippingMethod(ctx, shippingMethodID)
	if errors.Is(err, repository.ErrNotFound) {
		r.logger.Debug("Método de envío sin configuración propia, usando la última",
			zap.String("shipping_method_id", shippingMethodID))
		return r.Latest(ctx)
	}
	if err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ByID la usan los pasos de la cola, que guardan el id de configuración.
func (r *ConfigResolver) ByID(ctx context.Context, id string) (*model.CarrierConfig, error) {
	cfg, err := r.repo.FindByID(ctx, id)
	if err != nil {
		return nil, r.wrapLookup(err)
	}
	return cfg, cfg.Validate()
}

// IsConfigured es la versión "blanda" para pantallas de estado: nunca falla.
func (r *ConfigResolver) IsConfigured(ctx context.Context) bool {
	if _, err := r.Latest(ctx); err != nil {
		r.logger.Warn("Carrier mal configurado", zap.Error(err))
		return false
	}
	return true
}

func (r *ConfigResolver) All(ctx context.Context) ([]*model.CarrierConfig, error) {
	return r.repo.FindAll(ctx)
}

func (r *ConfigResolver) wrapLookup(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrConfigurationMissing
	}
	return fmt.Errorf("leyendo configuración del carrier: %w", err)
}
