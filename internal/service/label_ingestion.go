package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"shipment-orchestrator/internal/model"
	"shipment-orchestrator/internal/repository"
)

// Intentos ante conflicto de versión del fulfillment
const maxVersionRetries = 3

type AssetCreator interface {
	CreateFromFileStream(ctx context.Context, file *os.File) (*model.Asset, error)
}

// LabelIngestion guarda la etiqueta como asset y la vincula al fulfillment
// cuyo tracking code coincide.
type LabelIngestion struct {
	fulfillments FulfillmentRepository
	assets       AssetCreator
	unreconciled UnreconciledEventRepository
	tempRoot     string
	logger       *zap.Logger
}

func NewLabelIngestion(
	fulfillments FulfillmentRepository,
	assets AssetCreator,
	unreconciled UnreconciledEventRepository,
	tempRoot string,
	logger *zap.Logger,
) *LabelIngestion {
	return &LabelIngestion{
		fulfillments: fulfillments,
		assets:       assets,
		unreconciled: unreconciled,
		tempRoot:     tempRoot,
		logger:       logger.Named("labels"),
	}
}

func (l *LabelIngestion) Ingest(ctx context.Context, stream io.Reader, trackingCode string) error {
	log := l.logger.With(zap.String("tracking_code", trackingCode))

	f, err := l.fulfillments.FindByTrackingCode(ctx, trackingCode)
	if errors.Is(err, repository.ErrNotFound) {
		shipmentID, _ := strconv.ParseInt(trackingCode, 10, 64)
		reportUnreconciled(ctx, l.unreconciled, log, model.UnreconciledEvent{
			Source:     "label",
			ShipmentID: shipmentID,
			Reason:     "fulfillment no encontrado",
		})
		return nil
	}
	if err != nil {
		return err
	}
	if f.CustomFields.LabelAssetID != "" {
		log.Info("El fulfillment ya tiene etiqueta", zap.String("asset_id", f.CustomFields.LabelAssetID))
		return nil
	}

	dir, err := os.MkdirTemp(l.tempRoot, "label-*")
	if err != nil {
		return fmt.Errorf("creando directorio temporal: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn("No se pudo borrar el directorio temporal", zap.String("dir", dir), zap.Error(err))
		}
	}()

	path := filepath.Join(dir, "label-"+trackingCode)
	if err := writeFile(path, stream); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	asset, err := l.assets.CreateFromFileStream(ctx, file)
	if err != nil {
		return fmt.Errorf("creando asset: %w", err)
	}

	if err := l.attach(ctx, f, asset.ID); err != nil {
		return err
	}
	log.Info("Etiqueta vinculada", zap.String("asset_id", asset.ID), zap.Int64("bytes", asset.FileSize))
	return nil
}

func writeFile(path string, stream io.Reader) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, stream); err != nil {
		out.Close()
		return fmt.Errorf("escribiendo etiqueta: %w", err)
	}
	return out.Close()
}

// attach relee el fulfillment y reintenta si otro escritor (webhook) lo modificó.
func (l *LabelIngestion) attach(ctx context.Context, f *model.Fulfillment, assetID string) error {
	for attempt := 1; ; attempt++ {
		err := l.fulfillments.AttachLabel(ctx, f, assetID)
		if !errors.Is(err, repository.ErrVersionConflict) || attempt == maxVersionRetries {
			return err
		}
		if f, err = l.fulfillments.FindByTrackingCode(ctx, f.TrackingCode); err != nil {
			return err
		}
	}
}
