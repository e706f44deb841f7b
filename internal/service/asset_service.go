package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shipment-orchestrator/internal/model"
)

// AssetService sube archivos al bucket y registra el asset.
type AssetService struct {
	storage ObjectStorage
	repo    AssetRepository
	logger  *zap.Logger
}

func NewAssetService(storage ObjectStorage, repo AssetRepository, logger *zap.Logger) *AssetService {
	return &AssetService{storage: storage, repo: repo, logger: logger.Named("assets")}
}

// CreateFromFileStream crea un asset a partir de un archivo abierto.
func (s *AssetService) CreateFromFileStream(ctx context.Context, file *os.File) (*model.Asset, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	mime, err := mimetype.DetectReader(file)
	if err != nil {
		return nil, fmt.Errorf("detectando tipo de archivo: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	name := filepath.Base(file.Name()) + mime.Extension()
	asset := &model.Asset{
		ID:         id,
		Name:       name,
		StorageKey: fmt.Sprintf("assets/%s/%s", id, name),
		MimeType:   mime.String(),
		FileSize:   info.Size(),
	}

	if err := s.storage.Upload(ctx, asset.StorageKey, file, info.Size(), asset.MimeType); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, asset); err != nil {
		// sin fila el objeto queda huérfano
		if derr := s.storage.Delete(ctx, asset.StorageKey); derr != nil {
			s.logger.Warn("No se pudo borrar el objeto huérfano",
				zap.String("storage_key", asset.StorageKey), zap.Error(derr))
		}
		return nil, fmt.Errorf("guardando asset: %w", err)
	}
	return asset, nil
}
