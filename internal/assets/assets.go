// Package assets manages the registry of tracked physical assets.
package assets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/garnizeh/fixmate/internal/apperr"
	"github.com/garnizeh/fixmate/pkg/models"
	"github.com/garnizeh/fixmate/pkg/repository"
)

// Fields are the caller-supplied attributes of a new asset.
type Fields struct {
	Name                    string `json:"name"`
	Type                    string `json:"type"`
	Location                string `json:"location"`
	Description             string `json:"description"`
	Status                  string `json:"status"`
	NextMaintenance         string `json:"next_maintenance"`
	MaintenanceIntervalDays int    `json:"maintenance_interval_days"`
}

type Service struct {
	store  repository.Store
	logger *slog.Logger
}

func New(store repository.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

func (s *Service) Create(ctx context.Context, f Fields) (int64, error) {
	const op = "assets.create"

	a := &models.Asset{
		Name:                    strings.TrimSpace(f.Name),
		Type:                    strings.TrimSpace(f.Type),
		Location:                strings.TrimSpace(f.Location),
		Description:             strings.TrimSpace(f.Description),
		Status:                  strings.TrimSpace(f.Status),
		MaintenanceIntervalDays: f.MaintenanceIntervalDays,
	}
	if a.Name == "" {
		return 0, apperr.Validation(op, "name is required")
	}
	if a.Status == "" {
		a.Status = models.AssetOperational
	}
	if a.MaintenanceIntervalDays < 0 {
		return 0, apperr.Validation(op, "maintenance_interval_days must not be negative")
	}
	if next := strings.TrimSpace(f.NextMaintenance); next != "" {
		if _, err := time.Parse(models.DateLayout, next); err != nil {
			return 0, apperr.Validation(op, fmt.Sprintf("next_maintenance must be a %s date", models.DateLayout))
		}
		a.NextMaintenance = &next
	}

	id, err := s.store.CreateAsset(ctx, a)
	if err != nil {
		return 0, apperr.Storage(op, err)
	}

	s.logger.Info("asset created", slog.Int64("asset_id", id), slog.String("name", a.Name))
	return id, nil
}

func (s *Service) List(ctx context.Context) ([]models.Asset, error) {
	out, err := s.store.ListAssets(ctx)
	if err != nil {
		return nil, apperr.Storage("assets.list", err)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Asset, error) {
	a, err := s.store.GetAsset(ctx, id)
	if err != nil {
		return nil, apperr.Storage("assets.get", err)
	}
	if a == nil {
		return nil, apperr.NotFound("assets.get", fmt.Sprintf("asset %d not found", id))
	}
	return a, nil
}

// Delete removes an asset that no request or task references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "assets.delete"

	err := s.store.InTx(ctx, func(tx repository.Store) error {
		refs, err := tx.CountAssetReferences(ctx, id)
		if err != nil {
			return apperr.Storage(op, err)
		}
		if refs > 0 {
			return apperr.Conflict(op, fmt.Sprintf("asset %d is referenced by %d requests or tasks", id, refs))
		}

		deleted, err := tx.DeleteAsset(ctx, id)
		if err != nil {
			return apperr.Storage(op, err)
		}
		if !deleted {
			return apperr.NotFound(op, fmt.Sprintf("asset %d not found", id))
		}
		return nil
	})
	if err != nil {
		return apperr.FromTx(op, err)
	}

	s.logger.Info("asset deleted", slog.Int64("asset_id", id))
	return nil
}
