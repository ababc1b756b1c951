package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/fixmate/pkg/models"
)

const assetColumns = `asset_id, name, type, location, description, status, next_maintenance, maintenance_interval_days, created_at`

func (r *SQLiteRepo) CreateAsset(ctx context.Context, a *models.Asset) (int64, error) {
	if a == nil {
		return 0, fmt.Errorf("asset is nil")
	}

	res, err := r.q.ExecContext(ctx, `INSERT INTO assets (name, type, location, description, status, next_maintenance, maintenance_interval_days, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Name, a.Type, a.Location, a.Description, a.Status, nullString(a.NextMaintenance), a.MaintenanceIntervalDays, now())
	if err != nil {
		return 0, fmt.Errorf("insert asset: %w", err)
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetAsset(ctx context.Context, id int64) (*models.Asset, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM assets WHERE asset_id = ?`, id)
	a, err := scanAsset(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return a, nil
}

func (r *SQLiteRepo) ListAssets(ctx context.Context) ([]models.Asset, error) {
	return r.listAssets(ctx, `SELECT `+assetColumns+` FROM assets ORDER BY asset_id`)
}

func (r *SQLiteRepo) ListAssetsDue(ctx context.Context, day string) ([]models.Asset, error) {
	return r.listAssets(ctx, `SELECT `+assetColumns+` FROM assets WHERE next_maintenance IS NOT NULL AND next_maintenance <= ? ORDER BY next_maintenance, asset_id`, day)
}

func (r *SQLiteRepo) listAssets(ctx context.Context, query string, args ...any) ([]models.Asset, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) DeleteAsset(ctx context.Context, id int64) (bool, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM assets WHERE asset_id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *SQLiteRepo) CountAssetReferences(ctx context.Context, id int64) (int64, error) {
	row := r.q.QueryRowContext(ctx, `SELECT (SELECT COUNT(*) FROM maintenance_requests WHERE asset_id = ?) + (SELECT COUNT(*) FROM maintenance_tasks WHERE asset_id = ?)`, id, id)
	var cnt int64
	if err := row.Scan(&cnt); err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *SQLiteRepo) SetNextMaintenance(ctx context.Context, id int64, day string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE assets SET next_maintenance = ? WHERE asset_id = ?`, day, id)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(s scanner) (*models.Asset, error) {
	var a models.Asset
	var next sql.NullString
	if err := s.Scan(&a.ID, &a.Name, &a.Type, &a.Location, &a.Description, &a.Status, &next, &a.MaintenanceIntervalDays, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.NextMaintenance = ptrString(next)
	return &a, nil
}
