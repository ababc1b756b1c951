package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/fixmate/pkg/models"
)

const taskSelect = `SELECT t.id, t.request_id, t.asset_id, t.technician_name, t.priority, t.description, t.deadline, t.status, t.created_at, t.updated_at,
	COALESCE(a.name, ''), COALESCE(a.location, '')
FROM maintenance_tasks t
LEFT JOIN assets a ON a.asset_id = t.asset_id`

func (r *SQLiteRepo) CreateTask(ctx context.Context, t *models.MaintenanceTask) (int64, error) {
	if t == nil {
		return 0, fmt.Errorf("task is nil")
	}

	ts := now()
	res, err := r.q.ExecContext(ctx, `INSERT INTO maintenance_tasks (request_id, asset_id, technician_name, priority, description, deadline, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullInt64(t.RequestID), nullInt64(t.AssetID), t.TechnicianName, t.Priority, t.Description, t.Deadline, t.Status, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetTask(ctx context.Context, id int64) (*models.MaintenanceTask, error) {
	row := r.q.QueryRowContext(ctx, taskSelect+` WHERE t.id = ?`, id)
	t, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return t, nil
}

func (r *SQLiteRepo) ListTasksByTechnician(ctx context.Context, technician string) ([]models.MaintenanceTask, error) {
	return r.listTasks(ctx, taskSelect+` WHERE t.technician_name = ? ORDER BY t.deadline ASC, t.id ASC`, technician)
}

func (r *SQLiteRepo) ListTasks(ctx context.Context) ([]models.MaintenanceTask, error) {
	return r.listTasks(ctx, taskSelect+` ORDER BY t.deadline ASC, t.id ASC`)
}

func (r *SQLiteRepo) listTasks(ctx context.Context, query string, args ...any) ([]models.MaintenanceTask, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.MaintenanceTask{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) UpdateTaskStatus(ctx context.Context, id int64, status string, description *string) (bool, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE maintenance_tasks SET status = ?, description = COALESCE(?, description), updated_at = ? WHERE id = ?`,
		status, nullString(description), now(), id)
	if err != nil {
		return false, fmt.Errorf("update task status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func scanTask(s scanner) (*models.MaintenanceTask, error) {
	var t models.MaintenanceTask
	var requestID, assetID sql.NullInt64
	if err := s.Scan(&t.ID, &requestID, &assetID, &t.TechnicianName, &t.Priority, &t.Description, &t.Deadline, &t.Status, &t.CreatedAt, &t.UpdatedAt, &t.AssetName, &t.AssetLocation); err != nil {
		return nil, err
	}
	t.RequestID = ptrInt64(requestID)
	t.AssetID = ptrInt64(assetID)
	return &t, nil
}
