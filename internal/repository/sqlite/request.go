package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/fixmate/pkg/models"
)

// SystemSubmitter is the display name of requests without an employee.
const SystemSubmitter = "System"

const requestSelect = `SELECT r.request_id, r.asset_id, r.employee_id, r.title, r.description, r.location, r.status, r.source, r.due_date, r.created_at,
	COALESCE(u.full_name, '` + SystemSubmitter + `'), COALESCE(a.name, '')
FROM maintenance_requests r
LEFT JOIN users u ON u.id = r.employee_id
LEFT JOIN assets a ON a.asset_id = r.asset_id`

func (r *SQLiteRepo) CreateRequest(ctx context.Context, req *models.MaintenanceRequest) (int64, error) {
	if req == nil {
		return 0, fmt.Errorf("request is nil")
	}

	res, err := r.q.ExecContext(ctx, `INSERT INTO maintenance_requests (asset_id, employee_id, title, description, location, status, source, due_date, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullInt64(req.AssetID), nullInt64(req.EmployeeID), req.Title, req.Description, req.Location, req.Status, req.Source, nullString(req.DueDate), now())
	if err != nil {
		return 0, fmt.Errorf("insert request: %w", err)
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) CreatePreventiveRequest(ctx context.Context, req *models.MaintenanceRequest) (int64, bool, error) {
	if req == nil {
		return 0, false, fmt.Errorf("request is nil")
	}

	res, err := r.q.ExecContext(ctx, `INSERT INTO maintenance_requests (asset_id, employee_id, title, description, location, status, source, due_date, created_at) VALUES (?, NULL, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING`,
		nullInt64(req.AssetID), req.Title, req.Description, req.Location, models.RequestPending, models.SourcePreventive, nullString(req.DueDate), now())
	if err != nil {
		return 0, false, fmt.Errorf("insert preventive request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, false, err
	}

	return id, true, nil
}

func (r *SQLiteRepo) GetRequest(ctx context.Context, id int64) (*models.MaintenanceRequest, error) {
	row := r.q.QueryRowContext(ctx, requestSelect+` WHERE r.request_id = ?`, id)
	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return req, nil
}

func (r *SQLiteRepo) ListPendingRequests(ctx context.Context) ([]models.MaintenanceRequest, error) {
	return r.listRequests(ctx, requestSelect+` WHERE r.status = ? ORDER BY r.created_at DESC, r.request_id DESC`, models.RequestPending)
}

func (r *SQLiteRepo) ListRequestsByEmployee(ctx context.Context, employeeID int64) ([]models.MaintenanceRequest, error) {
	return r.listRequests(ctx, requestSelect+` WHERE r.employee_id = ? ORDER BY r.created_at DESC, r.request_id DESC`, employeeID)
}

func (r *SQLiteRepo) listRequests(ctx context.Context, query string, args ...any) ([]models.MaintenanceRequest, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.MaintenanceRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *req)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) ApprovePendingRequest(ctx context.Context, id int64) (bool, error) {
	res, err := r.q.ExecContext(ctx, `UPDATE maintenance_requests SET status = ? WHERE request_id = ? AND status = ?`, models.RequestApproved, id, models.RequestPending)
	if err != nil {
		return false, fmt.Errorf("approve request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n == 1, nil
}

func (r *SQLiteRepo) MarkRequestApproved(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `UPDATE maintenance_requests SET status = ? WHERE request_id = ?`, models.RequestApproved, id)
	return err
}

func (r *SQLiteRepo) HasOpenPreventiveRequest(ctx context.Context, assetID int64) (bool, error) {
	row := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM maintenance_requests WHERE asset_id = ? AND source = ? AND status = ?)`, assetID, models.SourcePreventive, models.RequestPending)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanRequest(s scanner) (*models.MaintenanceRequest, error) {
	var req models.MaintenanceRequest
	var assetID, employeeID sql.NullInt64
	var due sql.NullString
	if err := s.Scan(&req.ID, &assetID, &employeeID, &req.Title, &req.Description, &req.Location, &req.Status, &req.Source, &due, &req.CreatedAt, &req.SubmitterName, &req.AssetName); err != nil {
		return nil, err
	}
	req.AssetID = ptrInt64(assetID)
	req.EmployeeID = ptrInt64(employeeID)
	req.DueDate = ptrString(due)
	return &req, nil
}
