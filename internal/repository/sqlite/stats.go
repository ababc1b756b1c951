package sqlite

import (
	"context"

	"github.com/garnizeh/fixmate/pkg/models"
)

func (r *SQLiteRepo) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	row := r.q.QueryRowContext(ctx, `SELECT
	(SELECT COUNT(*) FROM assets),
	(SELECT COUNT(*) FROM users WHERE role = ?),
	(SELECT COUNT(*) FROM maintenance_requests WHERE status = ?),
	(SELECT COUNT(*) FROM maintenance_tasks WHERE status <> ?),
	(SELECT COUNT(*) FROM maintenance_tasks WHERE status = ?)`,
		models.RoleTechnician, models.RequestPending, models.TaskCompleted, models.TaskCompleted)

	var s models.DashboardStats
	if err := row.Scan(&s.TotalAssets, &s.TotalTechs, &s.PendingRequests, &s.OpenTasks, &s.CompletedTasks); err != nil {
		return nil, err
	}
	return &s, nil
}
