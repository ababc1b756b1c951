// Package workflow drives maintenance requests through approval into
// technician tasks and back to completion.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/garnizeh/fixmate/internal/apperr"
	"github.com/garnizeh/fixmate/internal/metrics"
	"github.com/garnizeh/fixmate/pkg/models"
	"github.com/garnizeh/fixmate/pkg/repository"
)

var priorities = []string{"Low", "Medium", "High", "Critical"}

var taskStatuses = []string{models.TaskAssigned, models.TaskInProgress, models.TaskCompleted}

type Service struct {
	store   repository.Store
	logger  *slog.Logger
	now     func() time.Time
	started time.Time
}

func New(store repository.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now, started: time.Now()}
}

// Submission is an employee-reported problem.
type Submission struct {
	AssetID     *int64 `json:"asset_id"`
	EmployeeID  int64  `json:"employee_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// Assignment describes a task created directly by an administrator.
type Assignment struct {
	RequestID      *int64 `json:"request_id"`
	AssetID        *int64 `json:"asset_id"`
	TechnicianName string `json:"technician_name"`
	Priority       string `json:"priority"`
	Description    string `json:"description"`
	Deadline       string `json:"deadline"`
}

// NormalizePriority maps a case-insensitive priority to its canonical form.
func NormalizePriority(p string) (string, bool) {
	return normalize(p, priorities)
}

// NormalizeTaskStatus maps a case-insensitive task status to its canonical form.
func NormalizeTaskStatus(s string) (string, bool) {
	return normalize(s, taskStatuses)
}

func normalize(v string, allowed []string) (string, bool) {
	v = strings.TrimSpace(v)
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return a, true
		}
	}
	return "", false
}

func (s *Service) SubmitRequest(ctx context.Context, sub Submission) (int64, error) {
	const op = "workflow.submit"

	title := strings.TrimSpace(sub.Title)
	if sub.EmployeeID <= 0 {
		return 0, apperr.Validation(op, "employee_id is required")
	}
	if title == "" {
		return 0, apperr.Validation(op, "title is required")
	}

	id, err := s.store.CreateRequest(ctx, &models.MaintenanceRequest{
		AssetID:     sub.AssetID,
		EmployeeID:  &sub.EmployeeID,
		Title:       title,
		Description: strings.TrimSpace(sub.Description),
		Location:    strings.TrimSpace(sub.Location),
		Status:      models.RequestPending,
		Source:      models.SourceEmployee,
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, apperr.Validation(op, "unknown asset or employee")
		}
		return 0, apperr.Storage(op, err)
	}

	metrics.ObserveTransition("submitted")
	s.logger.Info("request submitted", slog.Int64("request_id", id), slog.Int64("employee_id", sub.EmployeeID))
	return id, nil
}

func (s *Service) ListPendingRequests(ctx context.Context) ([]models.MaintenanceRequest, error) {
	out, err := s.store.ListPendingRequests(ctx)
	if err != nil {
		return nil, apperr.Storage("workflow.pending", err)
	}
	return out, nil
}

// ApproveRequest turns a Pending request into an Assigned task and marks the
// request Approved. Both writes commit together or not at all.
func (s *Service) ApproveRequest(ctx context.Context, requestID int64, technician, priority, deadline string) (*models.MaintenanceTask, error) {
	const op = "workflow.approve"

	technician, priority, deadline, err := validateAssignee(op, technician, priority, deadline)
	if err != nil {
		return nil, err
	}

	var task *models.MaintenanceTask
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		req, err := tx.GetRequest(ctx, requestID)
		if err != nil {
			return apperr.Storage(op, err)
		}
		if req == nil {
			return apperr.NotFound(op, fmt.Sprintf("request %d not found", requestID))
		}
		if req.Status != models.RequestPending {
			return apperr.Conflict(op, fmt.Sprintf("request %d is %s", requestID, req.Status))
		}

		taskID, err := tx.CreateTask(ctx, &models.MaintenanceTask{
			RequestID:      &req.ID,
			AssetID:        req.AssetID,
			TechnicianName: technician,
			Priority:       priority,
			Description:    fmt.Sprintf("Employee Report: %s (Location: %s)", req.Description, req.Location),
			Deadline:       deadline,
			Status:         models.TaskAssigned,
		})
		if err != nil {
			return apperr.Storage(op, err)
		}

		approved, err := tx.ApprovePendingRequest(ctx, req.ID)
		if err != nil {
			return apperr.Storage(op, err)
		}
		if !approved {
			return apperr.Conflict(op, fmt.Sprintf("request %d is no longer pending", requestID))
		}

		task, err = tx.GetTask(ctx, taskID)
		if err != nil {
			return apperr.Storage(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.FromTx(op, err)
	}

	metrics.ObserveTransition("approved")
	s.logger.Info("request approved",
		slog.Int64("request_id", requestID),
		slog.Int64("task_id", task.ID),
		slog.String("technician", technician))
	return task, nil
}

func (s *Service) AssignTask(ctx context.Context, a Assignment) (int64, error) {
	const op = "workflow.assign"

	technician, priority, deadline, err := validateAssignee(op, a.TechnicianName, a.Priority, a.Deadline)
	if err != nil {
		return 0, err
	}

	id, err := s.store.CreateTask(ctx, &models.MaintenanceTask{
		RequestID:      a.RequestID,
		AssetID:        a.AssetID,
		TechnicianName: technician,
		Priority:       priority,
		Description:    strings.TrimSpace(a.Description),
		Deadline:       deadline,
		Status:         models.TaskAssigned,
	})
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, apperr.Validation(op, "unknown request or asset")
		}
		return 0, apperr.Storage(op, err)
	}

	metrics.ObserveTransition("assigned")
	s.logger.Info("task assigned", slog.Int64("task_id", id), slog.String("technician", technician))
	return id, nil
}

func (s *Service) ListTasksForTechnician(ctx context.Context, name string) ([]models.MaintenanceTask, error) {
	out, err := s.store.ListTasksByTechnician(ctx, strings.TrimSpace(name))
	if err != nil {
		return nil, apperr.Storage("workflow.tech_tasks", err)
	}
	return out, nil
}

func (s *Service) ListAllTasks(ctx context.Context) ([]models.MaintenanceTask, error) {
	out, err := s.store.ListTasks(ctx)
	if err != nil {
		return nil, apperr.Storage("workflow.all_tasks", err)
	}
	return out, nil
}

// UpdateTaskStatus sets a task's status and, when description is non-nil,
// replaces its description. Completing a task approves its linked request in
// the same transaction.
func (s *Service) UpdateTaskStatus(ctx context.Context, taskID int64, status string, description *string) (*models.MaintenanceTask, error) {
	const op = "workflow.update_status"

	canonical, ok := NormalizeTaskStatus(status)
	if !ok {
		return nil, apperr.Validation(op, fmt.Sprintf("status must be one of %s", strings.Join(taskStatuses, ", ")))
	}

	var task *models.MaintenanceTask
	err := s.store.InTx(ctx, func(tx repository.Store) error {
		found, err := tx.UpdateTaskStatus(ctx, taskID, canonical, description)
		if err != nil {
			return apperr.Storage(op, err)
		}
		if !found {
			return apperr.NotFound(op, fmt.Sprintf("task %d not found", taskID))
		}

		task, err = tx.GetTask(ctx, taskID)
		if err != nil {
			return apperr.Storage(op, err)
		}
		if canonical == models.TaskCompleted && task.RequestID != nil {
			if err := tx.MarkRequestApproved(ctx, *task.RequestID); err != nil {
				return apperr.Storage(op, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.FromTx(op, err)
	}

	if canonical == models.TaskCompleted {
		metrics.ObserveTransition("completed")
	}
	s.logger.Info("task status updated", slog.Int64("task_id", taskID), slog.String("status", canonical))
	return task, nil
}

func (s *Service) MyRequests(ctx context.Context, employeeID int64) ([]models.MaintenanceRequest, error) {
	out, err := s.store.ListRequestsByEmployee(ctx, employeeID)
	if err != nil {
		return nil, apperr.Storage("workflow.my_requests", err)
	}
	return out, nil
}

func (s *Service) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.store.DashboardStats(ctx)
	if err != nil {
		return nil, apperr.Storage("workflow.stats", err)
	}
	stats.SystemUptime = s.now().Sub(s.started).Round(time.Second).String()
	return stats, nil
}

func validateAssignee(op, technician, priority, deadline string) (string, string, string, error) {
	technician = strings.TrimSpace(technician)
	if technician == "" {
		return "", "", "", apperr.Validation(op, "technician_name is required")
	}
	p, ok := NormalizePriority(priority)
	if !ok {
		return "", "", "", apperr.Validation(op, fmt.Sprintf("priority must be one of %s", strings.Join(priorities, ", ")))
	}
	deadline = strings.TrimSpace(deadline)
	if _, err := time.Parse(models.DateLayout, deadline); err != nil {
		return "", "", "", apperr.Validation(op, fmt.Sprintf("deadline must be a %s date", models.DateLayout))
	}
	return technician, p, deadline, nil
}

func isForeignKeyViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
