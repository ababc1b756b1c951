package workflow_test

import (
	"context"
	"testing"

	"github.com/garnizeh/fixmate/internal/apperr"
	"github.com/garnizeh/fixmate/internal/db"
	"github.com/garnizeh/fixmate/internal/db/dbtest"
	"github.com/garnizeh/fixmate/internal/repository/sqlite"
	"github.com/garnizeh/fixmate/internal/workflow"
	"github.com/garnizeh/fixmate/pkg/models"
	"github.com/garnizeh/fixmate/pkg/repository"
)

// fixture seeds asset 5 and employee 2 the way the dashboard examples refer to them.
func fixture(t *testing.T) (*workflow.Service, *sqlite.SQLiteRepo, *db.DB) {
	t.Helper()
	ctx := context.Background()
	repo, d := dbtest.Repo(t)

	stmts := []string{
		`INSERT INTO users (id, full_name, email, password_hash, role, created_at) VALUES (1, 'Alice', 'alice@example.com', 'x', 'Technician', 0)`,
		`INSERT INTO users (id, full_name, email, password_hash, role, created_at) VALUES (2, 'Bob', 'bob@example.com', 'x', 'Employee', 0)`,
		`INSERT INTO assets (asset_id, name, location, created_at) VALUES (5, 'Air Conditioner', 'Room 101', 0)`,
	}
	for _, s := range stmts {
		if _, err := d.Exec(ctx, s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	return workflow.New(repo, nil), repo, d
}

func ptr(v int64) *int64 { return &v }

func TestSubmitApproveExample(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := fixture(t)

	id, err := svc.SubmitRequest(ctx, workflow.Submission{AssetID: ptr(5), EmployeeID: 2, Title: "AC broken", Description: "No cold air", Location: "Room 101"})
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}

	pending, err := svc.ListPendingRequests(ctx)
	if err != nil {
		t.Fatalf("ListPendingRequests: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != id || pending[0].SubmitterName != "Bob" || pending[0].AssetName != "Air Conditioner" {
		t.Fatalf("unexpected pending list %+v", pending)
	}

	task, err := svc.ApproveRequest(ctx, id, "Alice", "high", "2024-01-10")
	if err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}
	if task.Status != models.TaskAssigned || task.TechnicianName != "Alice" || task.Priority != "High" {
		t.Fatalf("unexpected task %+v", task)
	}
	if task.RequestID == nil || *task.RequestID != id || task.AssetID == nil || *task.AssetID != 5 {
		t.Fatalf("task not linked to request and asset: %+v", task)
	}
	if want := "Employee Report: No cold air (Location: Room 101)"; task.Description != want {
		t.Fatalf("description = %q, want %q", task.Description, want)
	}

	req, err := repo.GetRequest(ctx, id)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if req.Status != models.RequestApproved {
		t.Fatalf("request status = %q, want Approved", req.Status)
	}

	pending, err = svc.ListPendingRequests(ctx)
	if err != nil {
		t.Fatalf("ListPendingRequests: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending requests, got %d", len(pending))
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, _, _ := fixture(t)

	tests := []struct {
		name string
		sub  workflow.Submission
	}{
		{"missing employee", workflow.Submission{Title: "Leak"}},
		{"missing title", workflow.Submission{EmployeeID: 2, Title: " "}},
		{"unknown employee", workflow.Submission{EmployeeID: 99, Title: "Leak"}},
		{"unknown asset", workflow.Submission{AssetID: ptr(77), EmployeeID: 2, Title: "Leak"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SubmitRequest(context.Background(), tt.sub)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestApproveErrors(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := fixture(t)

	id, err := svc.SubmitRequest(ctx, workflow.Submission{EmployeeID: 2, Title: "Door stuck"})
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}

	tests := []struct {
		name       string
		requestID  int64
		technician string
		priority   string
		deadline   string
		kind       apperr.Kind
	}{
		{"missing request", 999, "Alice", "Low", "2024-01-10", apperr.KindNotFound},
		{"no technician", id, "", "Low", "2024-01-10", apperr.KindValidation},
		{"bad priority", id, "Alice", "Urgent", "2024-01-10", apperr.KindValidation},
		{"bad deadline", id, "Alice", "Low", "tomorrow", apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.ApproveRequest(ctx, tt.requestID, tt.technician, tt.priority, tt.deadline)
			if !apperr.Is(err, tt.kind) {
				t.Fatalf("expected %s, got %v", tt.kind, err)
			}
		})
	}

	if _, err := svc.ApproveRequest(ctx, id, "Alice", "Low", "2024-01-10"); err != nil {
		t.Fatalf("first approve: %v", err)
	}
	if _, err := svc.ApproveRequest(ctx, id, "Alice", "Low", "2024-01-10"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected Conflict on second approve, got %v", err)
	}

	tasks, err := repo.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("expected exactly one task, got %d", len(tasks))
	}
}

// racingStore approves the request behind the workflow's back, after the
// pending check has passed, as a concurrent approver would.
type racingStore struct {
	repository.Store
}

func (r racingStore) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	return r.Store.InTx(ctx, func(tx repository.Store) error {
		return fn(racingStore{Store: tx})
	})
}

func (r racingStore) ApprovePendingRequest(ctx context.Context, id int64) (bool, error) {
	if err := r.Store.MarkRequestApproved(ctx, id); err != nil {
		return false, err
	}
	return r.Store.ApprovePendingRequest(ctx, id)
}

func TestApproveIsAtomic(t *testing.T) {
	ctx := context.Background()
	_, repo, _ := fixture(t)
	svc := workflow.New(racingStore{Store: repo}, nil)

	id, err := svc.SubmitRequest(ctx, workflow.Submission{AssetID: ptr(5), EmployeeID: 2, Title: "AC broken"})
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}

	if _, err := svc.ApproveRequest(ctx, id, "Alice", "High", "2024-01-10"); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected Conflict, got %v", err)
	}

	tasks, err := repo.ListTasks(ctx)
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("task insert was not rolled back: %+v", tasks)
	}
	req, err := repo.GetRequest(ctx, id)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if req.Status != models.RequestPending {
		t.Fatalf("request status = %q, want Pending after rollback", req.Status)
	}
}

func TestUpdateTaskStatusCascade(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := fixture(t)

	id, err := svc.SubmitRequest(ctx, workflow.Submission{AssetID: ptr(5), EmployeeID: 2, Title: "AC broken"})
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}
	// a direct task linked to a still-pending request
	taskID, err := svc.AssignTask(ctx, workflow.Assignment{RequestID: &id, AssetID: ptr(5), TechnicianName: "Alice", Priority: "medium", Deadline: "2024-02-01"})
	if err != nil {
		t.Fatalf("AssignTask: %v", err)
	}

	task, err := svc.UpdateTaskStatus(ctx, taskID, "in progress", nil)
	if err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	if task.Status != models.TaskInProgress {
		t.Fatalf("status = %q, want In Progress", task.Status)
	}
	req, _ := repo.GetRequest(ctx, id)
	if req.Status != models.RequestPending {
		t.Fatalf("request approved too early: %q", req.Status)
	}

	note := "Replaced compressor"
	task, err = svc.UpdateTaskStatus(ctx, taskID, "COMPLETED", &note)
	if err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	if task.Status != models.TaskCompleted || task.Description != note {
		t.Fatalf("unexpected task %+v", task)
	}
	req, _ = repo.GetRequest(ctx, id)
	if req.Status != models.RequestApproved {
		t.Fatalf("request status = %q, want Approved", req.Status)
	}
}

func TestUpdateTaskStatusWithoutRequest(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := fixture(t)

	reqID, err := svc.SubmitRequest(ctx, workflow.Submission{EmployeeID: 2, Title: "Unrelated"})
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}
	taskID, err := svc.AssignTask(ctx, workflow.Assignment{AssetID: ptr(5), TechnicianName: "Alice", Priority: "Low", Description: "Filter swap", Deadline: "2024-02-01"})
	if err != nil {
		t.Fatalf("AssignTask: %v", err)
	}

	task, err := svc.UpdateTaskStatus(ctx, taskID, "Completed", nil)
	if err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	if task.Description != "Filter swap" {
		t.Fatalf("description changed to %q", task.Description)
	}
	req, _ := repo.GetRequest(ctx, reqID)
	if req.Status != models.RequestPending {
		t.Fatalf("unrelated request touched: %q", req.Status)
	}
}

func TestUpdateTaskStatusErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := fixture(t)

	if _, err := svc.UpdateTaskStatus(ctx, 1, "Done", nil); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := svc.UpdateTaskStatus(ctx, 404, "Completed", nil); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestTaskListingsOrderedByDeadline(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := fixture(t)

	for _, a := range []workflow.Assignment{
		{TechnicianName: "Alice", Priority: "Low", Deadline: "2024-03-01"},
		{TechnicianName: "Bob", Priority: "Low", Deadline: "2024-01-15"},
		{AssetID: ptr(5), TechnicianName: "Alice", Priority: "High", Deadline: "2024-01-20"},
	} {
		if _, err := svc.AssignTask(ctx, a); err != nil {
			t.Fatalf("AssignTask: %v", err)
		}
	}

	mine, err := svc.ListTasksForTechnician(ctx, "Alice")
	if err != nil {
		t.Fatalf("ListTasksForTechnician: %v", err)
	}
	if len(mine) != 2 || mine[0].Deadline != "2024-01-20" || mine[1].Deadline != "2024-03-01" {
		t.Fatalf("unexpected technician tasks %+v", mine)
	}
	if mine[0].AssetName != "Air Conditioner" || mine[0].AssetLocation != "Room 101" {
		t.Fatalf("asset join missing: %+v", mine[0])
	}

	all, err := svc.ListAllTasks(ctx)
	if err != nil {
		t.Fatalf("ListAllTasks: %v", err)
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Deadline > all[i].Deadline {
			t.Fatalf("tasks out of order: %+v", all)
		}
	}
}

func TestAssignUnknownAsset(t *testing.T) {
	svc, _, _ := fixture(t)

	_, err := svc.AssignTask(context.Background(), workflow.Assignment{AssetID: ptr(31), TechnicianName: "Alice", Priority: "Low", Deadline: "2024-01-01"})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestMyRequestsAndStats(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := fixture(t)

	first, _ := svc.SubmitRequest(ctx, workflow.Submission{EmployeeID: 2, Title: "One"})
	second, _ := svc.SubmitRequest(ctx, workflow.Submission{AssetID: ptr(5), EmployeeID: 2, Title: "Two"})
	if _, err := svc.ApproveRequest(ctx, first, "Alice", "Low", "2024-01-01"); err != nil {
		t.Fatalf("ApproveRequest: %v", err)
	}

	mine, err := svc.MyRequests(ctx, 2)
	if err != nil {
		t.Fatalf("MyRequests: %v", err)
	}
	if len(mine) != 2 || mine[0].ID != second || mine[1].Status != models.RequestApproved {
		t.Fatalf("unexpected requests %+v", mine)
	}

	stats, err := svc.DashboardStats(ctx)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}
	want := models.DashboardStats{TotalAssets: 1, TotalTechs: 1, PendingRequests: 1, OpenTasks: 1}
	stats.SystemUptime = ""
	if *stats != want {
		t.Fatalf("stats = %+v, want %+v", *stats, want)
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"assigned", models.TaskAssigned, true},
		{" In progress ", models.TaskInProgress, true},
		{"COMPLETED", models.TaskCompleted, true},
		{"done", "", false},
	}
	for _, tt := range tests {
		got, ok := workflow.NormalizeTaskStatus(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("NormalizeTaskStatus(%q) = %q, %v", tt.in, got, ok)
		}
	}

	if p, ok := workflow.NormalizePriority("critical"); !ok || p != "Critical" {
		t.Errorf("NormalizePriority(critical) = %q, %v", p, ok)
	}
}
