package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/garnizeh/fixmate/internal/workflow"
)

type WorkflowHandler struct {
	workflow *workflow.Service
}

func NewWorkflowHandler(svc *workflow.Service) *WorkflowHandler {
	return &WorkflowHandler{workflow: svc}
}

type approveRequest struct {
	RequestID      int64  `json:"request_id"`
	TechnicianName string `json:"technician_name"`
	Priority       string `json:"priority"`
	Deadline       string `json:"deadline"`
}

type updateStatusRequest struct {
	TaskID int64  `json:"task_id"`
	Status string `json:"status"`
}

type updateTaskRequest struct {
	Status      string  `json:"status"`
	Description *string `json:"description"`
}

func (h *WorkflowHandler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var sub workflow.Submission
	if err := decodeBody(r, "submit_request", &sub); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.workflow.SubmitRequest(r.Context(), sub)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, createdResponse{Message: "Request submitted successfully", ID: id}, http.StatusCreated)
}

func (h *WorkflowHandler) PendingRequests(w http.ResponseWriter, r *http.Request) {
	out, err := h.workflow.ListPendingRequests(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, out, http.StatusOK)
}

// EmployeeRequests serves both /employee-requests/{userId} and /my-requests/{userId}.
func (h *WorkflowHandler) EmployeeRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		writeError(w, r, err)
		return
	}

	out, err := h.workflow.MyRequests(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, out, http.StatusOK)
}

func (h *WorkflowHandler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := decodeBody(r, "approve_request", &req); err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.workflow.ApproveRequest(r.Context(), req.RequestID, req.TechnicianName, req.Priority, req.Deadline)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, task, http.StatusCreated)
}

func (h *WorkflowHandler) AssignTask(w http.ResponseWriter, r *http.Request) {
	var a workflow.Assignment
	if err := decodeBody(r, "assign_task", &a); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.workflow.AssignTask(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, createdResponse{Message: "Task assigned successfully", ID: id}, http.StatusCreated)
}

func (h *WorkflowHandler) AllTasks(w http.ResponseWriter, r *http.Request) {
	out, err := h.workflow.ListAllTasks(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, out, http.StatusOK)
}

func (h *WorkflowHandler) TechTasks(w http.ResponseWriter, r *http.Request) {
	out, err := h.workflow.ListTasksForTechnician(r.Context(), mux.Vars(r)["techName"])
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, out, http.StatusOK)
}

func (h *WorkflowHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeBody(r, "update_status", &req); err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.workflow.UpdateTaskStatus(r.Context(), req.TaskID, req.Status, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, task, http.StatusOK)
}

func (h *WorkflowHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req updateTaskRequest
	if err := decodeBody(r, "update_task", &req); err != nil {
		writeError(w, r, err)
		return
	}

	task, err := h.workflow.UpdateTaskStatus(r.Context(), id, req.Status, req.Description)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, task, http.StatusOK)
}

func (h *WorkflowHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.workflow.DashboardStats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, stats, http.StatusOK)
}
