package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garnizeh/fixmate/internal/assets"
	"github.com/garnizeh/fixmate/internal/config"
	"github.com/garnizeh/fixmate/internal/identity"
	"github.com/garnizeh/fixmate/internal/metrics"
	"github.com/garnizeh/fixmate/internal/workflow"
)

// Deps are the services the HTTP surface dispatches to.
type Deps struct {
	Identity *identity.Service
	Assets   *assets.Service
	Workflow *workflow.Service
	// Ping reports store health for /health. Optional.
	Ping func(ctx context.Context) error
}

func SetupRoutes(cfg *config.Config, version, buildTime string, deps Deps) *mux.Router {
	r := mux.NewRouter()

	// Middleware chain
	r.Use(LoggingMiddleware)
	r.Use(CORSMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(metrics.HTTPMetricsMiddleware)
	r.Use(TimeoutMiddleware(cfg.APITimeout))

	// Create handlers
	systemHandler := &SystemHandler{Ping: deps.Ping}
	authHandler := NewAuthHandler(deps.Identity)
	assetHandler := NewAssetHandler(deps.Assets)
	workflowHandler := NewWorkflowHandler(deps.Workflow)

	// Ops endpoints
	r.HandleFunc("/version", systemHandler.VersionHandler(version, buildTime)).Methods("GET")
	r.HandleFunc("/health", systemHandler.HealthHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	// preflight requests only need the CORS headers
	api.PathPrefix("/").Methods("OPTIONS").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	// Identity
	api.HandleFunc("/register", authHandler.Register).Methods("POST")
	api.HandleFunc("/verify-email/{token}", authHandler.VerifyEmail).Methods("GET")
	api.HandleFunc("/login", authHandler.Login).Methods("POST")
	api.HandleFunc("/technicians", authHandler.Technicians).Methods("GET")

	// Assets
	api.HandleFunc("/assets", assetHandler.List).Methods("GET")
	api.HandleFunc("/assets", assetHandler.Create).Methods("POST")
	api.HandleFunc("/assets/{id}", assetHandler.Get).Methods("GET")
	api.HandleFunc("/assets/{id}", assetHandler.Delete).Methods("DELETE")

	// Requests and tasks
	api.HandleFunc("/dashboard-stats", workflowHandler.DashboardStats).Methods("GET")
	api.HandleFunc("/submit-request", workflowHandler.SubmitRequest).Methods("POST")
	api.HandleFunc("/employee-requests", workflowHandler.PendingRequests).Methods("GET")
	api.HandleFunc("/employee-requests/{userId}", workflowHandler.EmployeeRequests).Methods("GET")
	api.HandleFunc("/my-requests/{userId}", workflowHandler.EmployeeRequests).Methods("GET")
	api.HandleFunc("/approve-request", workflowHandler.ApproveRequest).Methods("POST")
	api.HandleFunc("/assign-task", workflowHandler.AssignTask).Methods("POST")
	api.HandleFunc("/all-tasks", workflowHandler.AllTasks).Methods("GET")
	api.HandleFunc("/tech-tasks/{techName}", workflowHandler.TechTasks).Methods("GET")
	api.HandleFunc("/update-status", workflowHandler.UpdateStatus).Methods("POST")
	api.HandleFunc("/update-task/{id}", workflowHandler.UpdateTask).Methods("PUT")

	return r
}
