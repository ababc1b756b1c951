package repository

import (
	"context"

	"github.com/garnizeh/fixmate/pkg/models"
)

// Repository interfaces for domain entities. These are the public contracts
// consumers should depend on; concrete implementations live under internal/.
//
// Getters return (nil, nil) when the row does not exist.

type UserRepo interface {
	CreateUser(ctx context.Context, u *models.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListTechnicianNames(ctx context.Context) ([]string, error)

	CreatePendingUser(ctx context.Context, p *models.PendingUser) (int64, error)
	GetPendingUserByEmail(ctx context.Context, email string) (*models.PendingUser, error)
	GetPendingUserByToken(ctx context.Context, token string) (*models.PendingUser, error)
	DeletePendingUser(ctx context.Context, id int64) error
}

type AssetRepo interface {
	CreateAsset(ctx context.Context, a *models.Asset) (int64, error)
	GetAsset(ctx context.Context, id int64) (*models.Asset, error)
	ListAssets(ctx context.Context) ([]models.Asset, error)
	// DeleteAsset reports whether a row was removed.
	DeleteAsset(ctx context.Context, id int64) (bool, error)
	// CountAssetReferences counts requests and tasks pointing at the asset.
	CountAssetReferences(ctx context.Context, id int64) (int64, error)
	// ListAssetsDue returns assets whose next maintenance date is on or before day.
	ListAssetsDue(ctx context.Context, day string) ([]models.Asset, error)
	SetNextMaintenance(ctx context.Context, id int64, day string) error
}

type RequestRepo interface {
	CreateRequest(ctx context.Context, req *models.MaintenanceRequest) (int64, error)
	// CreatePreventiveRequest inserts unless a preventive request already exists
	// for the same asset and due date. It reports whether a row was inserted.
	CreatePreventiveRequest(ctx context.Context, req *models.MaintenanceRequest) (int64, bool, error)
	GetRequest(ctx context.Context, id int64) (*models.MaintenanceRequest, error)
	ListPendingRequests(ctx context.Context) ([]models.MaintenanceRequest, error)
	ListRequestsByEmployee(ctx context.Context, employeeID int64) ([]models.MaintenanceRequest, error)
	// ApprovePendingRequest moves a Pending request to Approved and reports
	// whether the transition happened.
	ApprovePendingRequest(ctx context.Context, id int64) (bool, error)
	// MarkRequestApproved sets Approved regardless of the current status.
	MarkRequestApproved(ctx context.Context, id int64) error
	HasOpenPreventiveRequest(ctx context.Context, assetID int64) (bool, error)
}

type TaskRepo interface {
	CreateTask(ctx context.Context, t *models.MaintenanceTask) (int64, error)
	GetTask(ctx context.Context, id int64) (*models.MaintenanceTask, error)
	ListTasksByTechnician(ctx context.Context, technician string) ([]models.MaintenanceTask, error)
	ListTasks(ctx context.Context) ([]models.MaintenanceTask, error)
	// UpdateTaskStatus reports whether the task exists. A nil description
	// leaves the stored description unchanged.
	UpdateTaskStatus(ctx context.Context, id int64, status string, description *string) (bool, error)
}

type StatsRepo interface {
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

// Store groups the repositories and opens transaction scopes. Inside InTx
// the callback must use only the Store it receives.
type Store interface {
	UserRepo
	AssetRepo
	RequestRepo
	TaskRepo
	StatsRepo

	InTx(ctx context.Context, fn func(tx Store) error) error
}
