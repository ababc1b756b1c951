package models

// Domain models matching the database schema in db/migrations/0001_init.sql

const (
	RoleAdmin      = "Admin"
	RoleTechnician = "Technician"
	RoleEmployee   = "Employee"
)

const (
	RequestPending  = "Pending"
	RequestApproved = "Approved"
)

const (
	SourceEmployee   = "employee"
	SourcePreventive = "preventive"
)

const (
	TaskAssigned   = "Assigned"
	TaskInProgress = "In Progress"
	TaskCompleted  = "Completed"
)

const AssetOperational = "Operational"

// DateLayout is the storage and wire format of calendar dates.
const DateLayout = "2006-01-02"

type User struct {
	ID           int64  `json:"id" db:"id"`
	FullName     string `json:"full_name" db:"full_name"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
	Role         string `json:"role" db:"role"`
	CreatedAt    int64  `json:"created_at" db:"created_at"`
}

// PendingUser is a registration waiting for email verification.
type PendingUser struct {
	ID                int64  `json:"id" db:"id"`
	FullName          string `json:"full_name" db:"full_name"`
	Email             string `json:"email" db:"email"`
	PasswordHash      string `json:"-" db:"password_hash"`
	Role              string `json:"role" db:"role"`
	VerificationToken string `json:"-" db:"verification_token"`
	CreatedAt         int64  `json:"created_at" db:"created_at"`
}

type Asset struct {
	ID                      int64   `json:"asset_id" db:"asset_id"`
	Name                    string  `json:"name" db:"name"`
	Type                    string  `json:"type" db:"type"`
	Location                string  `json:"location" db:"location"`
	Description             string  `json:"description" db:"description"`
	Status                  string  `json:"status" db:"status"`
	NextMaintenance         *string `json:"next_maintenance,omitempty" db:"next_maintenance"`
	MaintenanceIntervalDays int     `json:"maintenance_interval_days" db:"maintenance_interval_days"`
	CreatedAt               int64   `json:"created_at" db:"created_at"`
}

type MaintenanceRequest struct {
	ID          int64   `json:"request_id" db:"request_id"`
	AssetID     *int64  `json:"asset_id,omitempty" db:"asset_id"`
	EmployeeID  *int64  `json:"employee_id,omitempty" db:"employee_id"`
	Title       string  `json:"title" db:"title"`
	Description string  `json:"description" db:"description"`
	Location    string  `json:"location" db:"location"`
	Status      string  `json:"status" db:"status"`
	Source      string  `json:"source" db:"source"`
	DueDate     *string `json:"due_date,omitempty" db:"due_date"`
	CreatedAt   int64   `json:"created_at" db:"created_at"`

	// joined columns
	SubmitterName string `json:"submitter_name,omitempty"`
	AssetName     string `json:"asset_name,omitempty"`
}

type MaintenanceTask struct {
	ID             int64  `json:"id" db:"id"`
	RequestID      *int64 `json:"request_id,omitempty" db:"request_id"`
	AssetID        *int64 `json:"asset_id,omitempty" db:"asset_id"`
	TechnicianName string `json:"technician_name" db:"technician_name"`
	Priority       string `json:"priority" db:"priority"`
	Description    string `json:"description" db:"description"`
	Deadline       string `json:"deadline" db:"deadline"`
	Status         string `json:"status" db:"status"`
	CreatedAt      int64  `json:"created_at" db:"created_at"`
	UpdatedAt      int64  `json:"updated_at" db:"updated_at"`

	// joined columns
	AssetName     string `json:"asset_name,omitempty"`
	AssetLocation string `json:"location,omitempty"`
}

// DashboardStats aggregates counts for the admin dashboard.
type DashboardStats struct {
	TotalAssets     int64  `json:"totalAssets"`
	TotalTechs      int64  `json:"totalTechs"`
	PendingRequests int64  `json:"pendingRequests"`
	OpenTasks       int64  `json:"openTasks"`
	CompletedTasks  int64  `json:"completedTasks"`
	SystemUptime    string `json:"systemUptime,omitempty"`
}
