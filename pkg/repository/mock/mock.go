package mock

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/garnizeh/fixmate/pkg/models"
	"github.com/garnizeh/fixmate/pkg/repository"
)

// Store is an in-memory repository.Store for handler tests. Set Err to make
// every call fail, or FailOn[method] to fail a single method.
type Store struct {
	mu sync.Mutex

	Err    error
	FailOn map[string]error

	users    map[int64]models.User
	pending  map[int64]models.PendingUser
	assets   map[int64]models.Asset
	requests map[int64]models.MaintenanceRequest
	tasks    map[int64]models.MaintenanceTask
	nextID   int64
	inTx     bool
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		FailOn:   map[string]error{},
		users:    map[int64]models.User{},
		pending:  map[int64]models.PendingUser{},
		assets:   map[int64]models.Asset{},
		requests: map[int64]models.MaintenanceRequest{},
		tasks:    map[int64]models.MaintenanceTask{},
	}
}

func (s *Store) fail(method string) error {
	if s.Err != nil {
		return s.Err
	}
	return s.FailOn[method]
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// InTx hands fn a view sharing the store's data and restores a snapshot
// when fn fails.
func (s *Store) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if err := s.fail("InTx"); err != nil {
		return err
	}
	if s.inTx {
		return fn(s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	tx := &Store{
		Err:      s.Err,
		FailOn:   s.FailOn,
		users:    s.users,
		pending:  s.pending,
		assets:   s.assets,
		requests: s.requests,
		tasks:    s.tasks,
		nextID:   s.nextID,
		inTx:     true,
	}
	if err := fn(tx); err != nil {
		s.restore(snap)
		return err
	}
	s.nextID = tx.nextID
	return nil
}

type snapshot struct {
	users    map[int64]models.User
	pending  map[int64]models.PendingUser
	assets   map[int64]models.Asset
	requests map[int64]models.MaintenanceRequest
	tasks    map[int64]models.MaintenanceTask
	nextID   int64
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		users:    clone(s.users),
		pending:  clone(s.pending),
		assets:   clone(s.assets),
		requests: clone(s.requests),
		tasks:    clone(s.tasks),
		nextID:   s.nextID,
	}
}

func (s *Store) restore(snap snapshot) {
	s.users, s.pending, s.assets, s.requests, s.tasks, s.nextID = snap.users, snap.pending, snap.assets, snap.requests, snap.tasks, snap.nextID
}

func clone[V any](m map[int64]V) map[int64]V {
	out := make(map[int64]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// users

func (s *Store) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	defer s.lock()()
	if err := s.fail("CreateUser"); err != nil {
		return 0, err
	}
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return 0, errUnique("users.email")
		}
	}
	c := *u
	c.ID = s.id()
	s.users[c.ID] = c
	return c.ID, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	defer s.lock()()
	if err := s.fail("GetUserByEmail"); err != nil {
		return nil, err
	}
	for _, u := range s.users {
		if u.Email == email {
			c := u
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) ListTechnicianNames(ctx context.Context) ([]string, error) {
	defer s.lock()()
	if err := s.fail("ListTechnicianNames"); err != nil {
		return nil, err
	}
	out := []string{}
	for _, u := range s.users {
		if u.Role == models.RoleTechnician {
			out = append(out, u.FullName)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *Store) CreatePendingUser(ctx context.Context, p *models.PendingUser) (int64, error) {
	defer s.lock()()
	if err := s.fail("CreatePendingUser"); err != nil {
		return 0, err
	}
	for _, existing := range s.pending {
		if existing.Email == p.Email {
			return 0, errUnique("pending_users.email")
		}
	}
	c := *p
	c.ID = s.id()
	s.pending[c.ID] = c
	return c.ID, nil
}

func (s *Store) GetPendingUserByEmail(ctx context.Context, email string) (*models.PendingUser, error) {
	return s.findPending("GetPendingUserByEmail", func(p models.PendingUser) bool { return p.Email == email })
}

func (s *Store) GetPendingUserByToken(ctx context.Context, token string) (*models.PendingUser, error) {
	return s.findPending("GetPendingUserByToken", func(p models.PendingUser) bool { return p.VerificationToken == token })
}

func (s *Store) findPending(method string, match func(models.PendingUser) bool) (*models.PendingUser, error) {
	defer s.lock()()
	if err := s.fail(method); err != nil {
		return nil, err
	}
	for _, p := range s.pending {
		if match(p) {
			c := p
			return &c, nil
		}
	}
	return nil, nil
}

func (s *Store) DeletePendingUser(ctx context.Context, id int64) error {
	defer s.lock()()
	if err := s.fail("DeletePendingUser"); err != nil {
		return err
	}
	delete(s.pending, id)
	return nil
}

// assets

func (s *Store) CreateAsset(ctx context.Context, a *models.Asset) (int64, error) {
	defer s.lock()()
	if err := s.fail("CreateAsset"); err != nil {
		return 0, err
	}
	c := *a
	c.ID = s.id()
	if c.Status == "" {
		c.Status = models.AssetOperational
	}
	s.assets[c.ID] = c
	return c.ID, nil
}

func (s *Store) GetAsset(ctx context.Context, id int64) (*models.Asset, error) {
	defer s.lock()()
	if err := s.fail("GetAsset"); err != nil {
		return nil, err
	}
	a, ok := s.assets[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *Store) ListAssets(ctx context.Context) ([]models.Asset, error) {
	defer s.lock()()
	if err := s.fail("ListAssets"); err != nil {
		return nil, err
	}
	out := []models.Asset{}
	for _, id := range sortedKeys(s.assets) {
		out = append(out, s.assets[id])
	}
	return out, nil
}

func (s *Store) DeleteAsset(ctx context.Context, id int64) (bool, error) {
	defer s.lock()()
	if err := s.fail("DeleteAsset"); err != nil {
		return false, err
	}
	if _, ok := s.assets[id]; !ok {
		return false, nil
	}
	delete(s.assets, id)
	return true, nil
}

func (s *Store) CountAssetReferences(ctx context.Context, id int64) (int64, error) {
	defer s.lock()()
	if err := s.fail("CountAssetReferences"); err != nil {
		return 0, err
	}
	var n int64
	for _, r := range s.requests {
		if r.AssetID != nil && *r.AssetID == id {
			n++
		}
	}
	for _, t := range s.tasks {
		if t.AssetID != nil && *t.AssetID == id {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListAssetsDue(ctx context.Context, day string) ([]models.Asset, error) {
	defer s.lock()()
	if err := s.fail("ListAssetsDue"); err != nil {
		return nil, err
	}
	out := []models.Asset{}
	for _, id := range sortedKeys(s.assets) {
		a := s.assets[id]
		if a.NextMaintenance != nil && *a.NextMaintenance <= day {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return *out[i].NextMaintenance < *out[j].NextMaintenance })
	return out, nil
}

func (s *Store) SetNextMaintenance(ctx context.Context, id int64, day string) error {
	defer s.lock()()
	if err := s.fail("SetNextMaintenance"); err != nil {
		return err
	}
	if a, ok := s.assets[id]; ok {
		a.NextMaintenance = &day
		s.assets[id] = a
	}
	return nil
}

// requests

func (s *Store) CreateRequest(ctx context.Context, req *models.MaintenanceRequest) (int64, error) {
	defer s.lock()()
	if err := s.fail("CreateRequest"); err != nil {
		return 0, err
	}
	if err := s.checkRefs(req.AssetID, req.EmployeeID); err != nil {
		return 0, err
	}
	c := *req
	c.ID = s.id()
	s.requests[c.ID] = c
	return c.ID, nil
}

func (s *Store) CreatePreventiveRequest(ctx context.Context, req *models.MaintenanceRequest) (int64, bool, error) {
	defer s.lock()()
	if err := s.fail("CreatePreventiveRequest"); err != nil {
		return 0, false, err
	}
	for _, r := range s.requests {
		if r.Source == models.SourcePreventive && sameInt(r.AssetID, req.AssetID) && sameString(r.DueDate, req.DueDate) {
			return 0, false, nil
		}
	}
	c := *req
	c.ID = s.id()
	c.EmployeeID = nil
	c.Status = models.RequestPending
	c.Source = models.SourcePreventive
	s.requests[c.ID] = c
	return c.ID, true, nil
}

func (s *Store) GetRequest(ctx context.Context, id int64) (*models.MaintenanceRequest, error) {
	defer s.lock()()
	if err := s.fail("GetRequest"); err != nil {
		return nil, err
	}
	r, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	r = s.joinRequest(r)
	return &r, nil
}

func (s *Store) ListPendingRequests(ctx context.Context) ([]models.MaintenanceRequest, error) {
	return s.listRequests("ListPendingRequests", func(r models.MaintenanceRequest) bool { return r.Status == models.RequestPending })
}

func (s *Store) ListRequestsByEmployee(ctx context.Context, employeeID int64) ([]models.MaintenanceRequest, error) {
	return s.listRequests("ListRequestsByEmployee", func(r models.MaintenanceRequest) bool {
		return r.EmployeeID != nil && *r.EmployeeID == employeeID
	})
}

// listRequests returns newest first; ids grow with insertion order.
func (s *Store) listRequests(method string, match func(models.MaintenanceRequest) bool) ([]models.MaintenanceRequest, error) {
	defer s.lock()()
	if err := s.fail(method); err != nil {
		return nil, err
	}
	out := []models.MaintenanceRequest{}
	keys := sortedKeys(s.requests)
	for i := len(keys) - 1; i >= 0; i-- {
		r := s.requests[keys[i]]
		if match(r) {
			out = append(out, s.joinRequest(r))
		}
	}
	return out, nil
}

func (s *Store) joinRequest(r models.MaintenanceRequest) models.MaintenanceRequest {
	r.SubmitterName = "System"
	if r.EmployeeID != nil {
		if u, ok := s.users[*r.EmployeeID]; ok {
			r.SubmitterName = u.FullName
		}
	}
	if r.AssetID != nil {
		r.AssetName = s.assets[*r.AssetID].Name
	}
	return r
}

func (s *Store) ApprovePendingRequest(ctx context.Context, id int64) (bool, error) {
	defer s.lock()()
	if err := s.fail("ApprovePendingRequest"); err != nil {
		return false, err
	}
	r, ok := s.requests[id]
	if !ok || r.Status != models.RequestPending {
		return false, nil
	}
	r.Status = models.RequestApproved
	s.requests[id] = r
	return true, nil
}

func (s *Store) MarkRequestApproved(ctx context.Context, id int64) error {
	defer s.lock()()
	if err := s.fail("MarkRequestApproved"); err != nil {
		return err
	}
	if r, ok := s.requests[id]; ok {
		r.Status = models.RequestApproved
		s.requests[id] = r
	}
	return nil
}

func (s *Store) HasOpenPreventiveRequest(ctx context.Context, assetID int64) (bool, error) {
	defer s.lock()()
	if err := s.fail("HasOpenPreventiveRequest"); err != nil {
		return false, err
	}
	for _, r := range s.requests {
		if r.Source == models.SourcePreventive && r.Status == models.RequestPending && r.AssetID != nil && *r.AssetID == assetID {
			return true, nil
		}
	}
	return false, nil
}

// tasks

func (s *Store) CreateTask(ctx context.Context, t *models.MaintenanceTask) (int64, error) {
	defer s.lock()()
	if err := s.fail("CreateTask"); err != nil {
		return 0, err
	}
	if err := s.checkRefs(t.AssetID, nil); err != nil {
		return 0, err
	}
	if t.RequestID != nil {
		if _, ok := s.requests[*t.RequestID]; !ok {
			return 0, errForeignKey
		}
	}
	c := *t
	c.ID = s.id()
	s.tasks[c.ID] = c
	return c.ID, nil
}

func (s *Store) GetTask(ctx context.Context, id int64) (*models.MaintenanceTask, error) {
	defer s.lock()()
	if err := s.fail("GetTask"); err != nil {
		return nil, err
	}
	t, ok := s.tasks[id]
	if !ok {
		return nil, nil
	}
	t = s.joinTask(t)
	return &t, nil
}

func (s *Store) ListTasksByTechnician(ctx context.Context, technician string) ([]models.MaintenanceTask, error) {
	return s.listTasks("ListTasksByTechnician", func(t models.MaintenanceTask) bool { return t.TechnicianName == technician })
}

func (s *Store) ListTasks(ctx context.Context) ([]models.MaintenanceTask, error) {
	return s.listTasks("ListTasks", func(models.MaintenanceTask) bool { return true })
}

func (s *Store) listTasks(method string, match func(models.MaintenanceTask) bool) ([]models.MaintenanceTask, error) {
	defer s.lock()()
	if err := s.fail(method); err != nil {
		return nil, err
	}
	out := []models.MaintenanceTask{}
	for _, id := range sortedKeys(s.tasks) {
		if t := s.tasks[id]; match(t) {
			out = append(out, s.joinTask(t))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Deadline < out[j].Deadline })
	return out, nil
}

func (s *Store) joinTask(t models.MaintenanceTask) models.MaintenanceTask {
	if t.AssetID != nil {
		a := s.assets[*t.AssetID]
		t.AssetName, t.AssetLocation = a.Name, a.Location
	}
	return t
}

func (s *Store) UpdateTaskStatus(ctx context.Context, id int64, status string, description *string) (bool, error) {
	defer s.lock()()
	if err := s.fail("UpdateTaskStatus"); err != nil {
		return false, err
	}
	t, ok := s.tasks[id]
	if !ok {
		return false, nil
	}
	t.Status = status
	if description != nil {
		t.Description = *description
	}
	s.tasks[id] = t
	return true, nil
}

func (s *Store) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	defer s.lock()()
	if err := s.fail("DashboardStats"); err != nil {
		return nil, err
	}
	st := &models.DashboardStats{TotalAssets: int64(len(s.assets))}
	for _, u := range s.users {
		if u.Role == models.RoleTechnician {
			st.TotalTechs++
		}
	}
	for _, r := range s.requests {
		if r.Status == models.RequestPending {
			st.PendingRequests++
		}
	}
	for _, t := range s.tasks {
		if t.Status == models.TaskCompleted {
			st.CompletedTasks++
		} else {
			st.OpenTasks++
		}
	}
	return st, nil
}

func (s *Store) checkRefs(assetID, userID *int64) error {
	if assetID != nil {
		if _, ok := s.assets[*assetID]; !ok {
			return errForeignKey
		}
	}
	if userID != nil {
		if _, ok := s.users[*userID]; !ok {
			return errForeignKey
		}
	}
	return nil
}

func sameInt(a, b *int64) bool {
	return a != nil && b != nil && *a == *b
}

func sameString(a, b *string) bool {
	return a != nil && b != nil && *a == *b
}

type constraintError string

func (e constraintError) Error() string { return string(e) }

// The messages match what SQLite reports so callers classify them the same way.
var errForeignKey = constraintError("constraint failed: FOREIGN KEY constraint failed")

func errUnique(column string) error {
	return constraintError("constraint failed: UNIQUE constraint failed: " + strings.TrimSpace(column))
}
