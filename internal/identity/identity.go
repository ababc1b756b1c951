// Package identity registers, verifies and authenticates users.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/garnizeh/fixmate/internal/apperr"
	"github.com/garnizeh/fixmate/internal/jobs"
	"github.com/garnizeh/fixmate/internal/notify"
	"github.com/garnizeh/fixmate/pkg/models"
	"github.com/garnizeh/fixmate/pkg/repository"
)

type Options struct {
	// RequireVerification stages registrations until the emailed token is used.
	RequireVerification bool
	TokenSecret         string
	TokenTTL            time.Duration
	// PublicBaseURL prefixes the verification link, e.g. http://localhost:3000
	PublicBaseURL string
	// MaxAttempts bounds delivery retries of the verification email job.
	MaxAttempts int
	BcryptCost  int
	Now         func() time.Time
}

type Service struct {
	store  repository.Store
	queue  jobs.Queue
	opts   Options
	logger *slog.Logger
}

// Identity is what a successful login returns.
type Identity struct {
	ID       int64  `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// RegisterResult describes the stored registration. Token is set only for
// staged registrations and is never exposed over HTTP.
type RegisterResult struct {
	ID      int64  `json:"id"`
	Pending bool   `json:"pending"`
	Token   string `json:"-"`
}

// New creates the service. queue may be nil, in which case no verification
// email is sent.
func New(store repository.Store, queue jobs.Queue, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Service{store: store, queue: queue, opts: opts, logger: logger}
}

// NormalizeRole maps a case-insensitive role name to its canonical form.
func NormalizeRole(role string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "admin":
		return models.RoleAdmin, true
	case "technician":
		return models.RoleTechnician, true
	case "employee":
		return models.RoleEmployee, true
	}
	return "", false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, fullName, email, password, role string) (*RegisterResult, error) {
	const op = "identity.register"

	fullName = strings.TrimSpace(fullName)
	email = normalizeEmail(email)
	if fullName == "" || email == "" || password == "" || strings.TrimSpace(role) == "" {
		return nil, apperr.Validation(op, "full_name, email, password and role are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation(op, "email is not a valid address")
	}
	canonicalRole, ok := NormalizeRole(role)
	if !ok {
		return nil, apperr.Validation(op, "role must be one of Admin, Technician, Employee")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return nil, apperr.Validation(op, fmt.Sprintf("password rejected: %v", err))
	}

	res := &RegisterResult{Pending: s.opts.RequireVerification}
	if res.Pending {
		if res.Token, err = s.issueToken(email); err != nil {
			return nil, apperr.Storage(op, err)
		}
	}

	err = s.store.InTx(ctx, func(tx repository.Store) error {
		u, err := tx.GetUserByEmail(ctx, email)
		if err != nil {
			return apperr.Storage(op, err)
		}
		p, err := tx.GetPendingUserByEmail(ctx, email)
		if err != nil {
			return apperr.Storage(op, err)
		}
		if u != nil || p != nil {
			return apperr.DuplicateEmail(op, email)
		}

		if !res.Pending {
			res.ID, err = tx.CreateUser(ctx, &models.User{FullName: fullName, Email: email, PasswordHash: string(hash), Role: canonicalRole})
		} else {
			res.ID, err = tx.CreatePendingUser(ctx, &models.PendingUser{FullName: fullName, Email: email, PasswordHash: string(hash), Role: canonicalRole, VerificationToken: res.Token})
		}
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.DuplicateEmail(op, email)
			}
			return apperr.Storage(op, err)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.FromTx(op, err)
	}

	if res.Pending {
		s.sendVerification(ctx, fullName, email, res.Token)
	}
	s.logger.Info("user registered", slog.Int64("id", res.ID), slog.String("role", canonicalRole), slog.Bool("pending", res.Pending))

	return res, nil
}

// sendVerification enqueues the verification email. Failures are logged only.
func (s *Service) sendVerification(ctx context.Context, fullName, email, token string) {
	if s.queue == nil {
		s.logger.Warn("no job queue configured; verification email not sent", slog.String("email", email))
		return
	}
	payload := notify.VerificationPayload{
		Email:    email,
		FullName: fullName,
		Link:     s.opts.PublicBaseURL + "/api/verify-email/" + token,
	}
	if _, err := jobs.Enqueue(ctx, s.queue, notify.JobVerificationEmail, payload, 10, s.opts.MaxAttempts); err != nil {
		s.logger.Error("failed to enqueue verification email", slog.String("email", email), slog.Any("err", err))
	}
}

func (s *Service) issueToken(email string) (string, error) {
	now := s.opts.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.opts.TokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.opts.TokenSecret))
}

func (s *Service) parseToken(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.opts.TokenSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.opts.Now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// Verify promotes the pending registration owning token to an active user.
// The token is consumed.
func (s *Service) Verify(ctx context.Context, token string) (*Identity, error) {
	const op = "identity.verify"

	if strings.TrimSpace(token) == "" {
		return nil, apperr.InvalidToken(op, errors.New("empty token"))
	}
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, apperr.InvalidToken(op, err)
	}

	var out *Identity
	err = s.store.InTx(ctx, func(tx repository.Store) error {
		p, err := tx.GetPendingUserByToken(ctx, token)
		if err != nil {
			return apperr.Storage(op, err)
		}
		if p == nil || p.Email != claims.Subject {
			return apperr.InvalidToken(op, errors.New("no pending registration for token"))
		}

		id, err := tx.CreateUser(ctx, &models.User{FullName: p.FullName, Email: p.Email, PasswordHash: p.PasswordHash, Role: p.Role})
		if err != nil {
			if isUniqueViolation(err) {
				return apperr.DuplicateEmail(op, p.Email)
			}
			return apperr.Storage(op, err)
		}
		if err := tx.DeletePendingUser(ctx, p.ID); err != nil {
			return apperr.Storage(op, err)
		}

		out = &Identity{ID: id, FullName: p.FullName, Email: p.Email, Role: p.Role}
		return nil
	})
	if err != nil {
		return nil, apperr.FromTx(op, err)
	}

	s.logger.Info("user verified", slog.Int64("id", out.ID))
	return out, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*Identity, error) {
	const op = "identity.login"

	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, apperr.Validation(op, "email and password are required")
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Storage(op, err)
	}
	if u == nil {
		return nil, apperr.NotFound(op, "user not found")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, apperr.InvalidCredentials(op)
	}

	return &Identity{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role}, nil
}

func (s *Service) ListTechnicians(ctx context.Context) ([]string, error) {
	names, err := s.store.ListTechnicianNames(ctx)
	if err != nil {
		return nil, apperr.Storage("identity.technicians", err)
	}
	return names, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
