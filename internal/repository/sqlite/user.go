package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/fixmate/pkg/models"
)

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user is nil")
	}

	res, err := r.q.ExecContext(ctx, `INSERT INTO users (full_name, email, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?)`, u.FullName, u.Email, u.PasswordHash, u.Role, now())
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.q.QueryRowContext(ctx, `SELECT id, full_name, email, password_hash, role, created_at FROM users WHERE email = ?`, email)
	var u models.User
	if err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &u, nil
}

func (r *SQLiteRepo) ListTechnicianNames(ctx context.Context) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT full_name FROM users WHERE role = ? ORDER BY full_name`, models.RoleTechnician)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}

	return out, rows.Err()
}

func (r *SQLiteRepo) CreatePendingUser(ctx context.Context, p *models.PendingUser) (int64, error) {
	if p == nil {
		return 0, fmt.Errorf("pending user is nil")
	}

	res, err := r.q.ExecContext(ctx, `INSERT INTO pending_users (full_name, email, password_hash, role, verification_token, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.FullName, p.Email, p.PasswordHash, p.Role, p.VerificationToken, now())
	if err != nil {
		return 0, fmt.Errorf("insert pending user: %w", err)
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetPendingUserByEmail(ctx context.Context, email string) (*models.PendingUser, error) {
	return r.getPendingUser(ctx, `WHERE email = ?`, email)
}

func (r *SQLiteRepo) GetPendingUserByToken(ctx context.Context, token string) (*models.PendingUser, error) {
	return r.getPendingUser(ctx, `WHERE verification_token = ?`, token)
}

func (r *SQLiteRepo) getPendingUser(ctx context.Context, where string, arg any) (*models.PendingUser, error) {
	row := r.q.QueryRowContext(ctx, `SELECT id, full_name, email, password_hash, role, verification_token, created_at FROM pending_users `+where, arg)
	var p models.PendingUser
	if err := row.Scan(&p.ID, &p.FullName, &p.Email, &p.PasswordHash, &p.Role, &p.VerificationToken, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return &p, nil
}

func (r *SQLiteRepo) DeletePendingUser(ctx context.Context, id int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM pending_users WHERE id = ?`, id)
	return err
}
