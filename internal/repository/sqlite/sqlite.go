package sqlite

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"github.com/garnizeh/fixmate/internal/db"
	"github.com/garnizeh/fixmate/internal/jobs"
	"github.com/garnizeh/fixmate/pkg/repository"
)

// SQLiteRepo implements repository interfaces using the internal DB wrapper.
// A repo returned to an InTx callback is bound to that transaction.
type SQLiteRepo struct {
	conn   *db.DB
	q      db.Querier
	inTx   bool
	logger *slog.Logger
}

// Ensure SQLiteRepo implements the public interfaces.
var _ repository.Store = (*SQLiteRepo)(nil)
var _ jobs.Queue = (*SQLiteRepo)(nil)

func New(conn *db.DB, logger *slog.Logger) *SQLiteRepo {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &SQLiteRepo{conn: conn, q: conn.GetConn(), logger: logger}
}

// InTx runs fn with a repo bound to a single transaction. Nested calls reuse
// the enclosing transaction.
func (r *SQLiteRepo) InTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if r.inTx {
		return fn(r)
	}
	return r.conn.WithTx(ctx, func(q db.Querier) error {
		return fn(&SQLiteRepo{conn: r.conn, q: q, inTx: true, logger: r.logger})
	})
}

func now() int64 {
	return time.Now().UTC().UnixMilli()
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func ptrInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	x := v.Int64
	return &x
}

func ptrString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	x := v.String
	return &x
}
