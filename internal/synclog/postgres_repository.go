package synclog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgxPool is the subset of *pgxpool.Pool the repository uses.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores sync log entries in the relational database.
type PostgresRepository struct {
	pool pgxPool
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(pool pgxPool) *PostgresRepository {
	if pool == nil {
		panic("synclog: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Record inserts a new row.
func (r *PostgresRepository) Record(ctx context.Context, entry *Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	id := uuid.New()
	query := `
		INSERT INTO contact_sync_log (id, email, action, contact_id, upstream_status, error)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.pool.QueryRow(ctx, query,
		id,
		strings.ToLower(strings.TrimSpace(entry.Email)),
		string(entry.Action),
		entry.ContactID,
		entry.UpstreamStatus,
		entry.Error,
	).Scan(&createdAt); err != nil {
		return fmt.Errorf("synclog: insert failed: %w", err)
	}

	entry.ID = id.String()
	entry.CreatedAt = createdAt
	return nil
}

// ListByEmail returns the newest entries for email first.
func (r *PostgresRepository) ListByEmail(ctx context.Context, email string, limit int) ([]*Entry, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, ErrMissingEmail
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, email, action, contact_id, upstream_status, error, created_at
		FROM contact_sync_log
		WHERE email = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, email, limit)
	if err != nil {
		return nil, fmt.Errorf("synclog: select failed: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var e Entry
		var action string
		if err := rows.Scan(&e.ID, &e.Email, &action, &e.ContactID, &e.UpstreamStatus, &e.Error, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("synclog: scan failed: %w", err)
		}
		e.Action = Action(action)
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("synclog: rows failed: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than cutoff and returns how many were removed.
func (r *PostgresRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM contact_sync_log WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("synclog: prune failed: %w", err)
	}
	return tag.RowsAffected(), nil
}
