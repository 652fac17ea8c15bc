package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository reads the audit_log table.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const timelineBaseQuery = `
SELECT id, action, details, actor_id, actor_name, occurred_at
FROM audit_log
WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
  AND ($2::timestamptz IS NULL OR occurred_at <= $2)
  AND ($3::text = '' OR actor_name = $3)
  AND ($4::text = '' OR action = $4)
ORDER BY occurred_at DESC`

// TimelineWindow returns one page of entries, newest first.
func (r *PGRepository) TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, error) {
	query := timelineBaseQuery + ` LIMIT $5 OFFSET $6`
	rows, err := r.pool.Query(ctx, query,
		nullableTime(filters.From), nullableTime(filters.To), filters.Actor, filters.Action, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("audit: timeline window: %w", err)
	}
	return scanEntries(rows)
}

// TimelineAll returns every matching entry for export.
func (r *PGRepository) TimelineAll(ctx context.Context, filters TimelineFilters) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, timelineBaseQuery,
		nullableTime(filters.From), nullableTime(filters.To), filters.Actor, filters.Action)
	if err != nil {
		return nil, fmt.Errorf("audit: timeline all: %w", err)
	}
	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.Details, &e.ActorID, &e.ActorName, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("audit: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate entries: %w", err)
	}
	return entries, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

var _ Repository = (*PGRepository)(nil)
