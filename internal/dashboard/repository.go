package dashboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository computes the aggregate counts in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository builds PGRepository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) CountVoters(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM voters`)
}

func (r *PGRepository) CountVoted(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM voters WHERE has_voted`)
}

func (r *PGRepository) CountContacted(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM voters WHERE notes <> '' OR support OR pledged OR mobilized`)
}

func (r *PGRepository) CountSupporters(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM voters WHERE support`)
}

func (r *PGRepository) CountVolunteers(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT count(*) FROM actors WHERE NOT blocked`)
}

func (r *PGRepository) count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("dashboard: count: %w", err)
	}
	return n, nil
}
