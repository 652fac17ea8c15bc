package voters

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rollcall-hq/rollcall/internal/shared"
)

const voterColumns = `id, first_name, last_name, national_id, email, phone,
	street, district, polling_station, notes, has_voted,
	support, pledged, mobilized, priority, created_at, updated_at`

// PGRepository persists voters in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository builds PGRepository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Get(ctx context.Context, id int64) (*Voter, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+voterColumns+` FROM voters WHERE id = $1`, id)
	voter, err := scanVoter(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("voters: get: %w", err)
	}
	return voter, nil
}

func (r *PGRepository) List(ctx context.Context) ([]Voter, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+voterColumns+` FROM voters ORDER BY last_name, first_name, id`)
	if err != nil {
		return nil, fmt.Errorf("voters: list: %w", err)
	}
	defer rows.Close()

	var out []Voter
	for rows.Next() {
		voter, err := scanVoter(rows)
		if err != nil {
			return nil, fmt.Errorf("voters: list scan: %w", err)
		}
		out = append(out, *voter)
	}
	return out, rows.Err()
}

func (r *PGRepository) Create(ctx context.Context, voter *Voter) (*Voter, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO voters (first_name, last_name, national_id, email, phone,
			street, district, polling_station, notes, has_voted,
			support, pledged, mobilized, priority, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,now(),now())
		RETURNING `+voterColumns,
		voter.FirstName, voter.LastName, voter.NationalID, voter.Email, voter.Phone,
		voter.Street, voter.District, voter.PollingStation, voter.Notes, voter.HasVoted,
		voter.Support, voter.Pledged, voter.Mobilized, voter.Priority)
	created, err := scanVoter(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrDuplicate
		}
		return nil, fmt.Errorf("voters: create: %w", err)
	}
	return created, nil
}

func (r *PGRepository) Update(ctx context.Context, voter *Voter) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE voters SET
			first_name = $2, last_name = $3, national_id = $4, email = $5, phone = $6,
			street = $7, district = $8, polling_station = $9, notes = $10, has_voted = $11,
			support = $12, pledged = $13, mobilized = $14, priority = $15, updated_at = now()
		WHERE id = $1`,
		voter.ID,
		voter.FirstName, voter.LastName, voter.NationalID, voter.Email, voter.Phone,
		voter.Street, voter.District, voter.PollingStation, voter.Notes, voter.HasVoted,
		voter.Support, voter.Pledged, voter.Mobilized, voter.Priority)
	if err != nil {
		return fmt.Errorf("voters: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM voters WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("voters: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVoter(row rowScanner) (*Voter, error) {
	var v Voter
	err := row.Scan(
		&v.ID, &v.FirstName, &v.LastName, &v.NationalID, &v.Email, &v.Phone,
		&v.Street, &v.District, &v.PollingStation, &v.Notes, &v.HasVoted,
		&v.Support, &v.Pledged, &v.Mobilized, &v.Priority, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
