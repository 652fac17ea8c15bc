package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rollcall-hq/rollcall/internal/authz"
	"github.com/rollcall-hq/rollcall/internal/shared"
)

// Repository defines persistence operations for actor accounts.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (*Actor, error)
	FindByID(ctx context.Context, id int64) (*Actor, error)
	List(ctx context.Context) ([]Actor, error)
	Create(ctx context.Context, actor *Actor) (*Actor, error)
	SetBlocked(ctx context.Context, actorID int64, blocked bool) error
	UpdateRoleAndPermissions(ctx context.Context, actorID int64, role authz.Role, perms []authz.Permission) error
	UpdatePermissions(ctx context.Context, actorID int64, perms []authz.Permission) error
	UpdateProfile(ctx context.Context, actorID int64, displayName, avatarURL string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const actorColumns = `id, username, display_name, role, permissions, blocked, avatar_url, password_hash, created_at, updated_at`

// FindByUsername fetches an actor by case-folded username.
func (r *PGRepository) FindByUsername(ctx context.Context, username string) (*Actor, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+actorColumns+` FROM actors WHERE lower(username) = $1`,
		shared.FoldUsername(username))
	return scanActor(row)
}

// FindByID fetches an actor by ID.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*Actor, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+actorColumns+` FROM actors WHERE id = $1`, id)
	return scanActor(row)
}

// List returns all actors ordered by username.
func (r *PGRepository) List(ctx context.Context) ([]Actor, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+actorColumns+` FROM actors ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("auth: list actors: %w", err)
	}
	defer rows.Close()
	var actors []Actor
	for rows.Next() {
		actor, err := scanActor(rows)
		if err != nil {
			return nil, err
		}
		actors = append(actors, *actor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("auth: iterate actors: %w", err)
	}
	return actors, nil
}

// Create inserts a new actor. A username collision maps to ErrDuplicate.
func (r *PGRepository) Create(ctx context.Context, actor *Actor) (*Actor, error) {
	now := time.Now().UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO actors (username, display_name, role, permissions, blocked, avatar_url, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 RETURNING `+actorColumns,
		actor.Username, actor.DisplayName, string(actor.Role), permissionStrings(actor.Permissions),
		actor.Blocked, actor.AvatarURL, actor.PasswordHash, now)
	created, err := scanActor(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrDuplicate
		}
		return nil, err
	}
	return created, nil
}

// SetBlocked persists the block flag.
func (r *PGRepository) SetBlocked(ctx context.Context, actorID int64, blocked bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE actors SET blocked = $2, updated_at = $3 WHERE id = $1`,
		actorID, blocked, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("auth: set blocked: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateRoleAndPermissions stores a new role together with its seeded
// explicit permission set.
func (r *PGRepository) UpdateRoleAndPermissions(ctx context.Context, actorID int64, role authz.Role, perms []authz.Permission) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE actors SET role = $2, permissions = $3, updated_at = $4 WHERE id = $1`,
		actorID, string(role), permissionStrings(perms), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("auth: update role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdatePermissions replaces the explicit permission set.
func (r *PGRepository) UpdatePermissions(ctx context.Context, actorID int64, perms []authz.Permission) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE actors SET permissions = $2, updated_at = $3 WHERE id = $1`,
		actorID, permissionStrings(perms), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("auth: update permissions: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UpdateProfile stores the actor's own editable profile fields.
func (r *PGRepository) UpdateProfile(ctx context.Context, actorID int64, displayName, avatarURL string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE actors SET display_name = $2, avatar_url = $3, updated_at = $4 WHERE id = $1`,
		actorID, displayName, avatarURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("auth: update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanActor(row rowScanner) (*Actor, error) {
	var (
		actor Actor
		role  string
		perms []string
	)
	err := row.Scan(&actor.ID, &actor.Username, &actor.DisplayName, &role, &perms,
		&actor.Blocked, &actor.AvatarURL, &actor.PasswordHash, &actor.CreatedAt, &actor.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: scan actor: %w", err)
	}
	actor.Role = authz.Role(role)
	actor.Permissions = make([]authz.Permission, 0, len(perms))
	for _, p := range perms {
		actor.Permissions = append(actor.Permissions, authz.Permission(p))
	}
	return &actor, nil
}

func permissionStrings(perms []authz.Permission) []string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, string(p))
	}
	return out
}

var _ Repository = (*PGRepository)(nil)
