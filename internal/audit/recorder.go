package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the slice of pgxpool.Pool the recorder needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Recorder appends entries to the audit_log table. Appends are one-shot:
// durability is the store's concern and the recorder adds no retry policy.
type Recorder struct {
	db Execer
}

// NewRecorder returns a Recorder writing through the given pool.
func NewRecorder(db Execer) *Recorder {
	return &Recorder{db: db}
}

// Record appends a structured, timestamped entry. A failed append returns an
// error wrapping ErrAppendDegraded; logging a voter edit must never block the
// voter edit, so callers surface the degradation and carry on.
func (r *Recorder) Record(ctx context.Context, action, details string, actor ActorRef) error {
	if r == nil || r.db == nil {
		return fmt.Errorf("%w: recorder not initialised", ErrAppendDegraded)
	}
	if action == "" {
		return errors.New("audit: action tag required")
	}
	entry := Entry{
		ID:         uuid.New(),
		Action:     action,
		Details:    details,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		OccurredAt: time.Now().UTC(),
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_log (id, action, details, actor_id, actor_name, occurred_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.Action, entry.Details, entry.ActorID, entry.ActorName, entry.OccurredAt)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAppendDegraded, err)
	}
	return nil
}
