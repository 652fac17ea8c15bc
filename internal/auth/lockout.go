package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rollcall-hq/rollcall/internal/shared"
)

// DefaultMaxAttempts is the block-after-N-failures threshold.
const DefaultMaxAttempts = 3

// Attempt is the per-username failure counter record.
type Attempt struct {
	Count         int64
	LastAttemptAt time.Time
}

// AttemptStore tracks failed login attempts keyed purely by username string,
// not actor ID: a counter must exist even for unrecognized usernames so the
// error surface does not leak which usernames are valid. The store is scoped
// to the client session; the persisted Blocked flag on the account is the
// cross-device source of truth.
type AttemptStore interface {
	// IncrementFailure bumps the counter atomically and returns the new count.
	IncrementFailure(ctx context.Context, username string) (int64, error)
	// Attempts returns the current counter, zero-valued when absent.
	Attempts(ctx context.Context, username string) (Attempt, error)
	// Clear removes the counter.
	Clear(ctx context.Context, username string) error
}

// RedisAttemptStore keeps counters in a redis hash per username. HIncrBy is
// the serialization point: concurrent failures for the same username from
// multiple tabs or devices cannot lose a count.
type RedisAttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisAttemptStore constructs the store. Counters expire after ttl of
// inactivity so stale entries do not accumulate.
func NewRedisAttemptStore(client *redis.Client, ttl time.Duration) *RedisAttemptStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisAttemptStore{client: client, ttl: ttl}
}

func attemptKey(username string) string {
	return "login_attempts:" + shared.FoldUsername(username)
}

// IncrementFailure records one failure and refreshes the window.
func (s *RedisAttemptStore) IncrementFailure(ctx context.Context, username string) (int64, error) {
	key := attemptKey(username)
	pipe := s.client.TxPipeline()
	incr := pipe.HIncrBy(ctx, key, "count", 1)
	pipe.HSet(ctx, key, "last_attempt_at", time.Now().UTC().Format(time.RFC3339Nano))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("auth: increment attempts: %w", err)
	}
	return incr.Val(), nil
}

// Attempts reads the counter.
func (s *RedisAttemptStore) Attempts(ctx context.Context, username string) (Attempt, error) {
	fields, err := s.client.HGetAll(ctx, attemptKey(username)).Result()
	if err != nil {
		return Attempt{}, fmt.Errorf("auth: read attempts: %w", err)
	}
	var attempt Attempt
	if raw, ok := fields["count"]; ok {
		if count, err := strconv.ParseInt(raw, 10, 64); err == nil {
			attempt.Count = count
		}
	}
	if raw, ok := fields["last_attempt_at"]; ok {
		if at, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			attempt.LastAttemptAt = at
		}
	}
	return attempt, nil
}

// Clear removes the counter after a successful login or an admin unblock.
func (s *RedisAttemptStore) Clear(ctx context.Context, username string) error {
	if err := s.client.Del(ctx, attemptKey(username)).Err(); err != nil {
		return fmt.Errorf("auth: clear attempts: %w", err)
	}
	return nil
}

// Guard enforces the block-after-N-failures policy over an AttemptStore.
// The guard only manages the local counter; persisting the block flag on the
// account is the login service's job, because the flag lives in the actor
// store, not here.
type Guard struct {
	store       AttemptStore
	maxAttempts int
}

// NewGuard constructs a Guard.
func NewGuard(store AttemptStore, maxAttempts int) *Guard {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Guard{store: store, maxAttempts: maxAttempts}
}

// MaxAttempts returns the configured threshold.
func (g *Guard) MaxAttempts() int {
	return g.maxAttempts
}

// Suppressed reports whether the username has already exhausted its attempts
// in this window. Checked before credentials are even looked at, so a fourth
// attempt against a nonexistent username is rejected the same way as against
// a real one.
func (g *Guard) Suppressed(ctx context.Context, username string) (bool, error) {
	attempt, err := g.store.Attempts(ctx, username)
	if err != nil {
		return false, err
	}
	return attempt.Count >= int64(g.maxAttempts), nil
}

// RecordFailure counts one failed attempt. It returns the new count and
// whether this failure crossed the lockout threshold.
func (g *Guard) RecordFailure(ctx context.Context, username string) (count int64, lockout bool, err error) {
	count, err = g.store.IncrementFailure(ctx, username)
	if err != nil {
		return 0, false, err
	}
	return count, count >= int64(g.maxAttempts), nil
}

// RecordSuccess clears the counter. It does not touch any persisted block
// flag: unblocking is a distinct, gated administrative action.
func (g *Guard) RecordSuccess(ctx context.Context, username string) error {
	return g.store.Clear(ctx, username)
}

// Remaining converts a failure count into attempts left before lockout.
func (g *Guard) Remaining(count int64) int {
	remaining := g.maxAttempts - int(count)
	if remaining < 0 {
		return 0
	}
	return remaining
}
