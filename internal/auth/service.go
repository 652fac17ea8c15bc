package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/rollcall-hq/rollcall/internal/audit"
	"github.com/rollcall-hq/rollcall/internal/observability"
	"github.com/rollcall-hq/rollcall/internal/shared"
)

// LoginResult is returned to the caller of AttemptLogin.
type LoginResult struct {
	// RemainingAttempts accompanies shared.ErrInvalidCredentials so the UI
	// can warn the user before lockout.
	RemainingAttempts int
	// Actor is non-nil only on success.
	Actor *Actor
}

// AuditRecorder is the slice of the audit package the service needs.
type AuditRecorder interface {
	Record(ctx context.Context, action, details string, actor audit.ActorRef) error
}

// Service wraps authentication business rules: credential verification plus
// the lockout policy.
type Service struct {
	repo     Repository
	guard    *Guard
	recorder AuditRecorder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewService constructs a new Service.
func NewService(repo Repository, guard *Guard, recorder AuditRecorder, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, guard: guard, recorder: recorder, logger: logger, metrics: metrics}
}

// AttemptLogin resolves the account, enforces the lockout policy and
// verifies credentials. The attempt counter is keyed by the folded username
// even when no matching account exists, so the response shape never reveals
// whether a username is valid. Rejections surface as the shared sentinels
// (shared.ErrInvalidCredentials, shared.ErrAccountBlocked,
// shared.ErrTooManyAttempts); any other error is infrastructure failure.
func (s *Service) AttemptLogin(ctx context.Context, username, password string) (LoginResult, error) {
	folded := shared.FoldUsername(username)

	actor, err := s.repo.FindByUsername(ctx, folded)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return LoginResult{}, fmt.Errorf("auth: resolve account: %w", err)
	}

	// The persisted block flag is authoritative and checked before any
	// counter state: a blocked account consumes no further attempts.
	if actor != nil && actor.Blocked {
		return LoginResult{}, shared.ErrAccountBlocked
	}

	suppressed, err := s.guard.Suppressed(ctx, folded)
	if err != nil {
		return LoginResult{}, err
	}
	if suppressed {
		return LoginResult{}, shared.ErrTooManyAttempts
	}

	if actor != nil && bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(password)) == nil {
		if err := s.guard.RecordSuccess(ctx, folded); err != nil {
			return LoginResult{}, err
		}
		return LoginResult{Actor: actor}, nil
	}

	count, lockout, err := s.guard.RecordFailure(ctx, folded)
	if err != nil {
		return LoginResult{}, err
	}
	s.metrics.IncLoginFailure()

	if !lockout {
		return LoginResult{RemainingAttempts: s.guard.Remaining(count)}, shared.ErrInvalidCredentials
	}

	// Threshold crossed. A nonexistent account cannot be blocked server-side
	// (nothing to persist against); the counter alone keeps suppressing it.
	if actor != nil {
		// Only the increment that lands exactly on the threshold persists
		// the flag and writes the lockout entry. Concurrent failures can
		// push the counter past the threshold before the first one finishes
		// its read, and those must not duplicate either side effect.
		if count == int64(s.guard.MaxAttempts()) {
			if err := s.repo.SetBlocked(ctx, actor.ID, true); err != nil {
				return LoginResult{}, fmt.Errorf("auth: persist block flag: %w", err)
			}
			s.metrics.IncLockout()
			// The lockout entry is authored by the system security actor:
			// the offending account cannot author its own lockout record.
			details := fmt.Sprintf("account %q blocked after %d failed login attempts", actor.Username, count)
			if err := s.recorder.Record(ctx, audit.ActionSecurityLockout, details, audit.SystemSecurityActor); err != nil {
				s.logger.Warn("audit lockout entry", slog.Any("error", err))
				s.metrics.IncAuditDegraded()
			}
		}
		return LoginResult{}, shared.ErrAccountBlocked
	}
	return LoginResult{}, shared.ErrTooManyAttempts
}

// UpdateProfile stores the actor's own display name and avatar. The
// own-profile page is always permitted, so there is no resolver gate here.
func (s *Service) UpdateProfile(ctx context.Context, actor *Actor, displayName, avatarURL string) (*Actor, error) {
	if actor == nil {
		return nil, shared.ErrNotFound
	}
	if err := s.repo.UpdateProfile(ctx, actor.ID, displayName, avatarURL); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, actor.ID)
}

// Unblock clears an account's persisted block flag and its attempt counter.
// Authorization is the caller's job (the users service gates it through the
// resolver); this method only performs and audits the state change.
func (s *Service) Unblock(ctx context.Context, target *Actor, by audit.ActorRef) error {
	if target == nil {
		return shared.ErrNotFound
	}
	if err := s.repo.SetBlocked(ctx, target.ID, false); err != nil {
		return err
	}
	if err := s.guard.RecordSuccess(ctx, target.Username); err != nil {
		s.logger.Warn("clear attempt counter", slog.Any("error", err))
	}
	details := fmt.Sprintf("account %q unblocked", target.Username)
	if err := s.recorder.Record(ctx, audit.ActionSecurityUnblock, details, by); err != nil {
		s.logger.Warn("audit unblock entry", slog.Any("error", err))
		s.metrics.IncAuditDegraded()
	}
	return nil
}
