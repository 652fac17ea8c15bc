package voters

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rollcall-hq/rollcall/internal/audit"
	"github.com/rollcall-hq/rollcall/internal/auth"
	"github.com/rollcall-hq/rollcall/internal/authz"
	"github.com/rollcall-hq/rollcall/internal/observability"
	"github.com/rollcall-hq/rollcall/internal/shared"
)

// RepositoryPort defines data access methods for voters.
type RepositoryPort interface {
	Get(ctx context.Context, id int64) (*Voter, error)
	List(ctx context.Context) ([]Voter, error)
	Create(ctx context.Context, voter *Voter) (*Voter, error)
	Update(ctx context.Context, voter *Voter) error
	Delete(ctx context.Context, id int64) error
}

// AuditRecorder is the slice of the audit package the service needs.
type AuditRecorder interface {
	Record(ctx context.Context, action, details string, actor audit.ActorRef) error
}

// MutationResult reports a completed mutation together with the audit
// degradation signal: a failed append never rolls the mutation back, but the
// caller is told so it can surface a soft warning.
type MutationResult struct {
	Voter         *Voter
	ChangedFields []string
	AuditDegraded bool
}

// Service handles voter roll business logic. Every mutation is gated through
// the resolver or field gate before it touches the repository, and audited
// after it succeeds.
type Service struct {
	repo     RepositoryPort
	resolver *authz.Resolver
	gate     *authz.Gate
	recorder AuditRecorder
	logger   *slog.Logger
	metrics  *observability.Metrics
	validate *validator.Validate
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, resolver *authz.Resolver, gate *authz.Gate, recorder AuditRecorder, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		resolver: resolver,
		gate:     gate,
		recorder: recorder,
		logger:   logger,
		metrics:  metrics,
		validate: validator.New(),
	}
}

// Get returns a single voter.
func (s *Service) Get(ctx context.Context, id int64) (*Voter, error) {
	return s.repo.Get(ctx, id)
}

// List returns all voters.
func (s *Service) List(ctx context.Context) ([]Voter, error) {
	return s.repo.List(ctx)
}

// Create inserts a new roll entry. Creation is gated at the action level;
// field gating does not apply because create forms are never read-only.
func (s *Service) Create(ctx context.Context, actor *auth.Actor, voter Voter) (MutationResult, error) {
	if !s.resolver.IsAllowed(actor.Info(), authz.PermActionVoterCreate) {
		return MutationResult{}, shared.ErrPermissionDenied
	}
	if err := s.validate.Var(voter.FirstName, "required"); err != nil {
		return MutationResult{}, fmt.Errorf("voters: first name required: %w", shared.ErrValidationFailed)
	}
	if err := s.validate.Var(voter.LastName, "required"); err != nil {
		return MutationResult{}, fmt.Errorf("voters: last name required: %w", shared.ErrValidationFailed)
	}
	if voter.Email != "" {
		if err := s.validate.Var(voter.Email, "email"); err != nil {
			return MutationResult{}, fmt.Errorf("voters: invalid email: %w", shared.ErrValidationFailed)
		}
	}
	created, err := s.repo.Create(ctx, &voter)
	if err != nil {
		return MutationResult{}, err
	}
	degraded := s.record(ctx, audit.ActionVoterCreate,
		fmt.Sprintf("voter %d (%s %s) created", created.ID, created.FirstName, created.LastName), actor)
	return MutationResult{Voter: created, AuditDegraded: degraded}, nil
}

// Update applies a partial edit. The whole call is refused when the edit form
// would render read-only for this actor; individual fields are refused when
// the actor lacks their field permission. Only fields actually being applied
// are validated: a field the actor cannot edit keeps whatever value someone
// with the right permission gave it, even if that value would fail today's
// rules.
func (s *Service) Update(ctx context.Context, actor *auth.Actor, id int64, patch Patch) (MutationResult, error) {
	info := actor.Info()
	if s.gate.FormReadOnly(info, authz.RecordVoters, authz.ModeEdit) {
		return MutationResult{}, shared.ErrPermissionDenied
	}

	voter, err := s.repo.Get(ctx, id)
	if err != nil {
		return MutationResult{}, err
	}

	editable := s.gate.EditableFields(info, authz.RecordVoters, authz.ModeEdit, FieldPermissions)
	changed, err := applyPatch(voter, patch, editable, s.validate)
	if err != nil {
		return MutationResult{}, err
	}
	if len(changed) == 0 {
		return MutationResult{Voter: voter}, nil
	}

	if err := s.repo.Update(ctx, voter); err != nil {
		return MutationResult{}, err
	}
	sort.Strings(changed)
	degraded := s.record(ctx, audit.ActionVoterUpdate,
		fmt.Sprintf("voter %d updated, fields: %s", voter.ID, strings.Join(changed, ", ")), actor)
	return MutationResult{Voter: voter, ChangedFields: changed, AuditDegraded: degraded}, nil
}

// SetHasVoted toggles the election-day status flag through the same gate as
// any other field edit.
func (s *Service) SetHasVoted(ctx context.Context, actor *auth.Actor, id int64, hasVoted bool) (MutationResult, error) {
	return s.Update(ctx, actor, id, Patch{HasVoted: &hasVoted})
}

// Delete removes a roll entry.
func (s *Service) Delete(ctx context.Context, actor *auth.Actor, id int64) (MutationResult, error) {
	if !s.resolver.IsAllowed(actor.Info(), authz.PermActionVoterDelete) {
		return MutationResult{}, shared.ErrPermissionDenied
	}
	voter, err := s.repo.Get(ctx, id)
	if err != nil {
		return MutationResult{}, err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return MutationResult{}, err
	}
	degraded := s.record(ctx, audit.ActionVoterDelete,
		fmt.Sprintf("voter %d (%s %s) deleted", voter.ID, voter.FirstName, voter.LastName), actor)
	return MutationResult{Voter: voter, AuditDegraded: degraded}, nil
}

// record appends an audit entry, reporting degradation instead of failing.
func (s *Service) record(ctx context.Context, action, details string, actor *auth.Actor) bool {
	err := s.recorder.Record(ctx, action, details, audit.ActorRef{ID: actor.ID, Name: actor.AuditName()})
	if err == nil {
		return false
	}
	s.logger.Warn("audit append", slog.String("action", action), slog.Any("error", err))
	s.metrics.IncAuditDegraded()
	return true
}

// applyPatch copies editable patch fields onto the voter, validating each
// applied value. Touching a field the actor may not edit is a permission
// error, not a silent drop: API callers are told exactly why nothing changed.
func applyPatch(voter *Voter, patch Patch, editable map[string]bool, validate *validator.Validate) ([]string, error) {
	var changed []string

	setString := func(name string, dst *string, src *string, rules string) error {
		if src == nil {
			return nil
		}
		if !editable[name] {
			return fmt.Errorf("voters: field %s: %w", name, shared.ErrPermissionDenied)
		}
		if rules != "" {
			if err := validate.Var(*src, rules); err != nil {
				return fmt.Errorf("voters: field %s: %w", name, shared.ErrValidationFailed)
			}
		}
		if *dst != *src {
			*dst = *src
			changed = append(changed, name)
		}
		return nil
	}
	setBool := func(name string, dst *bool, src *bool) error {
		if src == nil {
			return nil
		}
		if !editable[name] {
			return fmt.Errorf("voters: field %s: %w", name, shared.ErrPermissionDenied)
		}
		if *dst != *src {
			*dst = *src
			changed = append(changed, name)
		}
		return nil
	}

	steps := []func() error{
		func() error { return setString("first_name", &voter.FirstName, patch.FirstName, "required") },
		func() error { return setString("last_name", &voter.LastName, patch.LastName, "required") },
		func() error { return setString("national_id", &voter.NationalID, patch.NationalID, "required") },
		func() error { return setString("email", &voter.Email, patch.Email, "omitempty,email") },
		func() error { return setString("phone", &voter.Phone, patch.Phone, "") },
		func() error { return setString("street", &voter.Street, patch.Street, "") },
		func() error { return setString("district", &voter.District, patch.District, "") },
		func() error { return setString("polling_station", &voter.PollingStation, patch.PollingStation, "") },
		func() error { return setString("notes", &voter.Notes, patch.Notes, "") },
		func() error { return setBool("has_voted", &voter.HasVoted, patch.HasVoted) },
		func() error { return setBool("support", &voter.Support, patch.Support) },
		func() error { return setBool("pledged", &voter.Pledged, patch.Pledged) },
		func() error { return setBool("mobilized", &voter.Mobilized, patch.Mobilized) },
		func() error { return setBool("priority", &voter.Priority, patch.Priority) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return changed, nil
}
