package users

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rollcall-hq/rollcall/internal/audit"
	"github.com/rollcall-hq/rollcall/internal/auth"
	"github.com/rollcall-hq/rollcall/internal/authz"
	"github.com/rollcall-hq/rollcall/internal/observability"
	"github.com/rollcall-hq/rollcall/internal/shared"
)

// AuditRecorder is the slice of the audit package the service needs.
type AuditRecorder interface {
	Record(ctx context.Context, action, details string, actor audit.ActorRef) error
}

// Unblocker clears a blocked account's flag and counter. Satisfied by the
// auth service.
type Unblocker interface {
	Unblock(ctx context.Context, target *auth.Actor, by audit.ActorRef) error
}

// CreateInput carries a new account request. Role is required; an empty
// Permissions slice provisions the account with the role's default set.
type CreateInput struct {
	Username    string
	DisplayName string
	Password    string
	Role        authz.Role
	Permissions []authz.Permission
}

// Service manages actor accounts on behalf of administrators. Mutations are
// gated through the resolver and audited; reads are gated at the page level
// by the HTTP layer.
type Service struct {
	repo      auth.Repository
	resolver  *authz.Resolver
	unblocker Unblocker
	recorder  AuditRecorder
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewService builds Service instance.
func NewService(repo auth.Repository, resolver *authz.Resolver, unblocker Unblocker, recorder AuditRecorder, logger *slog.Logger, metrics *observability.Metrics) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		resolver:  resolver,
		unblocker: unblocker,
		recorder:  recorder,
		logger:    logger,
		metrics:   metrics,
	}
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]auth.Actor, error) {
	return s.repo.List(ctx)
}

// Get returns a single account.
func (s *Service) Get(ctx context.Context, id int64) (*auth.Actor, error) {
	return s.repo.FindByID(ctx, id)
}

// Create provisions a new account. When no explicit permission set is given
// the role's provisioning defaults are stored, so the account starts with an
// explicit set rather than falling through to the legacy per-role lists.
func (s *Service) Create(ctx context.Context, actor *auth.Actor, input CreateInput) (*auth.Actor, error) {
	if !s.resolver.IsAllowed(actor.Info(), authz.PermActionUserCreate) {
		return nil, shared.ErrPermissionDenied
	}
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, fmt.Errorf("users: username and password required: %w", shared.ErrValidationFailed)
	}
	if !input.Role.Valid() {
		return nil, fmt.Errorf("users: unknown role %q: %w", input.Role, shared.ErrValidationFailed)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("users: hash password: %w", err)
	}
	perms := input.Permissions
	if len(perms) == 0 {
		perms = authz.DefaultsFor(input.Role)
	}
	created, err := s.repo.Create(ctx, &auth.Actor{
		Username:     username,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Role:         input.Role,
		Permissions:  perms,
		PasswordHash: string(hash),
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, audit.ActionUserCreate,
		fmt.Sprintf("account %q created with role %s", created.Username, created.Role), actor)
	return created, nil
}

// AssignRole changes an account's role and reseeds its explicit permission
// set from the new role's provisioning defaults. The reseed is deliberate: a
// stale explicit set from the old role would otherwise silently override the
// new one.
func (s *Service) AssignRole(ctx context.Context, actor *auth.Actor, targetID int64, role authz.Role) (*auth.Actor, error) {
	if !s.resolver.IsAllowed(actor.Info(), authz.PermActionUserEdit) {
		return nil, shared.ErrPermissionDenied
	}
	if !role.Valid() {
		return nil, fmt.Errorf("users: unknown role %q: %w", role, shared.ErrValidationFailed)
	}
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRoleAndPermissions(ctx, targetID, role, authz.DefaultsFor(role)); err != nil {
		return nil, err
	}
	s.record(ctx, audit.ActionUserRoleAssign,
		fmt.Sprintf("account %q role changed %s -> %s", target.Username, target.Role, role), actor)
	return s.repo.FindByID(ctx, targetID)
}

// SetPermissions replaces an account's explicit permission set. The stored
// set is authoritative at resolution time, so this is the one operation that
// can narrow an account below its role defaults.
func (s *Service) SetPermissions(ctx context.Context, actor *auth.Actor, targetID int64, perms []authz.Permission) (*auth.Actor, error) {
	if !s.resolver.IsAllowed(actor.Info(), authz.PermActionUserEdit) {
		return nil, shared.ErrPermissionDenied
	}
	for _, p := range perms {
		if !p.Known() {
			return nil, fmt.Errorf("users: unknown permission %q: %w", p, shared.ErrValidationFailed)
		}
	}
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdatePermissions(ctx, targetID, perms); err != nil {
		return nil, err
	}
	s.record(ctx, audit.ActionUserPermissions,
		fmt.Sprintf("account %q permission set replaced (%d entries)", target.Username, len(perms)), actor)
	return s.repo.FindByID(ctx, targetID)
}

// Unblock clears a blocked account. The state change and its audit entry are
// the auth service's job; this wrapper adds the authorization gate.
func (s *Service) Unblock(ctx context.Context, actor *auth.Actor, targetID int64) error {
	if !s.resolver.IsAllowed(actor.Info(), authz.PermActionUserUnblock) {
		return shared.ErrPermissionDenied
	}
	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return err
	}
	return s.unblocker.Unblock(ctx, target, audit.ActorRef{ID: actor.ID, Name: actor.AuditName()})
}

func (s *Service) record(ctx context.Context, action, details string, actor *auth.Actor) {
	err := s.recorder.Record(ctx, action, details, audit.ActorRef{ID: actor.ID, Name: actor.AuditName()})
	if err != nil {
		s.logger.Warn("audit append", slog.String("action", action), slog.Any("error", err))
		s.metrics.IncAuditDegraded()
	}
}
