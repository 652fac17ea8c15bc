package users

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/rollcall-hq/rollcall/internal/audit"
	"github.com/rollcall-hq/rollcall/internal/auth"
	"github.com/rollcall-hq/rollcall/internal/authz"
	"github.com/rollcall-hq/rollcall/internal/shared"
)

type stubRepo struct {
	accounts map[int64]*auth.Actor
	nextID   int64
}

func newStubRepo(accounts ...*auth.Actor) *stubRepo {
	repo := &stubRepo{accounts: make(map[int64]*auth.Actor), nextID: 1}
	for _, a := range accounts {
		repo.accounts[a.ID] = a
		if a.ID >= repo.nextID {
			repo.nextID = a.ID + 1
		}
	}
	return repo
}

func (r *stubRepo) FindByUsername(_ context.Context, username string) (*auth.Actor, error) {
	folded := shared.FoldUsername(username)
	for _, a := range r.accounts {
		if shared.FoldUsername(a.Username) == folded {
			clone := *a
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *stubRepo) FindByID(_ context.Context, id int64) (*auth.Actor, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubRepo) List(_ context.Context) ([]auth.Actor, error) {
	out := make([]auth.Actor, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (r *stubRepo) Create(_ context.Context, actor *auth.Actor) (*auth.Actor, error) {
	if _, err := r.FindByUsername(context.Background(), actor.Username); err == nil {
		return nil, shared.ErrDuplicate
	}
	clone := *actor
	clone.ID = r.nextID
	r.nextID++
	r.accounts[clone.ID] = &clone
	return &clone, nil
}

func (r *stubRepo) SetBlocked(_ context.Context, actorID int64, blocked bool) error {
	a, ok := r.accounts[actorID]
	if !ok {
		return shared.ErrNotFound
	}
	a.Blocked = blocked
	return nil
}

func (r *stubRepo) UpdateRoleAndPermissions(_ context.Context, actorID int64, role authz.Role, perms []authz.Permission) error {
	a, ok := r.accounts[actorID]
	if !ok {
		return shared.ErrNotFound
	}
	a.Role = role
	a.Permissions = perms
	return nil
}

func (r *stubRepo) UpdatePermissions(_ context.Context, actorID int64, perms []authz.Permission) error {
	a, ok := r.accounts[actorID]
	if !ok {
		return shared.ErrNotFound
	}
	a.Permissions = perms
	return nil
}

func (r *stubRepo) UpdateProfile(_ context.Context, actorID int64, displayName, avatarURL string) error {
	a, ok := r.accounts[actorID]
	if !ok {
		return shared.ErrNotFound
	}
	a.DisplayName = displayName
	a.AvatarURL = avatarURL
	return nil
}

type stubRecorder struct {
	actions []string
	actors  []audit.ActorRef
}

func (r *stubRecorder) Record(_ context.Context, action, _ string, actor audit.ActorRef) error {
	r.actions = append(r.actions, action)
	r.actors = append(r.actors, actor)
	return nil
}

type stubUnblocker struct {
	targets []int64
	by      []audit.ActorRef
}

func (u *stubUnblocker) Unblock(_ context.Context, target *auth.Actor, by audit.ActorRef) error {
	u.targets = append(u.targets, target.ID)
	u.by = append(u.by, by)
	return nil
}

func newTestService(repo auth.Repository, rec *stubRecorder, unblocker Unblocker) *Service {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(repo, authz.NewResolver(), unblocker, rec, logger, nil)
}

func admin() *auth.Actor {
	return &auth.Actor{ID: 1, Username: "ops-admin", Role: authz.RoleAdmin}
}

func TestCreateSeedsRoleDefaults(t *testing.T) {
	repo := newStubRepo(admin())
	rec := &stubRecorder{}
	svc := newTestService(repo, rec, &stubUnblocker{})

	created, err := svc.Create(context.Background(), admin(), CreateInput{
		Username: "door-team-3",
		Password: "correct horse battery",
		Role:     authz.RoleProxyOfficer,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	want := authz.NewSet(authz.DefaultsFor(authz.RoleProxyOfficer)...)
	if len(created.Permissions) != len(want) {
		t.Fatalf("seeded %d permissions, want %d", len(created.Permissions), len(want))
	}
	for _, p := range created.Permissions {
		if !want.Has(p) {
			t.Fatalf("unexpected seeded permission %q", p)
		}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("correct horse battery")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if len(rec.actions) != 1 || rec.actions[0] != audit.ActionUserCreate {
		t.Fatalf("audit actions = %v", rec.actions)
	}
}

func TestCreateDuplicateUsername(t *testing.T) {
	repo := newStubRepo(admin(), &auth.Actor{ID: 5, Username: "Door-Team-3"})
	svc := newTestService(repo, &stubRecorder{}, &stubUnblocker{})

	_, err := svc.Create(context.Background(), admin(), CreateInput{
		Username: "door-team-3",
		Password: "irrelevant-pass",
		Role:     authz.RoleStandardUser,
	})
	if !errors.Is(err, shared.ErrDuplicate) {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestCreateRequiresPermission(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubRecorder{}, &stubUnblocker{})

	actor := &auth.Actor{ID: 2, Username: "volunteer", Role: authz.RoleStandardUser}
	_, err := svc.Create(context.Background(), actor, CreateInput{
		Username: "x", Password: "long-enough-pass", Role: authz.RoleStandardUser,
	})
	if !errors.Is(err, shared.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
}

func TestAssignRoleReseedsPermissions(t *testing.T) {
	target := &auth.Actor{
		ID: 8, Username: "field-lead", Role: authz.RoleStandardUser,
		Permissions: authz.DefaultsFor(authz.RoleStandardUser),
	}
	repo := newStubRepo(admin(), target)
	rec := &stubRecorder{}
	svc := newTestService(repo, rec, &stubUnblocker{})

	updated, err := svc.AssignRole(context.Background(), admin(), 8, authz.RoleCandidate)
	if err != nil {
		t.Fatalf("assign role: %v", err)
	}
	if updated.Role != authz.RoleCandidate {
		t.Fatalf("role = %s", updated.Role)
	}
	set := authz.NewSet(updated.Permissions...)
	if !set.Has(authz.PermFieldCampaignData) {
		t.Fatal("candidate defaults not reseeded")
	}
	if set.Has(authz.PermMetricVolunteers) {
		t.Fatal("stale standard-user permission survived the reseed")
	}
	if len(rec.actions) != 1 || rec.actions[0] != audit.ActionUserRoleAssign {
		t.Fatalf("audit actions = %v", rec.actions)
	}
}

func TestSetPermissionsNarrowsBelowDefaults(t *testing.T) {
	target := &auth.Actor{
		ID: 8, Username: "narrowed", Role: authz.RoleAdmin,
		Permissions: authz.DefaultsFor(authz.RoleAdmin),
	}
	repo := newStubRepo(admin(), target)
	svc := newTestService(repo, &stubRecorder{}, &stubUnblocker{})

	narrow := []authz.Permission{authz.PermPageVoters, authz.PermMetricTurnout}
	updated, err := svc.SetPermissions(context.Background(), admin(), 8, narrow)
	if err != nil {
		t.Fatalf("set permissions: %v", err)
	}
	if len(updated.Permissions) != 2 {
		t.Fatalf("permissions = %v", updated.Permissions)
	}

	// The narrowed admin must now resolve below role defaults.
	resolver := authz.NewResolver()
	if resolver.IsAllowed(updated.Info(), authz.PermActionUserCreate) {
		t.Fatal("explicit set must override admin role defaults")
	}
	if !resolver.IsAllowed(updated.Info(), authz.PermPageVoters) {
		t.Fatal("explicit set member denied")
	}
}

func TestSetPermissionsRejectsUnknownIdentifier(t *testing.T) {
	target := &auth.Actor{ID: 8, Username: "x", Role: authz.RoleStandardUser}
	repo := newStubRepo(admin(), target)
	svc := newTestService(repo, &stubRecorder{}, &stubUnblocker{})

	_, err := svc.SetPermissions(context.Background(), admin(), 8, []authz.Permission{"page.voters", "bogus.perm"})
	if !errors.Is(err, shared.ErrValidationFailed) {
		t.Fatalf("expected validation failure, got %v", err)
	}
}

func TestUnblockGatedAndDelegated(t *testing.T) {
	target := &auth.Actor{ID: 8, Username: "locked-out", Role: authz.RoleStandardUser, Blocked: true}
	repo := newStubRepo(admin(), target)
	unblocker := &stubUnblocker{}
	svc := newTestService(repo, &stubRecorder{}, unblocker)

	viewer := &auth.Actor{ID: 3, Username: "viewer", Role: authz.RoleStandardUser}
	if err := svc.Unblock(context.Background(), viewer, 8); !errors.Is(err, shared.ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if len(unblocker.targets) != 0 {
		t.Fatal("unblocker called despite denial")
	}

	if err := svc.Unblock(context.Background(), admin(), 8); err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if len(unblocker.targets) != 1 || unblocker.targets[0] != 8 {
		t.Fatalf("unblocker targets = %v", unblocker.targets)
	}
	if unblocker.by[0].Name != "ops-admin" {
		t.Fatalf("unblock attributed to %q", unblocker.by[0].Name)
	}
}
