package authz

import "github.com/rollcall-hq/rollcall/internal/shared"

// BootstrapUsername is the distinguished recovery account. An actor whose
// username case-insensitively equals it is treated as superadmin regardless
// of stored role. This escape hatch is deliberate: it keeps the system
// administrable even if every admin account is misconfigured or narrowed.
const BootstrapUsername = "rollcall-root"

// ActorInfo carries the slice of an account the resolver needs. It is a plain
// value so authorization decisions stay pure and testable without touching
// storage.
type ActorInfo struct {
	Username string
	Role     Role
	// Permissions is the explicit per-account permission set. Empty means a
	// legacy account that predates explicit sets.
	Permissions []Permission
}

// HasExplicitSet reports whether the account carries an explicit permission set.
func (a ActorInfo) HasExplicitSet() bool {
	return len(a.Permissions) > 0
}

// Resolver answers allow/deny for a single permission identifier. It is
// stateless and safe for any number of concurrent callers.
type Resolver struct{}

// NewResolver constructs a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// IsAllowed resolves an actor's access to a permission. First match wins:
//
//  1. superadmin role or bootstrap username: allow everything
//  2. the own-profile permission: allow unconditionally
//  3. explicit permission set present: membership decides; absence denies
//     even where role defaults would allow
//  4. no explicit set: the hard-coded legacy per-role fallback decides
//  5. deny
//
// Step 3 is the load-bearing rule: an admin-role account given a restricted
// explicit set must end up narrower than the role default, so the explicit
// set is never ORed with anything.
func (r *Resolver) IsAllowed(actor ActorInfo, perm Permission) bool {
	if actor.Role == RoleSuperadmin || shared.FoldUsername(actor.Username) == BootstrapUsername {
		return true
	}
	if perm == PermPageOwnProfile {
		return true
	}
	if actor.HasExplicitSet() {
		return NewSet(actor.Permissions...).Has(perm)
	}
	if fallback, ok := legacyFallback[actor.Role]; ok {
		return fallback.Has(perm)
	}
	// admin without an explicit set has no fallback entry; treat as full
	// access like step 1 would for superadmin.
	return actor.Role == RoleAdmin
}
