package authz

import (
	"strings"
	"testing"
)

func TestCatalogNamespacesDisjoint(t *testing.T) {
	seen := make(map[Permission]struct{})
	for _, perm := range All() {
		if _, dup := seen[perm]; dup {
			t.Fatalf("duplicate permission %q in catalog", perm)
		}
		seen[perm] = struct{}{}
		ns := perm.Namespace()
		switch ns {
		case NamespaceMenu, NamespacePage, NamespaceAction, NamespaceMetric, NamespaceField:
		default:
			t.Fatalf("permission %q has unknown namespace %q", perm, ns)
		}
		if !strings.HasPrefix(string(perm), string(ns)+".") {
			t.Fatalf("permission %q does not carry its namespace prefix", perm)
		}
	}
}

func TestDefaultsForPrivilegedRolesIsFullCatalog(t *testing.T) {
	for _, role := range []Role{RoleSuperadmin, RoleAdmin} {
		defaults := NewSet(DefaultsFor(role)...)
		for _, perm := range All() {
			if !defaults.Has(perm) {
				t.Fatalf("%s defaults should include %q", role, perm)
			}
		}
	}
}

func TestDefaultsForLowerRolesAreSubsets(t *testing.T) {
	catalog := NewSet(All()...)
	for _, role := range []Role{RoleCandidate, RoleProxyOfficer, RoleStandardUser} {
		defaults := DefaultsFor(role)
		if len(defaults) == 0 {
			t.Fatalf("%s should have non-empty defaults", role)
		}
		if len(defaults) >= len(All()) {
			t.Fatalf("%s defaults should be a strict subset of the catalog", role)
		}
		for _, perm := range defaults {
			if !catalog.Has(perm) {
				t.Fatalf("%s default %q is not in the catalog", role, perm)
			}
		}
	}
}

func TestLegacyFallbackWithinDefaults(t *testing.T) {
	// The legacy table may only drift narrower, never wider: everything it
	// grants must also be in the provisioning defaults for that role.
	for _, role := range []Role{RoleCandidate, RoleProxyOfficer, RoleStandardUser} {
		defaults := NewSet(DefaultsFor(role)...)
		for _, perm := range LegacyFallbackFor(role) {
			if !defaults.Has(perm) {
				t.Fatalf("%s legacy fallback grants %q outside its defaults", role, perm)
			}
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, role := range Roles() {
		parsed, err := ParseRole(string(role))
		if err != nil {
			t.Fatalf("parse %q: %v", role, err)
		}
		if parsed != role {
			t.Fatalf("parse %q returned %q", role, parsed)
		}
	}
	if _, err := ParseRole("operator"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}
