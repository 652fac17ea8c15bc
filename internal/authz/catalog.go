package authz

// All returns the full permission catalog in a stable order.
func All() []Permission {
	var all []Permission
	all = append(all, MenuScopes()...)
	all = append(all, PageScopes()...)
	all = append(all, ActionScopes()...)
	all = append(all, MetricScopes()...)
	all = append(all, FieldScopes()...)
	return all
}

// catalog backs Permission.Known lookups.
var catalog = NewSet(All()...)

// Set provides exact-match membership over permission identifiers.
type Set map[Permission]struct{}

// NewSet builds a Set from the given permissions.
func NewSet(perms ...Permission) Set {
	set := make(Set, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s Set) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// DefaultsFor returns the default permission set assigned to a role. These
// defaults are pure data: they seed the explicit permission set when an
// operator assigns a role through the admin UI, and any "reset to role
// defaults" action. They are NOT the legacy fallback the resolver uses for
// accounts with no explicit set; see legacyFallback, which is deliberately
// narrower and maintained separately.
func DefaultsFor(role Role) []Permission {
	switch role {
	case RoleSuperadmin, RoleAdmin:
		return All()
	case RoleCandidate:
		return []Permission{
			PermMenuDashboard,
			PermMenuVoters,
			PermMenuCandidates,
			PermMenuMessages,
			PermPageDashboard,
			PermPageVoters,
			PermPageVoterDetail,
			PermPageCandidates,
			PermPageMessages,
			PermPageOwnProfile,
			PermActionVoterEdit,
			PermActionVoterExport,
			PermFieldCampaignData,
			PermFieldVoterSupport,
			PermFieldVoterPledge,
			PermFieldVoterMobilized,
			PermFieldVoterPriority,
			PermMetricTurnout,
			PermMetricCoverage,
			PermMetricSupport,
		}
	case RoleProxyOfficer:
		return []Permission{
			PermMenuDashboard,
			PermMenuVoters,
			PermMenuTasks,
			PermPageDashboard,
			PermPageVoters,
			PermPageVoterDetail,
			PermPageTasks,
			PermPageOwnProfile,
			PermActionVoterEdit,
			PermActionTaskAssign,
			PermActionNoteCreate,
			PermFieldVoterVoted,
			PermFieldVoterNotes,
			PermFieldVoterContact,
			PermMetricTurnout,
			PermMetricCoverage,
		}
	case RoleStandardUser:
		return []Permission{
			PermMenuDashboard,
			PermMenuVoters,
			PermPageDashboard,
			PermPageVoters,
			PermPageVoterDetail,
			PermPageOwnProfile,
			PermMetricTurnout,
			PermMetricVolunteers,
		}
	}
	return nil
}
