package authz

// legacyFallback is the hard-coded per-role allow-list consulted only for
// accounts that carry no explicit permission set. The lists are narrower than
// DefaultsFor and have drifted from it over time; whether that divergence is
// intentional has never been confirmed, so the two tables are kept separate
// rather than unified. Do not "fix" one by copying the other.
var legacyFallback = map[Role]Set{
	RoleCandidate: NewSet(
		PermMenuDashboard,
		PermMenuVoters,
		PermMenuCandidates,
		PermPageDashboard,
		PermPageVoters,
		PermPageVoterDetail,
		PermPageCandidates,
		PermActionVoterEdit,
		PermFieldCampaignData,
		PermMetricTurnout,
		PermMetricSupport,
	),
	RoleProxyOfficer: NewSet(
		PermMenuDashboard,
		PermMenuVoters,
		PermMenuTasks,
		PermPageDashboard,
		PermPageVoters,
		PermPageVoterDetail,
		PermPageTasks,
		PermActionVoterEdit,
		PermActionNoteCreate,
		PermFieldVoterVoted,
		PermFieldVoterNotes,
		PermMetricTurnout,
	),
	RoleStandardUser: NewSet(
		PermMenuDashboard,
		PermMenuVoters,
		PermPageDashboard,
		PermPageVoters,
		PermPageVoterDetail,
		PermMetricTurnout,
	),
}

// LegacyFallbackFor exposes the legacy allow-list for a role, for admin
// screens that display what an account without an explicit set can do.
func LegacyFallbackFor(role Role) []Permission {
	set, ok := legacyFallback[role]
	if !ok {
		return nil
	}
	perms := make([]Permission, 0, len(set))
	for _, p := range All() {
		if set.Has(p) {
			perms = append(perms, p)
		}
	}
	return perms
}
