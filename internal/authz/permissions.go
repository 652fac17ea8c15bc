package authz

import "strings"

// Permission identifies a single grant. Identifiers are opaque strings drawn
// from five disjoint namespaces; membership is always an exact match against
// a set, never a prefix or hierarchy test.
type Permission string

// Namespace groups permissions by the kind of surface they gate.
type Namespace string

const (
	NamespaceMenu   Namespace = "menu"
	NamespacePage   Namespace = "page"
	NamespaceAction Namespace = "action"
	NamespaceMetric Namespace = "metric"
	NamespaceField  Namespace = "field"
)

// Namespace returns the namespace prefix of the permission.
func (p Permission) Namespace() Namespace {
	if i := strings.IndexByte(string(p), '.'); i > 0 {
		return Namespace(p[:i])
	}
	return ""
}

// Known reports whether the identifier is part of the catalog.
func (p Permission) Known() bool {
	return catalog.Has(p)
}

// Menu visibility permissions control whether a navigation entry is shown.
const (
	PermMenuDashboard  Permission = "menu.dashboard"
	PermMenuVoters     Permission = "menu.voters"
	PermMenuUsers      Permission = "menu.users"
	PermMenuTasks      Permission = "menu.tasks"
	PermMenuMessages   Permission = "menu.messages"
	PermMenuCandidates Permission = "menu.candidates"
	PermMenuAudit      Permission = "menu.audit"
	PermMenuSettings   Permission = "menu.settings"
)

// MenuScopes lists all menu-visibility permissions.
func MenuScopes() []Permission {
	return []Permission{
		PermMenuDashboard,
		PermMenuVoters,
		PermMenuUsers,
		PermMenuTasks,
		PermMenuMessages,
		PermMenuCandidates,
		PermMenuAudit,
		PermMenuSettings,
	}
}

// Page access permissions control whether a screen may be opened at all,
// independent of whether its menu entry is visible.
const (
	PermPageDashboard   Permission = "page.dashboard"
	PermPageVoters      Permission = "page.voters"
	PermPageVoterDetail Permission = "page.voter_detail"
	PermPageUsers       Permission = "page.users"
	PermPageTasks       Permission = "page.tasks"
	PermPageMessages    Permission = "page.messages"
	PermPageCandidates  Permission = "page.candidates"
	PermPageAudit       Permission = "page.audit"
	PermPageSettings    Permission = "page.settings"

	// PermPageOwnProfile is the distinguished own-profile permission: every
	// authenticated actor may view their own profile, so the resolver allows
	// it unconditionally before consulting any permission set.
	PermPageOwnProfile Permission = "page.own_profile"
)

// PageScopes lists all page-access permissions.
func PageScopes() []Permission {
	return []Permission{
		PermPageDashboard,
		PermPageVoters,
		PermPageVoterDetail,
		PermPageUsers,
		PermPageTasks,
		PermPageMessages,
		PermPageCandidates,
		PermPageAudit,
		PermPageSettings,
		PermPageOwnProfile,
	}
}

// Global action permissions gate record-level operations.
const (
	PermActionVoterCreate Permission = "action.voter_create"
	PermActionVoterEdit   Permission = "action.voter_edit"
	PermActionVoterDelete Permission = "action.voter_delete"
	PermActionVoterExport Permission = "action.voter_export"
	PermActionUserCreate  Permission = "action.user_create"
	PermActionUserEdit    Permission = "action.user_edit"
	PermActionUserDelete  Permission = "action.user_delete"
	PermActionUserUnblock Permission = "action.user_unblock"
	PermActionTaskAssign  Permission = "action.task_assign"
	PermActionNoteCreate  Permission = "action.note_create"
)

// ActionScopes lists all global-action permissions.
func ActionScopes() []Permission {
	return []Permission{
		PermActionVoterCreate,
		PermActionVoterEdit,
		PermActionVoterDelete,
		PermActionVoterExport,
		PermActionUserCreate,
		PermActionUserEdit,
		PermActionUserDelete,
		PermActionUserUnblock,
		PermActionTaskAssign,
		PermActionNoteCreate,
	}
}

// Metric visibility permissions gate individual dashboard figures.
const (
	PermMetricTurnout    Permission = "metric.turnout"
	PermMetricCoverage   Permission = "metric.coverage"
	PermMetricSupport    Permission = "metric.support"
	PermMetricVolunteers Permission = "metric.volunteers"
)

// MetricScopes lists all metric-visibility permissions.
func MetricScopes() []Permission {
	return []Permission{
		PermMetricTurnout,
		PermMetricCoverage,
		PermMetricSupport,
		PermMetricVolunteers,
	}
}

// Field edit permissions gate single editable attributes of a record,
// finer-grained than page or action access.
const (
	PermFieldVoterIdentity Permission = "field.voter_identity"
	PermFieldVoterContact  Permission = "field.voter_contact"
	PermFieldVoterAddress  Permission = "field.voter_address"
	PermFieldVoterNotes    Permission = "field.voter_notes"
	PermFieldVoterVoted    Permission = "field.voter_voted"

	// Granular campaign flags, introduced when the single campaign-data
	// grant below was split up.
	PermFieldVoterSupport   Permission = "field.voter_support"
	PermFieldVoterPledge    Permission = "field.voter_pledge"
	PermFieldVoterMobilized Permission = "field.voter_mobilized"
	PermFieldVoterPriority  Permission = "field.voter_priority"

	// PermFieldCampaignData is the legacy coarse campaign-data grant. It is
	// still honored as an OR-fallback for each granular campaign flag so
	// accounts configured before the split keep their capability.
	PermFieldCampaignData Permission = "field.campaign_data"
)

// FieldScopes lists all field-edit permissions.
func FieldScopes() []Permission {
	return []Permission{
		PermFieldVoterIdentity,
		PermFieldVoterContact,
		PermFieldVoterAddress,
		PermFieldVoterNotes,
		PermFieldVoterVoted,
		PermFieldVoterSupport,
		PermFieldVoterPledge,
		PermFieldVoterMobilized,
		PermFieldVoterPriority,
		PermFieldCampaignData,
	}
}
