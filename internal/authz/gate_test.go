package authz

import "testing"

func TestFormReadOnlyCreateModeAlwaysEditable(t *testing.T) {
	gate := NewGate(NewResolver())
	actors := []ActorInfo{
		{Username: "observer", Role: RoleStandardUser},
		{Username: "narrowed", Role: RoleAdmin, Permissions: []Permission{PermMenuDashboard}},
		{Username: "chief", Role: RoleSuperadmin},
	}
	for _, actor := range actors {
		if gate.FormReadOnly(actor, RecordVoters, ModeCreate) {
			t.Fatalf("create mode must never be read-only (actor %q)", actor.Username)
		}
	}
}

func TestFormReadOnlyEditModeRequiresMasterPermission(t *testing.T) {
	gate := NewGate(NewResolver())

	holder := ActorInfo{Username: "editor", Role: RoleAdmin, Permissions: []Permission{PermActionVoterEdit}}
	if gate.FormReadOnly(holder, RecordVoters, ModeEdit) {
		t.Fatalf("actor with master edit permission should get an editable form")
	}

	viewer := ActorInfo{Username: "viewer", Role: RoleAdmin, Permissions: []Permission{PermPageVoters}}
	if !gate.FormReadOnly(viewer, RecordVoters, ModeEdit) {
		t.Fatalf("actor lacking master edit permission should get a read-only form")
	}
}

func TestFieldStateLegacyCoarseSatisfiesGranular(t *testing.T) {
	gate := NewGate(NewResolver())

	// Legacy coarse grant, no granular flags.
	coarse := ActorInfo{
		Username:    "veteran",
		Role:        RoleCandidate,
		Permissions: []Permission{PermActionVoterEdit, PermFieldCampaignData},
	}
	for _, perm := range []Permission{PermFieldVoterSupport, PermFieldVoterPledge, PermFieldVoterMobilized, PermFieldVoterPriority} {
		if !gate.FieldState(coarse, RecordVoters, ModeEdit, perm).Editable {
			t.Fatalf("legacy campaign-data grant should satisfy %q", perm)
		}
	}

	// Granular flag without the coarse grant works too: OR, not AND.
	granular := ActorInfo{
		Username:    "newcomer",
		Role:        RoleCandidate,
		Permissions: []Permission{PermActionVoterEdit, PermFieldVoterPledge},
	}
	if !gate.FieldState(granular, RecordVoters, ModeEdit, PermFieldVoterPledge).Editable {
		t.Fatalf("granular grant alone should be sufficient")
	}
	if gate.FieldState(granular, RecordVoters, ModeEdit, PermFieldVoterSupport).Editable {
		t.Fatalf("one granular grant must not satisfy a sibling flag")
	}
}

func TestFieldStateReadOnlyFormWinsOverFieldGrant(t *testing.T) {
	gate := NewGate(NewResolver())
	actor := ActorInfo{
		Username:    "runner",
		Role:        RoleProxyOfficer,
		Permissions: []Permission{PermFieldVoterVoted}, // no master edit permission
	}
	if gate.FieldState(actor, RecordVoters, ModeEdit, PermFieldVoterVoted).Editable {
		t.Fatalf("read-only form must force every field read-only")
	}
}

func TestEditableFieldsProxyOfficerLegacy(t *testing.T) {
	gate := NewGate(NewResolver())
	// Legacy proxy-officer account, no explicit set: may toggle voted status
	// and edit notes, but never identity fields.
	actor := ActorInfo{Username: "runner", Role: RoleProxyOfficer}

	fields := map[string]Permission{
		"first_name": PermFieldVoterIdentity,
		"last_name":  PermFieldVoterIdentity,
		"has_voted":  PermFieldVoterVoted,
		"notes":      PermFieldVoterNotes,
		"support":    PermFieldVoterSupport,
	}
	editable := gate.EditableFields(actor, RecordVoters, ModeEdit, fields)
	if !editable["has_voted"] || !editable["notes"] {
		t.Fatalf("proxy officer should edit status and notes, got %v", editable)
	}
	if editable["first_name"] || editable["last_name"] || editable["support"] {
		t.Fatalf("proxy officer must not edit identity or campaign fields, got %v", editable)
	}
}

func TestGateIsPure(t *testing.T) {
	gate := NewGate(NewResolver())
	actor := ActorInfo{Username: "runner", Role: RoleProxyOfficer}
	first := gate.FieldState(actor, RecordVoters, ModeEdit, PermFieldVoterVoted)
	for i := 0; i < 50; i++ {
		if gate.FieldState(actor, RecordVoters, ModeEdit, PermFieldVoterVoted) != first {
			t.Fatalf("repeated gating must return identical results")
		}
	}
}
