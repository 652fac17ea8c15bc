package authz

// RecordType names a gated record family.
type RecordType string

const (
	RecordVoters RecordType = "voters"
	RecordUsers  RecordType = "users"
)

// Mode distinguishes create forms from edit forms.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// masterEdit maps a record type to the permission that unlocks its edit form
// as a whole. Without it the form renders read-only in edit mode.
var masterEdit = map[RecordType]Permission{
	RecordVoters: PermActionVoterEdit,
	RecordUsers:  PermActionUserEdit,
}

// legacyAlias maps a granular field permission to the coarse legacy grant
// that also satisfies it. Accounts configured before the campaign-data split
// keep their capability through this bridge.
var legacyAlias = map[Permission]Permission{
	PermFieldVoterSupport:   PermFieldCampaignData,
	PermFieldVoterPledge:    PermFieldCampaignData,
	PermFieldVoterMobilized: PermFieldCampaignData,
	PermFieldVoterPriority:  PermFieldCampaignData,
}

// FieldState is the per-field decision produced by the gate.
type FieldState struct {
	Editable bool
}

// Gate derives field-level editability from permission resolution. Like the
// resolver it is pure and safe for concurrent readers.
type Gate struct {
	resolver *Resolver
}

// NewGate constructs a Gate over the given resolver.
func NewGate(resolver *Resolver) *Gate {
	return &Gate{resolver: resolver}
}

// FormReadOnly reports whether the whole form for a record renders read-only.
// It is always false in create mode: an actor who may not create at all is
// stopped earlier, at the action gate, not here.
func (g *Gate) FormReadOnly(actor ActorInfo, record RecordType, mode Mode) bool {
	if mode != ModeEdit {
		return false
	}
	master, ok := masterEdit[record]
	if !ok {
		return true
	}
	return !g.resolver.IsAllowed(actor, master)
}

// FieldState decides editability for a single field. A field is editable when
// the form is not read-only and the actor holds either the field's own
// permission or its legacy coarse alias.
func (g *Gate) FieldState(actor ActorInfo, record RecordType, mode Mode, perm Permission) FieldState {
	if g.FormReadOnly(actor, record, mode) {
		return FieldState{}
	}
	return FieldState{Editable: g.fieldAllowed(actor, perm)}
}

// EditableFields filters a field-name to permission mapping down to the
// names the actor may edit. Validation must only ever run over this subset:
// a field the actor cannot edit was set by someone who could, and is not
// re-checked here even if empty.
func (g *Gate) EditableFields(actor ActorInfo, record RecordType, mode Mode, fields map[string]Permission) map[string]bool {
	editable := make(map[string]bool, len(fields))
	readOnly := g.FormReadOnly(actor, record, mode)
	for name, perm := range fields {
		editable[name] = !readOnly && g.fieldAllowed(actor, perm)
	}
	return editable
}

func (g *Gate) fieldAllowed(actor ActorInfo, perm Permission) bool {
	if g.resolver.IsAllowed(actor, perm) {
		return true
	}
	if alias, ok := legacyAlias[perm]; ok {
		return g.resolver.IsAllowed(actor, alias)
	}
	return false
}
