package voters

import (
	"time"

	"github.com/rollcall-hq/rollcall/internal/authz"
)

// Voter is a single roll entry.
type Voter struct {
	ID int64

	// Identity fields.
	FirstName  string
	LastName   string
	NationalID string

	// Contact fields.
	Email string
	Phone string

	// Address fields.
	Street         string
	District       string
	PollingStation string

	Notes    string
	HasVoted bool

	// Campaign flags, formerly gated by the single campaign-data grant.
	Support   bool
	Pledged   bool
	Mobilized bool
	Priority  bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Patch is a partial update; nil fields are untouched. Only fields the actor
// may edit are applied and validated.
type Patch struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	NationalID *string `json:"national_id"`

	Email *string `json:"email"`
	Phone *string `json:"phone"`

	Street         *string `json:"street"`
	District       *string `json:"district"`
	PollingStation *string `json:"polling_station"`

	Notes    *string `json:"notes"`
	HasVoted *bool   `json:"has_voted"`

	Support   *bool `json:"support"`
	Pledged   *bool `json:"pledged"`
	Mobilized *bool `json:"mobilized"`
	Priority  *bool `json:"priority"`
}

// FieldPermissions maps each editable voter attribute to the permission
// gating it. The map is the single source for form rendering, patch
// application and validation scoping.
var FieldPermissions = map[string]authz.Permission{
	"first_name":      authz.PermFieldVoterIdentity,
	"last_name":       authz.PermFieldVoterIdentity,
	"national_id":     authz.PermFieldVoterIdentity,
	"email":           authz.PermFieldVoterContact,
	"phone":           authz.PermFieldVoterContact,
	"street":          authz.PermFieldVoterAddress,
	"district":        authz.PermFieldVoterAddress,
	"polling_station": authz.PermFieldVoterAddress,
	"notes":           authz.PermFieldVoterNotes,
	"has_voted":       authz.PermFieldVoterVoted,
	"support":         authz.PermFieldVoterSupport,
	"pledged":         authz.PermFieldVoterPledge,
	"mobilized":       authz.PermFieldVoterMobilized,
	"priority":        authz.PermFieldVoterPriority,
}
