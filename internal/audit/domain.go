package audit

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Action tags recorded by the core. Free-text details accompany each tag.
const (
	ActionSecurityLockout = "security.lockout"
	ActionSecurityUnblock = "security.unblock"
	ActionVoterCreate     = "voter.create"
	ActionVoterUpdate     = "voter.update"
	ActionVoterDelete     = "voter.delete"
	ActionUserCreate      = "user.create"
	ActionUserRoleAssign  = "user.role_assign"
	ActionUserPermissions = "user.permissions_set"
)

// ActorRef identifies the actor an entry is attributed to. The display name
// is denormalized into the entry so the trail stays readable after accounts
// are renamed or removed.
type ActorRef struct {
	ID   int64
	Name string
}

// SystemSecurityActor authors entries the offending account must not author
// itself, such as its own lockout.
var SystemSecurityActor = ActorRef{ID: 0, Name: "system-security"}

// Entry is an immutable audit record. Entries are append-only; the core
// exposes no update or delete operation.
type Entry struct {
	ID         uuid.UUID
	Action     string
	Details    string
	ActorID    int64
	ActorName  string
	OccurredAt time.Time
}

// ErrAppendDegraded signals that the audit store rejected or failed to accept
// an entry. Callers log and count it but never roll back the mutation that
// triggered the append.
var ErrAppendDegraded = errors.New("audit append degraded")
