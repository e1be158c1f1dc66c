package security

import (
	"fmt"

	"github.com/aryan0dhankhar/tenantcms/internal/domain"
)

// Operation identifies what the caller is trying to do.
type Operation string

const (
	OpRead               Operation = "read"
	OpCreate             Operation = "create"
	OpUpdate             Operation = "update"
	OpDelete             Operation = "delete"
	OpPublish            Operation = "publish"
	OpListOrganizations  Operation = "list_organizations"
	OpCreateOrganization Operation = "create_organization"
	OpDeleteOrganization Operation = "delete_organization"
	OpGrantOwner         Operation = "grant_owner"
)

// ownerOnly operations are never satisfied by an organization match.
var ownerOnly = map[Operation]bool{
	OpListOrganizations:  true,
	OpCreateOrganization: true,
	OpDeleteOrganization: true,
	OpGrantOwner:         true,
}

// RolePermissions maps the non-owner roles to what they may do inside their own
// organization. OWNER is unrestricted and has no entry.
var RolePermissions = map[domain.Role][]Operation{
	domain.RoleEditor: {OpRead, OpCreate, OpUpdate, OpDelete, OpPublish},
	domain.RoleViewer: {OpRead},
}

// Decision is the outcome of a policy evaluation.
type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// Decide evaluates the organization-scoping rules. It has no side effects and
// does not consult storage: the caller supplies the target organization.
func Decide(role domain.Role, callerOrgID, targetOrgID string, op Operation) Decision {
	if role == domain.RoleOwner {
		return allow()
	}
	if !role.Valid() {
		return deny("unknown role %q", role)
	}
	if ownerOnly[op] {
		return deny("only an OWNER may %s", humanize(op))
	}
	if !permits(role, op) {
		return deny("%s role cannot %s", role, humanize(op))
	}
	if callerOrgID == "" || callerOrgID != targetOrgID {
		return deny("access to another organization is not allowed")
	}
	return allow()
}

// DecideUserRemoval applies the self-deletion guard before the regular delete rule.
func DecideUserRemoval(caller domain.Principal, targetUserID, targetOrgID string) Decision {
	if caller.UserID != "" && caller.UserID == targetUserID {
		return deny("users cannot delete their own account")
	}
	return Decide(caller.Role, caller.OrganizationID, targetOrgID, OpDelete)
}

func permits(role domain.Role, op Operation) bool {
	for _, p := range RolePermissions[role] {
		if p == op {
			return true
		}
	}
	return false
}

func humanize(op Operation) string {
	switch op {
	case OpListOrganizations:
		return "list all organizations"
	case OpCreateOrganization:
		return "create organizations"
	case OpDeleteOrganization:
		return "delete organizations"
	case OpGrantOwner:
		return "grant the OWNER role"
	}
	return string(op)
}
