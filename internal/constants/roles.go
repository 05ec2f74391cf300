package constants

const (
	Owner    = "owner"
	Admin    = "admin"
	Guardian = "guardian"
	Member   = "member"
)

// ValidRoles is the set of allowed DB enum values for user role (must match enum_Users_role).
var ValidRoles = []string{Member, Guardian, Admin, Owner}

// IsValidRole returns true if role is one of the allowed enum values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsGuardianRole returns true for roles allowed to approve parent_required requests.
func IsGuardianRole(role string) bool {
	return role == Guardian || role == Admin || role == Owner
}

// IsAdminRole returns true for roles allowed to approve admin_only requests
// and to edit guardrails.
func IsAdminRole(role string) bool {
	return role == Admin || role == Owner
}
