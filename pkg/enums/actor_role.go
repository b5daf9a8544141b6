package enums

import "fmt"

// ActorRole identifies the authenticated caller class on admin routes.
type ActorRole string

const (
	ActorRoleAdmin   ActorRole = "admin"
	ActorRoleSupport ActorRole = "support"
)

var validActorRoles = []ActorRole{
	ActorRoleAdmin,
	ActorRoleSupport,
}

// String implements fmt.Stringer.
func (r ActorRole) String() string {
	return string(r)
}

// IsValid reports whether the role is one the service recognizes.
func (r ActorRole) IsValid() bool {
	for _, candidate := range validActorRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseActorRole converts raw input into ActorRole.
func ParseActorRole(value string) (ActorRole, error) {
	for _, candidate := range validActorRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid actor role %q", value)
}
