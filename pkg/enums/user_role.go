package enums

import (
	"fmt"
	"strings"
)

// UserRole represents the platform-wide permissions role of a user.
type UserRole string

const (
	UserRoleAdmin       UserRole = "admin"
	UserRoleCallCenter  UserRole = "call_center"
	UserRoleFulfillment UserRole = "fulfillment"
	UserRoleMarketing   UserRole = "marketing"
	UserRoleManager     UserRole = "manager"
	UserRoleViewer      UserRole = "viewer"
)

var validUserRoles = []UserRole{
	UserRoleAdmin,
	UserRoleCallCenter,
	UserRoleFulfillment,
	UserRoleMarketing,
	UserRoleManager,
	UserRoleViewer,
}

// String implements fmt.Stringer.
func (r UserRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known UserRole.
func (r UserRole) IsValid() bool {
	for _, candidate := range validUserRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseUserRole converts raw input into a UserRole. "agent" is accepted as call_center.
func ParseUserRole(value string) (UserRole, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "agent" {
		return UserRoleCallCenter, nil
	}
	for _, candidate := range validUserRoles {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user role %q", value)
}
