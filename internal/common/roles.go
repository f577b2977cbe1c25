// File: internal/common/roles.go
package common

// Application role tiers, in ascending privilege order. Doctor is treated
// as elevated (admin-equivalent) for session write-through purposes.
const (
	RoleUser   = "user"
	RoleDoctor = "doctor"
	RoleAdmin  = "admin"
)

// IsElevatedRole reports whether the role qualifies for the privileged
// fast paths (session snapshot, privileged-subset cache index).
func IsElevatedRole(role string) bool {
	return role == RoleAdmin || role == RoleDoctor
}
