// Package shared holds cross-cutting helpers used by every module.
package shared

// Role is the coarse-grained role assigned to a principal at creation.
// Roles are immutable after creation; there are no transition rules.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleInvestor Role = "investor"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleInvestor:
		return true
	}
	return false
}

// Principal describes the authenticated actor attached to a request.
// A nil *Principal means anonymous and is denied by every evaluator path.
type Principal struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Role        Role   `json:"role"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
	IsActive    bool   `json:"is_active"`
}

// Staff reports whether the principal passes the staff override.
func (p *Principal) Staff() bool {
	return p != nil && (p.IsStaff || p.IsSuperuser)
}
