// Package principals manages principal records: the authenticated actors
// carrying a role and the staff/superuser flags the evaluator consults.
package principals

import (
	"time"

	"github.com/openfolio/ledgerd/internal/shared"
)

// Principal is the stored identity record.
type Principal struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         shared.Role `json:"role"`
	IsStaff      bool        `json:"is_staff"`
	IsSuperuser  bool        `json:"is_superuser"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Shared converts the record into the request-scoped principal view.
func (p *Principal) Shared() *shared.Principal {
	if p == nil {
		return nil
	}
	return &shared.Principal{
		ID:          p.ID,
		Username:    p.Username,
		Role:        p.Role,
		IsStaff:     p.IsStaff,
		IsSuperuser: p.IsSuperuser,
		IsActive:    p.IsActive,
	}
}
