// Package grants manages per-account permission grants and keeps the
// derived-permission index in sync with them.
package grants

import (
	"time"

	"github.com/openfolio/ledgerd/internal/authz"
)

// Grant ties a principal to an account at a permission level. At most one
// grant exists per (principal, account) pair.
type Grant struct {
	ID          int64       `json:"id"`
	PrincipalID int64       `json:"principal_id"`
	AccountID   int64       `json:"account_id"`
	Level       authz.Level `json:"level"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
