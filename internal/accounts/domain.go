// Package accounts manages investment accounts. Balances are stored values,
// not derived from transaction history.
package accounts

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the stored account record.
type Account struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// GrantHolder is one entry of an account's per-principal grant list. Only
// staff and superusers ever see these in a representation.
type GrantHolder struct {
	PrincipalID int64  `json:"principal_id"`
	Username    string `json:"username"`
	Level       string `json:"level"`
}

// Representation is the serialized form of an account. GrantHolders is
// omitted entirely (not emptied) for non-staff requesters; for staff it is
// always present, as an empty list when nobody holds a grant. The pointer
// keeps those two shapes distinct under omitempty.
type Representation struct {
	Account
	GrantHolders *[]GrantHolder `json:"grant_holders,omitempty"`
}
