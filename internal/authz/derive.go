package authz

import "github.com/openfolio/ledgerd/internal/shared"

// RoleBundle returns the account-level permission codes derived from a role.
// The mapping is fixed; deriving twice for the same role yields the same
// membership, which is what makes propagation idempotent.
func RoleBundle(role shared.Role) []string {
	switch role {
	case shared.RoleAdmin:
		return []string{PermAccountView, PermAccountAdd, PermAccountChange, PermAccountDelete}
	case shared.RoleManager:
		return []string{PermAccountView, PermAccountAdd}
	case shared.RoleInvestor:
		return []string{PermAccountView}
	}
	return nil
}

// LevelBundle returns the transaction-level permission codes derived from a
// grant level. The codes are scoped to the grant's account by the caller.
func LevelBundle(level Level) []string {
	switch level {
	case LevelView:
		return []string{PermTransactionView}
	case LevelCrud:
		return []string{PermTransactionView, PermTransactionAdd, PermTransactionChange, PermTransactionDelete}
	case LevelPost:
		return []string{PermTransactionAdd}
	}
	return nil
}
