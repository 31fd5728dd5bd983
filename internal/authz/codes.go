// Package authz implements the authorization core: the fixed permission
// vocabulary, bundle derivation, propagation of derived permissions, and the
// evaluator consulted before every account and transaction operation.
package authz

// Fine-grained permission codes.
const (
	PermAccountView   = "account.view"
	PermAccountAdd    = "account.add"
	PermAccountChange = "account.change"
	PermAccountDelete = "account.delete"

	PermTransactionView   = "transaction.view"
	PermTransactionAdd    = "transaction.add"
	PermTransactionChange = "transaction.change"
	PermTransactionDelete = "transaction.delete"
)

// AccountScopes lists all account-level permission codes.
func AccountScopes() []string {
	return []string{
		PermAccountView,
		PermAccountAdd,
		PermAccountChange,
		PermAccountDelete,
	}
}

// TransactionScopes lists all transaction-level permission codes.
func TransactionScopes() []string {
	return []string{
		PermTransactionView,
		PermTransactionAdd,
		PermTransactionChange,
		PermTransactionDelete,
	}
}

// Level is the per-account permission level carried by a grant.
type Level string

const (
	LevelView Level = "view"
	LevelCrud Level = "crud"
	LevelPost Level = "post"
)

// Valid reports whether the level is one of the known values.
func (l Level) Valid() bool {
	switch l {
	case LevelView, LevelCrud, LevelPost:
		return true
	}
	return false
}
