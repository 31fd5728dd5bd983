// Package transactions manages the ledger entries recorded against accounts.
package transactions

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction belongs to exactly one account. Date is set at creation and
// never changes afterwards.
type Transaction struct {
	ID          int64           `json:"id"`
	AccountID   int64           `json:"account"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Description string          `json:"description"`
}
