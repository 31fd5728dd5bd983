// Package reports builds the staff-only activity summaries: every
// transaction reachable through a principal's grants, with an aggregated
// total.
package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfolio/ledgerd/internal/transactions"
)

// PrincipalActivity is the report payload for one principal.
type PrincipalActivity struct {
	PrincipalID  int64                      `json:"id"`
	Username     string                     `json:"username"`
	Transactions []transactions.Transaction `json:"transactions"`
	TotalBalance decimal.Decimal            `json:"total_balance"`
}

// Repository supplies the report queries.
type Repository interface {
	PrincipalUsername(ctx context.Context, principalID int64) (string, error)
	TransactionsForPrincipal(ctx context.Context, principalID int64, from, to *time.Time) ([]transactions.Transaction, error)
}

// Service assembles reports.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// PrincipalActivity returns the subject's transactions across all accounts
// they hold grants on, optionally bounded by date, plus the amount total.
// The total is a sum over the reported rows, not the stored balances.
func (s *Service) PrincipalActivity(ctx context.Context, principalID int64, from, to *time.Time) (*PrincipalActivity, error) {
	username, err := s.repo.PrincipalUsername(ctx, principalID)
	if err != nil {
		return nil, err
	}
	txs, err := s.repo.TransactionsForPrincipal(ctx, principalID, from, to)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	if txs == nil {
		txs = []transactions.Transaction{}
	}
	return &PrincipalActivity{
		PrincipalID:  principalID,
		Username:     username,
		Transactions: txs,
		TotalBalance: total,
	}, nil
}
