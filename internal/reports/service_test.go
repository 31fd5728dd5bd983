package reports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/openfolio/ledgerd/internal/platform/httpx"
	"github.com/openfolio/ledgerd/internal/transactions"
)

type memoryRepo struct {
	usernames map[int64]string
	txs       map[int64][]transactions.Transaction
}

func (r *memoryRepo) PrincipalUsername(ctx context.Context, principalID int64) (string, error) {
	u, ok := r.usernames[principalID]
	if !ok {
		return "", fmt.Errorf("%w: principal %d", httpx.ErrNotFound, principalID)
	}
	return u, nil
}

func (r *memoryRepo) TransactionsForPrincipal(ctx context.Context, principalID int64, from, to *time.Time) ([]transactions.Transaction, error) {
	var out []transactions.Transaction
	for _, t := range r.txs[principalID] {
		if from != nil && t.Date.Before(*from) {
			continue
		}
		if to != nil && t.Date.After(*to) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func TestPrincipalActivityTotalsAmounts(t *testing.T) {
	now := time.Now()
	repo := &memoryRepo{
		usernames: map[int64]string{2: "ivan"},
		txs: map[int64][]transactions.Transaction{2: {
			{ID: 1, AccountID: 10, Amount: decimal.RequireFromString("150.25"), Date: now.AddDate(0, 0, -2)},
			{ID: 2, AccountID: 10, Amount: decimal.RequireFromString("-50.25"), Date: now.AddDate(0, 0, -1)},
			{ID: 3, AccountID: 11, Amount: decimal.RequireFromString("10.00"), Date: now},
		}},
	}
	svc := NewService(repo)

	report, err := svc.PrincipalActivity(context.Background(), 2, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "ivan", report.Username)
	require.Len(t, report.Transactions, 3)
	require.True(t, report.TotalBalance.Equal(decimal.RequireFromString("110.00")))
}

func TestPrincipalActivityDateRange(t *testing.T) {
	now := time.Now()
	repo := &memoryRepo{
		usernames: map[int64]string{2: "ivan"},
		txs: map[int64][]transactions.Transaction{2: {
			{ID: 1, Amount: decimal.RequireFromString("100.00"), Date: now.AddDate(0, 0, -10)},
			{ID: 2, Amount: decimal.RequireFromString("25.00"), Date: now},
		}},
	}
	svc := NewService(repo)

	from := now.AddDate(0, 0, -1)
	report, err := svc.PrincipalActivity(context.Background(), 2, &from, nil)
	require.NoError(t, err)
	require.Len(t, report.Transactions, 1)
	require.True(t, report.TotalBalance.Equal(decimal.RequireFromString("25.00")))
}

func TestPrincipalActivityEmptyIsZero(t *testing.T) {
	repo := &memoryRepo{usernames: map[int64]string{2: "ivan"}, txs: map[int64][]transactions.Transaction{}}
	svc := NewService(repo)

	report, err := svc.PrincipalActivity(context.Background(), 2, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, report.Transactions)
	require.Empty(t, report.Transactions)
	require.True(t, report.TotalBalance.IsZero())
}

func TestPrincipalActivityUnknownPrincipal(t *testing.T) {
	svc := NewService(&memoryRepo{usernames: map[int64]string{}})

	_, err := svc.PrincipalActivity(context.Background(), 99, nil, nil)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
