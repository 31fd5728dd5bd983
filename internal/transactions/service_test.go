package transactions

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/openfolio/ledgerd/internal/authz"
	"github.com/openfolio/ledgerd/internal/platform/httpx"
	"github.com/openfolio/ledgerd/internal/shared"
)

type fakeStore struct {
	grants map[int64][]authz.GrantInfo
}

func newFakeStore() *fakeStore {
	return &fakeStore{grants: make(map[int64][]authz.GrantInfo)}
}

func (s *fakeStore) GrantFor(ctx context.Context, principalID, accountID int64) (authz.Level, error) {
	for _, g := range s.grants[principalID] {
		if g.AccountID == accountID {
			return g.Level, nil
		}
	}
	return "", fmt.Errorf("%w: no grant for account", httpx.ErrNotFound)
}

func (s *fakeStore) GrantsFor(ctx context.Context, principalID int64) ([]authz.GrantInfo, error) {
	return s.grants[principalID], nil
}

func (s *fakeStore) HasPermission(ctx context.Context, principalID, accountID int64, code string) (bool, error) {
	return false, nil
}

type memoryRepo struct {
	byID   map[int64]Transaction
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[int64]Transaction)}
}

func (r *memoryRepo) Create(ctx context.Context, t Transaction) (*Transaction, error) {
	r.nextID++
	t.ID = r.nextID
	r.byID[t.ID] = t
	return &t, nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (*Transaction, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: transaction %d", httpx.ErrNotFound, id)
	}
	return &t, nil
}

func (r *memoryRepo) List(ctx context.Context, filter authz.Filter) ([]Transaction, error) {
	var out []Transaction
	for id := int64(1); id <= r.nextID; id++ {
		t, ok := r.byID[id]
		if !ok {
			continue
		}
		if filter.All {
			out = append(out, t)
			continue
		}
		for _, allowed := range filter.AccountIDs {
			if allowed == t.AccountID {
				out = append(out, t)
				break
			}
		}
	}
	return out, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, updates map[string]any) error {
	t, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: transaction %d", httpx.ErrNotFound, id)
	}
	if v, ok := updates["amount"]; ok {
		t.Amount = decimal.RequireFromString(v.(string))
	}
	if v, ok := updates["description"]; ok {
		t.Description = v.(string)
	}
	r.byID[id] = t
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.byID[id]; !ok {
		return fmt.Errorf("%w: transaction %d", httpx.ErrNotFound, id)
	}
	delete(r.byID, id)
	return nil
}

func newTestService(t *testing.T, repo Repository, store authz.Store) *Service {
	t.Helper()
	policy, err := authz.NewAccountPolicy("grant", store)
	require.NoError(t, err)
	return NewService(repo, authz.NewEvaluator(store, policy, nil), authz.NewScope(store))
}

func principal(id int64) *shared.Principal {
	return &shared.Principal{ID: id, Role: shared.RoleInvestor, IsActive: true}
}

func staffPrincipal() *shared.Principal {
	return &shared.Principal{ID: 1, Role: shared.RoleAdmin, IsStaff: true, IsActive: true}
}

func TestCreateRequiresAccount(t *testing.T) {
	svc := newTestService(t, newMemoryRepo(), newFakeStore())

	_, err := svc.Create(context.Background(), principal(2), CreateTransactionRequest{Amount: "10.00"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateNeedsPostOrCrudGrant(t *testing.T) {
	store := newFakeStore()
	store.grants[2] = []authz.GrantInfo{{AccountID: 10, Level: authz.LevelView}}
	store.grants[3] = []authz.GrantInfo{{AccountID: 10, Level: authz.LevelPost}}
	svc := newTestService(t, newMemoryRepo(), store)

	_, err := svc.Create(context.Background(), principal(2), CreateTransactionRequest{AccountID: 10, Amount: "10.00"})
	require.ErrorIs(t, err, httpx.ErrForbidden)

	created, err := svc.Create(context.Background(), principal(3), CreateTransactionRequest{AccountID: 10, Amount: "10.005", Description: "deposit"})
	require.NoError(t, err)
	require.True(t, created.Amount.Equal(decimal.RequireFromString("10.01")))
}

func TestCreateRejectsBadAmount(t *testing.T) {
	store := newFakeStore()
	store.grants[2] = []authz.GrantInfo{{AccountID: 10, Level: authz.LevelCrud}}
	svc := newTestService(t, newMemoryRepo(), store)

	_, err := svc.Create(context.Background(), principal(2), CreateTransactionRequest{AccountID: 10, Amount: "ten"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestListPostOnlyDeniedOutright(t *testing.T) {
	store := newFakeStore()
	store.grants[2] = []authz.GrantInfo{{AccountID: 10, Level: authz.LevelPost}}
	svc := newTestService(t, newMemoryRepo(), store)

	_, err := svc.List(context.Background(), principal(2))
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestListScopedToNonPostAccounts(t *testing.T) {
	store := newFakeStore()
	store.grants[2] = []authz.GrantInfo{
		{AccountID: 10, Level: authz.LevelView},
		{AccountID: 11, Level: authz.LevelPost},
	}
	repo := newMemoryRepo()
	svc := newTestService(t, repo, store)

	for _, accountID := range []int64{10, 11} {
		_, err := repo.Create(context.Background(), Transaction{AccountID: accountID, Amount: decimal.New(1, 0)})
		require.NoError(t, err)
	}

	// The post-granted account's rows stay invisible even though the account
	// grant exists.
	items, err := svc.List(context.Background(), principal(2))
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, int64(10), items[0].AccountID)

	all, err := svc.List(context.Background(), staffPrincipal())
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestUpdateNeedsCrudGrant(t *testing.T) {
	store := newFakeStore()
	store.grants[2] = []authz.GrantInfo{{AccountID: 10, Level: authz.LevelView}}
	repo := newMemoryRepo()
	svc := newTestService(t, repo, store)

	created, err := repo.Create(context.Background(), Transaction{AccountID: 10, Amount: decimal.New(5, 0)})
	require.NoError(t, err)

	amount := "7.00"
	_, err = svc.Update(context.Background(), principal(2), created.ID, UpdateTransactionRequest{Amount: &amount})
	require.ErrorIs(t, err, httpx.ErrForbidden)

	store.grants[2] = []authz.GrantInfo{{AccountID: 10, Level: authz.LevelCrud}}
	updated, err := svc.Update(context.Background(), principal(2), created.ID, UpdateTransactionRequest{Amount: &amount})
	require.NoError(t, err)
	require.True(t, updated.Amount.Equal(decimal.RequireFromString("7.00")))
}

func TestGetDeniedForPostGrant(t *testing.T) {
	store := newFakeStore()
	store.grants[2] = []authz.GrantInfo{{AccountID: 10, Level: authz.LevelPost}}
	repo := newMemoryRepo()
	svc := newTestService(t, repo, store)

	created, err := repo.Create(context.Background(), Transaction{AccountID: 10, Amount: decimal.New(5, 0)})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), principal(2), created.ID)
	require.ErrorIs(t, err, httpx.ErrForbidden)
}

func TestDeleteNeedsCrudGrant(t *testing.T) {
	store := newFakeStore()
	store.grants[2] = []authz.GrantInfo{{AccountID: 10, Level: authz.LevelCrud}}
	repo := newMemoryRepo()
	svc := newTestService(t, repo, store)

	created, err := repo.Create(context.Background(), Transaction{AccountID: 10, Amount: decimal.New(5, 0)})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), principal(2), created.ID))
	_, err = svc.Get(context.Background(), principal(2), created.ID)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}
