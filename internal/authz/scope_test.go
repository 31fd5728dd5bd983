package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfolio/ledgerd/internal/shared"
)

func TestAccountFilterStaffSeesAll(t *testing.T) {
	scope := NewScope(newMemoryStore())
	staff := &shared.Principal{ID: 1, Role: shared.RoleAdmin, IsStaff: true, IsActive: true}

	f, err := scope.AccountFilter(context.Background(), staff)
	require.NoError(t, err)
	require.True(t, f.All)
}

func TestAccountFilterRestrictsToGrantedAccounts(t *testing.T) {
	store := newMemoryStore()
	store.addGrant(1, 10, LevelView)
	store.addGrant(1, 11, LevelPost)
	scope := NewScope(store)

	f, err := scope.AccountFilter(context.Background(), activePrincipal(1))
	require.NoError(t, err)
	require.False(t, f.All)
	// Any grant, including post, makes the account itself visible.
	require.Equal(t, []int64{10, 11}, f.AccountIDs)
}

func TestAccountFilterNoGrantsIsEmpty(t *testing.T) {
	scope := NewScope(newMemoryStore())

	f, err := scope.AccountFilter(context.Background(), activePrincipal(1))
	require.NoError(t, err)
	require.False(t, f.All)
	require.Empty(t, f.AccountIDs)
}

func TestTransactionFilterExcludesPostGrants(t *testing.T) {
	store := newMemoryStore()
	store.addGrant(1, 10, LevelView)
	store.addGrant(1, 11, LevelPost)
	store.addGrant(1, 12, LevelCrud)
	scope := NewScope(store)

	f, err := scope.TransactionFilter(context.Background(), activePrincipal(1))
	require.NoError(t, err)
	require.False(t, f.All)
	require.Equal(t, []int64{10, 12}, f.AccountIDs)
}

func TestTransactionFilterStaffSeesAll(t *testing.T) {
	scope := NewScope(newMemoryStore())
	staff := &shared.Principal{ID: 1, Role: shared.RoleManager, IsStaff: true, IsActive: true}

	f, err := scope.TransactionFilter(context.Background(), staff)
	require.NoError(t, err)
	require.True(t, f.All)
}
