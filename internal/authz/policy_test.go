package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfolio/ledgerd/internal/shared"
)

func TestNewAccountPolicySelection(t *testing.T) {
	store := newMemoryStore()

	p, err := NewAccountPolicy("", store)
	require.NoError(t, err)
	require.Equal(t, "grant", p.Name())

	p, err = NewAccountPolicy("grant", store)
	require.NoError(t, err)
	require.Equal(t, "grant", p.Name())

	p, err = NewAccountPolicy("role", store)
	require.NoError(t, err)
	require.Equal(t, "role", p.Name())

	_, err = NewAccountPolicy("hybrid", store)
	require.Error(t, err)
}

func TestGrantAccountPolicyPostLevel(t *testing.T) {
	store := newMemoryStore()
	store.addGrant(1, 10, LevelPost)
	policy, err := NewAccountPolicy("grant", store)
	require.NoError(t, err)
	p := activePrincipal(1)

	d, err := policy.Evaluate(context.Background(), p, ActionCreate, 10)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = policy.Evaluate(context.Background(), p, ActionRetrieve, 10)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Equal(t, "post-only permission for this account", d.Reason)
}

func TestRoleAccountPolicyUsesRoleBundle(t *testing.T) {
	store := newMemoryStore()
	// Manager bundle: view and add, no change or delete.
	store.addPerm(1, 0, PermAccountView)
	store.addPerm(1, 0, PermAccountAdd)
	policy, err := NewAccountPolicy("role", store)
	require.NoError(t, err)
	p := &shared.Principal{ID: 1, Role: shared.RoleManager, IsActive: true}

	d, err := policy.Evaluate(context.Background(), p, ActionRetrieve, 10)
	require.NoError(t, err)
	require.True(t, d.Allowed)

	d, err = policy.Evaluate(context.Background(), p, ActionUpdate, 10)
	require.NoError(t, err)
	require.False(t, d.Allowed)

	d, err = policy.Evaluate(context.Background(), p, ActionDelete, 10)
	require.NoError(t, err)
	require.False(t, d.Allowed)
}

func TestRoleAccountPolicyIgnoresGrants(t *testing.T) {
	store := newMemoryStore()
	store.addGrant(1, 10, LevelCrud)
	policy, err := NewAccountPolicy("role", store)
	require.NoError(t, err)

	// A crud grant on the account does not matter under the role policy.
	d, err := policy.Evaluate(context.Background(), activePrincipal(1), ActionUpdate, 10)
	require.NoError(t, err)
	require.False(t, d.Allowed)
}
