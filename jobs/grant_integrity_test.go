package jobs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openfolio/ledgerd/internal/authz"
	"github.com/openfolio/ledgerd/internal/shared"
)

// Every code the derivation tables can emit must be in the vocabulary the
// sweep treats as known, or a repair would delete live rows.
func TestKnownCodesCoverEveryBundle(t *testing.T) {
	known := make(map[string]bool)
	for _, code := range knownCodes() {
		known[code] = true
	}

	for _, role := range []shared.Role{shared.RoleAdmin, shared.RoleManager, shared.RoleInvestor} {
		for _, code := range authz.RoleBundle(role) {
			require.True(t, known[code], "role %s emits unknown code %s", role, code)
		}
	}
	for _, level := range []authz.Level{authz.LevelView, authz.LevelCrud, authz.LevelPost} {
		for _, code := range authz.LevelBundle(level) {
			require.True(t, known[code], "level %s emits unknown code %s", level, code)
		}
	}
}
