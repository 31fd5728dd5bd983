package authz

import (
	"context"

	"github.com/openfolio/ledgerd/internal/shared"
)

// Scope translates grant data into the filters applied to collection reads.
// List endpoints never return rows the evaluator would deny individually.
type Scope struct {
	store Store
}

// NewScope constructs a Scope.
func NewScope(store Store) *Scope {
	return &Scope{store: store}
}

// Filter is a set of account IDs a list query is restricted to. When All is
// true the query is unrestricted (staff and superusers).
type Filter struct {
	All        bool
	AccountIDs []int64
}

// AccountFilter scopes account listings to accounts the principal holds any
// grant on.
func (s *Scope) AccountFilter(ctx context.Context, p *shared.Principal) (Filter, error) {
	if p.Staff() {
		return Filter{All: true}, nil
	}
	grants, err := s.store.GrantsFor(ctx, p.ID)
	if err != nil {
		return Filter{}, err
	}
	ids := make([]int64, 0, len(grants))
	for _, g := range grants {
		ids = append(ids, g.AccountID)
	}
	return Filter{AccountIDs: ids}, nil
}

// TransactionFilter scopes transaction listings to accounts where the
// principal holds a non-post grant. A post-only principal yields the empty
// set, so the filter agrees with the evaluator's list gate even if the gate
// is bypassed.
func (s *Scope) TransactionFilter(ctx context.Context, p *shared.Principal) (Filter, error) {
	if p.Staff() {
		return Filter{All: true}, nil
	}
	grants, err := s.store.GrantsFor(ctx, p.ID)
	if err != nil {
		return Filter{}, err
	}
	ids := make([]int64, 0, len(grants))
	for _, g := range grants {
		if g.Level == LevelPost {
			continue
		}
		ids = append(ids, g.AccountID)
	}
	return Filter{AccountIDs: ids}, nil
}
