package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/openfolio/ledgerd/internal/platform/httpx"
	"github.com/openfolio/ledgerd/internal/shared"
)

// AccountPolicy decides instance-level account access. Two policies exist in
// the lineage and are deliberately kept as separate strategies: the older
// per-grant policy and the newer role-bundle policy. Selection happens at
// boot via AUTHZ_ACCOUNT_POLICY; semantics are never merged.
type AccountPolicy interface {
	Name() string
	Evaluate(ctx context.Context, p *shared.Principal, action Action, accountID int64) (Decision, error)
}

// NewAccountPolicy resolves a policy by configuration name.
func NewAccountPolicy(name string, store Store) (AccountPolicy, error) {
	switch name {
	case "", "grant":
		return &GrantAccountPolicy{store: store}, nil
	case "role":
		return &RoleAccountPolicy{store: store}, nil
	}
	return nil, fmt.Errorf("authz: unknown account policy %q", name)
}

// GrantAccountPolicy gates account instances by the principal's grant on
// that specific account: view allows safe methods, crud allows everything,
// post allows only creation-style methods, no grant denies.
type GrantAccountPolicy struct {
	store Store
}

func (*GrantAccountPolicy) Name() string { return "grant" }

func (gp *GrantAccountPolicy) Evaluate(ctx context.Context, p *shared.Principal, action Action, accountID int64) (Decision, error) {
	level, err := gp.store.GrantFor(ctx, p.ID, accountID)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return Deny("no permission for this account"), nil
		}
		return Decision{}, err
	}
	switch level {
	case LevelCrud:
		return Allow(), nil
	case LevelView:
		if action.Safe() {
			return Allow(), nil
		}
		return Deny("view-only permission for this account"), nil
	case LevelPost:
		if action == ActionCreate {
			return Allow(), nil
		}
		return Deny("post-only permission for this account"), nil
	}
	return Deny("no permission for this account"), nil
}

// RoleAccountPolicy gates account instances purely by the role-derived
// account bundle, independent of per-account grants.
type RoleAccountPolicy struct {
	store Store
}

func (*RoleAccountPolicy) Name() string { return "role" }

func (rp *RoleAccountPolicy) Evaluate(ctx context.Context, p *shared.Principal, action Action, accountID int64) (Decision, error) {
	code := ""
	switch action {
	case ActionRetrieve, ActionList:
		code = PermAccountView
	case ActionCreate:
		code = PermAccountAdd
	case ActionUpdate:
		code = PermAccountChange
	case ActionDelete:
		code = PermAccountDelete
	default:
		return Deny("unknown action"), nil
	}
	ok, err := rp.store.HasPermission(ctx, p.ID, 0, code)
	if err != nil {
		return Decision{}, err
	}
	if ok {
		return Allow(), nil
	}
	return Deny("role does not permit this account operation"), nil
}
