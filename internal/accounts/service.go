package accounts

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/openfolio/ledgerd/internal/authz"
	"github.com/openfolio/ledgerd/internal/platform/httpx"
	"github.com/openfolio/ledgerd/internal/shared"
)

// Service handles account business logic. Authorization decisions come from
// the evaluator; row filtering comes from the scoping layer.
type Service struct {
	repo      Repository
	evaluator *authz.Evaluator
	scope     *authz.Scope
}

// NewService builds a Service instance.
func NewService(repo Repository, evaluator *authz.Evaluator, scope *authz.Scope) *Service {
	return &Service{repo: repo, evaluator: evaluator, scope: scope}
}

// Create inserts a new account after the evaluator allows collection-level
// create for the principal.
func (s *Service) Create(ctx context.Context, p *shared.Principal, req CreateAccountRequest) (*Representation, error) {
	decision, err := s.evaluator.Evaluate(ctx, p, authz.ActionCreate, authz.AccountResource{})
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}

	balance := decimal.Zero
	if req.Balance != "" {
		balance, err = decimal.NewFromString(req.Balance)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid balance", httpx.ErrValidation)
		}
	}

	created, err := s.repo.Create(ctx, Account{Name: req.Name, Balance: balance.Round(2)})
	if err != nil {
		return nil, err
	}
	return s.represent(ctx, p, created)
}

// Get fetches an account if the instance policy allows retrieve.
func (s *Service) Get(ctx context.Context, p *shared.Principal, id int64) (*Representation, error) {
	decision, err := s.evaluator.Evaluate(ctx, p, authz.ActionRetrieve, authz.AccountResource{ID: id})
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.represent(ctx, p, account)
}

// List returns the accounts visible to the principal.
func (s *Service) List(ctx context.Context, p *shared.Principal) ([]Representation, error) {
	decision, err := s.evaluator.Evaluate(ctx, p, authz.ActionList, authz.AccountResource{})
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}
	filter, err := s.scope.AccountFilter(ctx, p)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]Representation, 0, len(items))
	for i := range items {
		rep, err := s.represent(ctx, p, &items[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *rep)
	}
	return out, nil
}

// Update changes name or balance if the instance policy allows update.
func (s *Service) Update(ctx context.Context, p *shared.Principal, id int64, req UpdateAccountRequest) (*Representation, error) {
	decision, err := s.evaluator.Evaluate(ctx, p, authz.ActionUpdate, authz.AccountResource{ID: id})
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Balance != nil {
		balance, err := decimal.NewFromString(*req.Balance)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid balance", httpx.ErrValidation)
		}
		updates["balance"] = balance.Round(2).String()
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	account, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.represent(ctx, p, account)
}

// Delete removes an account if the instance policy allows delete. Grants and
// transactions referencing it cascade at the store.
func (s *Service) Delete(ctx context.Context, p *shared.Principal, id int64) error {
	decision, err := s.evaluator.Evaluate(ctx, p, authz.ActionDelete, authz.AccountResource{ID: id})
	if err != nil {
		return err
	}
	if err := decision.Err(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// represent builds the serialized form, attaching the grant-holder sublist
// only for staff and superusers.
func (s *Service) represent(ctx context.Context, p *shared.Principal, a *Account) (*Representation, error) {
	rep := Representation{Account: *a}
	if p.Staff() {
		holders, err := s.repo.GrantHolders(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		if holders == nil {
			holders = []GrantHolder{}
		}
		rep.GrantHolders = &holders
	}
	return &rep, nil
}
