package transactions

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/openfolio/ledgerd/internal/authz"
	"github.com/openfolio/ledgerd/internal/platform/httpx"
	"github.com/openfolio/ledgerd/internal/shared"
)

// Service handles transaction business logic. Every operation consults the
// evaluator; list additionally applies the scoping filter so no row the
// evaluator would deny individually is ever returned.
type Service struct {
	repo      Repository
	evaluator *authz.Evaluator
	scope     *authz.Scope
}

// NewService builds a Service instance.
func NewService(repo Repository, evaluator *authz.Evaluator, scope *authz.Scope) *Service {
	return &Service{repo: repo, evaluator: evaluator, scope: scope}
}

// Create records a transaction. Requires a post or crud grant on the payload
// account; a missing account reference is a validation error.
func (s *Service) Create(ctx context.Context, p *shared.Principal, req CreateTransactionRequest) (*Transaction, error) {
	if req.AccountID == 0 {
		return nil, fmt.Errorf("%w: account is required", httpx.ErrValidation)
	}
	decision, err := s.evaluator.Evaluate(ctx, p, authz.ActionCreate, authz.TransactionResource{AccountID: req.AccountID})
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid amount", httpx.ErrValidation)
	}

	return s.repo.Create(ctx, Transaction{
		AccountID:   req.AccountID,
		Amount:      amount.Round(2),
		Description: req.Description,
	})
}

// Get fetches a transaction if the principal's grant on its account permits.
func (s *Service) Get(ctx context.Context, p *shared.Principal, id int64) (*Transaction, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	decision, err := s.evaluator.Evaluate(ctx, p, authz.ActionRetrieve, authz.TransactionResource{ID: t.ID, AccountID: t.AccountID})
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// List returns the transactions visible to the principal. Post-only
// principals are denied outright rather than served an empty list.
func (s *Service) List(ctx context.Context, p *shared.Principal) ([]Transaction, error) {
	decision, err := s.evaluator.Evaluate(ctx, p, authz.ActionList, authz.TransactionResource{})
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}
	filter, err := s.scope.TransactionFilter(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, filter)
}

// Update changes amount or description under a crud grant.
func (s *Service) Update(ctx context.Context, p *shared.Principal, id int64, req UpdateTransactionRequest) (*Transaction, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	decision, err := s.evaluator.Evaluate(ctx, p, authz.ActionUpdate, authz.TransactionResource{ID: t.ID, AccountID: t.AccountID})
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid amount", httpx.ErrValidation)
		}
		updates["amount"] = amount.Round(2).String()
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a transaction under a crud grant.
func (s *Service) Delete(ctx context.Context, p *shared.Principal, id int64) error {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	decision, err := s.evaluator.Evaluate(ctx, p, authz.ActionDelete, authz.TransactionResource{ID: t.ID, AccountID: t.AccountID})
	if err != nil {
		return err
	}
	if err := decision.Err(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
