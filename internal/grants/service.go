package grants

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/openfolio/ledgerd/internal/authz"
	"github.com/openfolio/ledgerd/internal/platform/httpx"
	"github.com/openfolio/ledgerd/internal/principals"
	"github.com/openfolio/ledgerd/internal/shared"
)

// PrincipalResolver resolves the grant subject addressed by username.
type PrincipalResolver interface {
	GetByUsername(ctx context.Context, username string) (*principals.Principal, error)
}

// Auditor records grant mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service handles grant business logic.
type Service struct {
	repo      Repository
	resolver  PrincipalResolver
	evaluator *authz.Evaluator
	audit     Auditor
}

// NewService builds a Service instance.
func NewService(repo Repository, resolver PrincipalResolver, evaluator *authz.Evaluator, audit Auditor) *Service {
	return &Service{repo: repo, resolver: resolver, evaluator: evaluator, audit: audit}
}

// Create grants a permission level on an account. Staff may grant to anyone;
// everyone else only to themselves.
func (s *Service) Create(ctx context.Context, actor *shared.Principal, req CreateGrantRequest) (*Grant, error) {
	subject, err := s.resolver.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return nil, fmt.Errorf("%w: user does not exist", httpx.ErrValidation)
		}
		return nil, err
	}

	decision, err := s.evaluator.Evaluate(ctx, actor, authz.ActionCreate, authz.GrantResource{SubjectID: subject.ID})
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, Grant{
		PrincipalID: subject.ID,
		AccountID:   req.AccountID,
		Level:       authz.Level(req.Level),
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "grant.create", created.ID, map[string]any{
		"principal": created.PrincipalID,
		"account":   created.AccountID,
		"level":     string(created.Level),
	})
	return created, nil
}

// Get fetches a grant; staff only.
func (s *Service) Get(ctx context.Context, actor *shared.Principal, id int64) (*Grant, error) {
	grant, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	decision, err := s.evaluator.Evaluate(ctx, actor, authz.ActionRetrieve, authz.GrantResource{SubjectID: grant.PrincipalID})
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}
	return grant, nil
}

// List returns all grants; staff only.
func (s *Service) List(ctx context.Context, actor *shared.Principal) ([]Grant, error) {
	decision, err := s.evaluator.Evaluate(ctx, actor, authz.ActionList, authz.GrantResource{})
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// Update changes a grant's level. The repository re-derives the bundle in
// the same transaction, so the old level's codes cannot outlive the change.
func (s *Service) Update(ctx context.Context, actor *shared.Principal, id int64, req UpdateGrantRequest) (*Grant, error) {
	grant, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	decision, err := s.evaluator.Evaluate(ctx, actor, authz.ActionUpdate, authz.GrantResource{SubjectID: grant.PrincipalID})
	if err != nil {
		return nil, err
	}
	if err := decision.Err(); err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateLevel(ctx, id, authz.Level(req.Level))
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "grant.update", updated.ID, map[string]any{
		"level": string(updated.Level),
	})
	return updated, nil
}

// Delete revokes a grant and all access derived from it; staff only.
func (s *Service) Delete(ctx context.Context, actor *shared.Principal, id int64) error {
	grant, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	decision, err := s.evaluator.Evaluate(ctx, actor, authz.ActionDelete, authz.GrantResource{SubjectID: grant.PrincipalID})
	if err != nil {
		return err
	}
	if err := decision.Err(); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "grant.delete", id, nil)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Principal, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if actor != nil {
		actorID = actor.ID
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "grant",
		EntityID: strconv.FormatInt(entityID, 10),
		Meta:     meta,
	})
}
