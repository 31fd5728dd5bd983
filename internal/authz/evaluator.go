package authz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openfolio/ledgerd/internal/platform/httpx"
	"github.com/openfolio/ledgerd/internal/shared"
)

// Action identifies the operation being authorized.
type Action string

const (
	ActionList     Action = "list"
	ActionCreate   Action = "create"
	ActionRetrieve Action = "retrieve"
	ActionUpdate   Action = "update"
	ActionDelete   Action = "delete"
)

// Safe reports whether the action is read-only.
func (a Action) Safe() bool {
	return a == ActionList || a == ActionRetrieve
}

// Resource is the closed set of resource variants the evaluator dispatches on.
type Resource interface {
	resourceKind() string
}

// AccountResource targets an account. ID 0 addresses the collection.
type AccountResource struct {
	ID int64
}

// TransactionResource targets a transaction. For create, AccountID carries
// the payload's account reference; 0 means the payload omitted it.
type TransactionResource struct {
	ID        int64
	AccountID int64
}

// GrantResource targets grant management. SubjectID is the principal the
// grant applies to.
type GrantResource struct {
	SubjectID int64
}

// PrincipalResource targets principal management.
type PrincipalResource struct {
	ID int64
}

func (AccountResource) resourceKind() string     { return "account" }
func (TransactionResource) resourceKind() string { return "transaction" }
func (GrantResource) resourceKind() string       { return "grant" }
func (PrincipalResource) resourceKind() string   { return "principal" }

// Decision is the evaluator's verdict. Reason is populated on deny and is
// surfaced to the caller as the 403 detail.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns an allowing decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny returns a denying decision with the failing check's reason.
func Deny(reason string) Decision { return Decision{Allowed: false, Reason: reason} }

// Err converts a denial into the sentinel error callers hand to httpx.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", httpx.ErrForbidden, d.Reason)
}

// DecisionObserver receives every evaluated decision, e.g. for metrics.
type DecisionObserver interface {
	ObserveDecision(resource string, allowed bool)
}

// Evaluator answers allow/deny for (principal, action, resource) triples.
// Account instance access is delegated to the configured AccountPolicy so
// the two lineage policies stay swappable without changing this contract.
type Evaluator struct {
	store    Store
	policy   AccountPolicy
	logger   *slog.Logger
	observer DecisionObserver
}

// NewEvaluator constructs an Evaluator.
func NewEvaluator(store Store, policy AccountPolicy, logger *slog.Logger) *Evaluator {
	return &Evaluator{store: store, policy: policy, logger: logger}
}

// SetObserver installs a decision observer. A nil observer disables it.
func (e *Evaluator) SetObserver(obs DecisionObserver) {
	e.observer = obs
}

// Evaluate decides the request. A nil or inactive principal is always denied.
func (e *Evaluator) Evaluate(ctx context.Context, p *shared.Principal, action Action, res Resource) (Decision, error) {
	if p == nil {
		return Deny("authentication required"), nil
	}
	if !p.IsActive {
		return Deny("account is inactive"), nil
	}

	d, err := e.evaluate(ctx, p, action, res)
	if err != nil {
		return Decision{}, err
	}
	if e.observer != nil {
		e.observer.ObserveDecision(res.resourceKind(), d.Allowed)
	}
	if !d.Allowed && e.logger != nil {
		e.logger.Debug("authorization denied",
			slog.Int64("principal", p.ID),
			slog.String("action", string(action)),
			slog.String("resource", res.resourceKind()),
			slog.String("reason", d.Reason),
		)
	}
	return d, nil
}

func (e *Evaluator) evaluate(ctx context.Context, p *shared.Principal, action Action, res Resource) (Decision, error) {
	// Superusers hold every permission, mirroring the role table they are
	// created with.
	if p.IsSuperuser {
		return Allow(), nil
	}

	switch r := res.(type) {
	case AccountResource:
		return e.evaluateAccount(ctx, p, action, r)
	case TransactionResource:
		return e.evaluateTransaction(ctx, p, action, r)
	case GrantResource:
		return e.evaluateGrant(p, action, r)
	case PrincipalResource:
		if p.Staff() {
			return Allow(), nil
		}
		return Deny("staff access required"), nil
	}
	return Deny("unknown resource"), nil
}

func (e *Evaluator) evaluateAccount(ctx context.Context, p *shared.Principal, action Action, res AccountResource) (Decision, error) {
	switch action {
	case ActionList:
		// Every authenticated principal may list; row filtering happens in
		// the scoping layer.
		return Allow(), nil
	case ActionCreate:
		ok, err := e.store.HasPermission(ctx, p.ID, 0, PermAccountAdd)
		if err != nil {
			return Decision{}, err
		}
		if ok {
			return Allow(), nil
		}
		return Deny("no permission to create accounts"), nil
	default:
		return e.policy.Evaluate(ctx, p, action, res.ID)
	}
}

func (e *Evaluator) evaluateTransaction(ctx context.Context, p *shared.Principal, action Action, res TransactionResource) (Decision, error) {
	switch action {
	case ActionCreate:
		if res.AccountID == 0 {
			return Deny("account is required"), nil
		}
		level, err := e.store.GrantFor(ctx, p.ID, res.AccountID)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				return Deny("no permission for this account"), nil
			}
			return Decision{}, err
		}
		if level == LevelPost || level == LevelCrud {
			return Allow(), nil
		}
		return Deny("no permission to create transactions for this account"), nil

	case ActionList:
		grants, err := e.store.GrantsFor(ctx, p.ID)
		if err != nil {
			return Decision{}, err
		}
		if len(grants) == 0 {
			return Deny("no account permissions"), nil
		}
		// Strict policy: post-only principals are denied outright rather
		// than served an empty list.
		for _, g := range grants {
			if g.Level != LevelPost {
				return Allow(), nil
			}
		}
		return Deny("post-only grants cannot list transactions"), nil

	default:
		level, err := e.store.GrantFor(ctx, p.ID, res.AccountID)
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
			return Deny("post grants cannot access existing transactions"), nil
		}
		return Deny("no permission for this account"), nil
	}
}

func (e *Evaluator) evaluateGrant(p *shared.Principal, action Action, res GrantResource) (Decision, error) {
	if p.Staff() {
		return Allow(), nil
	}
	if (action == ActionCreate || action == ActionUpdate) && res.SubjectID == p.ID {
		return Allow(), nil
	}
	if action == ActionCreate || action == ActionUpdate {
		return Deny("can only assign permissions to yourself"), nil
	}
	return Deny("staff access required"), nil
}
