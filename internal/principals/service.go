package principals

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/openfolio/ledgerd/internal/platform/httpx"
	"github.com/openfolio/ledgerd/internal/shared"
)

// Service handles principal business logic.
type Service struct {
	repo  Repository
	audit Auditor
}

// Auditor records principal mutations.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// NewService builds a Service instance.
func NewService(repo Repository, audit Auditor) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateUser creates a regular principal. Role defaults to investor; staff
// and superuser flags default off, with is_staff honored from the request
// (the handler is staff-gated).
func (s *Service) CreateUser(ctx context.Context, req CreatePrincipalRequest, actor *shared.Principal) (*Principal, error) {
	role := shared.Role(req.Role)
	if req.Role == "" {
		role = shared.RoleInvestor
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, req.Role)
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", httpx.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, Principal{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         role,
		IsStaff:      req.IsStaff,
		IsSuperuser:  false,
		IsActive:     true,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "principal.create", created.ID)
	return created, nil
}

// CreateSuperuser creates a privileged principal. Staff and superuser are
// forced on regardless of the request; role defaults to admin.
func (s *Service) CreateSuperuser(ctx context.Context, req CreatePrincipalRequest, actor *shared.Principal) (*Principal, error) {
	if req.Role == "" {
		req.Role = string(shared.RoleAdmin)
	}
	role := shared.Role(req.Role)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", httpx.ErrValidation, req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.repo.Create(ctx, Principal{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Role:         role,
		IsStaff:      true,
		IsSuperuser:  true,
		IsActive:     true,
	})
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "principal.create_superuser", created.ID)
	return created, nil
}

// Get fetches a principal by ID.
func (s *Service) Get(ctx context.Context, id int64) (*Principal, error) {
	return s.repo.Get(ctx, id)
}

// List returns all principals.
func (s *Service) List(ctx context.Context) ([]Principal, error) {
	return s.repo.List(ctx)
}

// Update applies a partial update. Role is immutable.
func (s *Service) Update(ctx context.Context, id int64, req UpdatePrincipalRequest, actor *shared.Principal) (*Principal, error) {
	updates := make(map[string]any)
	if req.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		updates["password_hash"] = string(hash)
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return nil, err
		}
		s.recordAudit(ctx, actor, "principal.update", id)
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a principal; grants referencing it cascade.
func (s *Service) Delete(ctx context.Context, id int64, actor *shared.Principal) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "principal.delete", id)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor *shared.Principal, action string, entityID int64) {
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
		Entity:   "principal",
		EntityID: strconv.FormatInt(entityID, 10),
	})
}
