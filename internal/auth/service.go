package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/openfolio/ledgerd/internal/platform/httpx"
	"github.com/openfolio/ledgerd/internal/principals"
)

// PrincipalSource resolves stored principal records for authentication.
type PrincipalSource interface {
	Get(ctx context.Context, id int64) (*principals.Principal, error)
	GetByUsername(ctx context.Context, username string) (*principals.Principal, error)
}

// Service wraps authentication business rules.
type Service struct {
	source PrincipalSource
	tokens *TokenStore
}

// NewService constructs a new Service.
func NewService(source PrincipalSource, tokens *TokenStore) *Service {
	return &Service{source: source, tokens: tokens}
}

// Login validates credentials and issues a token. Failures are deliberately
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	p, err := s.source.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return "", fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
		}
		return "", err
	}
	if !p.IsActive {
		return "", fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("%w: invalid credentials", httpx.ErrUnauthorized)
	}
	return s.tokens.Issue(ctx, p.ID)
}

// Logout revokes a token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// ResolveToken loads the principal a token belongs to.
func (s *Service) ResolveToken(ctx context.Context, token string) (*principals.Principal, error) {
	id, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.source.Get(ctx, id)
}
