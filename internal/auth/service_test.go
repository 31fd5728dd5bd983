package auth_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/openfolio/ledgerd/internal/auth"
	"github.com/openfolio/ledgerd/internal/platform/httpx"
	"github.com/openfolio/ledgerd/internal/principals"
	"github.com/openfolio/ledgerd/internal/shared"
	_ "github.com/openfolio/ledgerd/testing"
)

type stubSource struct {
	byID       map[int64]*principals.Principal
	byUsername map[string]*principals.Principal
}

func (s *stubSource) Get(ctx context.Context, id int64) (*principals.Principal, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: principal %d", httpx.ErrNotFound, id)
}

func (s *stubSource) GetByUsername(ctx context.Context, username string) (*principals.Principal, error) {
	if p, ok := s.byUsername[username]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: principal %q", httpx.ErrNotFound, username)
}

func newTestService(t *testing.T, source auth.PrincipalSource) *auth.Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return auth.NewService(source, auth.NewTokenStore(client, time.Hour))
}

func sourceWith(t *testing.T, password string, active bool) (*stubSource, *principals.Principal) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	p := &principals.Principal{
		ID:           7,
		Username:     "ivan",
		Email:        "ivan@example.com",
		PasswordHash: string(hash),
		Role:         shared.RoleInvestor,
		IsActive:     active,
	}
	return &stubSource{
		byID:       map[int64]*principals.Principal{p.ID: p},
		byUsername: map[string]*principals.Principal{p.Username: p},
	}, p
}

func TestLoginIssuesResolvableToken(t *testing.T) {
	source, p := sourceWith(t, "hunter22222", true)
	svc := newTestService(t, source)

	token, err := svc.Login(context.Background(), "ivan", "hunter22222")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	resolved, err := svc.ResolveToken(context.Background(), token)
	require.NoError(t, err)
	require.Equal(t, p.ID, resolved.ID)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	source, _ := sourceWith(t, "hunter22222", true)
	svc := newTestService(t, source)

	_, err := svc.Login(context.Background(), "ivan", "wrong")
	require.ErrorIs(t, err, httpx.ErrUnauthorized)

	_, err2 := svc.Login(context.Background(), "nobody", "hunter22222")
	require.ErrorIs(t, err2, httpx.ErrUnauthorized)
	require.Equal(t, err.Error(), err2.Error())
}

func TestLoginInactiveDenied(t *testing.T) {
	source, _ := sourceWith(t, "hunter22222", false)
	svc := newTestService(t, source)

	_, err := svc.Login(context.Background(), "ivan", "hunter22222")
	require.ErrorIs(t, err, httpx.ErrUnauthorized)
}

func TestLogoutRevokesToken(t *testing.T) {
	source, _ := sourceWith(t, "hunter22222", true)
	svc := newTestService(t, source)

	token, err := svc.Login(context.Background(), "ivan", "hunter22222")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), token))

	_, err = svc.ResolveToken(context.Background(), token)
	require.ErrorIs(t, err, auth.ErrTokenUnknown)
}
