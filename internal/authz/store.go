package authz

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openfolio/ledgerd/internal/platform/httpx"
)

// GrantInfo is the evaluator's view of a grant: which account, which level.
type GrantInfo struct {
	AccountID int64
	Level     Level
}

// Store supplies the grant and derived-permission data the evaluator reads.
// Every evaluation re-reads the store; nothing is cached across requests.
type Store interface {
	// GrantFor resolves the grant level for a (principal, account) pair.
	// Returns httpx.ErrNotFound when no grant exists.
	GrantFor(ctx context.Context, principalID, accountID int64) (Level, error)
	// GrantsFor lists all grants held by a principal.
	GrantsFor(ctx context.Context, principalID int64) ([]GrantInfo, error)
	// HasPermission checks the derived-permission index. accountID 0 means
	// the role-level (account-independent) scope.
	HasPermission(ctx context.Context, principalID, accountID int64, code string) (bool, error)
}

// PGStore is the PostgreSQL-backed Store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// GrantFor resolves the grant level for a (principal, account) pair.
func (s *PGStore) GrantFor(ctx context.Context, principalID, accountID int64) (Level, error) {
	var level string
	err := s.pool.QueryRow(ctx,
		`SELECT level FROM grants WHERE principal_id = $1 AND account_id = $2`,
		principalID, accountID,
	).Scan(&level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: no grant for account", httpx.ErrNotFound)
		}
		return "", err
	}
	return Level(level), nil
}

// GrantsFor lists all grants held by a principal.
func (s *PGStore) GrantsFor(ctx context.Context, principalID int64) ([]GrantInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT account_id, level FROM grants WHERE principal_id = $1 ORDER BY account_id`,
		principalID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []GrantInfo
	for rows.Next() {
		var g GrantInfo
		var level string
		if err := rows.Scan(&g.AccountID, &level); err != nil {
			return nil, err
		}
		g.Level = Level(level)
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// HasPermission checks the derived-permission index.
func (s *PGStore) HasPermission(ctx context.Context, principalID, accountID int64, code string) (bool, error) {
	var query string
	args := []any{principalID, code}
	if accountID == 0 {
		query = `SELECT EXISTS (SELECT 1 FROM derived_permissions WHERE principal_id = $1 AND account_id IS NULL AND code = $2)`
	} else {
		query = `SELECT EXISTS (SELECT 1 FROM derived_permissions WHERE principal_id = $1 AND account_id = $3 AND code = $2)`
		args = append(args, accountID)
	}
	var ok bool
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

var _ Store = (*PGStore)(nil)
