package grants

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openfolio/ledgerd/internal/authz"
	"github.com/openfolio/ledgerd/internal/platform/db"
	"github.com/openfolio/ledgerd/internal/platform/httpx"
)

// Repository defines persistence operations for grants. Create, UpdateLevel
// and Delete are transactional with the derived-permission writes.
type Repository interface {
	Create(ctx context.Context, g Grant) (*Grant, error)
	Get(ctx context.Context, id int64) (*Grant, error)
	List(ctx context.Context) ([]Grant, error)
	UpdateLevel(ctx context.Context, id int64, level authz.Level) (*Grant, error)
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool       *pgxpool.Pool
	propagator authz.Propagator
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const grantColumns = `id, principal_id, account_id, level, created_at, updated_at`

// Create inserts a grant and attaches its level-derived transaction bundle
// in the same transaction. The unique (principal, account) constraint turns
// a concurrent duplicate into a Conflict rather than a second row.
func (r *PGRepository) Create(ctx context.Context, g Grant) (*Grant, error) {
	var created Grant
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO grants (principal_id, account_id, level) VALUES ($1, $2, $3)
			 RETURNING `+grantColumns,
			g.PrincipalID, g.AccountID, string(g.Level),
		)
		if err := scanGrant(row, &created); err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: grant already exists for this principal and account", httpx.ErrDuplicate)
			}
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: referenced account does not exist", httpx.ErrValidation)
			}
			return err
		}
		return r.propagator.AttachGrantBundle(ctx, tx, created.PrincipalID, created.AccountID, created.Level)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Get fetches a grant by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Grant, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+grantColumns+` FROM grants WHERE id = $1`, id)
	var g Grant
	if err := scanGrant(row, &g); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: grant %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return &g, nil
}

// List returns all grants ordered by id.
func (r *PGRepository) List(ctx context.Context) ([]Grant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+grantColumns+` FROM grants ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Grant
	for rows.Next() {
		var g Grant
		if err := scanGrant(rows, &g); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// UpdateLevel changes a grant's level and re-derives its bundle in the same
// transaction, so a downgrade revokes the old codes atomically.
func (r *PGRepository) UpdateLevel(ctx context.Context, id int64, level authz.Level) (*Grant, error) {
	var updated Grant
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`UPDATE grants SET level = $2, updated_at = NOW() WHERE id = $1 RETURNING `+grantColumns,
			id, string(level),
		)
		if err := scanGrant(row, &updated); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: grant %d", httpx.ErrNotFound, id)
			}
			return err
		}
		return r.propagator.ReplaceGrantBundle(ctx, tx, updated.PrincipalID, updated.AccountID, updated.Level)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes a grant and its derived bundle. The FK cascade on
// derived_permissions is the backstop; the explicit detach keeps the two
// writes in one transaction.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var g Grant
		row := tx.QueryRow(ctx, `DELETE FROM grants WHERE id = $1 RETURNING `+grantColumns, id)
		if err := scanGrant(row, &g); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: grant %d", httpx.ErrNotFound, id)
			}
			return err
		}
		return r.propagator.DetachGrantBundle(ctx, tx, g.PrincipalID, g.AccountID)
	})
}

func scanGrant(row pgx.Row, g *Grant) error {
	var level string
	if err := row.Scan(&g.ID, &g.PrincipalID, &g.AccountID, &level, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return err
	}
	g.Level = authz.Level(level)
	return nil
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

var _ Repository = (*PGRepository)(nil)
