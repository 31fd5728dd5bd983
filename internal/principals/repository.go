package principals

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openfolio/ledgerd/internal/authz"
	"github.com/openfolio/ledgerd/internal/platform/db"
	"github.com/openfolio/ledgerd/internal/platform/httpx"
	"github.com/openfolio/ledgerd/internal/shared"
)

// Repository defines persistence operations for principals.
type Repository interface {
	Create(ctx context.Context, p Principal) (*Principal, error)
	Get(ctx context.Context, id int64) (*Principal, error)
	GetByUsername(ctx context.Context, username string) (*Principal, error)
	List(ctx context.Context) ([]Principal, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
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

const principalColumns = `id, username, email, password_hash, role, is_staff, is_superuser, is_active, created_at, updated_at`

// Create inserts a principal and attaches its role-derived bundle in the
// same transaction. A failed bundle write rolls back the principal too.
func (r *PGRepository) Create(ctx context.Context, p Principal) (*Principal, error) {
	var created Principal
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			`INSERT INTO principals (username, email, password_hash, role, is_staff, is_superuser, is_active)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING `+principalColumns,
			p.Username, p.Email, p.PasswordHash, string(p.Role), p.IsStaff, p.IsSuperuser, p.IsActive,
		)
		if err := scanPrincipal(row, &created); err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("%w: username or email already taken", httpx.ErrDuplicate)
			}
			return err
		}
		return r.propagator.AttachRoleBundle(ctx, tx, created.ID, created.Role)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// Get fetches a principal by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Principal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1`, id)
	var p Principal
	if err := scanPrincipal(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: principal %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return &p, nil
}

// GetByUsername fetches a principal by username.
func (r *PGRepository) GetByUsername(ctx context.Context, username string) (*Principal, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+principalColumns+` FROM principals WHERE username = $1`, username)
	var p Principal
	if err := scanPrincipal(row, &p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: principal %q", httpx.ErrNotFound, username)
		}
		return nil, err
	}
	return &p, nil
}

// List returns all principals ordered by id.
func (r *PGRepository) List(ctx context.Context) ([]Principal, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+principalColumns+` FROM principals ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Principal
	for rows.Next() {
		var p Principal
		if err := scanPrincipal(rows, &p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update applies the given column updates.
func (r *PGRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := `UPDATE principals SET updated_at = NOW()`
	var args []any
	argPos := 1
	for _, col := range []string{"email", "password_hash", "is_active"} {
		if v, ok := updates[col]; ok {
			query += fmt.Sprintf(", %s = $%d", col, argPos)
			args = append(args, v)
			argPos++
		}
	}
	query += fmt.Sprintf(" WHERE id = $%d", argPos)
	args = append(args, id)

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("%w: email already taken", httpx.ErrDuplicate)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: principal %d", httpx.ErrNotFound, id)
	}
	return nil
}

// Delete removes a principal. Grants and derived permissions cascade.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM principals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: principal %d", httpx.ErrNotFound, id)
	}
	return nil
}

func scanPrincipal(row pgx.Row, p *Principal) error {
	var role string
	if err := row.Scan(&p.ID, &p.Username, &p.Email, &p.PasswordHash, &role, &p.IsStaff, &p.IsSuperuser, &p.IsActive, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	p.Role = shared.Role(role)
	return nil
}

var _ Repository = (*PGRepository)(nil)
