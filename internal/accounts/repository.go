package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openfolio/ledgerd/internal/authz"
	"github.com/openfolio/ledgerd/internal/platform/db"
	"github.com/openfolio/ledgerd/internal/platform/httpx"
)

// Repository defines persistence operations for accounts.
type Repository interface {
	Create(ctx context.Context, a Account) (*Account, error)
	Get(ctx context.Context, id int64) (*Account, error)
	List(ctx context.Context, filter authz.Filter) ([]Account, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
	GrantHolders(ctx context.Context, accountID int64) ([]GrantHolder, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Create inserts a new account.
func (r *PGRepository) Create(ctx context.Context, a Account) (*Account, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (name, balance) VALUES ($1, $2)
		 RETURNING id, name, balance, created_at, updated_at`,
		a.Name, db.NumericFromDecimal(a.Balance),
	)
	var created Account
	if err := scanAccount(row, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Get fetches an account by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Account, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, balance, created_at, updated_at FROM accounts WHERE id = $1`, id)
	var a Account
	if err := scanAccount(row, &a); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return &a, nil
}

// List returns accounts restricted by the scoping filter.
func (r *PGRepository) List(ctx context.Context, filter authz.Filter) ([]Account, error) {
	query := `SELECT id, name, balance, created_at, updated_at FROM accounts`
	var args []any
	if !filter.All {
		if len(filter.AccountIDs) == 0 {
			return nil, nil
		}
		query += ` WHERE id = ANY($1)`
		args = append(args, filter.AccountIDs)
	}
	query += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		if err := scanAccount(rows, &a); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update applies the given column updates.
func (r *PGRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := `UPDATE accounts SET updated_at = NOW()`
	var args []any
	argPos := 1
	for _, col := range []string{"name", "balance"} {
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
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %d", httpx.ErrNotFound, id)
	}
	return nil
}

// Delete removes an account. Grants and transactions referencing it cascade.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: account %d", httpx.ErrNotFound, id)
	}
	return nil
}

// GrantHolders lists the grants on an account with the holder's username.
func (r *PGRepository) GrantHolders(ctx context.Context, accountID int64) ([]GrantHolder, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT g.principal_id, p.username, g.level
		 FROM grants g JOIN principals p ON p.id = g.principal_id
		 WHERE g.account_id = $1 ORDER BY g.principal_id`,
		accountID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GrantHolder
	for rows.Next() {
		var h GrantHolder
		if err := rows.Scan(&h.PrincipalID, &h.Username, &h.Level); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func scanAccount(row pgx.Row, a *Account) error {
	var balance pgtype.Numeric
	if err := row.Scan(&a.ID, &a.Name, &balance, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return err
	}
	a.Balance = db.DecimalFromNumeric(balance)
	return nil
}

var _ Repository = (*PGRepository)(nil)
