package transactions

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openfolio/ledgerd/internal/authz"
	"github.com/openfolio/ledgerd/internal/platform/db"
	"github.com/openfolio/ledgerd/internal/platform/httpx"
)

// Repository defines persistence operations for transactions.
type Repository interface {
	Create(ctx context.Context, t Transaction) (*Transaction, error)
	Get(ctx context.Context, id int64) (*Transaction, error)
	List(ctx context.Context, filter authz.Filter) ([]Transaction, error)
	Update(ctx context.Context, id int64, updates map[string]any) error
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const txColumns = `id, account_id, amount, date, description`

// Create inserts a transaction. The date column defaults to NOW() and is
// never written afterwards.
func (r *PGRepository) Create(ctx context.Context, t Transaction) (*Transaction, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO transactions (account_id, amount, description) VALUES ($1, $2, $3)
		 RETURNING `+txColumns,
		t.AccountID, db.NumericFromDecimal(t.Amount), t.Description,
	)
	var created Transaction
	if err := scanTransaction(row, &created); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("%w: referenced account does not exist", httpx.ErrValidation)
		}
		return nil, err
	}
	return &created, nil
}

// Get fetches a transaction by ID.
func (r *PGRepository) Get(ctx context.Context, id int64) (*Transaction, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1`, id)
	var t Transaction
	if err := scanTransaction(row, &t); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: transaction %d", httpx.ErrNotFound, id)
		}
		return nil, err
	}
	return &t, nil
}

// List returns transactions restricted by the scoping filter.
func (r *PGRepository) List(ctx context.Context, filter authz.Filter) ([]Transaction, error) {
	query := `SELECT ` + txColumns + ` FROM transactions`
	var args []any
	if !filter.All {
		if len(filter.AccountIDs) == 0 {
			return nil, nil
		}
		query += ` WHERE account_id = ANY($1)`
		args = append(args, filter.AccountIDs)
	}
	query += ` ORDER BY date DESC, id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := scanTransaction(rows, &t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update applies the given column updates. Date and account are immutable.
func (r *PGRepository) Update(ctx context.Context, id int64, updates map[string]any) error {
	query := `UPDATE transactions SET id = id`
	var args []any
	argPos := 1
	for _, col := range []string{"amount", "description"} {
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
		return fmt.Errorf("%w: transaction %d", httpx.ErrNotFound, id)
	}
	return nil
}

// Delete removes a transaction.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: transaction %d", httpx.ErrNotFound, id)
	}
	return nil
}

func scanTransaction(row pgx.Row, t *Transaction) error {
	var amount pgtype.Numeric
	if err := row.Scan(&t.ID, &t.AccountID, &amount, &t.Date, &t.Description); err != nil {
		return err
	}
	t.Amount = db.DecimalFromNumeric(amount)
	return nil
}

var _ Repository = (*PGRepository)(nil)
