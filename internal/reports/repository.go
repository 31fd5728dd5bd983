package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openfolio/ledgerd/internal/platform/db"
	"github.com/openfolio/ledgerd/internal/platform/httpx"
	"github.com/openfolio/ledgerd/internal/transactions"
)

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// PrincipalUsername fetches the username for the report header.
func (r *PGRepository) PrincipalUsername(ctx context.Context, principalID int64) (string, error) {
	var username string
	err := r.pool.QueryRow(ctx, `SELECT username FROM principals WHERE id = $1`, principalID).Scan(&username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("%w: principal %d", httpx.ErrNotFound, principalID)
		}
		return "", err
	}
	return username, nil
}

// TransactionsForPrincipal returns transactions on every account the
// principal holds any grant on, bounded by the optional date range.
func (r *PGRepository) TransactionsForPrincipal(ctx context.Context, principalID int64, from, to *time.Time) ([]transactions.Transaction, error) {
	query := `SELECT t.id, t.account_id, t.amount, t.date, t.description
	          FROM transactions t
	          WHERE t.account_id IN (SELECT account_id FROM grants WHERE principal_id = $1)`
	args := []any{principalID}
	argPos := 2
	if from != nil {
		query += fmt.Sprintf(" AND t.date >= $%d", argPos)
		args = append(args, *from)
		argPos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND t.date <= $%d", argPos)
		args = append(args, *to)
		argPos++
	}
	query += " ORDER BY t.date, t.id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []transactions.Transaction
	for rows.Next() {
		var t transactions.Transaction
		var amount pgtype.Numeric
		if err := rows.Scan(&t.ID, &t.AccountID, &amount, &t.Date, &t.Description); err != nil {
			return nil, err
		}
		t.Amount = db.DecimalFromNumeric(amount)
		out = append(out, t)
	}
	return out, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
