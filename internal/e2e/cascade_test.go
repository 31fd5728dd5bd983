// Package e2e exercises the live stack. Tests skip unless the environment
// provides the backing services.
package e2e

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	_ "github.com/openfolio/ledgerd/testing"
)

// testPool connects to the database named by LEDGERD_TEST_PG_DSN, which must
// already carry the db/schema.sql constraints.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("LEDGERD_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("LEDGERD_TEST_PG_DSN not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))
	return pool
}

func createPrincipal(t *testing.T, pool *pgxpool.Pool) int64 {
	t.Helper()
	name := "cascade-" + uuid.NewString()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO principals (username, email, password_hash) VALUES ($1, $2, 'x') RETURNING id`,
		name, name+"@example.com",
	).Scan(&id)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM principals WHERE id = $1`, id)
	})
	return id
}

func createAccount(t *testing.T, pool *pgxpool.Pool) int64 {
	t.Helper()
	var id int64
	err := pool.QueryRow(context.Background(),
		`INSERT INTO accounts (name) VALUES ($1) RETURNING id`,
		"cascade-"+uuid.NewString(),
	).Scan(&id)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM accounts WHERE id = $1`, id)
	})
	return id
}

func createGrant(t *testing.T, pool *pgxpool.Pool, principalID, accountID int64, level string) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO grants (principal_id, account_id, level) VALUES ($1, $2, $3)`,
		principalID, accountID, level,
	)
	require.NoError(t, err)
	_, err = pool.Exec(context.Background(),
		`INSERT INTO derived_permissions (principal_id, account_id, code) VALUES ($1, $2, 'transaction.view')
		 ON CONFLICT (principal_id, account_id, code) DO NOTHING`,
		principalID, accountID,
	)
	require.NoError(t, err)
}

func createTransaction(t *testing.T, pool *pgxpool.Pool, accountID int64) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO transactions (account_id, amount) VALUES ($1, 1.00)`,
		accountID,
	)
	require.NoError(t, err)
}

func countRows(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func TestDeleteAccountCascadesGrantsAndTransactions(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	p1 := createPrincipal(t, pool)
	p2 := createPrincipal(t, pool)
	doomed := createAccount(t, pool)
	survivor := createAccount(t, pool)

	createGrant(t, pool, p1, doomed, "crud")
	createGrant(t, pool, p2, doomed, "view")
	createGrant(t, pool, p1, survivor, "view")
	createTransaction(t, pool, doomed)
	createTransaction(t, pool, doomed)
	createTransaction(t, pool, survivor)

	_, err := pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, doomed)
	require.NoError(t, err)

	require.Zero(t, countRows(t, pool, `SELECT COUNT(*) FROM grants WHERE account_id = $1`, doomed))
	require.Zero(t, countRows(t, pool, `SELECT COUNT(*) FROM transactions WHERE account_id = $1`, doomed))
	require.Zero(t, countRows(t, pool, `SELECT COUNT(*) FROM derived_permissions WHERE account_id = $1`, doomed))

	// Unrelated rows stay put.
	require.EqualValues(t, 1, countRows(t, pool, `SELECT COUNT(*) FROM grants WHERE account_id = $1`, survivor))
	require.EqualValues(t, 1, countRows(t, pool, `SELECT COUNT(*) FROM transactions WHERE account_id = $1`, survivor))
	require.EqualValues(t, 1, countRows(t, pool, `SELECT COUNT(*) FROM principals WHERE id = $1`, p1))
	require.EqualValues(t, 1, countRows(t, pool, `SELECT COUNT(*) FROM principals WHERE id = $1`, p2))
}

func TestDeletePrincipalCascadesGrants(t *testing.T) {
	pool := testPool(t)
	ctx := context.Background()

	doomed := createPrincipal(t, pool)
	survivor := createPrincipal(t, pool)
	account := createAccount(t, pool)

	createGrant(t, pool, doomed, account, "crud")
	createGrant(t, pool, survivor, account, "view")
	createTransaction(t, pool, account)

	_, err := pool.Exec(ctx, `DELETE FROM principals WHERE id = $1`, doomed)
	require.NoError(t, err)

	require.Zero(t, countRows(t, pool, `SELECT COUNT(*) FROM grants WHERE principal_id = $1`, doomed))
	require.Zero(t, countRows(t, pool, `SELECT COUNT(*) FROM derived_permissions WHERE principal_id = $1`, doomed))

	// The other principal's grant, the account and its transactions survive.
	require.EqualValues(t, 1, countRows(t, pool, `SELECT COUNT(*) FROM grants WHERE principal_id = $1`, survivor))
	require.EqualValues(t, 1, countRows(t, pool, `SELECT COUNT(*) FROM accounts WHERE id = $1`, account))
	require.EqualValues(t, 1, countRows(t, pool, `SELECT COUNT(*) FROM transactions WHERE account_id = $1`, account))
}
