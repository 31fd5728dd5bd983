package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openfolio/ledgerd/internal/authz"
	"github.com/openfolio/ledgerd/internal/platform/db"
	"github.com/openfolio/ledgerd/internal/shared"
)

// GrantIntegrityJob re-derives permission bundles from the source rows.
// Bundles are written in the same transaction as their source, so drift only
// appears after manual data surgery or schema migrations; this sweep is the
// safety net that walks principals and grants and rebuilds what is missing,
// then drops account-scoped rows whose grant is gone.
type GrantIntegrityJob struct {
	pool       *pgxpool.Pool
	propagator authz.Propagator
	logger     *slog.Logger
}

// NewGrantIntegrityJob constructs the job.
func NewGrantIntegrityJob(pool *pgxpool.Pool, logger *slog.Logger) *GrantIntegrityJob {
	return &GrantIntegrityJob{pool: pool, logger: logger}
}

// Handle processes TaskGrantIntegrity tasks.
func (j *GrantIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload GrantIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	drift, err := j.countOrphans(ctx)
	if err != nil {
		return err
	}
	unknown, err := j.countUnknownCodes(ctx)
	if err != nil {
		return err
	}
	if j.logger != nil {
		j.logger.Info("grant integrity sweep",
			slog.Int64("orphaned_rows", drift),
			slog.Int64("unknown_codes", unknown),
			slog.Bool("repair", payload.Repair),
		)
	}
	if !payload.Repair {
		return nil
	}
	return j.Repair(ctx)
}

// knownCodes is the full permission vocabulary; derived rows outside it are
// stale leftovers from an older code set.
func knownCodes() []string {
	return append(authz.AccountScopes(), authz.TransactionScopes()...)
}

// countOrphans counts account-scoped derived rows without a backing grant.
func (j *GrantIntegrityJob) countOrphans(ctx context.Context) (int64, error) {
	var n int64
	err := j.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM derived_permissions dp
		 WHERE dp.account_id IS NOT NULL
		   AND NOT EXISTS (
		     SELECT 1 FROM grants g
		     WHERE g.principal_id = dp.principal_id AND g.account_id = dp.account_id
		   )`,
	).Scan(&n)
	return n, err
}

// countUnknownCodes counts derived rows carrying a code outside the known
// vocabulary.
func (j *GrantIntegrityJob) countUnknownCodes(ctx context.Context) (int64, error) {
	var n int64
	err := j.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM derived_permissions WHERE NOT (code = ANY($1))`,
		knownCodes(),
	).Scan(&n)
	return n, err
}

// Repair rebuilds every bundle and removes orphans and unknown codes, all in
// one transaction.
func (j *GrantIntegrityJob) Repair(ctx context.Context) error {
	return db.WithTx(ctx, j.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`DELETE FROM derived_permissions dp
			 WHERE dp.account_id IS NOT NULL
			   AND NOT EXISTS (
			     SELECT 1 FROM grants g
			     WHERE g.principal_id = dp.principal_id AND g.account_id = dp.account_id
			   )`,
		); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM derived_permissions WHERE NOT (code = ANY($1))`,
			knownCodes(),
		); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `SELECT id, role FROM principals`)
		if err != nil {
			return err
		}
		type principalRow struct {
			id   int64
			role string
		}
		var principalRows []principalRow
		for rows.Next() {
			var p principalRow
			if err := rows.Scan(&p.id, &p.role); err != nil {
				rows.Close()
				return err
			}
			principalRows = append(principalRows, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, p := range principalRows {
			if err := j.propagator.AttachRoleBundle(ctx, tx, p.id, shared.Role(p.role)); err != nil {
				return err
			}
		}

		rows, err = tx.Query(ctx, `SELECT principal_id, account_id, level FROM grants`)
		if err != nil {
			return err
		}
		type grantRow struct {
			principalID int64
			accountID   int64
			level       string
		}
		var grantRows []grantRow
		for rows.Next() {
			var g grantRow
			if err := rows.Scan(&g.principalID, &g.accountID, &g.level); err != nil {
				rows.Close()
				return err
			}
			grantRows = append(grantRows, g)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		for _, g := range grantRows {
			if err := j.propagator.ReplaceGrantBundle(ctx, tx, g.principalID, g.accountID, authz.Level(g.level)); err != nil {
				return err
			}
		}
		return nil
	})
}
