package authz

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/openfolio/ledgerd/internal/shared"
)

// Propagator materializes derived permissions into the derived_permissions
// index. All methods run on the caller's transaction: if a derived write
// fails, the triggering principal or grant write rolls back with it, so no
// row ever exists without its bundle.
//
// Attach operations use ON CONFLICT DO NOTHING. Re-running for the same
// role or level is a no-op, and a race between two requests deriving the
// same bundle resolves at the unique constraint instead of duplicating rows.
type Propagator struct{}

// AttachRoleBundle derives the role's account-level codes for a principal.
func (Propagator) AttachRoleBundle(ctx context.Context, tx pgx.Tx, principalID int64, role shared.Role) error {
	codes := RoleBundle(role)
	if codes == nil {
		return fmt.Errorf("authz: unknown role %q", role)
	}
	for _, code := range codes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO derived_permissions (principal_id, account_id, code) VALUES ($1, NULL, $2)
			 ON CONFLICT (principal_id, account_id, code) DO NOTHING`,
			principalID, code,
		); err != nil {
			return fmt.Errorf("authz: attach role bundle: %w", err)
		}
	}
	return nil
}

// AttachGrantBundle derives a grant level's transaction codes scoped to the
// grant's account.
func (Propagator) AttachGrantBundle(ctx context.Context, tx pgx.Tx, principalID, accountID int64, level Level) error {
	codes := LevelBundle(level)
	if codes == nil {
		return fmt.Errorf("authz: unknown level %q", level)
	}
	for _, code := range codes {
		if _, err := tx.Exec(ctx,
			`INSERT INTO derived_permissions (principal_id, account_id, code) VALUES ($1, $2, $3)
			 ON CONFLICT (principal_id, account_id, code) DO NOTHING`,
			principalID, accountID, code,
		); err != nil {
			return fmt.Errorf("authz: attach grant bundle: %w", err)
		}
	}
	return nil
}

// ReplaceGrantBundle re-derives the account-scoped bundle after a grant
// level change. Runs in the same transaction as the grant update so a
// downgraded grant can never leave its old elevated codes behind.
func (p Propagator) ReplaceGrantBundle(ctx context.Context, tx pgx.Tx, principalID, accountID int64, level Level) error {
	if err := p.DetachGrantBundle(ctx, tx, principalID, accountID); err != nil {
		return err
	}
	return p.AttachGrantBundle(ctx, tx, principalID, accountID, level)
}

// DetachGrantBundle removes the account-scoped derived rows for a pair.
func (Propagator) DetachGrantBundle(ctx context.Context, tx pgx.Tx, principalID, accountID int64) error {
	if _, err := tx.Exec(ctx,
		`DELETE FROM derived_permissions WHERE principal_id = $1 AND account_id = $2`,
		principalID, accountID,
	); err != nil {
		return fmt.Errorf("authz: detach grant bundle: %w", err)
	}
	return nil
}
