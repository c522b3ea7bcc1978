// Package postgres persists the provisioning audit trail. The audit log
// is operational metadata only — tenant resources and the user registry
// live with their providers, never here.
package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/fomomon/admin/internal/application"
)

// Audit is the PostgreSQL implementation of application.AuditLog.
type Audit struct {
	pool *pgxpool.Pool
}

// New creates the audit repository and ensures its schema exists.
func New(ctx context.Context, pool *pgxpool.Pool) (*Audit, error) {
	const schema = `
		CREATE TABLE IF NOT EXISTS provision_runs (
			id UUID PRIMARY KEY,
			tenant_key TEXT NOT NULL,
			write_access BOOLEAN NOT NULL,
			user_pool_id TEXT NOT NULL DEFAULT '',
			role_arn TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS sync_inconsistencies (
			id UUID PRIMARY KEY,
			org TEXT NOT NULL,
			username TEXT NOT NULL,
			op TEXT NOT NULL,
			cause TEXT NOT NULL,
			recorded_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			resolved BOOLEAN NOT NULL DEFAULT FALSE
		);
	`
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, err
	}
	return &Audit{pool: pool}, nil
}

// RecordProvision stores the outcome of one provision run. Best-effort:
// a failed insert is logged, never returned.
func (a *Audit) RecordProvision(ctx context.Context, run application.ProvisionRun) {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO provision_runs (id, tenant_key, write_access, user_pool_id, role_arn, error, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.New(), run.TenantKey, run.WriteAccess, run.UserPoolID, run.RoleARN, run.Err, run.StartedAt, run.FinishedAt)
	if err != nil {
		log.Error().Err(err).Str("tenant", run.TenantKey).Msg("failed to record provision run")
	}
}

// RecordInconsistency stores a directory/registry divergence for manual
// reconciliation.
func (a *Audit) RecordInconsistency(ctx context.Context, inc application.Inconsistency) {
	_, err := a.pool.Exec(ctx, `
		INSERT INTO sync_inconsistencies (id, org, username, op, cause)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.New(), inc.Org, inc.Username, inc.Op, inc.Cause)
	if err != nil {
		log.Error().Err(err).Str("org", inc.Org).Str("username", inc.Username).
			Msg("failed to record sync inconsistency")
	}
}
