package application

import (
	"context"
	"time"
)

// ProvisionRun records the outcome of one Ensure invocation.
type ProvisionRun struct {
	TenantKey   string
	WriteAccess bool
	UserPoolID  string
	RoleARN     string
	Err         string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Inconsistency records a directory/registry divergence for operators to
// reconcile by hand.
type Inconsistency struct {
	Org      string
	Username string
	Op       string
	Cause    string
}

// AuditLog persists provisioning runs and detected inconsistencies.
// Recording is best-effort and must never fail the audited operation.
// The Postgres implementation lives in internal/infrastructure/postgres.
type AuditLog interface {
	RecordProvision(ctx context.Context, run ProvisionRun)
	RecordInconsistency(ctx context.Context, inc Inconsistency)
}

// NopAudit discards all audit records.
type NopAudit struct{}

func (NopAudit) RecordProvision(context.Context, ProvisionRun) {}

func (NopAudit) RecordInconsistency(context.Context, Inconsistency) {}
