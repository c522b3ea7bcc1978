package application

import (
	"github.com/fomomon/admin/internal/domain"
)

// Service holds the provisioning and user-sync use-cases for one app
// deployment (app name + type + bucket).
type Service struct {
	providers Providers
	naming    domain.Naming
	region    string
	bucket    string

	// autoProvision controls whether operations against an unprovisioned
	// tenant trigger a full provision run or fail.
	autoProvision bool
	// writeAccess is the intent applied to the role permission policy on
	// every provision run.
	writeAccess bool

	audit  AuditLog
	events Publisher
	locks  *keyedMutex
}

// ServiceConfig carries the deployment identity and optional collaborators.
type ServiceConfig struct {
	App           string
	Type          string
	Region        string
	Bucket        string
	AutoProvision bool
	WriteAccess   bool

	Audit  AuditLog  // nil → NopAudit
	Events Publisher // nil → NopPublisher
}

// NewService creates the application Service.
func NewService(providers Providers, cfg ServiceConfig) *Service {
	audit := cfg.Audit
	if audit == nil {
		audit = NopAudit{}
	}
	events := cfg.Events
	if events == nil {
		events = NopPublisher{}
	}
	return &Service{
		providers:     providers,
		naming:        domain.Naming{App: cfg.App, Type: cfg.Type},
		region:        cfg.Region,
		bucket:        cfg.Bucket,
		autoProvision: cfg.AutoProvision,
		writeAccess:   cfg.WriteAccess,
		audit:         audit,
		events:        events,
		locks:         newKeyedMutex(),
	}
}

// Naming exposes the derived resource names (used by the HTTP layer for
// diagnostics).
func (s *Service) Naming() domain.Naming { return s.naming }

// Region returns the provider region the service operates in.
func (s *Service) Region() string { return s.region }
