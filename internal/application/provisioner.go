package application

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fomomon/admin/internal/domain"
)

// Ensure converges the tenant's full resource chain: user pool, app
// client, identity pool, role, role policy, role binding. Every step is
// individually idempotent (locate before create), so a run aborted
// mid-sequence is completed by the next call. Runs for the same app+type
// are serialized by a keyed mutex.
func (s *Service) Ensure(ctx context.Context) (domain.TenantIdentity, error) {
	unlock := s.locks.Lock(s.naming.Key())
	defer unlock()

	started := time.Now()
	tenant, err := s.ensure(ctx)

	run := ProvisionRun{
		TenantKey:   s.naming.Key(),
		WriteAccess: s.writeAccess,
		UserPoolID:  tenant.UserPoolID,
		RoleARN:     tenant.RoleARN,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}
	if err != nil {
		run.Err = err.Error()
	}
	s.audit.RecordProvision(ctx, run)

	if err != nil {
		return domain.TenantIdentity{}, err
	}

	s.events.Publish(ctx, Event{
		Type:      EventTenantProvisioned,
		TenantKey: s.naming.Key(),
		Payload: map[string]any{
			"userPoolId":     tenant.UserPoolID,
			"identityPoolId": tenant.IdentityPoolID,
			"roleArn":        tenant.RoleARN,
			"writeAccess":    s.writeAccess,
		},
	})
	log.Info().
		Str("tenant", s.naming.Key()).
		Str("user_pool", tenant.UserPoolID).
		Str("role", tenant.RoleARN).
		Bool("write_access", s.writeAccess).
		Msg("tenant resource chain converged")

	return tenant, nil
}

func (s *Service) ensure(ctx context.Context) (domain.TenantIdentity, error) {
	var tenant domain.TenantIdentity

	poolID, err := s.ensureUserPool(ctx)
	if err != nil {
		return tenant, err
	}
	tenant.UserPoolID = poolID

	clientID, err := s.ensureClient(ctx, poolID)
	if err != nil {
		return tenant, err
	}
	tenant.ClientID = clientID

	identityPoolID, err := s.ensureIdentityPool(ctx, poolID, clientID)
	if err != nil {
		return tenant, err
	}
	tenant.IdentityPoolID = identityPoolID

	roleARN, err := s.ensureRole(ctx, identityPoolID)
	if err != nil {
		return tenant, err
	}
	tenant.RoleARN = roleARN

	// Bind the role as the identity pool's authenticated role. This
	// replaces the pool's authenticated-role mapping in full.
	if err := s.providers.Federation.SetAuthenticatedRole(ctx, identityPoolID, roleARN); err != nil {
		return tenant, fmt.Errorf("bind authenticated role: %w", err)
	}

	return tenant, nil
}

func (s *Service) ensureUserPool(ctx context.Context) (string, error) {
	name := s.naming.UserPool()
	id, found, err := s.providers.Directory.FindUserPool(ctx, name)
	if err != nil {
		return "", fmt.Errorf("locate user pool %q: %w", name, err)
	}
	if found {
		return id, nil
	}
	id, err = s.providers.Directory.CreateUserPool(ctx, name)
	if err != nil {
		return "", fmt.Errorf("create user pool %q: %w", name, err)
	}
	log.Info().Str("pool", id).Str("name", name).Msg("user pool created")
	return id, nil
}

func (s *Service) ensureClient(ctx context.Context, poolID string) (string, error) {
	name := s.naming.Client()
	id, found, err := s.providers.Directory.FindClient(ctx, poolID, name)
	if err != nil {
		return "", fmt.Errorf("locate client %q: %w", name, err)
	}
	if found {
		// A pre-existing client may carry a stale flow configuration;
		// re-assert the required set instead of trusting it.
		if err := s.providers.Directory.SetClientAuthFlows(ctx, poolID, id); err != nil {
			return "", fmt.Errorf("re-assert auth flows on client %q: %w", name, err)
		}
		return id, nil
	}
	id, err = s.providers.Directory.CreateClient(ctx, poolID, name)
	if err != nil {
		return "", fmt.Errorf("create client %q: %w", name, err)
	}
	log.Info().Str("client", id).Str("name", name).Msg("app client created")
	return id, nil
}

func (s *Service) ensureIdentityPool(ctx context.Context, userPoolID, clientID string) (string, error) {
	name := s.naming.IdentityPool()
	id, found, err := s.providers.Federation.FindIdentityPool(ctx, name)
	if err != nil {
		return "", fmt.Errorf("locate identity pool %q: %w", name, err)
	}
	if found {
		// An existing pool keeps its trust wiring. Rewiring a live pool
		// to a different directory/client would invalidate credentials
		// already issued to unrelated callers.
		return id, nil
	}
	provider := domain.IdentityProviderName(s.region, userPoolID)
	id, err = s.providers.Federation.CreateIdentityPool(ctx, name, provider, clientID)
	if err != nil {
		return "", fmt.Errorf("create identity pool %q: %w", name, err)
	}
	log.Info().Str("identity_pool", id).Str("name", name).Msg("identity pool created")
	return id, nil
}

func (s *Service) ensureRole(ctx context.Context, identityPoolID string) (string, error) {
	name := s.naming.Role()
	arn, found, err := s.providers.Roles.FindRole(ctx, name)
	if err != nil {
		return "", fmt.Errorf("locate role %q: %w", name, err)
	}
	if !found {
		trust, err := domain.TrustPolicy(identityPoolID).JSON()
		if err != nil {
			return "", err
		}
		arn, err = s.providers.Roles.CreateRole(ctx, name, trust)
		if err != nil {
			return "", fmt.Errorf("create role %q: %w", name, err)
		}
		log.Info().Str("role", arn).Str("name", name).Msg("role created")
	}

	// The permission policy is upserted unconditionally so a changed
	// writeAccess intent reaches pre-existing roles too.
	policy, err := domain.AccessPolicy(s.bucket, s.writeAccess).JSON()
	if err != nil {
		return "", err
	}
	if err := s.providers.Roles.PutRolePolicy(ctx, name, s.naming.RolePolicy(), policy); err != nil {
		return "", fmt.Errorf("upsert permission policy on role %q: %w", name, err)
	}

	return arn, nil
}

// Lookup resolves the tenant's resource identifiers without creating
// anything. Returns nil when the user pool does not exist; the remaining
// identifiers are filled best-effort so partial state stays visible.
func (s *Service) Lookup(ctx context.Context) (*domain.TenantIdentity, error) {
	poolID, found, err := s.providers.Directory.FindUserPool(ctx, s.naming.UserPool())
	if err != nil {
		return nil, fmt.Errorf("locate user pool: %w", err)
	}
	if !found {
		return nil, nil
	}

	tenant := &domain.TenantIdentity{UserPoolID: poolID}

	if id, ok, err := s.providers.Directory.FindClient(ctx, poolID, s.naming.Client()); err != nil {
		return nil, fmt.Errorf("locate client: %w", err)
	} else if ok {
		tenant.ClientID = id
	}

	if id, ok, err := s.providers.Federation.FindIdentityPool(ctx, s.naming.IdentityPool()); err != nil {
		return nil, fmt.Errorf("locate identity pool: %w", err)
	} else if ok {
		tenant.IdentityPoolID = id
	}

	if arn, ok, err := s.providers.Roles.FindRole(ctx, s.naming.Role()); err != nil {
		return nil, fmt.Errorf("locate role: %w", err)
	} else if ok {
		tenant.RoleARN = arn
	}

	return tenant, nil
}

// tenant returns the resolved tenant identity, provisioning it first when
// auto-provisioning is enabled. Operations that need a user pool call
// this instead of re-running the full chain.
func (s *Service) tenant(ctx context.Context) (domain.TenantIdentity, error) {
	existing, err := s.Lookup(ctx)
	if err != nil {
		return domain.TenantIdentity{}, err
	}
	if existing != nil {
		return *existing, nil
	}
	if !s.autoProvision {
		return domain.TenantIdentity{}, fmt.Errorf("tenant %s: %w (auto-provisioning disabled)", s.naming.Key(), domain.ErrNotFound)
	}
	return s.Ensure(ctx)
}

// AuthConfig returns the client-facing auth configuration, or ErrNotFound
// when the tenant is unprovisioned.
func (s *Service) AuthConfig(ctx context.Context) (domain.AuthConfig, error) {
	tenant, err := s.Lookup(ctx)
	if err != nil {
		return domain.AuthConfig{}, err
	}
	if tenant == nil {
		return domain.AuthConfig{}, fmt.Errorf("tenant %s: %w", s.naming.Key(), domain.ErrNotFound)
	}
	return domain.AuthConfig{
		UserPoolID:     tenant.UserPoolID,
		ClientID:       tenant.ClientID,
		IdentityPoolID: tenant.IdentityPoolID,
		Region:         s.region,
	}, nil
}

// PasswordPolicy returns the directory's password complexity settings.
func (s *Service) PasswordPolicy(ctx context.Context) (domain.PasswordPolicy, error) {
	tenant, err := s.tenant(ctx)
	if err != nil {
		return domain.PasswordPolicy{}, err
	}
	return s.providers.Directory.PasswordPolicy(ctx, tenant.UserPoolID)
}
