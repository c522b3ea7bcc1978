package application_test

import (
	"context"
	"strings"
	"testing"

	"github.com/fomomon/admin/internal/application"
	"github.com/fomomon/admin/internal/domain"
	"github.com/fomomon/admin/internal/infrastructure/memory"
)

type fixture struct {
	directory  *memory.Directory
	federation *memory.Federation
	roles      *memory.Roles
	store      *memory.Store
}

func newFixture() *fixture {
	return &fixture{
		directory:  memory.NewDirectory(),
		federation: memory.NewFederation(),
		roles:      memory.NewRoles(),
		store:      memory.NewStore(),
	}
}

func (f *fixture) providers() application.Providers {
	return application.Providers{
		Directory:  f.directory,
		Federation: f.federation,
		Roles:      f.roles,
		Store:      f.store,
	}
}

func (f *fixture) service(writeAccess bool) *application.Service {
	return application.NewService(f.providers(), application.ServiceConfig{
		App:           "fomomon",
		Type:          "phone",
		Region:        "ap-south-1",
		Bucket:        "fomomon",
		AutoProvision: true,
		WriteAccess:   writeAccess,
	})
}

func TestEnsureCreatesFullChain(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.service(true)

	tenant, err := svc.Ensure(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tenant.UserPoolID == "" || tenant.ClientID == "" || tenant.IdentityPoolID == "" || tenant.RoleARN == "" {
		t.Fatalf("incomplete tenant identity: %+v", tenant)
	}

	provider, clientID, ok := f.federation.Wiring(tenant.IdentityPoolID)
	if !ok {
		t.Fatal("identity pool not created")
	}
	if want := domain.IdentityProviderName("ap-south-1", tenant.UserPoolID); provider != want {
		t.Errorf("identity pool trusts %q, want %q", provider, want)
	}
	if clientID != tenant.ClientID {
		t.Errorf("identity pool trusts client %q, want %q", clientID, tenant.ClientID)
	}

	bound, ok := f.federation.AuthenticatedRole(tenant.IdentityPoolID)
	if !ok || bound != tenant.RoleARN {
		t.Errorf("authenticated role = %q, want %q", bound, tenant.RoleARN)
	}

	trust, ok := f.roles.Trust("fomomon-phone-role")
	if !ok || !strings.Contains(trust, tenant.IdentityPoolID) {
		t.Errorf("trust policy not scoped to identity pool: %s", trust)
	}
	policy, ok := f.roles.Policy("fomomon-phone-role", "fomomon-phone-role-policy")
	if !ok || !strings.Contains(policy, "s3:PutObject") {
		t.Errorf("permission policy missing write grant: %s", policy)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.service(true)

	first, err := svc.Ensure(ctx)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Ensure(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if first != second {
		t.Errorf("repeated ensure returned different identities:\n%+v\n%+v", first, second)
	}
	if n := f.directory.PoolCount(); n != 1 {
		t.Errorf("expected a single user pool, got %d", n)
	}
}

func TestEnsureAppliesWriteAccessChange(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	readOnly := f.service(false)
	first, err := readOnly.Ensure(ctx)
	if err != nil {
		t.Fatal(err)
	}
	policy, _ := f.roles.Policy("fomomon-phone-role", "fomomon-phone-role-policy")
	if strings.Contains(policy, "s3:PutObject") {
		t.Fatalf("read-only provision granted write: %s", policy)
	}
	trustBefore, _ := f.roles.Trust("fomomon-phone-role")

	readWrite := f.service(true)
	second, err := readWrite.Ensure(ctx)
	if err != nil {
		t.Fatal(err)
	}

	policy, _ = f.roles.Policy("fomomon-phone-role", "fomomon-phone-role-policy")
	if !strings.Contains(policy, "s3:PutObject") {
		t.Errorf("write intent not applied to pre-existing role: %s", policy)
	}
	if first.RoleARN != second.RoleARN {
		t.Errorf("role ARN changed across reconciles: %q vs %q", first.RoleARN, second.RoleARN)
	}
	trustAfter, _ := f.roles.Trust("fomomon-phone-role")
	if trustBefore != trustAfter {
		t.Error("trust policy must not change when only write intent changes")
	}
}

func TestEnsureCompletesPartialState(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	// A previous run died after creating only the user pool.
	poolID, err := f.directory.CreateUserPool(ctx, "fomomon-user-pool")
	if err != nil {
		t.Fatal(err)
	}

	tenant, err := f.service(true).Ensure(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tenant.UserPoolID != poolID {
		t.Errorf("existing pool not adopted: got %q, want %q", tenant.UserPoolID, poolID)
	}
	if n := f.directory.PoolCount(); n != 1 {
		t.Errorf("expected the partial pool to be reused, got %d pools", n)
	}
	if tenant.ClientID == "" || tenant.IdentityPoolID == "" || tenant.RoleARN == "" {
		t.Errorf("remaining steps not completed: %+v", tenant)
	}
}

func TestEnsureReassertsClientAuthFlows(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.service(true)

	tenant, err := svc.Ensure(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Ensure(ctx); err != nil {
		t.Fatal(err)
	}

	// Once on create, once re-asserted on the second reconcile.
	if n := f.directory.FlowAsserts(tenant.ClientID); n != 2 {
		t.Errorf("auth flows asserted %d times, want 2", n)
	}
}

func TestEnsureDoesNotRewireExistingIdentityPool(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	// An identity pool from an earlier deployment, wired to a different
	// directory/client pair.
	poolID, err := f.federation.CreateIdentityPool(ctx, "fomomon-identity-pool", "legacy-provider", "legacy-client")
	if err != nil {
		t.Fatal(err)
	}

	tenant, err := f.service(true).Ensure(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tenant.IdentityPoolID != poolID {
		t.Fatalf("existing identity pool not adopted: %q", tenant.IdentityPoolID)
	}

	provider, clientID, _ := f.federation.Wiring(poolID)
	if provider != "legacy-provider" || clientID != "legacy-client" {
		t.Errorf("live identity pool was rewired: provider=%q client=%q", provider, clientID)
	}
}

func TestLookupReturnsNilWhenUnprovisioned(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	tenant, err := f.service(true).Lookup(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tenant != nil {
		t.Errorf("expected nil for unprovisioned tenant, got %+v", tenant)
	}
}

func TestLookupExposesPartialState(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	if _, err := f.directory.CreateUserPool(ctx, "fomomon-user-pool"); err != nil {
		t.Fatal(err)
	}

	tenant, err := f.service(true).Lookup(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tenant == nil {
		t.Fatal("expected partial identity")
	}
	if tenant.UserPoolID == "" {
		t.Error("user pool missing from partial lookup")
	}
	if tenant.ClientID != "" || tenant.RoleARN != "" {
		t.Errorf("unexpected identifiers in partial lookup: %+v", tenant)
	}
}

func TestAuthConfig(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	svc := f.service(true)

	if _, err := svc.AuthConfig(ctx); err == nil {
		t.Fatal("expected error for unprovisioned tenant")
	}

	tenant, err := svc.Ensure(ctx)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := svc.AuthConfig(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UserPoolID != tenant.UserPoolID || cfg.ClientID != tenant.ClientID ||
		cfg.IdentityPoolID != tenant.IdentityPoolID || cfg.Region != "ap-south-1" {
		t.Errorf("unexpected auth config: %+v", cfg)
	}
}

func TestEnsurePublishesLifecycleEvent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	events := &capturingPublisher{}

	svc := application.NewService(f.providers(), application.ServiceConfig{
		App: "fomomon", Type: "phone", Region: "ap-south-1", Bucket: "fomomon",
		WriteAccess: true,
		Events:      events,
	})
	if _, err := svc.Ensure(ctx); err != nil {
		t.Fatal(err)
	}

	if len(events.events) != 1 || events.events[0].Type != application.EventTenantProvisioned {
		t.Errorf("unexpected events: %+v", events.events)
	}
	if events.events[0].TenantKey != "fomomon/phone" {
		t.Errorf("unexpected tenant key: %q", events.events[0].TenantKey)
	}
}

type capturingPublisher struct {
	events []application.Event
}

func (c *capturingPublisher) Publish(_ context.Context, e application.Event) {
	c.events = append(c.events, e)
}
