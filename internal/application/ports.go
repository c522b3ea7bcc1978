package application

import (
	"context"

	"github.com/fomomon/admin/internal/domain"
)

// The four provider capabilities the reconciler consumes. Default
// implementations live in internal/infrastructure; in-memory fakes in
// internal/infrastructure/memory.
//
// Locate calls return found=false for a clean miss. A transport failure
// is always an error — it is never collapsed into "not found".

// IdentityDirectory is the authoritative store of user logins and
// credentials (a user pool and its app clients).
type IdentityDirectory interface {
	// FindUserPool pages the full pool listing and matches on exact name.
	FindUserPool(ctx context.Context, name string) (id string, found bool, err error)
	CreateUserPool(ctx context.Context, name string) (id string, err error)

	// FindClient pages the pool's client listing and matches on exact name.
	FindClient(ctx context.Context, poolID, name string) (id string, found bool, err error)
	// CreateClient creates a client with the required auth flows and no secret.
	CreateClient(ctx context.Context, poolID, name string) (id string, err error)
	// SetClientAuthFlows re-asserts the required auth flow set on an
	// existing client.
	SetClientAuthFlows(ctx context.Context, poolID, clientID string) error

	// ListUsers pages the full user listing and returns normalized records.
	ListUsers(ctx context.Context, poolID string) ([]domain.DirectoryUser, error)
	// CreateUser creates the entry with the credential set permanently.
	// Returns domain.ErrAlreadyExists when the username is taken.
	CreateUser(ctx context.Context, poolID, username, name, email, password string) error
	// SetPassword sets the credential permanently (no forced reset).
	SetPassword(ctx context.Context, poolID, username, password string) error
	// DeleteUser removes the entry. Returns domain.ErrNotFound when absent.
	DeleteUser(ctx context.Context, poolID, username string) error

	PasswordPolicy(ctx context.Context, poolID string) (domain.PasswordPolicy, error)
}

// FederatedIdentity issues temporary scoped credentials to authenticated
// directory users (an identity pool).
type FederatedIdentity interface {
	FindIdentityPool(ctx context.Context, name string) (id string, found bool, err error)
	// CreateIdentityPool creates the pool trusting the given directory
	// provider + client pair. Unauthenticated identities stay disabled.
	CreateIdentityPool(ctx context.Context, name, providerName, clientID string) (id string, err error)
	// SetAuthenticatedRole replaces the pool's authenticated-role mapping.
	SetAuthenticatedRole(ctx context.Context, poolID, roleARN string) error
}

// RolePolicy manages the IAM role and its attached policies.
type RolePolicy interface {
	FindRole(ctx context.Context, name string) (arn string, found bool, err error)
	CreateRole(ctx context.Context, name, trustJSON string) (arn string, err error)
	// PutRolePolicy upserts the named inline policy, replacing any
	// previous document in full.
	PutRolePolicy(ctx context.Context, roleName, policyName, policyJSON string) error
}

// ObjectStore is the bucket holding per-org registry documents, site
// configuration and reference imagery.
type ObjectStore interface {
	// GetDocument returns found=false for a missing key.
	GetDocument(ctx context.Context, key string) (body []byte, found bool, err error)
	PutDocument(ctx context.Context, key string, body []byte, contentType string) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
	// ListTopPrefixes returns the top-level prefixes (org slugs), sorted.
	ListTopPrefixes(ctx context.Context) ([]string, error)
}

// Providers bundles the four capabilities. Constructed once in main and
// passed into the service — no package-level provider clients.
type Providers struct {
	Directory  IdentityDirectory
	Federation FederatedIdentity
	Roles      RolePolicy
	Store      ObjectStore
}
