package domain

import "fmt"

// Naming derives the provider-side resource names for one app deployment.
// Names are the only idempotency key the provisioner has: every lookup
// matches on exact name equality, so the scheme must stay stable forever.
type Naming struct {
	App  string // application name, e.g. "fomomon"
	Type string // deployment type, e.g. "phone"
}

// UserPool returns the identity directory (user pool) name.
func (n Naming) UserPool() string {
	return n.App + "-user-pool"
}

// Client returns the application client name within the user pool.
func (n Naming) Client() string {
	return fmt.Sprintf("%s-%s-client", n.App, n.Type)
}

// IdentityPool returns the federated identity pool name.
func (n Naming) IdentityPool() string {
	return n.App + "-identity-pool"
}

// Role returns the IAM role name bound to authenticated identities.
func (n Naming) Role() string {
	return fmt.Sprintf("%s-%s-role", n.App, n.Type)
}

// RolePolicy returns the name of the inline permission policy on the role.
func (n Naming) RolePolicy() string {
	return n.Role() + "-policy"
}

// Key returns the serialization key for this app+type pair. Provision
// runs for the same key must not overlap.
func (n Naming) Key() string {
	return n.App + "/" + n.Type
}

// IdentityProviderName returns the user-pool provider name the identity
// pool trusts, as the federation service expects it.
func IdentityProviderName(region, userPoolID string) string {
	return fmt.Sprintf("cognito-idp.%s.amazonaws.com/%s", region, userPoolID)
}
