package domain

// TenantIdentity is the complete set of provider resource identifiers for
// one app+type deployment. All four fields are populated after a
// successful provision run; a partially filled value is never returned.
type TenantIdentity struct {
	UserPoolID     string `json:"userPoolId"`
	ClientID       string `json:"clientId"`
	IdentityPoolID string `json:"identityPoolId"`
	RoleARN        string `json:"roleArn"`
}

// AuthConfig is the client-facing subset of TenantIdentity, published to
// the bucket so mobile clients can self-configure.
type AuthConfig struct {
	UserPoolID     string `json:"userPoolId"`
	ClientID       string `json:"clientId"`
	IdentityPoolID string `json:"identityPoolId"`
	Region         string `json:"region"`
}

// PasswordPolicy mirrors the directory's password complexity settings for
// display in the admin UI.
type PasswordPolicy struct {
	MinimumLength    int  `json:"minimumLength"`
	RequireUppercase bool `json:"requireUppercase"`
	RequireLowercase bool `json:"requireLowercase"`
	RequireNumbers   bool `json:"requireNumbers"`
	RequireSymbols   bool `json:"requireSymbols"`
}
