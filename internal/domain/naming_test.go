package domain_test

import (
	"testing"

	"github.com/fomomon/admin/internal/domain"
)

func TestNamingScheme(t *testing.T) {
	n := domain.Naming{App: "fomomon", Type: "phone"}

	cases := []struct {
		got, want string
	}{
		{n.UserPool(), "fomomon-user-pool"},
		{n.Client(), "fomomon-phone-client"},
		{n.IdentityPool(), "fomomon-identity-pool"},
		{n.Role(), "fomomon-phone-role"},
		{n.RolePolicy(), "fomomon-phone-role-policy"},
		{n.Key(), "fomomon/phone"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("got %q, want %q", c.got, c.want)
		}
	}
}

func TestNamingIsDeterministic(t *testing.T) {
	a := domain.Naming{App: "acme", Type: "tablet"}
	b := domain.Naming{App: "acme", Type: "tablet"}
	if a.Role() != b.Role() || a.UserPool() != b.UserPool() {
		t.Fatal("identical inputs must derive identical names")
	}
}

func TestIdentityProviderName(t *testing.T) {
	got := domain.IdentityProviderName("ap-south-1", "ap-south-1_AbCdEf")
	want := "cognito-idp.ap-south-1.amazonaws.com/ap-south-1_AbCdEf"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
