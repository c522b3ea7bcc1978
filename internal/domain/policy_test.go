package domain_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/fomomon/admin/internal/domain"
)

func TestTrustPolicyScopesAuthenticatedPrincipals(t *testing.T) {
	doc := domain.TrustPolicy("ap-south-1:1234")

	if len(doc.Statement) != 1 {
		t.Fatalf("expected a single statement, got %d", len(doc.Statement))
	}
	st := doc.Statement[0]
	if st.Principal["Federated"] != "cognito-identity.amazonaws.com" {
		t.Errorf("unexpected principal: %v", st.Principal)
	}
	if st.Action[0] != "sts:AssumeRoleWithWebIdentity" {
		t.Errorf("unexpected action: %v", st.Action)
	}
	if st.Condition["StringEquals"]["cognito-identity.amazonaws.com:aud"] != "ap-south-1:1234" {
		t.Errorf("trust not scoped to identity pool: %v", st.Condition)
	}
	if st.Condition["ForAnyValue:StringLike"]["cognito-identity.amazonaws.com:amr"] != "authenticated" {
		t.Errorf("trust not restricted to authenticated principals: %v", st.Condition)
	}
}

func TestAccessPolicyWriteFlag(t *testing.T) {
	cases := []struct {
		name        string
		writeAccess bool
		wantActions []string
	}{
		{"read only", false, []string{"s3:GetObject"}},
		{"read write", true, []string{"s3:GetObject", "s3:PutObject"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			doc := domain.AccessPolicy("fomomon", c.writeAccess)
			got := doc.Statement[0].Action
			if len(got) != len(c.wantActions) {
				t.Fatalf("actions = %v, want %v", got, c.wantActions)
			}
			for i := range got {
				if got[i] != c.wantActions[i] {
					t.Errorf("actions = %v, want %v", got, c.wantActions)
				}
			}
		})
	}
}

// The store addresses prefix markers by exact key, so the policy must
// carry all three resource variants.
func TestAccessPolicyResourceVariants(t *testing.T) {
	doc := domain.AccessPolicy("fomomon", true)
	want := []string{
		"arn:aws:s3:::fomomon/*",
		"arn:aws:s3:::fomomon",
		"arn:aws:s3:::fomomon/",
	}
	got := doc.Statement[0].Resource
	if len(got) != 3 {
		t.Fatalf("resources = %v, want exactly 3 variants", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("resources = %v, want %v", got, want)
		}
	}
}

func TestPolicyDocumentJSON(t *testing.T) {
	raw, err := domain.AccessPolicy("bucket", false).JSON()
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("policy JSON does not parse: %v", err)
	}
	if decoded["Version"] != "2012-10-17" {
		t.Errorf("unexpected version: %v", decoded["Version"])
	}
	if strings.Contains(raw, "PutObject") {
		t.Error("read-only policy must not grant write")
	}
}
