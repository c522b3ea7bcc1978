package domain_test

import (
	"testing"

	"github.com/fomomon/admin/internal/domain"
)

func TestNormalizeUsername(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Ann Lee", "ann lee"},
		{"  BOB  ", "bob"},
		{"carol", "carol"},
		{"", ""},
	}
	for _, c := range cases {
		if got := domain.NormalizeUsername(c.in); got != c.want {
			t.Errorf("NormalizeUsername(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNewOrgUserRegistry(t *testing.T) {
	reg := domain.NewOrgUserRegistry("fomomon", "acme")
	if reg.BucketRoot != "https://fomomon.s3.amazonaws.com/acme/" {
		t.Errorf("unexpected bucket root: %q", reg.BucketRoot)
	}
	if reg.Org != "acme" {
		t.Errorf("unexpected org: %q", reg.Org)
	}
	if len(reg.Users) != 0 {
		t.Errorf("new registry must start empty, got %d users", len(reg.Users))
	}
	if reg.UpdatedAt == "" {
		t.Error("new registry must carry a timestamp")
	}
}

func TestRegistryUpsertReplacesSameUsername(t *testing.T) {
	reg := domain.NewOrgUserRegistry("fomomon", "acme")
	reg.Upsert(domain.UserRecord{Name: "Ann Lee", Username: "Ann Lee", Password: "first"})
	reg.Upsert(domain.UserRecord{Name: "Ann Lee", Username: "ann lee", Password: "second"})

	if len(reg.Users) != 1 {
		t.Fatalf("expected one entry after re-upsert, got %d", len(reg.Users))
	}
	if reg.Users[0].Username != "ann lee" {
		t.Errorf("username not normalized: %q", reg.Users[0].Username)
	}
	if reg.Users[0].Password != "second" {
		t.Errorf("expected latest password, got %q", reg.Users[0].Password)
	}
}

func TestRegistryUpsertAdvancesTimestamp(t *testing.T) {
	reg := domain.NewOrgUserRegistry("fomomon", "acme")
	reg.UpdatedAt = "2001-01-01T00:00:00.000000Z"
	reg.Upsert(domain.UserRecord{Username: "bob"})
	if reg.UpdatedAt == "2001-01-01T00:00:00.000000Z" {
		t.Error("mutation must refresh updated_at")
	}
}

func TestRegistryRemove(t *testing.T) {
	reg := domain.NewOrgUserRegistry("fomomon", "acme")
	reg.Upsert(domain.UserRecord{Username: "ann lee"})
	reg.Upsert(domain.UserRecord{Username: "bob"})

	if !reg.Remove("Ann Lee") {
		t.Fatal("expected removal of existing entry")
	}
	if len(reg.Users) != 1 || reg.Users[0].Username != "bob" {
		t.Errorf("unexpected remaining entries: %+v", reg.Users)
	}
	if reg.Remove("ann lee") {
		t.Error("removing an absent entry must report false")
	}
}

func TestRegistrySetPassword(t *testing.T) {
	reg := domain.NewOrgUserRegistry("fomomon", "acme")
	reg.Upsert(domain.UserRecord{Username: "ann lee", Password: "old"})

	if !reg.SetPassword("ANN LEE", "new") {
		t.Fatal("expected password update of existing entry")
	}
	got, _ := reg.Find("ann lee")
	if got.Password != "new" {
		t.Errorf("password = %q, want %q", got.Password, "new")
	}
	if reg.SetPassword("nobody", "x") {
		t.Error("updating an absent entry must report false")
	}
}
