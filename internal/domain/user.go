package domain

import (
	"fmt"
	"strings"
	"time"
)

// NormalizeUsername lowercases and trims a username. Every directory and
// registry operation keys on the normalized form.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// UserRecord is one entry in an org's user registry document. The
// registry is an operator-facing mirror: the directory stays
// authoritative for the credential itself.
type UserRecord struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// DirectoryUser is a normalized view of a directory (user pool) entry.
type DirectoryUser struct {
	Username          string `json:"username"`
	Email             string `json:"email"`
	Name              string `json:"name"`
	PreferredUsername string `json:"preferred_username"`
	Status            string `json:"status"`
	Enabled           bool   `json:"enabled"`
}

// MergedUser joins a registry profile with its directory entry, if one
// could be matched.
type MergedUser struct {
	Profile   UserRecord     `json:"profile"`
	Directory *DirectoryUser `json:"cognito"`
}

// OrgUserRegistry is the per-org users.json document. At most one entry
// per normalized username; a missing document reads as an empty registry.
type OrgUserRegistry struct {
	BucketRoot string       `json:"bucket_root"`
	Org        string       `json:"org"`
	Users      []UserRecord `json:"users"`
	UpdatedAt  string       `json:"updated_at"`
}

// NewOrgUserRegistry initializes an empty registry for the org.
func NewOrgUserRegistry(bucket, org string) *OrgUserRegistry {
	return &OrgUserRegistry{
		BucketRoot: fmt.Sprintf("https://%s.s3.amazonaws.com/%s/", bucket, org),
		Org:        org,
		Users:      []UserRecord{},
		UpdatedAt:  nowISO(),
	}
}

// Upsert replaces any entry with the same normalized username, then
// appends the record and refreshes the timestamp.
func (r *OrgUserRegistry) Upsert(u UserRecord) {
	u.Username = NormalizeUsername(u.Username)
	kept := r.Users[:0]
	for _, existing := range r.Users {
		if NormalizeUsername(existing.Username) != u.Username {
			kept = append(kept, existing)
		}
	}
	r.Users = append(kept, u)
	r.UpdatedAt = nowISO()
}

// Remove drops the entry with the given username. Reports whether an
// entry was removed and refreshes the timestamp either way.
func (r *OrgUserRegistry) Remove(username string) bool {
	username = NormalizeUsername(username)
	kept := r.Users[:0]
	removed := false
	for _, u := range r.Users {
		if NormalizeUsername(u.Username) == username {
			removed = true
			continue
		}
		kept = append(kept, u)
	}
	r.Users = kept
	r.UpdatedAt = nowISO()
	return removed
}

// SetPassword updates the mirrored credential of the matching entry.
func (r *OrgUserRegistry) SetPassword(username, password string) bool {
	username = NormalizeUsername(username)
	updated := false
	for i := range r.Users {
		if NormalizeUsername(r.Users[i].Username) == username {
			r.Users[i].Password = password
			updated = true
		}
	}
	r.UpdatedAt = nowISO()
	return updated
}

// Find returns the entry with the given normalized username.
func (r *OrgUserRegistry) Find(username string) (UserRecord, bool) {
	username = NormalizeUsername(username)
	for _, u := range r.Users {
		if NormalizeUsername(u.Username) == username {
			return u, true
		}
	}
	return UserRecord{}, false
}

func nowISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
}
