package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/fomomon/admin/internal/domain"
)

// AddUserInput is the profile + credential for a new org user.
type AddUserInput struct {
	Org      string
	Name     string
	Email    string
	Password string
}

// AddUserResult reports whether the directory entry was created fresh or
// an existing one had its password updated.
type AddUserResult struct {
	Created bool
}

// AddUser creates the directory entry with a permanent credential, then
// mirrors the profile into the org's registry document. A duplicate
// username is not an error: the operation degrades to a password update.
// The directory write is authoritative and happens first; a registry
// failure afterwards is surfaced as *domain.InconsistentError.
func (s *Service) AddUser(ctx context.Context, in AddUserInput) (AddUserResult, error) {
	tenant, err := s.tenant(ctx)
	if err != nil {
		return AddUserResult{}, err
	}

	username := domain.NormalizeUsername(in.Name)
	created := true

	err = s.providers.Directory.CreateUser(ctx, tenant.UserPoolID, username, in.Name, in.Email, in.Password)
	switch {
	case errors.Is(err, domain.ErrAlreadyExists):
		created = false
		if err := s.providers.Directory.SetPassword(ctx, tenant.UserPoolID, username, in.Password); err != nil {
			return AddUserResult{}, fmt.Errorf("update password for existing user %q: %w", username, err)
		}
	case err != nil:
		// Provider rejections (e.g. password policy) pass through with
		// their original classification.
		return AddUserResult{}, fmt.Errorf("create directory user %q: %w", username, err)
	}

	if err := s.ensureOrgPrefix(ctx, in.Org); err != nil {
		return AddUserResult{Created: created}, s.inconsistent(ctx, in.Org, username, "add", err)
	}

	reg, err := s.loadRegistry(ctx, in.Org)
	if err != nil {
		return AddUserResult{Created: created}, s.inconsistent(ctx, in.Org, username, "add", err)
	}
	reg.Upsert(domain.UserRecord{
		Name:     in.Name,
		Email:    in.Email,
		Username: username,
		Password: in.Password,
	})
	if err := s.saveRegistry(ctx, in.Org, reg); err != nil {
		return AddUserResult{Created: created}, s.inconsistent(ctx, in.Org, username, "add", err)
	}

	eventType := EventUserCreated
	if !created {
		eventType = EventUserUpdated
	}
	s.events.Publish(ctx, Event{
		Type:      eventType,
		TenantKey: s.naming.Key(),
		Payload:   map[string]any{"org": in.Org, "username": username, "email": in.Email},
	})
	log.Info().Str("org", in.Org).Str("username", username).Bool("created", created).Msg("user synced")

	return AddUserResult{Created: created}, nil
}

// DeleteUser removes the user from the directory (a missing entry is
// tolerated) and filters it out of the org's registry document.
func (s *Service) DeleteUser(ctx context.Context, org, username string) error {
	tenant, err := s.tenant(ctx)
	if err != nil {
		return err
	}

	username = domain.NormalizeUsername(username)
	if err := s.providers.Directory.DeleteUser(ctx, tenant.UserPoolID, username); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("delete directory user %q: %w", username, err)
		}
		log.Debug().Str("username", username).Msg("directory entry already gone")
	}

	reg, found, err := s.loadRegistryIfPresent(ctx, org)
	if err != nil {
		return s.inconsistent(ctx, org, username, "delete", err)
	}
	if found {
		reg.Remove(username)
		if err := s.saveRegistry(ctx, org, reg); err != nil {
			return s.inconsistent(ctx, org, username, "delete", err)
		}
	}

	s.events.Publish(ctx, Event{
		Type:      EventUserDeleted,
		TenantKey: s.naming.Key(),
		Payload:   map[string]any{"org": org, "username": username},
	})
	return nil
}

// UpdatePassword sets the credential permanently in the directory, then
// refreshes the mirrored credential in the registry entry if one exists.
func (s *Service) UpdatePassword(ctx context.Context, org, username, password string) error {
	tenant, err := s.tenant(ctx)
	if err != nil {
		return err
	}

	username = domain.NormalizeUsername(username)
	if err := s.providers.Directory.SetPassword(ctx, tenant.UserPoolID, username, password); err != nil {
		return fmt.Errorf("set password for %q: %w", username, err)
	}

	reg, found, err := s.loadRegistryIfPresent(ctx, org)
	if err != nil {
		return s.inconsistent(ctx, org, username, "password", err)
	}
	if found {
		reg.SetPassword(username, password)
		if err := s.saveRegistry(ctx, org, reg); err != nil {
			return s.inconsistent(ctx, org, username, "password", err)
		}
	}

	s.events.Publish(ctx, Event{
		Type:      EventPasswordChanged,
		TenantKey: s.naming.Key(),
		Payload:   map[string]any{"org": org, "username": username},
	})
	return nil
}

// ListUsers returns the full directory listing with normalized records.
func (s *Service) ListUsers(ctx context.Context) ([]domain.DirectoryUser, error) {
	tenant, err := s.tenant(ctx)
	if err != nil {
		return nil, err
	}
	return s.providers.Directory.ListUsers(ctx, tenant.UserPoolID)
}

// OrgUsers joins the org's registry entries against the directory
// listing. Matching is by preferred username, then email, then the raw
// directory username; first match wins. Entries with no directory match
// keep a nil Directory so operators can spot orphans.
func (s *Service) OrgUsers(ctx context.Context, org string) ([]domain.MergedUser, error) {
	directoryUsers, err := s.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	reg, found, err := s.loadRegistryIfPresent(ctx, org)
	if err != nil {
		return nil, err
	}
	if !found {
		return []domain.MergedUser{}, nil
	}

	merged := make([]domain.MergedUser, 0, len(reg.Users))
	for _, profile := range reg.Users {
		key := domain.NormalizeUsername(profile.Username)
		if key == "" {
			key = domain.NormalizeUsername(profile.Email)
		}
		merged = append(merged, domain.MergedUser{
			Profile:   profile,
			Directory: matchDirectoryUser(directoryUsers, key),
		})
	}
	return merged, nil
}

func matchDirectoryUser(users []domain.DirectoryUser, key string) *domain.DirectoryUser {
	if key == "" {
		return nil
	}
	for i := range users {
		u := users[i]
		if domain.NormalizeUsername(u.PreferredUsername) == key ||
			domain.NormalizeUsername(u.Email) == key ||
			domain.NormalizeUsername(u.Username) == key {
			return &u
		}
	}
	return nil
}

// inconsistent records and reports a registry divergence after a
// successful directory write.
func (s *Service) inconsistent(ctx context.Context, org, username, op string, cause error) error {
	inc := &domain.InconsistentError{Org: org, Username: username, Err: cause}
	s.audit.RecordInconsistency(ctx, Inconsistency{
		Org:      org,
		Username: username,
		Op:       op,
		Cause:    cause.Error(),
	})
	s.events.Publish(ctx, Event{
		Type:      EventSyncInconsistent,
		TenantKey: s.naming.Key(),
		Payload:   map[string]any{"org": org, "username": username, "op": op, "cause": cause.Error()},
	})
	log.Error().Err(cause).Str("org", org).Str("username", username).Str("op", op).
		Msg("registry diverged from directory")
	return inc
}
