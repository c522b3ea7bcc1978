package application

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fomomon/admin/internal/domain"
)

const contentTypeJSON = "application/json"

func usersKey(org string) string { return org + "/users.json" }

func sitesKey(org string) string { return org + "/sites.json" }

// loadRegistry returns the org's registry document, initializing an empty
// one when the document does not exist. Absence is not an error.
func (s *Service) loadRegistry(ctx context.Context, org string) (*domain.OrgUserRegistry, error) {
	reg, found, err := s.loadRegistryIfPresent(ctx, org)
	if err != nil {
		return nil, err
	}
	if !found {
		return domain.NewOrgUserRegistry(s.bucket, org), nil
	}
	return reg, nil
}

func (s *Service) loadRegistryIfPresent(ctx context.Context, org string) (*domain.OrgUserRegistry, bool, error) {
	body, found, err := s.providers.Store.GetDocument(ctx, usersKey(org))
	if err != nil {
		return nil, false, fmt.Errorf("load registry for org %q: %w", org, err)
	}
	if !found {
		return nil, false, nil
	}
	var reg domain.OrgUserRegistry
	if err := json.Unmarshal(body, &reg); err != nil {
		return nil, false, fmt.Errorf("decode registry for org %q: %w", org, err)
	}
	return &reg, true, nil
}

// saveRegistry persists the whole document. Last writer wins: the
// per-tenant mutex serializes writers within this process, and the
// registry is advisory, so no conditional write is attempted.
func (s *Service) saveRegistry(ctx context.Context, org string, reg *domain.OrgUserRegistry) error {
	body, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode registry for org %q: %w", org, err)
	}
	if err := s.providers.Store.PutDocument(ctx, usersKey(org), body, contentTypeJSON); err != nil {
		return fmt.Errorf("persist registry for org %q: %w", org, err)
	}
	return nil
}

func (s *Service) ensureOrgPrefix(ctx context.Context, org string) error {
	return s.providers.Store.PutDocument(ctx, org+"/", nil, "")
}

// Orgs lists the org slugs present in the bucket.
func (s *Service) Orgs(ctx context.Context) ([]string, error) {
	return s.providers.Store.ListTopPrefixes(ctx)
}

// Sites returns the org's site configuration document, or found=false
// when none has been uploaded yet. The document is an opaque passthrough.
func (s *Service) Sites(ctx context.Context, org string) (json.RawMessage, bool, error) {
	body, found, err := s.providers.Store.GetDocument(ctx, sitesKey(org))
	if err != nil {
		return nil, false, fmt.Errorf("load sites for org %q: %w", org, err)
	}
	return body, found, nil
}

// PutSites replaces the org's site configuration document.
func (s *Service) PutSites(ctx context.Context, org string, doc json.RawMessage) error {
	if err := s.ensureOrgPrefix(ctx, org); err != nil {
		return fmt.Errorf("ensure org prefix %q: %w", org, err)
	}
	body, err := json.MarshalIndent(json.RawMessage(doc), "", "  ")
	if err != nil {
		return fmt.Errorf("encode sites for org %q: %w", org, err)
	}
	if err := s.providers.Store.PutDocument(ctx, sitesKey(org), body, contentTypeJSON); err != nil {
		return fmt.Errorf("persist sites for org %q: %w", org, err)
	}
	return nil
}

// SyncAuthConfig publishes the tenant's auth configuration to the bucket
// so clients can fetch it without talking to this service.
func (s *Service) SyncAuthConfig(ctx context.Context) (domain.AuthConfig, error) {
	cfg, err := s.AuthConfig(ctx)
	if err != nil {
		return domain.AuthConfig{}, err
	}
	body, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return domain.AuthConfig{}, fmt.Errorf("encode auth config: %w", err)
	}
	if err := s.providers.Store.PutDocument(ctx, "auth_config.json", body, contentTypeJSON); err != nil {
		return domain.AuthConfig{}, fmt.Errorf("persist auth config: %w", err)
	}
	return cfg, nil
}

// GhostUpload stores a site reference image under a sanitized,
// timestamped key that does not collide with existing objects.
// Returns the full object key and the site-relative path.
func (s *Service) GhostUpload(ctx context.Context, org, siteID, filename string, content []byte) (key, relative string, err error) {
	stem, ext := splitExt(filename)
	stamp := time.Now().UTC().Format("20060102T150405")
	base := sanitizeFilename(stem)

	prefix := fmt.Sprintf("%s/%s/", org, siteID)
	existingKeys, err := s.providers.Store.ListKeys(ctx, prefix)
	if err != nil {
		return "", "", fmt.Errorf("list existing images under %q: %w", prefix, err)
	}
	existing := make(map[string]struct{}, len(existingKeys))
	for _, k := range existingKeys {
		existing[k] = struct{}{}
	}

	var candidate string
	for index := 1; ; index++ {
		candidate = fmt.Sprintf("%s-%s-%d%s", stamp, base, index, ext)
		key = prefix + candidate
		if _, taken := existing[key]; !taken {
			break
		}
	}

	if err := s.providers.Store.PutDocument(ctx, key, content, ""); err != nil {
		return "", "", fmt.Errorf("upload image %q: %w", key, err)
	}
	return key, siteID + "/" + candidate, nil
}

var (
	filenameSpaces  = regexp.MustCompile(`\s+`)
	filenameIllegal = regexp.MustCompile(`[^a-z0-9._-]+`)
	filenameDashes  = regexp.MustCompile(`-{2,}`)
)

func sanitizeFilename(name string) string {
	name = filenameSpaces.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	name = filenameIllegal.ReplaceAllString(name, "-")
	name = strings.Trim(filenameDashes.ReplaceAllString(name, "-"), "-")
	if name == "" {
		return "image"
	}
	return name
}

func splitExt(filename string) (stem, ext string) {
	if filename == "" {
		return "image", ""
	}
	if i := strings.LastIndex(filename, "."); i > 0 {
		return filename[:i], filename[i:]
	}
	return filename, ""
}
