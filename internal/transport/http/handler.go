package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/fomomon/admin/internal/application"
	"github.com/fomomon/admin/internal/domain"
)

// Handler holds all HTTP handler methods.
type Handler struct {
	svc *application.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *application.Service) *Handler {
	return &Handler{svc: svc}
}

// Health GET /health
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
}

// Orgs GET /api/orgs
func (h *Handler) Orgs(c echo.Context) error {
	orgs, err := h.svc.Orgs(c.Request().Context())
	if err != nil {
		return asHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"orgs": orgs})
}

// AllUsers GET /api/users
func (h *Handler) AllUsers(c echo.Context) error {
	users, err := h.svc.ListUsers(c.Request().Context())
	if err != nil {
		return asHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"users": users})
}

// OrgUsers GET /api/orgs/:org/users
func (h *Handler) OrgUsers(c echo.Context) error {
	org := c.Param("org")
	users, err := h.svc.OrgUsers(c.Request().Context(), org)
	if err != nil {
		return asHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"org": org, "users": users})
}

type userInput struct {
	Org      string `json:"org"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AddUser POST /api/orgs/:org/users
func (h *Handler) AddUser(c echo.Context) error {
	org := c.Param("org")

	var in userInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if in.Org == "" || in.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "org and name are required")
	}
	if !strings.EqualFold(in.Org, org) {
		return echo.NewHTTPError(http.StatusBadRequest, "org mismatch")
	}

	result, err := h.svc.AddUser(c.Request().Context(), application.AddUserInput{
		Org:      org,
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
	})
	if err != nil {
		return asHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "created": result.Created})
}

// DeleteUser DELETE /api/orgs/:org/users/:username
func (h *Handler) DeleteUser(c echo.Context) error {
	if err := h.svc.DeleteUser(c.Request().Context(), c.Param("org"), c.Param("username")); err != nil {
		return asHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

type passwordInput struct {
	Password string `json:"password"`
}

// UpdatePassword PUT /api/orgs/:org/users/:username/password
func (h *Handler) UpdatePassword(c echo.Context) error {
	var in passwordInput
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	err := h.svc.UpdatePassword(c.Request().Context(), c.Param("org"), c.Param("username"), in.Password)
	if err != nil {
		return asHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// Provision POST /api/provision
func (h *Handler) Provision(c echo.Context) error {
	tenant, err := h.svc.Ensure(c.Request().Context())
	if err != nil {
		return asHTTPError(err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// AuthConfig GET /api/auth_config
func (h *Handler) AuthConfig(c echo.Context) error {
	cfg, err := h.svc.AuthConfig(c.Request().Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "app not provisioned")
		}
		return asHTTPError(err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// SyncAuthConfig POST /api/auth_config/sync
func (h *Handler) SyncAuthConfig(c echo.Context) error {
	cfg, err := h.svc.SyncAuthConfig(c.Request().Context())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "app not provisioned")
		}
		return asHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "auth_config": cfg})
}

// PasswordPolicy GET /api/password_policy
func (h *Handler) PasswordPolicy(c echo.Context) error {
	policy, err := h.svc.PasswordPolicy(c.Request().Context())
	if err != nil {
		return asHTTPError(err)
	}
	return c.JSON(http.StatusOK, policy)
}

// GetSites GET /api/orgs/:org/sites
func (h *Handler) GetSites(c echo.Context) error {
	org := c.Param("org")
	doc, found, err := h.svc.Sites(c.Request().Context(), org)
	if err != nil {
		return asHTTPError(err)
	}
	if !found {
		return c.JSON(http.StatusOK, map[string]any{"org": org, "sites_json": nil})
	}
	return c.JSON(http.StatusOK, map[string]any{"org": org, "sites_json": doc})
}

type sitesPayload struct {
	SitesJSON json.RawMessage `json:"sites_json"`
}

// PutSites PUT /api/orgs/:org/sites
func (h *Handler) PutSites(c echo.Context) error {
	var in sitesPayload
	if err := c.Bind(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(in.SitesJSON) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "sites_json is required")
	}
	if err := h.svc.PutSites(c.Request().Context(), c.Param("org"), in.SitesJSON); err != nil {
		return asHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

// UploadGhost POST /api/orgs/:org/ghosts — multipart upload of a site
// reference image.
func (h *Handler) UploadGhost(c echo.Context) error {
	siteID := c.FormValue("site_id")
	if siteID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "site_id is required")
	}
	orientation := c.FormValue("orientation")
	if orientation != "portrait" && orientation != "landscape" {
		return echo.NewHTTPError(http.StatusBadRequest, "orientation must be portrait or landscape")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "image file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read image file")
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "cannot read image file")
	}

	key, relative, err := h.svc.GhostUpload(c.Request().Context(), c.Param("org"), siteID, fileHeader.Filename, content)
	if err != nil {
		return asHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"ok":            true,
		"key":           key,
		"relative_path": relative,
	})
}

// asHTTPError maps domain error classifications onto HTTP statuses.
// Provider rejections keep their original code and message so the admin
// UI can show them verbatim.
func asHTTPError(err error) error {
	var rejected *domain.RejectedError
	if errors.As(err, &rejected) {
		return echo.NewHTTPError(http.StatusBadRequest, rejected.Error())
	}
	var inconsistent *domain.InconsistentError
	if errors.As(err, &inconsistent) {
		return echo.NewHTTPError(http.StatusConflict, inconsistent.Error())
	}
	var unavailable *domain.UnavailableError
	if errors.As(err, &unavailable) {
		return echo.NewHTTPError(http.StatusBadGateway, unavailable.Error())
	}
	if errors.Is(err, domain.ErrNotFound) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
