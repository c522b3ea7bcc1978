package http

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/fomomon/admin/internal/transport/mw"
)

// NewRouter sets up all Echo routes and middleware.
func NewRouter(h *Handler, adminSecret string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Health (no auth required)
	e.GET("/health", h.Health)

	// Admin API — requires authentication
	api := e.Group("/api")
	api.Use(mw.AdminAuth(adminSecret))

	api.GET("/orgs", h.Orgs)
	api.GET("/users", h.AllUsers)
	api.GET("/orgs/:org/users", h.OrgUsers)
	api.POST("/orgs/:org/users", h.AddUser)
	api.DELETE("/orgs/:org/users/:username", h.DeleteUser)
	api.PUT("/orgs/:org/users/:username/password", h.UpdatePassword)

	api.POST("/provision", h.Provision)
	api.GET("/auth_config", h.AuthConfig)
	api.POST("/auth_config/sync", h.SyncAuthConfig)
	api.GET("/password_policy", h.PasswordPolicy)

	api.GET("/orgs/:org/sites", h.GetSites)
	api.PUT("/orgs/:org/sites", h.PutSites)
	api.POST("/orgs/:org/ghosts", h.UploadGhost)

	return e
}
