package mw

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// AdminAuth validates the Bearer token on admin API requests. Tokens are
// HS256-signed with the shared admin secret; the "sub" claim identifies
// the operator and is stored in the echo context for logging.
//
// An empty secret disables authentication entirely (local development
// against the in-memory providers).
func AdminAuth(secret string) echo.MiddlewareFunc {
	if secret == "" {
		log.Warn().Msg("admin API authentication disabled: no admin secret configured")
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return next
		}
	}

	key := []byte(secret)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return key, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			if claims, ok := token.Claims.(jwt.MapClaims); ok {
				if sub, _ := claims["sub"].(string); sub != "" {
					c.Set("operator", sub)
				}
			}
			return next(c)
		}
	}
}
