package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/anonto42/vidtube/backend/internal/auth"
	"github.com/anonto42/vidtube/backend/internal/models"
)

// userContextKey is the echo context key the resolved viewer is stored under.
const userContextKey = "user"

// AccessVerifier resolves an access credential to the account it belongs to.
type AccessVerifier interface {
	VerifyAccess(ctx context.Context, token string) (*models.User, error)
}

// Auth checks for a valid access credential in the accessToken cookie or
// an Authorization bearer header and stores the viewer on the context.
func Auth(sessions AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := tokenFromRequest(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized request")
			}

			user, err := sessions.VerifyAccess(c.Request().Context(), token)
			if errors.Is(err, auth.ErrInvalidToken) {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid access token")
			}
			// A storage outage is not a verdict on the credential.
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, "Could not verify access token").SetInternal(err)
			}

			c.Set(userContextKey, user)
			return next(c)
		}
	}
}

// OptionalAuth resolves the viewer when a valid credential is presented
// but lets the request through anonymously otherwise. Read views use it
// to compute viewer-relative flags without requiring a session.
func OptionalAuth(sessions AccessVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token := tokenFromRequest(c); token != "" {
				if user, err := sessions.VerifyAccess(c.Request().Context(), token); err == nil {
					c.Set(userContextKey, user)
				}
			}
			return next(c)
		}
	}
}

func tokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := c.Request().Header.Get("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// UserFrom returns the viewer stored by Auth, or nil on unauthenticated routes.
func UserFrom(c echo.Context) *models.User {
	user, _ := c.Get(userContextKey).(*models.User)
	return user
}
