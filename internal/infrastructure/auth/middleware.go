package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	contextUserID = "user_id"
	contextRoles  = "caller_roles"
)

// SetCaller stores the authenticated subject and role ids on the request.
func SetCaller(c echo.Context, subject string, roles []int64) {
	c.Set(contextUserID, subject)
	c.Set(contextRoles, roles)
}

// CallerRoles returns the role ids of the caller, or nil when none were set.
func CallerRoles(c echo.Context) []int64 {
	roles, _ := c.Get(contextRoles).([]int64)
	return roles
}

func CallerSubject(c echo.Context) string {
	sub, _ := c.Get(contextUserID).(string)
	return sub
}

// BearerMiddleware validates the Authorization header and exposes the token's
// roles to handlers. Requests without a token pass through with no roles.
type BearerMiddleware struct {
	verifier *Verifier
}

func NewBearerMiddleware(verifier *Verifier) *BearerMiddleware {
	return &BearerMiddleware{verifier: verifier}
}

func (m *BearerMiddleware) Handler(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return next(c)
		}
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		tokenString = strings.TrimSpace(tokenString)
		if !ok || tokenString == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid authorization token"})
		}
		claims, err := m.verifier.Verify(c.Request().Context(), tokenString)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		}
		SetCaller(c, claims.Subject, claims.Roles)
		return next(c)
	}
}
