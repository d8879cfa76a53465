package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"catalog-api/internal/infrastructure/auth"
)

type Mode string

const (
	ModeNone Mode = "none"
	ModeJWT  Mode = "jwt"
	ModeJWKS Mode = "jwks"
)

// CallerRolesHeader carries comma separated role ids when AUTH_MODE=none.
const CallerRolesHeader = "X-Caller-Roles"

func ParseAuthMode(raw string) (Mode, error) {
	mode := Mode(strings.ToLower(strings.TrimSpace(raw)))
	switch mode {
	case "":
		return ModeNone, nil
	case ModeNone, ModeJWT, ModeJWKS:
		return mode, nil
	default:
		return "", fmt.Errorf("invalid auth mode %q", raw)
	}
}

// AuthMiddleware selects how caller roles reach handlers. Token modes delegate
// to bearer; none trusts the X-Caller-Roles header.
func AuthMiddleware(mode Mode, bearer echo.MiddlewareFunc) (echo.MiddlewareFunc, error) {
	switch mode {
	case ModeNone:
		return headerRoles, nil
	case ModeJWT, ModeJWKS:
		if bearer == nil {
			return nil, fmt.Errorf("bearer middleware is required when AUTH_MODE=%s", mode)
		}
		return bearer, nil
	default:
		return nil, fmt.Errorf("invalid auth mode %q", mode)
	}
}

func headerRoles(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		// Proxies such as the API Gateway adapter split "1,2" into separate values.
		raw := strings.Join(c.Request().Header.Values(CallerRolesHeader), ",")
		if raw == "" {
			return next(c)
		}
		roles, err := ParseRoleIDs(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		auth.SetCaller(c, "", roles)
		return next(c)
	}
}

// ParseRoleIDs reads "3, 1,7" into []int64{3, 1, 7}, keeping order. Empty
// entries are skipped.
func ParseRoleIDs(raw string) ([]int64, error) {
	var roles []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid role id %q", part)
		}
		roles = append(roles, id)
	}
	return roles, nil
}
