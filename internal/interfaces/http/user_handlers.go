package http

import (
	stdhttp "net/http"
	"time"

	"github.com/labstack/echo/v4"

	"catalog-api/internal/application"
)

// TokenIssuer signs a session token for an authenticated user.
type TokenIssuer interface {
	Issue(userID int64, roles []int64) (string, time.Time, error)
}

type UsersHandler struct {
	service *application.UserService
	issuer  TokenIssuer
}

// NewUsersHandler builds the register/login handler. issuer may be nil, in
// which case login answers with the user and role ids only.
func NewUsersHandler(service *application.UserService, issuer TokenIssuer) *UsersHandler {
	return &UsersHandler{service: service, issuer: issuer}
}

type credentials struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8,max=256"`
}

func (h *UsersHandler) Register(c echo.Context) error {
	var req credentials
	if err := bind(c, &req); err != nil {
		return handleError(c, err)
	}
	id, err := h.service.Register(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return handleError(c, err)
	}
	return created(c, id)
}

type loginResponse struct {
	UserID    int64      `json:"user_id"`
	Roles     []int64    `json:"roles"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (h *UsersHandler) Login(c echo.Context) error {
	var req struct {
		Username string `json:"username" validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if err := bind(c, &req); err != nil {
		return handleError(c, err)
	}
	user, roles, err := h.service.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return handleError(c, err)
	}
	resp := loginResponse{UserID: user.UserID, Roles: roles}
	if h.issuer != nil {
		token, expires, err := h.issuer.Issue(user.UserID, roles)
		if err != nil {
			return handleError(c, err)
		}
		resp.Token = token
		resp.ExpiresAt = &expires
	}
	return c.JSON(stdhttp.StatusOK, resp)
}

type RolesHandler struct {
	service *application.RoleService
}

func NewRolesHandler(service *application.RoleService) *RolesHandler {
	return &RolesHandler{service: service}
}

func (h *RolesHandler) List(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return handleError(c, err)
	}
	roles, err := h.service.ListForUser(c.Request().Context(), callerRoles(c), userID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, roles)
}

func (h *RolesHandler) Grant(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return handleError(c, err)
	}
	var req struct {
		Name        string  `json:"name" validate:"required,max=255"`
		Description *string `json:"description"`
		Permission  string  `json:"permission" validate:"required"`
	}
	if err := bind(c, &req); err != nil {
		return handleError(c, err)
	}
	id, err := h.service.Grant(c.Request().Context(), callerRoles(c), userID, req.Name, req.Description, req.Permission)
	if err != nil {
		return handleError(c, err)
	}
	return created(c, id)
}

func (h *RolesHandler) Revoke(c echo.Context) error {
	roleID, err := pathID(c, "id")
	if err != nil {
		return handleError(c, err)
	}
	if err := h.service.Revoke(c.Request().Context(), callerRoles(c), roleID); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(stdhttp.StatusNoContent)
}
