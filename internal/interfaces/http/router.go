package http

import (
	stdhttp "net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

type Middleware struct {
	Auth          echo.MiddlewareFunc
	XRay          echo.MiddlewareFunc
	RequestLogger echo.MiddlewareFunc
}

type Handlers struct {
	Categories *CategoriesHandler
	Products   *ProductsHandler
	Orders     *OrdersHandler
	Users      *UsersHandler
	Roles      *RolesHandler
	// Metrics serves /metrics when set.
	Metrics stdhttp.Handler
}

func newEcho(m Middleware) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	for _, mw := range []echo.MiddlewareFunc{m.XRay, m.RequestLogger, m.Auth} {
		if mw != nil {
			e.Use(mw)
		}
	}
	return e
}

func NewRouter(h Handlers, m Middleware) *echo.Echo {
	e := newEcho(m)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(stdhttp.StatusOK, map[string]string{"status": "ok"})
	})
	if h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.Metrics))
	}

	e.POST("/users/register", h.Users.Register)
	e.POST("/auth/login", h.Users.Login)

	e.GET("/categories", h.Categories.List)
	e.POST("/categories", h.Categories.Create)
	e.POST("/categories/assign", h.Categories.Assign)
	e.POST("/categories/unassign", h.Categories.Unassign)
	e.GET("/categories/:id", h.Categories.Get)
	e.PUT("/categories/:id", h.Categories.Edit)
	e.DELETE("/categories/:id", h.Categories.Delete)
	e.GET("/categories/:name/products", h.Categories.Products)

	e.GET("/products", h.Products.List)
	e.POST("/products", h.Products.Create)
	e.GET("/products/:id", h.Products.Get)
	e.PUT("/products/:id", h.Products.Update)
	e.DELETE("/products/:id", h.Products.Delete)

	e.GET("/orders", h.Orders.List)
	e.POST("/orders", h.Orders.Create)
	e.GET("/orders/:id", h.Orders.Get)
	e.PUT("/orders/:id/status", h.Orders.UpdateStatus)
	e.GET("/users/:id/orders", h.Orders.ListForUser)

	e.GET("/users/:id/roles", h.Roles.List)
	e.POST("/users/:id/roles", h.Roles.Grant)
	e.DELETE("/roles/:id", h.Roles.Revoke)
	return e
}
