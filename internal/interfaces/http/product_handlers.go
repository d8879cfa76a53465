package http

import (
	stdhttp "net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"catalog-api/internal/application"
	"catalog-api/internal/domain"
)

type ProductsHandler struct {
	service *application.ProductService
}

func NewProductsHandler(service *application.ProductService) *ProductsHandler {
	return &ProductsHandler{service: service}
}

func (h *ProductsHandler) List(c echo.Context) error {
	products, err := h.service.List(c.Request().Context(), callerRoles(c))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, products)
}

func (h *ProductsHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return handleError(c, err)
	}
	product, err := h.service.Get(c.Request().Context(), callerRoles(c), id)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, product)
}

func (h *ProductsHandler) Create(c echo.Context) error {
	var req struct {
		Name        string          `json:"name" validate:"required,max=255"`
		Description *string         `json:"description"`
		Price       decimal.Decimal `json:"price"`
		ImageURI    *string         `json:"image_uri" validate:"omitempty,uri"`
	}
	if err := bind(c, &req); err != nil {
		return handleError(c, err)
	}
	id, err := h.service.Create(c.Request().Context(), callerRoles(c), domain.NewProduct{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURI:    req.ImageURI,
	})
	if err != nil {
		return handleError(c, err)
	}
	return created(c, id)
}

func (h *ProductsHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return handleError(c, err)
	}
	var req struct {
		Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
		Description *string          `json:"description"`
		Price       *decimal.Decimal `json:"price"`
		ImageURI    *string          `json:"image_uri" validate:"omitempty,uri"`
	}
	if err := bind(c, &req); err != nil {
		return handleError(c, err)
	}
	form := domain.UpdateProduct{Name: req.Name, Description: req.Description, Price: req.Price, ImageURI: req.ImageURI}
	if err := h.service.Update(c.Request().Context(), callerRoles(c), id, form); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(stdhttp.StatusNoContent)
}

func (h *ProductsHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return handleError(c, err)
	}
	if err := h.service.Delete(c.Request().Context(), callerRoles(c), id); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(stdhttp.StatusNoContent)
}

type OrdersHandler struct {
	service *application.OrderService
}

func NewOrdersHandler(service *application.OrderService) *OrdersHandler {
	return &OrdersHandler{service: service}
}

// List serves GET /orders. ?status= and ?role= narrow the listing; role wins
// when both are present.
func (h *OrdersHandler) List(c echo.Context) error {
	ctx, roles := c.Request().Context(), callerRoles(c)
	var (
		orders []domain.Order
		err    error
	)
	switch {
	case c.QueryParam("role") != "":
		orders, err = h.service.ListByRoleName(ctx, roles, c.QueryParam("role"))
	case c.QueryParam("status") != "":
		orders, err = h.service.ListByStatus(ctx, roles, c.QueryParam("status"))
	default:
		orders, err = h.service.List(ctx, roles)
	}
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, orders)
}

func (h *OrdersHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return handleError(c, err)
	}
	order, err := h.service.Get(c.Request().Context(), callerRoles(c), id)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, order)
}

func (h *OrdersHandler) ListForUser(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return handleError(c, err)
	}
	orders, err := h.service.ListByUser(c.Request().Context(), callerRoles(c), userID)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, orders)
}

func (h *OrdersHandler) Create(c echo.Context) error {
	var req struct {
		UserID int64           `json:"user_id" validate:"required,gt=0"`
		Status string          `json:"status"`
		Total  decimal.Decimal `json:"total"`
	}
	if err := bind(c, &req); err != nil {
		return handleError(c, err)
	}
	id, err := h.service.Create(c.Request().Context(), callerRoles(c), domain.NewOrder{
		UserID: req.UserID,
		Status: req.Status,
		Total:  req.Total,
	})
	if err != nil {
		return handleError(c, err)
	}
	return created(c, id)
}

func (h *OrdersHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return handleError(c, err)
	}
	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := bind(c, &req); err != nil {
		return handleError(c, err)
	}
	if err := h.service.UpdateStatus(c.Request().Context(), callerRoles(c), id, req.Status); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(stdhttp.StatusNoContent)
}
