package http

import (
	stdhttp "net/http"

	"github.com/labstack/echo/v4"

	"catalog-api/internal/application"
)

type CategoriesHandler struct {
	service *application.CatalogService
}

func NewCategoriesHandler(service *application.CatalogService) *CategoriesHandler {
	return &CategoriesHandler{service: service}
}

func (h *CategoriesHandler) List(c echo.Context) error {
	views, err := h.service.ListCategories(c.Request().Context(), callerRoles(c))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, views)
}

func (h *CategoriesHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return handleError(c, err)
	}
	view, err := h.service.GetCategory(c.Request().Context(), callerRoles(c), id)
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, view)
}

func (h *CategoriesHandler) Create(c echo.Context) error {
	var req struct {
		Name        string  `json:"name" validate:"required,max=255"`
		Description *string `json:"description"`
	}
	if err := bind(c, &req); err != nil {
		return handleError(c, err)
	}
	id, err := h.service.CreateCategory(c.Request().Context(), callerRoles(c), req.Name, req.Description)
	if err != nil {
		return handleError(c, err)
	}
	return created(c, id)
}

func (h *CategoriesHandler) Edit(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return handleError(c, err)
	}
	var req struct {
		Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
		Description *string `json:"description"`
	}
	if err := bind(c, &req); err != nil {
		return handleError(c, err)
	}
	if err := h.service.EditCategory(c.Request().Context(), callerRoles(c), id, req.Name, req.Description); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(stdhttp.StatusNoContent)
}

func (h *CategoriesHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return handleError(c, err)
	}
	if err := h.service.DeleteCategory(c.Request().Context(), callerRoles(c), id); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(stdhttp.StatusNoContent)
}

type assignmentRequest struct {
	CategoryName string `json:"category_name" validate:"required"`
	ProductName  string `json:"product_name" validate:"required"`
}

func (h *CategoriesHandler) Assign(c echo.Context) error {
	var req assignmentRequest
	if err := bind(c, &req); err != nil {
		return handleError(c, err)
	}
	if err := h.service.AssignProductToCategory(c.Request().Context(), callerRoles(c), req.CategoryName, req.ProductName); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(stdhttp.StatusNoContent)
}

func (h *CategoriesHandler) Unassign(c echo.Context) error {
	var req assignmentRequest
	if err := bind(c, &req); err != nil {
		return handleError(c, err)
	}
	if err := h.service.RemoveProductFromCategory(c.Request().Context(), callerRoles(c), req.CategoryName, req.ProductName); err != nil {
		return handleError(c, err)
	}
	return c.NoContent(stdhttp.StatusNoContent)
}

func (h *CategoriesHandler) Products(c echo.Context) error {
	products, err := h.service.ListProductsInCategory(c.Request().Context(), callerRoles(c), c.Param("name"))
	if err != nil {
		return handleError(c, err)
	}
	return c.JSON(stdhttp.StatusOK, products)
}
