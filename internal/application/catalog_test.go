package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"catalog-api/internal/domain"
)

type catalogFixture struct {
	roles      *roleStoreMock
	categories *categoryStoreMock
	products   *productStoreMock
	links      *linkStoreMock
	svc        *CatalogService
}

func newCatalogFixture(levels map[int64]domain.PermissionLevel) catalogFixture {
	f := catalogFixture{
		roles:      new(roleStoreMock),
		categories: new(categoryStoreMock),
		products:   new(productStoreMock),
		links:      new(linkStoreMock),
	}
	withRoles(f.roles, levels)
	gate, _ := newGate(f.roles)
	f.svc = NewCatalogService(gate, f.categories, f.products, f.links, nopLogger{})
	return f
}

func TestCatalogService_ListCategoriesRedactsBelowAdmin(t *testing.T) {
	f := newCatalogFixture(map[int64]domain.PermissionLevel{1: domain.PermissionRead, 2: domain.PermissionAdmin})
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f.categories.On("GetAll", mock.Anything).Return([]domain.Category{
		{CategoryID: 10, Name: "Tea", CreatedAt: now, UpdatedAt: now},
	}, true, nil)

	views, err := f.svc.ListCategories(context.Background(), []int64{1})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Tea", views[0].Name)
	assert.Nil(t, views[0].CategoryID)
	assert.Nil(t, views[0].CreatedAt)
	assert.Nil(t, views[0].UpdatedAt)

	views, err = f.svc.ListCategories(context.Background(), []int64{2})
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.NotNil(t, views[0].CategoryID)
	assert.Equal(t, int64(10), *views[0].CategoryID)
	require.NotNil(t, views[0].CreatedAt)
	assert.True(t, now.Equal(*views[0].CreatedAt))
}

func TestCatalogService_ListCategoriesRedactionFollowsFirstGrantingRole(t *testing.T) {
	f := newCatalogFixture(map[int64]domain.PermissionLevel{1: domain.PermissionRead, 2: domain.PermissionAdmin})
	f.categories.On("GetAll", mock.Anything).Return([]domain.Category{{CategoryID: 10, Name: "Tea"}}, true, nil)

	views, err := f.svc.ListCategories(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	assert.Nil(t, views[0].CategoryID)

	views, err = f.svc.ListCategories(context.Background(), []int64{2, 1})
	require.NoError(t, err)
	assert.NotNil(t, views[0].CategoryID)
}

func TestCatalogService_ListCategoriesEmpty(t *testing.T) {
	f := newCatalogFixture(map[int64]domain.PermissionLevel{1: domain.PermissionRead})
	f.categories.On("GetAll", mock.Anything).Return([]domain.Category(nil), false, nil)

	views, err := f.svc.ListCategories(context.Background(), []int64{1})
	require.NoError(t, err)
	assert.NotNil(t, views)
	assert.Empty(t, views)
}

func TestCatalogService_ListCategoriesDatabaseError(t *testing.T) {
	f := newCatalogFixture(map[int64]domain.PermissionLevel{1: domain.PermissionRead})
	driverErr := errors.New("relation does not exist")
	f.categories.On("GetAll", mock.Anything).Return([]domain.Category(nil), false, domain.NewDatabaseError("category.get_all", driverErr))

	_, err := f.svc.ListCategories(context.Background(), []int64{1})
	assert.ErrorIs(t, err, domain.ErrDatabase)
	assert.NotErrorIs(t, err, driverErr)
}

func TestCatalogService_CreateCategoryNeedsWrite(t *testing.T) {
	f := newCatalogFixture(map[int64]domain.PermissionLevel{1: domain.PermissionRead, 2: domain.PermissionWrite})
	f.categories.On("Add", mock.Anything, domain.NewCategory{Name: "Coffee"}).Return(int64(42), nil)

	_, err := f.svc.CreateCategory(context.Background(), []int64{1}, "Coffee", nil)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	f.categories.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)

	id, err := f.svc.CreateCategory(context.Background(), []int64{1, 2}, "Coffee", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
	f.categories.AssertNumberOfCalls(t, "Add", 1)
}

func TestCatalogService_CreateCategoryRejectsBlankName(t *testing.T) {
	f := newCatalogFixture(map[int64]domain.PermissionLevel{1: domain.PermissionAdmin})

	_, err := f.svc.CreateCategory(context.Background(), []int64{1}, "  ", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	f.categories.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestCatalogService_CreateCategoryWithoutRoles(t *testing.T) {
	f := newCatalogFixture(nil)

	_, err := f.svc.CreateCategory(context.Background(), []int64{}, "Coffee", nil)
	assert.ErrorIs(t, err, domain.ErrPermissionDenied)
	f.roles.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestCatalogService_EditCategoryPassesPartialForm(t *testing.T) {
	f := newCatalogFixture(map[int64]domain.PermissionLevel{1: domain.PermissionWrite})
	name := "Loose leaf"
	f.categories.On("Update", mock.Anything, int64(10), mock.MatchedBy(func(form domain.UpdateCategory) bool {
		return form.Name != nil && *form.Name == name && form.Description == nil
	})).Return(nil)

	err := f.svc.EditCategory(context.Background(), []int64{1}, 10, &name, nil)
	require.NoError(t, err)
	f.categories.AssertExpectations(t)
}

func TestCatalogService_DeleteCategoryIsIdempotent(t *testing.T) {
	f := newCatalogFixture(map[int64]domain.PermissionLevel{1: domain.PermissionWrite})
	f.categories.On("Delete", mock.Anything, int64(10)).Return(nil)

	require.NoError(t, f.svc.DeleteCategory(context.Background(), []int64{1}, 10))
	require.NoError(t, f.svc.DeleteCategory(context.Background(), []int64{1}, 10))
	f.links.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestCatalogService_AssignUnknownProduct(t *testing.T) {
	f := newCatalogFixture(map[int64]domain.PermissionLevel{1: domain.PermissionWrite})
	f.products.On("GetByName", mock.Anything, "Matcha").Return(domain.Product{}, false, nil)

	err := f.svc.AssignProductToCategory(context.Background(), []int64{1}, "Tea", "Matcha")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	f.categories.AssertNotCalled(t, "GetByName", mock.Anything, mock.Anything)
	f.links.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestCatalogService_AssignUnknownCategory(t *testing.T) {
	f := newCatalogFixture(map[int64]domain.PermissionLevel{1: domain.PermissionWrite})
	f.products.On("GetByName", mock.Anything, "Matcha").Return(domain.Product{ProductID: 3, Name: "Matcha"}, true, nil)
	f.categories.On("GetByName", mock.Anything, "Tea").Return(domain.Category{}, false, nil)

	err := f.svc.AssignProductToCategory(context.Background(), []int64{1}, "Tea", "Matcha")
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
	f.links.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
}

func TestCatalogService_AssignAndRemove(t *testing.T) {
	f := newCatalogFixture(map[int64]domain.PermissionLevel{1: domain.PermissionWrite})
	key := domain.ProductCategoryKey{ProductID: 3, CategoryID: 10}
	f.products.On("GetByName", mock.Anything, "Matcha").Return(domain.Product{ProductID: 3, Name: "Matcha"}, true, nil)
	f.categories.On("GetByName", mock.Anything, "Tea").Return(domain.Category{CategoryID: 10, Name: "Tea"}, true, nil)
	f.links.On("Add", mock.Anything, key).Return(key, nil)
	f.links.On("Delete", mock.Anything, key).Return(nil)

	require.NoError(t, f.svc.AssignProductToCategory(context.Background(), []int64{1}, "Tea", "Matcha"))
	require.NoError(t, f.svc.RemoveProductFromCategory(context.Background(), []int64{1}, "Tea", "Matcha"))
	f.links.AssertExpectations(t)
}

func TestCatalogService_GetCategory(t *testing.T) {
	f := newCatalogFixture(map[int64]domain.PermissionLevel{1: domain.PermissionAdmin})
	f.categories.On("GetByID", mock.Anything, int64(10)).Return(domain.Category{CategoryID: 10, Name: "Tea"}, true, nil)
	f.categories.On("GetByID", mock.Anything, int64(11)).Return(domain.Category{}, false, nil)

	view, err := f.svc.GetCategory(context.Background(), []int64{1}, 10)
	require.NoError(t, err)
	require.NotNil(t, view.CategoryID)
	assert.Equal(t, int64(10), *view.CategoryID)

	_, err = f.svc.GetCategory(context.Background(), []int64{1}, 11)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestCatalogService_ListProductsInCategory(t *testing.T) {
	f := newCatalogFixture(map[int64]domain.PermissionLevel{1: domain.PermissionRead})
	f.categories.On("GetByName", mock.Anything, "Tea").Return(domain.Category{CategoryID: 10, Name: "Tea"}, true, nil)
	f.categories.On("GetByName", mock.Anything, "Juice").Return(domain.Category{CategoryID: 12, Name: "Juice"}, true, nil)
	f.categories.On("GetByName", mock.Anything, "Soda").Return(domain.Category{}, false, nil)
	f.links.On("ListProductsByCategory", mock.Anything, int64(10)).Return([]domain.Product{{ProductID: 3, Name: "Matcha"}}, true, nil)
	f.links.On("ListProductsByCategory", mock.Anything, int64(12)).Return([]domain.Product(nil), false, nil)

	products, err := f.svc.ListProductsInCategory(context.Background(), []int64{1}, "Tea")
	require.NoError(t, err)
	assert.Len(t, products, 1)

	products, err = f.svc.ListProductsInCategory(context.Background(), []int64{1}, "Juice")
	require.NoError(t, err)
	assert.Empty(t, products)

	_, err = f.svc.ListProductsInCategory(context.Background(), []int64{1}, "Soda")
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}
