package application

import (
	"context"
	"strings"

	"catalog-api/internal/domain"
	"catalog-api/internal/ports"
)

type CatalogService struct {
	gate       *AuthorizationGate
	categories ports.CategoryStore
	products   ports.ProductStore
	links      ports.ProductCategoryStore
	logger     ports.Logger
}

func NewCatalogService(gate *AuthorizationGate, categories ports.CategoryStore, products ports.ProductStore, links ports.ProductCategoryStore, logger ports.Logger) *CatalogService {
	return &CatalogService{gate: gate, categories: categories, products: products, links: links, logger: logger}
}

// ListCategories returns every category. Callers granted below admin get
// views without ids or timestamps.
func (s *CatalogService) ListCategories(ctx context.Context, roles []int64) ([]domain.CategoryView, error) {
	granted, err := s.gate.Authorize(ctx, roles, domain.PermissionRead)
	if err != nil {
		return nil, err
	}
	categories, ok, err := s.categories.GetAll(ctx)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "list categories", err)
	}
	views := make([]domain.CategoryView, 0, len(categories))
	if !ok {
		return views, nil
	}
	for _, c := range categories {
		views = append(views, categoryView(c, granted))
	}
	return views, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, roles []int64, categoryID int64) (domain.CategoryView, error) {
	granted, err := s.gate.Authorize(ctx, roles, domain.PermissionRead)
	if err != nil {
		return domain.CategoryView{}, err
	}
	category, ok, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return domain.CategoryView{}, storeFailure(ctx, s.logger, "get category", err)
	}
	if !ok {
		return domain.CategoryView{}, domain.ErrCategoryNotFound
	}
	return categoryView(category, granted), nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, roles []int64, name string, description *string) (int64, error) {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionWrite); err != nil {
		return 0, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.ErrInvalidInput
	}
	id, err := s.categories.Add(ctx, domain.NewCategory{Name: name, Description: description})
	if err != nil {
		return 0, storeFailure(ctx, s.logger, "create category", err)
	}
	s.logger.Info(ctx, "category created", "category_id", id, "name", name)
	return id, nil
}

func (s *CatalogService) EditCategory(ctx context.Context, roles []int64, categoryID int64, name, description *string) error {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionWrite); err != nil {
		return err
	}
	if name != nil && strings.TrimSpace(*name) == "" {
		return domain.ErrInvalidInput
	}
	if err := s.categories.Update(ctx, categoryID, domain.UpdateCategory{Name: name, Description: description}); err != nil {
		return storeFailure(ctx, s.logger, "edit category", err)
	}
	return nil
}

// DeleteCategory removes the category row only; links pointing at it stay.
func (s *CatalogService) DeleteCategory(ctx context.Context, roles []int64, categoryID int64) error {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionWrite); err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, categoryID); err != nil {
		return storeFailure(ctx, s.logger, "delete category", err)
	}
	return nil
}

func (s *CatalogService) AssignProductToCategory(ctx context.Context, roles []int64, categoryName, productName string) error {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionWrite); err != nil {
		return err
	}
	key, err := s.linkKey(ctx, categoryName, productName)
	if err != nil {
		return err
	}
	if _, err := s.links.Add(ctx, key); err != nil {
		return storeFailure(ctx, s.logger, "assign product", err)
	}
	return nil
}

func (s *CatalogService) RemoveProductFromCategory(ctx context.Context, roles []int64, categoryName, productName string) error {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionWrite); err != nil {
		return err
	}
	key, err := s.linkKey(ctx, categoryName, productName)
	if err != nil {
		return err
	}
	if err := s.links.Delete(ctx, key); err != nil {
		return storeFailure(ctx, s.logger, "remove product", err)
	}
	return nil
}

func (s *CatalogService) ListProductsInCategory(ctx context.Context, roles []int64, categoryName string) ([]domain.Product, error) {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionRead); err != nil {
		return nil, err
	}
	category, ok, err := s.categories.GetByName(ctx, categoryName)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "list category products", err)
	}
	if !ok {
		return nil, domain.ErrCategoryNotFound
	}
	products, ok, err := s.links.ListProductsByCategory(ctx, category.CategoryID)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "list category products", err)
	}
	if !ok {
		return []domain.Product{}, nil
	}
	return products, nil
}

// linkKey resolves the product first, then the category. The first miss wins.
func (s *CatalogService) linkKey(ctx context.Context, categoryName, productName string) (domain.ProductCategoryKey, error) {
	product, ok, err := s.products.GetByName(ctx, productName)
	if err != nil {
		return domain.ProductCategoryKey{}, storeFailure(ctx, s.logger, "lookup product", err)
	}
	if !ok {
		return domain.ProductCategoryKey{}, domain.ErrProductNotFound
	}
	category, ok, err := s.categories.GetByName(ctx, categoryName)
	if err != nil {
		return domain.ProductCategoryKey{}, storeFailure(ctx, s.logger, "lookup category", err)
	}
	if !ok {
		return domain.ProductCategoryKey{}, domain.ErrCategoryNotFound
	}
	return domain.ProductCategoryKey{ProductID: product.ProductID, CategoryID: category.CategoryID}, nil
}

func categoryView(c domain.Category, granted domain.PermissionLevel) domain.CategoryView {
	view := domain.NewCategoryView(c)
	if granted != domain.PermissionAdmin {
		view.Redact()
	}
	return view
}

func storeFailure(ctx context.Context, logger ports.Logger, op string, err error) error {
	logger.Error(ctx, op+" failed", "error", err)
	return domain.Reissue(op, err)
}
