package application

import (
	"context"
	"strings"

	"catalog-api/internal/domain"
	"catalog-api/internal/ports"
)

type ProductService struct {
	gate     *AuthorizationGate
	products ports.ProductStore
	logger   ports.Logger
}

func NewProductService(gate *AuthorizationGate, products ports.ProductStore, logger ports.Logger) *ProductService {
	return &ProductService{gate: gate, products: products, logger: logger}
}

func (s *ProductService) List(ctx context.Context, roles []int64) ([]domain.Product, error) {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionRead); err != nil {
		return nil, err
	}
	products, ok, err := s.products.GetAll(ctx)
	if err != nil {
		return nil, storeFailure(ctx, s.logger, "list products", err)
	}
	if !ok {
		return []domain.Product{}, nil
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, roles []int64, productID int64) (domain.Product, error) {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionRead); err != nil {
		return domain.Product{}, err
	}
	product, ok, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return domain.Product{}, storeFailure(ctx, s.logger, "get product", err)
	}
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, roles []int64, product domain.NewProduct) (int64, error) {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionWrite); err != nil {
		return 0, err
	}
	product.Name = strings.TrimSpace(product.Name)
	if product.Name == "" || product.Price.IsNegative() {
		return 0, domain.ErrInvalidInput
	}
	id, err := s.products.Add(ctx, product)
	if err != nil {
		return 0, storeFailure(ctx, s.logger, "create product", err)
	}
	s.logger.Info(ctx, "product created", "product_id", id, "name", product.Name)
	return id, nil
}

func (s *ProductService) Update(ctx context.Context, roles []int64, productID int64, form domain.UpdateProduct) error {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionWrite); err != nil {
		return err
	}
	if form.Name != nil && strings.TrimSpace(*form.Name) == "" {
		return domain.ErrInvalidInput
	}
	if form.Price != nil && form.Price.IsNegative() {
		return domain.ErrInvalidInput
	}
	if err := s.products.Update(ctx, productID, form); err != nil {
		return storeFailure(ctx, s.logger, "update product", err)
	}
	return nil
}

func (s *ProductService) Delete(ctx context.Context, roles []int64, productID int64) error {
	if _, err := s.gate.Authorize(ctx, roles, domain.PermissionWrite); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, productID); err != nil {
		return storeFailure(ctx, s.logger, "delete product", err)
	}
	return nil
}
