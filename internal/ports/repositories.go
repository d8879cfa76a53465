package ports

import (
	"context"

	"catalog-api/internal/domain"
)

// Store is the transactional CRUD primitive over one entity kind. A false flag
// from GetAll or GetByID means "no data"; it is never reported as an error.
type Store[E any, ID any, N any, U any] interface {
	GetAll(ctx context.Context) ([]E, bool, error)
	GetByID(ctx context.Context, id ID) (E, bool, error)
	Add(ctx context.Context, item N) (ID, error)
	Update(ctx context.Context, id ID, form U) error
	Delete(ctx context.Context, id ID) error
}

type UserStore interface {
	Store[domain.User, int64, domain.NewUser, domain.UpdateUser]
	GetByUsername(ctx context.Context, username string) (domain.User, bool, error)
}

type RoleStore interface {
	Store[domain.Role, int64, domain.NewRole, domain.UpdateRole]
	ListByUser(ctx context.Context, userID int64) ([]domain.Role, bool, error)
}

type ProductStore interface {
	Store[domain.Product, int64, domain.NewProduct, domain.UpdateProduct]
	GetByName(ctx context.Context, name string) (domain.Product, bool, error)
}

type CategoryStore interface {
	Store[domain.Category, int64, domain.NewCategory, domain.UpdateCategory]
	GetByName(ctx context.Context, name string) (domain.Category, bool, error)
}

type ProductCategoryStore interface {
	Store[domain.ProductCategory, domain.ProductCategoryKey, domain.NewProductCategory, domain.UpdateProductCategory]
	ListProductsByCategory(ctx context.Context, categoryID int64) ([]domain.Product, bool, error)
}

type OrderStore interface {
	Store[domain.Order, int64, domain.NewOrder, domain.UpdateOrder]
	ListByUser(ctx context.Context, userID int64) ([]domain.Order, bool, error)
	ListByStatus(ctx context.Context, status string) ([]domain.Order, bool, error)
	ListByRoleName(ctx context.Context, roleName string) ([]domain.Order, bool, error)
}
